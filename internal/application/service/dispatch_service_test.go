package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/testutil"
	"github.com/sangkips/order-reconciler/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDispatchService(client *testutil.FakeCourierClient) (*DispatchService, *testutil.OrderStore) {
	store := testutil.NewOrderStore()
	clients := map[enum.Courier]CourierClient{enum.CourierRedx: client}
	return NewDispatchService(store, clients, zap.NewNop()), store
}

func TestSendToCourier_StoresConsignment(t *testing.T) {
	client := &testutil.FakeCourierClient{ConsignmentID: "RDX-123"}
	svc, store := newDispatchService(client)
	order := testutil.Order("INV-1", enum.OrderStatusRedx, testutil.Line("P1", "S1", 1, "900"))
	store.Seed(order)

	updated, err := svc.SendToCourier(context.Background(), order.ID, &DispatchInput{Area: "Mirpur", AreaID: 12})
	require.NoError(t, err)

	assert.Equal(t, "RDX-123", updated.ConsignmentID)
	assert.Equal(t, []uuid.UUID{order.ID}, client.Dispatched)
	stored := store.Get(order.ID)
	assert.Equal(t, "RDX-123", stored.ConsignmentID)
	assert.Equal(t, enum.LogisticStatusRedx, stored.LogisticStatus)
	assert.Equal(t, stored.Version, updated.Version)
}

func TestSendToCourier_UpstreamFailureChangesNothing(t *testing.T) {
	client := &testutil.FakeCourierClient{Err: errors.New("connection refused")}
	svc, store := newDispatchService(client)
	order := testutil.Order("INV-1", enum.OrderStatusRedx)
	store.Seed(order)

	_, err := svc.SendToCourier(context.Background(), order.ID, &DispatchInput{Area: "Mirpur", AreaID: 12})
	assert.True(t, apperror.IsKind(err, apperror.KindUpstreamUnavailable))

	stored := store.Get(order.ID)
	assert.Empty(t, stored.ConsignmentID)
	assert.Equal(t, 1, stored.Version)
}

func TestSendToCourier_Rejections(t *testing.T) {
	client := &testutil.FakeCourierClient{ConsignmentID: "RDX-1"}
	svc, store := newDispatchService(client)
	pending := testutil.Order("INV-1", enum.OrderStatusPending)
	steadfast := testutil.Order("INV-2", enum.OrderStatusSteadfast)
	store.Seed(pending, steadfast)
	ctx := context.Background()

	_, err := svc.SendToCourier(ctx, pending.ID, &DispatchInput{Area: "Mirpur", AreaID: 12})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.SendToCourier(ctx, steadfast.ID, &DispatchInput{Area: "Mirpur", AreaID: 12})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.SendToCourier(ctx, pending.ID, &DispatchInput{})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.SendToCourier(ctx, uuid.New(), &DispatchInput{Area: "Mirpur", AreaID: 12})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	assert.Empty(t, client.Dispatched)
}

func TestSendToCourier_LostRaceIsReported(t *testing.T) {
	client := &testutil.FakeCourierClient{ConsignmentID: "RDX-9"}
	svc, store := newDispatchService(client)
	order := testutil.Order("INV-1", enum.OrderStatusRedx)
	store.Seed(order)

	store.BeforeWrite = func(id uuid.UUID) {
		store.BeforeWrite = nil
		moved := store.Get(id)
		moved.Status = enum.OrderStatusCancel
		_, _ = store.UpdateIfVersion(context.Background(), moved)
	}

	_, err := svc.SendToCourier(context.Background(), order.ID, &DispatchInput{Area: "Mirpur", AreaID: 12})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	assert.Empty(t, store.Get(order.ID).ConsignmentID)
}

func TestCourierStatus(t *testing.T) {
	client := &testutil.FakeCourierClient{Status: "delivered"}
	svc, _ := newDispatchService(client)
	ctx := context.Background()

	status, err := svc.CourierStatus(ctx, enum.CourierRedx, "RDX-1")
	require.NoError(t, err)
	assert.Equal(t, "delivered", status)

	_, err = svc.CourierStatus(ctx, enum.CourierRedx, " ")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.CourierStatus(ctx, enum.CourierPathaow, "PTH-1")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	client.Err = errors.New("timeout")
	_, err = svc.CourierStatus(ctx, enum.CourierRedx, "RDX-1")
	assert.True(t, apperror.IsKind(err, apperror.KindUpstreamUnavailable))
}

// statusOnlyClient books parcels but cannot list areas.
type statusOnlyClient struct{}

func (statusOnlyClient) Dispatch(context.Context, *entity.Order, string, int) (string, error) {
	return "PTH-1", nil
}

func (statusOnlyClient) FetchStatus(context.Context, string) (string, error) {
	return "delivered", nil
}

func TestCourierAreas(t *testing.T) {
	client := &testutil.FakeCourierClient{AreaList: []entity.CourierArea{{ID: 12, Name: "Mirpur"}}}
	svc := NewDispatchService(testutil.NewOrderStore(), map[enum.Courier]CourierClient{
		enum.CourierRedx:    client,
		enum.CourierPathaow: statusOnlyClient{},
	}, zap.NewNop())
	ctx := context.Background()

	areas, err := svc.CourierAreas(ctx, enum.CourierRedx, "Dhaka")
	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Equal(t, 12, areas[0].ID)

	_, err = svc.CourierAreas(ctx, enum.CourierRedx, "  ")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.CourierAreas(ctx, enum.CourierPathaow, "Dhaka")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = svc.CourierAreas(ctx, enum.CourierSteadfast, "Dhaka")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	client.Err = errors.New("timeout")
	_, err = svc.CourierAreas(ctx, enum.CourierRedx, "Dhaka")
	assert.True(t, apperror.IsKind(err, apperror.KindUpstreamUnavailable))
}
