package service

import (
	"context"
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

type reconcileFixture struct {
	orders  *testutil.OrderStore
	reports *testutil.PaymentReportStore
	svc     *ReconciliationService
}

func newReconcileFixture(t *testing.T, clearMatched bool) *reconcileFixture {
	t.Helper()
	f := &reconcileFixture{
		orders:  testutil.NewOrderStore(),
		reports: testutil.NewPaymentReportStore(),
	}
	f.svc = NewReconciliationService(f.orders, f.reports, zap.NewNop(), clearMatched)
	return f
}

func (f *reconcileFixture) seedOrder(invoice string, status enum.OrderStatus, ls enum.LogisticStatus) *entity.Order {
	o := testutil.Order(invoice, status, testutil.Line("P1", "S1", 1, "500"))
	o.LogisticStatus = ls
	f.orders.Seed(o)
	return o
}

func (f *reconcileFixture) report(t *testing.T, rows ...entity.PaymentReportRow) {
	t.Helper()
	require.NoError(t, f.reports.Append(context.Background(), rows))
}

func TestReconcile_DecisionTable(t *testing.T) {
	tests := []struct {
		name       string
		current    enum.LogisticStatus
		row        enum.ReportStatus
		wantLS     enum.LogisticStatus
		wantCod    string
		wantCharge string
		wantLocked bool
	}{
		{name: "completed is trusted from pending", current: enum.LogisticStatusPending, row: enum.ReportStatusCompleted, wantLS: enum.LogisticStatusCompleted, wantCod: "500", wantCharge: "60"},
		{name: "completed is trusted from returned", current: enum.LogisticStatusReturned, row: enum.ReportStatusCompleted, wantLS: enum.LogisticStatusCompleted, wantCod: "500", wantCharge: "60"},
		{name: "returned agrees sets charge only", current: enum.LogisticStatusReturned, row: enum.ReportStatusReturned, wantLS: enum.LogisticStatusReturned, wantCod: "0", wantCharge: "60"},
		{name: "returned disagrees locks", current: enum.LogisticStatusPending, row: enum.ReportStatusReturned, wantLS: enum.LogisticStatusPending, wantCod: "0", wantCharge: "0", wantLocked: true},
		{name: "partial agrees sets amounts", current: enum.LogisticStatusPartial, row: enum.ReportStatusPartial, wantLS: enum.LogisticStatusPartial, wantCod: "500", wantCharge: "60"},
		{name: "partial disagrees locks", current: enum.LogisticStatusCompleted, row: enum.ReportStatusPartial, wantLS: enum.LogisticStatusCompleted, wantCod: "0", wantCharge: "0", wantLocked: true},
		{name: "partial on unset locks", current: enum.LogisticStatusUnset, row: enum.ReportStatusPartial, wantLS: enum.LogisticStatusUnset, wantCod: "0", wantCharge: "0", wantLocked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReconcileFixture(t, false)
			order := f.seedOrder("INV-1", enum.OrderStatusSteadfast, tt.current)
			f.report(t, testutil.ReportRow(enum.CourierSteadfast, "INV-1", tt.row, "500", "60"))

			result, err := f.svc.Reconcile(context.Background(), enum.CourierSteadfast)
			require.NoError(t, err)

			got := f.orders.Get(order.ID)
			assert.Equal(t, tt.wantLS, got.LogisticStatus)
			assert.True(t, testutil.Dec(tt.wantCod).Equal(got.CodAmount), "cod %s", got.CodAmount)
			assert.True(t, testutil.Dec(tt.wantCharge).Equal(got.ShippingCharge), "charge %s", got.ShippingCharge)
			assert.Equal(t, tt.wantLocked, got.IsParcelDue())
			if tt.wantLocked {
				assert.Equal(t, 1, result.Locked)
			} else {
				assert.Equal(t, 1, result.Matched)
			}
		})
	}
}

func TestReconcile_OnlyMatchesOrderOfSameCourier(t *testing.T) {
	f := newReconcileFixture(t, false)
	redx := f.seedOrder("INV-1", enum.OrderStatusRedx, enum.LogisticStatusPending)
	steadfast := f.seedOrder("INV-1", enum.OrderStatusSteadfast, enum.LogisticStatusPending)
	f.report(t, testutil.ReportRow(enum.CourierSteadfast, "INV-1", enum.ReportStatusCompleted, "500", "60"))

	result, err := f.svc.Reconcile(context.Background(), enum.CourierSteadfast)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, enum.LogisticStatusCompleted, f.orders.Get(steadfast.ID).LogisticStatus)
	assert.Equal(t, enum.LogisticStatusPending, f.orders.Get(redx.ID).LogisticStatus)
	assert.True(t, f.orders.Get(redx.ID).CodAmount.IsZero())
}

func TestReconcile_SkipsLockedOrders(t *testing.T) {
	f := newReconcileFixture(t, false)
	order := testutil.Order("INV-1", enum.OrderStatusRedx)
	order.LogisticStatus = enum.LogisticStatusPending
	order.ConsignmentStatus = enum.ConsignmentStatusParcelDue
	f.orders.Seed(order)
	f.report(t, testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatusCompleted, "500", "60"))

	result, err := f.svc.Reconcile(context.Background(), enum.CourierRedx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Unmatched)
	assert.Zero(t, result.Matched)
	got := f.orders.Get(order.ID)
	assert.Equal(t, enum.LogisticStatusPending, got.LogisticStatus)
	assert.Equal(t, 1, got.Version)
}

func TestReconcile_CountsEveryOutcome(t *testing.T) {
	f := newReconcileFixture(t, false)
	f.seedOrder("INV-1", enum.OrderStatusRedx, enum.LogisticStatusPending)
	f.seedOrder("INV-2", enum.OrderStatusRedx, enum.LogisticStatusPending)
	f.report(t,
		testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatusCompleted, "500", "60"),
		testutil.ReportRow(enum.CourierRedx, "INV-2", enum.ReportStatusReturned, "0", "60"),
		testutil.ReportRow(enum.CourierRedx, "INV-404", enum.ReportStatusCompleted, "500", "60"),
		testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatus("Hold"), "0", "0"),
		testutil.ReportRow(enum.CourierSteadfast, "INV-1", enum.ReportStatusReturned, "0", "0"),
	)

	result, err := f.svc.Reconcile(context.Background(), enum.CourierRedx)
	require.NoError(t, err)

	assert.Equal(t, &ReconcileResult{
		Courier:   enum.CourierRedx,
		Rows:      4,
		Matched:   1,
		Unmatched: 1,
		Locked:    1,
		Ignored:   1,
	}, result)
}

func TestReconcile_ReportStatusIsCaseInsensitive(t *testing.T) {
	f := newReconcileFixture(t, false)
	order := f.seedOrder("INV-1", enum.OrderStatusRedx, enum.LogisticStatusPending)
	f.report(t, testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatus("completed"), "500", "60"))

	result, err := f.svc.Reconcile(context.Background(), enum.CourierRedx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, enum.LogisticStatusCompleted, f.orders.Get(order.ID).LogisticStatus)
}

func TestReconcile_ReplayIsIdempotent(t *testing.T) {
	f := newReconcileFixture(t, false)
	order := f.seedOrder("INV-1", enum.OrderStatusSteadfast, enum.LogisticStatusPending)
	f.report(t, testutil.ReportRow(enum.CourierSteadfast, "INV-1", enum.ReportStatusCompleted, "500", "60"))

	for i := 0; i < 3; i++ {
		_, err := f.svc.Reconcile(context.Background(), enum.CourierSteadfast)
		require.NoError(t, err)
	}

	got := f.orders.Get(order.ID)
	assert.Equal(t, enum.LogisticStatusCompleted, got.LogisticStatus)
	assert.True(t, testutil.Dec("500").Equal(got.CodAmount))
	assert.Equal(t, 1, f.reports.Len(enum.CourierSteadfast))
}

func TestReconcile_ReplayLeavesSettledOrderUntouched(t *testing.T) {
	f := newReconcileFixture(t, false)
	order := f.seedOrder("INV-1", enum.OrderStatusSteadfast, enum.LogisticStatusPending)
	f.report(t, testutil.ReportRow(enum.CourierSteadfast, "INV-1", enum.ReportStatusCompleted, "500", "60"))

	_, err := f.svc.Reconcile(context.Background(), enum.CourierSteadfast)
	require.NoError(t, err)
	settled := f.orders.Get(order.ID)

	second, err := f.svc.Reconcile(context.Background(), enum.CourierSteadfast)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Matched)

	got := f.orders.Get(order.ID)
	assert.Equal(t, settled.Version, got.Version)
	assert.True(t, settled.UpdatedAt.Equal(got.UpdatedAt), "updated_at moved from %s to %s", settled.UpdatedAt, got.UpdatedAt)
}

func TestReconcile_NewAmountsOnReplayAreWritten(t *testing.T) {
	f := newReconcileFixture(t, false)
	order := f.seedOrder("INV-1", enum.OrderStatusRedx, enum.LogisticStatusPartial)
	f.report(t, testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatusPartial, "200", "60"))

	_, err := f.svc.Reconcile(context.Background(), enum.CourierRedx)
	require.NoError(t, err)
	before := f.orders.Get(order.ID)

	f.report(t, testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatusPartial, "250", "60"))
	_, err = f.svc.Reconcile(context.Background(), enum.CourierRedx)
	require.NoError(t, err)

	got := f.orders.Get(order.ID)
	assert.True(t, testutil.Dec("250").Equal(got.CodAmount), "cod %s", got.CodAmount)
	assert.Greater(t, got.Version, before.Version)
}

func TestReconcile_LockedOrderWaitsForManualEdit(t *testing.T) {
	f := newReconcileFixture(t, false)
	order := f.seedOrder("INV-1", enum.OrderStatusRedx, enum.LogisticStatusPending)
	f.report(t, testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatusReturned, "0", "60"))

	first, err := f.svc.Reconcile(context.Background(), enum.CourierRedx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Locked)

	second, err := f.svc.Reconcile(context.Background(), enum.CourierRedx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Unmatched)

	// An operator confirms the return; the edit lifts the lock and the
	// inline pass settles the shipping charge.
	orders := NewOrderService(f.orders, f.svc, zap.NewNop())
	_, err = orders.UpdateLogisticStatus(context.Background(), order.ID, enum.LogisticStatusReturned, nil)
	require.NoError(t, err)

	got := f.orders.Get(order.ID)
	assert.False(t, got.IsParcelDue())
	assert.Equal(t, enum.LogisticStatusReturned, got.LogisticStatus)
	assert.True(t, testutil.Dec("60").Equal(got.ShippingCharge))
}

func TestReconcile_ConcurrentPassDoesNotDoubleApply(t *testing.T) {
	f := newReconcileFixture(t, false)
	order := f.seedOrder("INV-1", enum.OrderStatusRedx, enum.LogisticStatusPending)
	f.report(t, testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatusReturned, "0", "60"))

	var inner *ReconcileResult
	fired := false
	f.orders.BeforeWrite = func(uuid.UUID) {
		if fired {
			return
		}
		fired = true
		var err error
		inner, err = f.svc.Reconcile(context.Background(), enum.CourierRedx)
		require.NoError(t, err)
	}

	outer, err := f.svc.Reconcile(context.Background(), enum.CourierRedx)
	require.NoError(t, err)

	require.NotNil(t, inner)
	assert.Equal(t, 1, inner.Locked)
	assert.Equal(t, 1, outer.Stale)
	assert.Zero(t, outer.Locked)

	got := f.orders.Get(order.ID)
	assert.True(t, got.IsParcelDue())
	assert.Equal(t, 2, got.Version)
}

func TestReconcile_ClearMatchedDrainsAppliedRows(t *testing.T) {
	f := newReconcileFixture(t, true)
	f.seedOrder("INV-1", enum.OrderStatusRedx, enum.LogisticStatusPending)
	f.seedOrder("INV-2", enum.OrderStatusRedx, enum.LogisticStatusPending)
	f.report(t,
		testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatusCompleted, "500", "60"),
		testutil.ReportRow(enum.CourierRedx, "INV-2", enum.ReportStatusPartial, "200", "60"),
		testutil.ReportRow(enum.CourierRedx, "INV-3", enum.ReportStatusCompleted, "500", "60"),
	)

	_, err := f.svc.Reconcile(context.Background(), enum.CourierRedx)
	require.NoError(t, err)

	rows, err := f.reports.ListByCourier(context.Background(), enum.CourierRedx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "INV-3", rows[0].Invoice)
}

func TestReconcile_Failures(t *testing.T) {
	t.Run("courier without reports", func(t *testing.T) {
		f := newReconcileFixture(t, false)
		_, err := f.svc.Reconcile(context.Background(), enum.CourierPathaow)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("report fetch failure yields zero rows", func(t *testing.T) {
		f := newReconcileFixture(t, false)
		f.reports.FailList = true
		result, err := f.svc.Reconcile(context.Background(), enum.CourierRedx)
		require.Error(t, err)
		assert.ErrorIs(t, err, testutil.ErrInjected)
		assert.Zero(t, result.Rows)
	})

	t.Run("write failure is counted and the pass continues", func(t *testing.T) {
		f := newReconcileFixture(t, false)
		f.seedOrder("INV-1", enum.OrderStatusRedx, enum.LogisticStatusPending)
		f.seedOrder("INV-2", enum.OrderStatusRedx, enum.LogisticStatusPending)
		f.report(t,
			testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatusCompleted, "500", "60"),
			testutil.ReportRow(enum.CourierRedx, "INV-2", enum.ReportStatusCompleted, "500", "60"),
		)
		f.orders.FailWrites = true

		result, err := f.svc.Reconcile(context.Background(), enum.CourierRedx)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Failed)
	})
}
