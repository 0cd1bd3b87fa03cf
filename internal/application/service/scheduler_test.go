package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTickLock struct {
	busy     bool
	err      error
	released int
}

func (l *fakeTickLock) TryLock(context.Context) (func(context.Context), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.busy {
		return nil, false, nil
	}
	return func(context.Context) { l.released++ }, true, nil
}

type countingReconciler struct {
	mu    sync.Mutex
	calls []enum.Courier
	fail  enum.Courier
}

func (r *countingReconciler) Reconcile(_ context.Context, courier enum.Courier) (*ReconcileResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, courier)
	if courier == r.fail {
		return nil, errors.New("boom")
	}
	return &ReconcileResult{Courier: courier}, nil
}

func (r *countingReconciler) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestScheduler_RunOnceVisitsEveryCourier(t *testing.T) {
	f := newReconcileFixture(t, false)
	order := f.seedOrder("INV-1", enum.OrderStatusRedx, enum.LogisticStatusPending)
	f.report(t, testutil.ReportRow(enum.CourierRedx, "INV-1", enum.ReportStatusCompleted, "500", "60"))
	lock := &fakeTickLock{}

	results := NewScheduler(f.svc, lock, time.Hour, zap.NewNop()).RunOnce(context.Background())

	require.Len(t, results, 2)
	assert.Equal(t, enum.CourierSteadfast, results[0].Courier)
	assert.Equal(t, enum.CourierRedx, results[1].Courier)
	assert.Equal(t, 1, results[1].Matched)
	assert.Equal(t, enum.LogisticStatusCompleted, f.orders.Get(order.ID).LogisticStatus)
	assert.Equal(t, 1, lock.released)
}

func TestScheduler_FailingCourierDoesNotStopOthers(t *testing.T) {
	rec := &countingReconciler{fail: enum.CourierSteadfast}

	results := NewScheduler(rec, nil, time.Hour, zap.NewNop()).RunOnce(context.Background())

	assert.Equal(t, []enum.Courier{enum.CourierSteadfast, enum.CourierRedx}, rec.calls)
	require.Len(t, results, 1)
	assert.Equal(t, enum.CourierRedx, results[0].Courier)
}

func TestScheduler_SkipsTickHeldElsewhere(t *testing.T) {
	rec := &countingReconciler{}

	assert.Nil(t, NewScheduler(rec, &fakeTickLock{busy: true}, time.Hour, zap.NewNop()).RunOnce(context.Background()))
	assert.Nil(t, NewScheduler(rec, &fakeTickLock{err: errors.New("redis down")}, time.Hour, zap.NewNop()).RunOnce(context.Background()))
	assert.Zero(t, rec.count())
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	rec := &countingReconciler{}
	s := NewScheduler(rec, nil, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return rec.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
