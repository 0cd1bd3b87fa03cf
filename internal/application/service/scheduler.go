package service

import (
	"context"
	"time"

	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"go.uber.org/zap"
)

// TickLock lets one process instance own a scheduled tick.
type TickLock interface {
	// TryLock returns acquired=false without error when another holder owns the tick.
	TryLock(ctx context.Context) (release func(context.Context), acquired bool, err error)
}

// CourierReconciler runs a reconciliation pass and reports its counts.
type CourierReconciler interface {
	Reconcile(ctx context.Context, courier enum.Courier) (*ReconcileResult, error)
}

// Scheduler triggers reconciliation for every courier on a fixed interval.
type Scheduler struct {
	reconciler CourierReconciler
	lock       TickLock
	interval   time.Duration
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler. lock may be nil for a single instance.
func NewScheduler(reconciler CourierReconciler, lock TickLock, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		lock:       lock,
		interval:   interval,
		logger:     logger.Named("scheduler"),
	}
}

// Start runs passes until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Warn("reconcile interval not positive, scheduler disabled", zap.Duration("interval", s.interval))
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

// RunOnce reconciles each courier in turn. A failing courier is logged and
// the next one still runs. Returns nil when another instance holds the tick.
func (s *Scheduler) RunOnce(ctx context.Context) []*ReconcileResult {
	if s.lock != nil {
		release, acquired, err := s.lock.TryLock(ctx)
		if err != nil {
			s.logger.Error("failed to acquire reconcile lock", zap.Error(err))
			return nil
		}
		if !acquired {
			s.logger.Info("reconcile tick owned by another instance")
			return nil
		}
		defer release(context.WithoutCancel(ctx))
	}

	var results []*ReconcileResult
	for _, courier := range enum.ReconcilableCouriers() {
		if ctx.Err() != nil {
			break
		}
		result, err := s.reconciler.Reconcile(ctx, courier)
		if err != nil {
			s.logger.Error("scheduled reconciliation failed", zap.String("courier", courier.String()), zap.Error(err))
			continue
		}
		results = append(results, result)
	}
	return results
}
