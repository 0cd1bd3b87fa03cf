package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/domain/repository"
	"github.com/sangkips/order-reconciler/pkg/apperror"
	"go.uber.org/zap"
)

// ReconcileResult counts what one pass did with each report row.
type ReconcileResult struct {
	Courier   enum.Courier `json:"courier"`
	Rows      int          `json:"rows"`
	Matched   int          `json:"matched"`
	Unmatched int          `json:"unmatched"`
	Locked    int          `json:"locked"`
	Stale     int          `json:"stale"`
	Ignored   int          `json:"ignored"`
	Failed    int          `json:"failed"`
}

type rowOutcome int

const (
	rowMatched rowOutcome = iota
	rowUnmatched
	rowLocked
	rowStale
	rowIgnored
	rowFailed
)

// ReconciliationService applies courier payment reports to orders.
type ReconciliationService struct {
	orderRepo    repository.OrderRepository
	reportRepo   repository.PaymentReportRepository
	logger       *zap.Logger
	clearMatched bool
}

// NewReconciliationService creates a new reconciliation service. With
// clearMatched set, report rows are deleted once they have been applied.
func NewReconciliationService(orderRepo repository.OrderRepository, reportRepo repository.PaymentReportRepository, logger *zap.Logger, clearMatched bool) *ReconciliationService {
	return &ReconciliationService{
		orderRepo:    orderRepo,
		reportRepo:   reportRepo,
		logger:       logger,
		clearMatched: clearMatched,
	}
}

// ReconcileCourier runs a pass and discards the counts.
func (s *ReconciliationService) ReconcileCourier(ctx context.Context, courier enum.Courier) error {
	_, err := s.Reconcile(ctx, courier)
	return err
}

// Reconcile runs one pass over every stored report row of the courier. Each
// row is applied with a single conditional write, so passes running at the
// same time never apply a decision twice; the loser counts the row as stale
// and a later pass replays it.
func (s *ReconciliationService) Reconcile(ctx context.Context, courier enum.Courier) (*ReconcileResult, error) {
	if !courier.Reconcilable() {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "courier", Message: "has no payment reports to reconcile"}})
	}

	result := &ReconcileResult{Courier: courier}
	rows, err := s.reportRepo.ListByCourier(ctx, courier)
	if err != nil {
		s.logger.Error("failed to load payment report rows", zap.String("courier", courier.String()), zap.Error(err))
		return result, fmt.Errorf("list %s payment report: %w", courier, err)
	}
	result.Rows = len(rows)

	var applied []uuid.UUID
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		row := &rows[i]
		switch s.applyRow(ctx, courier, row) {
		case rowMatched:
			result.Matched++
			applied = append(applied, row.ID)
		case rowLocked:
			result.Locked++
			applied = append(applied, row.ID)
		case rowUnmatched:
			result.Unmatched++
		case rowStale:
			result.Stale++
		case rowIgnored:
			result.Ignored++
		case rowFailed:
			result.Failed++
		}
	}

	if s.clearMatched && len(applied) > 0 {
		if err := s.reportRepo.Delete(ctx, applied); err != nil {
			s.logger.Error("failed to clear applied report rows", zap.String("courier", courier.String()), zap.Error(err))
		}
	}

	s.logger.Info("reconciliation pass finished",
		zap.String("courier", courier.String()),
		zap.Int("rows", result.Rows),
		zap.Int("matched", result.Matched),
		zap.Int("unmatched", result.Unmatched),
		zap.Int("locked", result.Locked),
		zap.Int("stale", result.Stale),
		zap.Int("ignored", result.Ignored),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *ReconciliationService) applyRow(ctx context.Context, courier enum.Courier, row *entity.PaymentReportRow) rowOutcome {
	log := s.logger.With(zap.String("courier", courier.String()), zap.String("invoice_id", row.Invoice))

	status, known := enum.ParseReportStatus(string(row.Status))
	if !known {
		log.Warn("ignoring report row with unknown status", zap.String("status", string(row.Status)))
		return rowIgnored
	}

	order, err := s.orderRepo.FindReconcileCandidate(ctx, row.Invoice, courier)
	if err != nil {
		log.Error("failed to look up order for report row", zap.Error(err))
		return rowFailed
	}
	if order == nil {
		log.Debug("no unlocked order for report row")
		return rowUnmatched
	}

	changes, outcome := decide(order.LogisticStatus, status, row)
	if changes.Unchanged(order) {
		// Replayed row with nothing new; leave updatedAt and version alone.
		return outcome
	}
	guard := repository.OrderGuard{
		Status:          order.Status,
		LogisticStatus:  order.LogisticStatus,
		RequireUnlocked: true,
	}

	ok, err := s.orderRepo.UpdateIf(ctx, order.ID, guard, changes)
	if err != nil {
		log.Error("failed to apply report row", zap.String("order_id", order.ID.String()), zap.Error(err))
		return rowFailed
	}
	if !ok {
		log.Info("order changed during reconciliation, row left for the next pass", zap.String("order_id", order.ID.String()))
		return rowStale
	}
	if outcome == rowLocked {
		log.Info("report disagrees with order, parked as parcel due",
			zap.String("order_id", order.ID.String()),
			zap.String("report_status", string(row.Status)),
			zap.String("logistic_status", order.LogisticStatus.String()),
		)
	}
	return outcome
}

// decide maps a report status and the order's current logistic status to the
// writes to apply. Completed is always trusted; Returned and Partial only
// update amounts when the order already agrees, otherwise the order is locked.
func decide(current enum.LogisticStatus, status enum.ReportStatus, row *entity.PaymentReportRow) (repository.OrderChanges, rowOutcome) {
	cod := row.CodAmount
	charge := row.ShippingCharge
	lock := enum.ConsignmentStatusParcelDue

	switch status {
	case enum.ReportStatusCompleted:
		completed := enum.LogisticStatusCompleted
		return repository.OrderChanges{LogisticStatus: &completed, CodAmount: &cod, ShippingCharge: &charge}, rowMatched
	case enum.ReportStatusReturned:
		if current == enum.LogisticStatusReturned {
			return repository.OrderChanges{ShippingCharge: &charge}, rowMatched
		}
	case enum.ReportStatusPartial:
		if current == enum.LogisticStatusPartial {
			return repository.OrderChanges{CodAmount: &cod, ShippingCharge: &charge}, rowMatched
		}
	}
	return repository.OrderChanges{ConsignmentStatus: &lock}, rowLocked
}
