package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/internal/domain/repository"
	"github.com/sangkips/order-reconciler/pkg/apperror"
	"github.com/sangkips/order-reconciler/pkg/coerce"
	"go.uber.org/zap"
)

// MergeOutcome is the per-item result of a bulk merge.
type MergeOutcome string

const (
	MergeCreated MergeOutcome = "created"
	MergeMerged  MergeOutcome = "merged"
	MergeError   MergeOutcome = "error"
)

// MergePayload is one order from a spreadsheet export or a consignment sheet.
type MergePayload struct {
	InvoiceID     string             `json:"invoice_id" validate:"required"`
	OrderDate     *time.Time         `json:"order_date"`
	PageName      string             `json:"page_name"`
	CustomerName  string             `json:"customer_name"`
	PhoneNumber   string             `json:"phone_number"`
	Address       string             `json:"address"`
	Note          string             `json:"note"`
	Products      []ProductLineInput `json:"products" validate:"omitempty,dive"`
	DeliveryCost  coerce.Number      `json:"delivery_cost"`
	Advance       coerce.Number      `json:"advance"`
	Discount      coerce.Number      `json:"discount"`
	ConsignmentID string             `json:"consignment_id"`
	Status        string             `json:"status"`
}

// MergeResult reports what happened to one payload.
type MergeResult struct {
	Index     int          `json:"index"`
	InvoiceID string       `json:"invoice_id"`
	Outcome   MergeOutcome `json:"outcome"`
	OrderID   *uuid.UUID   `json:"order_id,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// MergeSummary counts outcomes across a batch.
type MergeSummary struct {
	Created int `json:"created"`
	Merged  int `json:"merged"`
	Failed  int `json:"failed"`
}

// MergeService folds imported order payloads into the order store by invoice.
type MergeService struct {
	orderRepo repository.OrderRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewMergeService creates a new merge service
func NewMergeService(orderRepo repository.OrderRepository, logger *zap.Logger) *MergeService {
	return &MergeService{
		orderRepo: orderRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// MergeOrders merges every payload independently, in batch order. A failing
// payload is recorded in its result and never stops the rest of the batch.
func (s *MergeService) MergeOrders(ctx context.Context, batch []MergePayload) ([]MergeResult, MergeSummary) {
	results := make([]MergeResult, 0, len(batch))
	var summary MergeSummary

	for i := range batch {
		p := &batch[i]
		result := MergeResult{Index: i, InvoiceID: strings.TrimSpace(p.InvoiceID)}

		order, outcome, err := s.mergeOne(ctx, p)
		if err != nil {
			result.Outcome = MergeError
			result.Error = err.Error()
			summary.Failed++
			s.logger.Warn("order merge failed",
				zap.Int("index", i),
				zap.String("invoice_id", result.InvoiceID),
				zap.Error(err),
			)
		} else {
			id := order.ID
			result.Outcome = outcome
			result.OrderID = &id
			if outcome == MergeCreated {
				summary.Created++
			} else {
				summary.Merged++
			}
		}
		results = append(results, result)
	}

	s.logger.Info("order batch merged",
		zap.Int("items", len(batch)),
		zap.Int("created", summary.Created),
		zap.Int("merged", summary.Merged),
		zap.Int("failed", summary.Failed),
	)
	return results, summary
}

func (s *MergeService) mergeOne(ctx context.Context, p *MergePayload) (*entity.Order, MergeOutcome, error) {
	if err := validateStruct(p); err != nil {
		return nil, MergeError, err
	}
	status := enum.OrderStatus(strings.TrimSpace(p.Status))
	if status != "" && !status.IsValid() {
		return nil, MergeError, apperror.NewValidationError([]apperror.FieldError{{Field: "status", Message: "is not a known status"}})
	}
	invoiceID := strings.TrimSpace(p.InvoiceID)

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		existing, err := s.orderRepo.GetByInvoiceID(ctx, invoiceID)
		if err != nil {
			return nil, MergeError, fmt.Errorf("lookup invoice: %w", err)
		}

		if existing == nil {
			order := s.newOrder(invoiceID, status, p)
			if err := s.orderRepo.Create(ctx, order); err != nil {
				return nil, MergeError, fmt.Errorf("create order: %w", err)
			}
			return order, MergeCreated, nil
		}

		mergeInto(existing, p, status)
		existing.UpdatedAt = s.now()

		ok, err := s.orderRepo.UpdateIfVersion(ctx, existing)
		if err != nil {
			return nil, MergeError, fmt.Errorf("update order: %w", err)
		}
		if ok {
			return existing, MergeMerged, nil
		}
		s.logger.Debug("merge lost version race, retrying", zap.String("invoice_id", invoiceID), zap.Int("attempt", attempt))
	}
	return nil, MergeError, apperror.NewConflictError("Order was modified concurrently, please retry")
}

func (s *MergeService) newOrder(invoiceID string, status enum.OrderStatus, p *MergePayload) *entity.Order {
	if status == "" {
		status = enum.OrderStatusPending
	}
	now := s.now()
	order := &entity.Order{
		InvoiceID:     invoiceID,
		OrderDate:     p.OrderDate,
		PageName:      p.PageName,
		CustomerName:  p.CustomerName,
		PhoneNumber:   p.PhoneNumber,
		Address:       p.Address,
		Note:          p.Note,
		Products:      toLines(p.Products),
		DeliveryCost:  p.DeliveryCost.Decimal(),
		Advance:       p.Advance.Decimal(),
		Discount:      p.Discount.Decimal(),
		ConsignmentID: strings.TrimSpace(p.ConsignmentID),
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.RecomputeGrandTotal()
	return order
}

// mergeInto accumulates lines by sku. Scalars are overwritten only when the
// payload carries a value; a zero or unreadable amount keeps the stored one.
func mergeInto(o *entity.Order, p *MergePayload, status enum.OrderStatus) {
	for _, in := range p.Products {
		line := in.ToLine()
		if i := o.LineIndex(line.Sku); i >= 0 {
			o.Products[i].Qty += line.Qty
			o.Products[i].Total = o.Products[i].Total.Add(line.Total)
			continue
		}
		o.Products = append(o.Products, line)
	}

	o.DeliveryCost = p.DeliveryCost.Or(o.DeliveryCost)
	o.Advance = p.Advance.Or(o.Advance)
	o.Discount = p.Discount.Or(o.Discount)
	if id := strings.TrimSpace(p.ConsignmentID); id != "" {
		o.ConsignmentID = id
	}
	if status != "" {
		o.Status = status
	}
	o.RecomputeGrandTotal()
}
