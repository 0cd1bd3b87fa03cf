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
	"github.com/sangkips/order-reconciler/pkg/pagination"
	"go.uber.org/zap"
)

// maxWriteAttempts bounds optimistic retries when another writer bumps the version.
const maxWriteAttempts = 3

// Reconciler settles courier payment reports for one courier.
type Reconciler interface {
	ReconcileCourier(ctx context.Context, courier enum.Courier) error
}

// OrderService applies agent-driven changes to orders
type OrderService struct {
	orderRepo  repository.OrderRepository
	reconciler Reconciler
	logger     *zap.Logger
	now        func() time.Time
}

// NewOrderService creates a new order service. reconciler may be nil.
func NewOrderService(orderRepo repository.OrderRepository, reconciler Reconciler, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		reconciler: reconciler,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateOrder inserts a new order. Status defaults to Pending.
func (s *OrderService) CreateOrder(ctx context.Context, input *CreateOrderInput) (*entity.Order, error) {
	return s.create(ctx, input, enum.OrderStatusPending)
}

// CreateExchangeOrder inserts a replacement order for a previous delivery.
func (s *OrderService) CreateExchangeOrder(ctx context.Context, input *CreateOrderInput) (*entity.Order, error) {
	input.Status = string(enum.OrderStatusExchange)
	return s.create(ctx, input, enum.OrderStatusExchange)
}

func (s *OrderService) create(ctx context.Context, input *CreateOrderInput, defaultStatus enum.OrderStatus) (*entity.Order, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	status := defaultStatus
	if input.Status != "" {
		status = enum.OrderStatus(input.Status)
		if !status.IsValid() {
			return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "status", Message: "is not a known status"}})
		}
	}

	now := s.now()
	order := &entity.Order{
		InvoiceID:    strings.TrimSpace(input.InvoiceID),
		OrderDate:    input.OrderDate,
		PageName:     input.PageName,
		CustomerName: input.CustomerName,
		PhoneNumber:  input.PhoneNumber,
		Address:      input.Address,
		Note:         input.Note,
		Products:     toLines(input.Products),
		DeliveryCost: input.DeliveryCost.Decimal(),
		Advance:      input.Advance.Decimal(),
		Discount:     input.Discount.Decimal(),
		AssignedTo:   input.AssignedTo,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	order.RecomputeGrandTotal()

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.logger.Info("order created", zap.String("invoice_id", order.InvoiceID), zap.String("order_id", order.ID.String()))
	return order, nil
}

// GetOrder returns a single order
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// ListOrders returns a page of orders
func (s *OrderService) ListOrders(ctx context.Context, params *repository.OrderFilterParams) (*pagination.PaginatedResult[entity.Order], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	orders, total, err := s.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	return pagination.NewPaginatedResult(orders, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)), nil
}

// ListAssigned returns a page of orders assigned to one agent
func (s *OrderService) ListAssigned(ctx context.Context, userID string, params *repository.OrderFilterParams) (*pagination.PaginatedResult[entity.Order], error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.NewValidationError([]apperror.FieldError{apperror.MissingField("user_id")})
	}
	params.AssignedTo = userID
	return s.ListOrders(ctx, params)
}

// FindOrder looks an order up by status plus invoice or consignment id.
func (s *OrderService) FindOrder(ctx context.Context, status enum.OrderStatus, invoiceID, consignmentID string) (*entity.Order, error) {
	var (
		order *entity.Order
		err   error
	)
	switch {
	case invoiceID != "":
		order, err = s.orderRepo.FindByInvoiceAndStatus(ctx, invoiceID, status)
	case consignmentID != "":
		order, err = s.orderRepo.FindByConsignmentAndStatus(ctx, consignmentID, status)
	default:
		return nil, apperror.NewValidationError([]apperror.FieldError{apperror.MissingField("invoice_id")})
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// InvoiceExists reports whether any order carries the invoice id
func (s *OrderService) InvoiceExists(ctx context.Context, invoiceID string) (bool, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return false, apperror.NewValidationError([]apperror.FieldError{apperror.MissingField("invoice_id")})
	}
	return s.orderRepo.ExistsInvoice(ctx, invoiceID)
}

// ApplyStatusChange validates and applies a business status transition.
// Preconditions are checked before the order is touched.
func (s *OrderService) ApplyStatusChange(ctx context.Context, id uuid.UUID, newStatus enum.OrderStatus, input *StatusChangeInput) (*entity.Order, error) {
	if input == nil {
		input = &StatusChangeInput{}
	}
	if err := checkTransition(newStatus, input); err != nil {
		return nil, err
	}

	order, err := s.writeWithRetry(ctx, id, func(o *entity.Order) {
		applyFields(o, input)
		o.Status = newStatus
		switch newStatus {
		case enum.OrderStatusCancel:
			o.Comment = strings.TrimSpace(input.Comment)
		case enum.OrderStatusNoAnswer:
			o.Attempt++
		case enum.OrderStatusScheduleMemo:
			d := *input.ScheduleDate
			o.ScheduleDate = &d
		case enum.OrderStatusRedx, enum.OrderStatusPathaow:
			o.District = strings.TrimSpace(input.District)
			o.Area = strings.TrimSpace(input.Area)
		}
		// A person has looked at the order, so the reconciliation lock is lifted.
		if o.IsParcelDue() {
			o.ConsignmentStatus = ""
		}
		o.RecomputeGrandTotal()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", order.ID.String()),
		zap.String("invoice_id", order.InvoiceID),
		zap.String("status", order.Status.String()),
		zap.Int("attempt", order.Attempt),
	)

	if courier, ok := newStatus.Courier(); ok {
		s.reconcile(ctx, courier)
	}
	return order, nil
}

// UpdateLogisticStatus records a courier outcome entered by an operator and
// immediately reconciles the order's courier so amounts settle without
// waiting for the next scheduled pass.
func (s *OrderService) UpdateLogisticStatus(ctx context.Context, id uuid.UUID, status enum.LogisticStatus, returned []ProductLineInput) (*entity.Order, error) {
	if !status.IsValid() {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "logistic_status", Message: "is not a known logistic status"}})
	}

	order, err := s.writeWithRetry(ctx, id, func(o *entity.Order) {
		o.LogisticStatus = status
		if status == enum.LogisticStatusPartial {
			o.ReturnedProduct = toLines(returned)
		} else {
			o.ReturnedProduct = nil
		}
		if o.IsParcelDue() {
			o.ConsignmentStatus = ""
		}
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("logistic status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("invoice_id", order.InvoiceID),
		zap.String("logistic_status", order.LogisticStatus.String()),
	)

	if courier, ok := order.Status.Courier(); ok {
		s.reconcile(ctx, courier)
	}
	return order, nil
}

// BulkAssign hands orders to a call-center agent
func (s *OrderService) BulkAssign(ctx context.Context, ids []uuid.UUID, assignee string) (int64, error) {
	if len(ids) == 0 || strings.TrimSpace(assignee) == "" {
		return 0, apperror.NewValidationError([]apperror.FieldError{apperror.MissingField("order_ids"), apperror.MissingField("assigned_to")})
	}
	return s.bulkUpdate(ctx, repository.BulkTarget{IDs: ids}, repository.OrderChanges{AssignedTo: &assignee})
}

// MarkPrinted flags orders whose invoices have been printed
func (s *OrderService) MarkPrinted(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, apperror.NewValidationError([]apperror.FieldError{apperror.MissingField("order_ids")})
	}
	printed := true
	return s.bulkUpdate(ctx, repository.BulkTarget{IDs: ids}, repository.OrderChanges{MarkAsPrinted: &printed})
}

// MarkExported flags orders that were exported to a courier sheet
func (s *OrderService) MarkExported(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, apperror.NewValidationError([]apperror.FieldError{apperror.MissingField("order_ids")})
	}
	exported := "Exported"
	return s.bulkUpdate(ctx, repository.BulkTarget{IDs: ids}, repository.OrderChanges{MarkAs: &exported})
}

// BulkUpdateStatus sets a status on many orders by invoice. Statuses that need
// per-order data (comment, schedule date, delivery area, attempt counter) must
// go through ApplyStatusChange instead.
func (s *OrderService) BulkUpdateStatus(ctx context.Context, invoiceIDs []string, status enum.OrderStatus) (int64, error) {
	if len(invoiceIDs) == 0 {
		return 0, apperror.NewValidationError([]apperror.FieldError{apperror.MissingField("invoice_ids")})
	}
	if !status.IsValid() {
		return 0, apperror.NewValidationError([]apperror.FieldError{{Field: "status", Message: "is not a known status"}})
	}
	switch status {
	case enum.OrderStatusCancel, enum.OrderStatusScheduleMemo, enum.OrderStatusNoAnswer,
		enum.OrderStatusRedx, enum.OrderStatusPathaow:
		return 0, apperror.NewValidationError([]apperror.FieldError{{Field: "status", Message: "cannot be applied in bulk"}})
	}

	n, err := s.bulkUpdate(ctx, repository.BulkTarget{InvoiceIDs: invoiceIDs}, repository.OrderChanges{Status: &status})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, apperror.NewNotFoundError("Matching orders")
	}
	return n, nil
}

func (s *OrderService) bulkUpdate(ctx context.Context, target repository.BulkTarget, changes repository.OrderChanges) (int64, error) {
	changes.UpdatedAt = s.now()
	n, err := s.orderRepo.UpdateMany(ctx, target, changes)
	if err != nil {
		return 0, fmt.Errorf("bulk update orders: %w", err)
	}
	return n, nil
}

// writeWithRetry loads the order, applies mutate and writes it back guarded by
// the version it was read at. A lost race reloads and reapplies.
func (s *OrderService) writeWithRetry(ctx context.Context, id uuid.UUID, mutate func(*entity.Order)) (*entity.Order, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		order, err := s.orderRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load order: %w", err)
		}
		if order == nil {
			return nil, apperror.NewNotFoundError("Order")
		}

		mutate(order)
		order.UpdatedAt = s.now()

		ok, err := s.orderRepo.UpdateIfVersion(ctx, order)
		if err != nil {
			return nil, fmt.Errorf("update order: %w", err)
		}
		if ok {
			return order, nil
		}
		s.logger.Debug("order changed concurrently, retrying", zap.String("order_id", id.String()), zap.Int("attempt", attempt))
	}
	return nil, apperror.NewConflictError("Order was modified concurrently, please retry")
}

func (s *OrderService) reconcile(ctx context.Context, courier enum.Courier) {
	if s.reconciler == nil || !courier.Reconcilable() {
		return
	}
	if err := s.reconciler.ReconcileCourier(ctx, courier); err != nil {
		s.logger.Error("inline reconciliation failed", zap.String("courier", courier.String()), zap.Error(err))
	}
}

func checkTransition(status enum.OrderStatus, input *StatusChangeInput) error {
	if !status.IsValid() {
		return apperror.NewValidationError([]apperror.FieldError{{Field: "status", Message: "is not a known status"}})
	}
	if err := validateStruct(input); err != nil {
		return err
	}

	var missing []apperror.FieldError
	switch status {
	case enum.OrderStatusCancel:
		if strings.TrimSpace(input.Comment) == "" {
			missing = append(missing, apperror.MissingField("comment"))
		}
	case enum.OrderStatusScheduleMemo:
		if input.ScheduleDate == nil || input.ScheduleDate.IsZero() {
			missing = append(missing, apperror.MissingField("schedule_date"))
		}
	}
	if status.RequiresDeliveryArea() {
		if strings.TrimSpace(input.District) == "" {
			missing = append(missing, apperror.MissingField("district"))
		}
		if strings.TrimSpace(input.Area) == "" {
			missing = append(missing, apperror.MissingField("area"))
		}
	}
	if len(missing) > 0 {
		return apperror.NewValidationError(missing)
	}
	return nil
}

func applyFields(o *entity.Order, in *StatusChangeInput) {
	if in.CustomerName != nil {
		o.CustomerName = *in.CustomerName
	}
	if in.PhoneNumber != nil {
		o.PhoneNumber = *in.PhoneNumber
	}
	if in.Address != nil {
		o.Address = *in.Address
	}
	if in.Note != nil {
		o.Note = *in.Note
	}
	if in.ConsignmentID != nil {
		o.ConsignmentID = *in.ConsignmentID
	}
	if in.Products != nil {
		o.Products = toLines(in.Products)
	}
	if in.DeliveryCost != nil {
		o.DeliveryCost = in.DeliveryCost.Decimal()
	}
	if in.Advance != nil {
		o.Advance = in.Advance.Decimal()
	}
	if in.Discount != nil {
		o.Discount = in.Discount.Decimal()
	}
}
