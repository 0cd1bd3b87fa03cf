package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/sangkips/order-reconciler/pkg/pagination"
	"github.com/shopspring/decimal"
)

// OrderRepository defines the interface for order data operations.
// Lookups return (nil, nil) when nothing matches.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// GetByInvoiceID returns the oldest order carrying the invoice.
	GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.Order, error)
	FindByInvoiceAndStatus(ctx context.Context, invoiceID string, status enum.OrderStatus) (*entity.Order, error)
	FindByConsignmentAndStatus(ctx context.Context, consignmentID string, status enum.OrderStatus) (*entity.Order, error)
	// FindReconcileCandidate returns the order a courier report row may be
	// applied to: same invoice, status equal to the courier, not Parcel Due.
	FindReconcileCandidate(ctx context.Context, invoiceID string, courier enum.Courier) (*entity.Order, error)
	ExistsInvoice(ctx context.Context, invoiceID string) (bool, error)
	// UpdateIfVersion writes the whole order only if the stored version still
	// equals order.Version, then bumps the version. Returns false on a lost race.
	UpdateIfVersion(ctx context.Context, order *entity.Order) (bool, error)
	// UpdateIf applies changes in a single conditional write guarded by guard.
	// Returns false when the stored row no longer satisfies the guard.
	UpdateIf(ctx context.Context, id uuid.UUID, guard OrderGuard, changes OrderChanges) (bool, error)
	UpdateMany(ctx context.Context, target BulkTarget, changes OrderChanges) (int64, error)
	List(ctx context.Context, params *OrderFilterParams) ([]entity.Order, int64, error)
	Scan(ctx context.Context, filter OrderScanFilter) ([]entity.Order, error)
}

// OrderGuard is the expected stored state for a conditional update.
type OrderGuard struct {
	Status          enum.OrderStatus
	LogisticStatus  enum.LogisticStatus
	RequireUnlocked bool
}

// Matches reports whether o satisfies the guard.
func (g OrderGuard) Matches(o *entity.Order) bool {
	if o.Status != g.Status || o.LogisticStatus != g.LogisticStatus {
		return false
	}
	if g.RequireUnlocked && o.IsParcelDue() {
		return false
	}
	return true
}

// OrderChanges is a sparse set of column updates. Nil fields are left alone.
type OrderChanges struct {
	Status            *enum.OrderStatus
	LogisticStatus    *enum.LogisticStatus
	ConsignmentID     *string
	ConsignmentStatus *string
	CodAmount         *decimal.Decimal
	ShippingCharge    *decimal.Decimal
	AssignedTo        *string
	MarkAsPrinted     *bool
	MarkAs            *string
	UpdatedAt         time.Time
}

// Columns maps the changes to database columns.
func (c OrderChanges) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.Status != nil {
		cols["status"] = *c.Status
	}
	if c.LogisticStatus != nil {
		cols["logistic_status"] = *c.LogisticStatus
	}
	if c.ConsignmentID != nil {
		cols["consignment_id"] = *c.ConsignmentID
	}
	if c.ConsignmentStatus != nil {
		cols["consignment_status"] = *c.ConsignmentStatus
	}
	if c.CodAmount != nil {
		cols["cod_amount"] = *c.CodAmount
	}
	if c.ShippingCharge != nil {
		cols["shipping_charge"] = *c.ShippingCharge
	}
	if c.AssignedTo != nil {
		cols["assigned_to"] = *c.AssignedTo
	}
	if c.MarkAsPrinted != nil {
		cols["mark_as_printed"] = *c.MarkAsPrinted
	}
	if c.MarkAs != nil {
		cols["mark_as"] = *c.MarkAs
	}
	if !c.UpdatedAt.IsZero() {
		cols["updated_at"] = c.UpdatedAt
	}
	return cols
}

// Apply copies the changes onto an in-memory order.
func (c OrderChanges) Apply(o *entity.Order) {
	if c.Status != nil {
		o.Status = *c.Status
	}
	if c.LogisticStatus != nil {
		o.LogisticStatus = *c.LogisticStatus
	}
	if c.ConsignmentID != nil {
		o.ConsignmentID = *c.ConsignmentID
	}
	if c.ConsignmentStatus != nil {
		o.ConsignmentStatus = *c.ConsignmentStatus
	}
	if c.CodAmount != nil {
		o.CodAmount = *c.CodAmount
	}
	if c.ShippingCharge != nil {
		o.ShippingCharge = *c.ShippingCharge
	}
	if c.AssignedTo != nil {
		o.AssignedTo = *c.AssignedTo
	}
	if c.MarkAsPrinted != nil {
		o.MarkAsPrinted = *c.MarkAsPrinted
	}
	if c.MarkAs != nil {
		o.MarkAs = *c.MarkAs
	}
	if !c.UpdatedAt.IsZero() {
		o.UpdatedAt = c.UpdatedAt
	}
}

// Unchanged reports whether every field the changes set already holds that
// value on o. UpdatedAt is not compared.
func (c OrderChanges) Unchanged(o *entity.Order) bool {
	switch {
	case c.Status != nil && *c.Status != o.Status,
		c.LogisticStatus != nil && *c.LogisticStatus != o.LogisticStatus,
		c.ConsignmentID != nil && *c.ConsignmentID != o.ConsignmentID,
		c.ConsignmentStatus != nil && *c.ConsignmentStatus != o.ConsignmentStatus,
		c.CodAmount != nil && !c.CodAmount.Equal(o.CodAmount),
		c.ShippingCharge != nil && !c.ShippingCharge.Equal(o.ShippingCharge),
		c.AssignedTo != nil && *c.AssignedTo != o.AssignedTo,
		c.MarkAsPrinted != nil && *c.MarkAsPrinted != o.MarkAsPrinted,
		c.MarkAs != nil && *c.MarkAs != o.MarkAs:
		return false
	}
	return true
}

// BulkTarget selects orders for a bulk write by id or by invoice.
type BulkTarget struct {
	IDs        []uuid.UUID
	InvoiceIDs []string
}

// Empty reports whether the target selects nothing.
func (t BulkTarget) Empty() bool {
	return len(t.IDs) == 0 && len(t.InvoiceIDs) == 0
}

// OrderFilterParams contains filtering parameters for order queries
type OrderFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.OrderStatus
	AssignedTo string
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	SortOrder  string
}

// OrderScanFilter selects orders for report aggregation. Time bounds are inclusive.
type OrderScanFilter struct {
	Status      *enum.OrderStatus
	AssignedTo  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
}

// Matches reports whether o falls inside the filter.
func (f OrderScanFilter) Matches(o *entity.Order) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.AssignedTo != "" && o.AssignedTo != f.AssignedTo {
		return false
	}
	if f.CreatedFrom != nil && o.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && o.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.UpdatedFrom != nil && o.UpdatedAt.Before(*f.UpdatedFrom) {
		return false
	}
	if f.UpdatedTo != nil && o.UpdatedAt.After(*f.UpdatedTo) {
		return false
	}
	return true
}
