package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	domainRepo "github.com/sangkips/order-reconciler/internal/domain/repository"
	"gorm.io/gorm"
)

var orderSortColumns = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"invoice_id":  true,
	"status":      true,
	"grand_total": true,
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	if order.Version == 0 {
		order.Version = 1
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *orderRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*entity.Order, error) {
	return r.first(r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC, id ASC"))
}

func (r *orderRepository) FindByInvoiceAndStatus(ctx context.Context, invoiceID string, status enum.OrderStatus) (*entity.Order, error) {
	return r.first(r.db.WithContext(ctx).
		Where("invoice_id = ? AND status = ?", invoiceID, status).
		Order("created_at ASC, id ASC"))
}

func (r *orderRepository) FindByConsignmentAndStatus(ctx context.Context, consignmentID string, status enum.OrderStatus) (*entity.Order, error) {
	return r.first(r.db.WithContext(ctx).
		Where("consignment_id = ? AND status = ?", consignmentID, status).
		Order("created_at ASC, id ASC"))
}

func (r *orderRepository) FindReconcileCandidate(ctx context.Context, invoiceID string, courier enum.Courier) (*entity.Order, error) {
	return r.first(r.db.WithContext(ctx).
		Where("invoice_id = ? AND status = ?", invoiceID, courier.OrderStatus()).
		Scopes(UnlockedScope).
		Order("created_at ASC, id ASC"))
}

func (r *orderRepository) ExistsInvoice(ctx context.Context, invoiceID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("invoice_id = ?", invoiceID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// UpdateIfVersion uses: UPDATE orders SET ..., version = version + 1 WHERE id = ? AND version = ?
func (r *orderRepository) UpdateIfVersion(ctx context.Context, order *entity.Order) (bool, error) {
	expected := order.Version
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now()
	}

	updated := withVersion(order, expected+1)
	result := r.db.WithContext(ctx).Model(updated).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(updated)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	order.Version = expected + 1
	return true, nil
}

// UpdateIf expresses a reconciliation decision as one conditional write so
// concurrent passes cannot both apply to the same order.
func (r *orderRepository) UpdateIf(ctx context.Context, id uuid.UUID, guard domainRepo.OrderGuard, changes domainRepo.OrderChanges) (bool, error) {
	cols := changes.Columns()
	if len(cols) == 0 {
		return false, nil
	}
	if _, ok := cols["updated_at"]; !ok {
		cols["updated_at"] = time.Now()
	}
	cols["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("id = ?", id).
		Scopes(GuardScope(guard)).
		Updates(cols)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepository) UpdateMany(ctx context.Context, target domainRepo.BulkTarget, changes domainRepo.OrderChanges) (int64, error) {
	cols := changes.Columns()
	if target.Empty() || len(cols) == 0 {
		return 0, nil
	}
	if _, ok := cols["updated_at"]; !ok {
		cols["updated_at"] = time.Now()
	}
	cols["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).Model(&entity.Order{}).
		Scopes(BulkTargetScope(target)).
		Updates(cols)
	return result.RowsAffected, result.Error
}

func (r *orderRepository) List(ctx context.Context, params *domainRepo.OrderFilterParams) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Order{})

	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("invoice_id ILIKE ? OR customer_name ILIKE ? OR phone_number ILIKE ? OR consignment_id ILIKE ?", like, like, like, like)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.AssignedTo != "" {
		query = query.Where("assigned_to = ?", params.AssignedTo)
	}

	if params.StartDate != nil {
		query = query.Where("created_at >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("created_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "created_at"
	sortOrder := "DESC"
	if orderSortColumns[params.SortBy] {
		sortBy = params.SortBy
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order(sortBy + " " + sortOrder).
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepository) Scan(ctx context.Context, filter domainRepo.OrderScanFilter) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.db.WithContext(ctx).
		Scopes(ScanScope(filter)).
		Order("created_at ASC, id ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) first(query *gorm.DB) (*entity.Order, error) {
	var order entity.Order
	err := query.First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func withVersion(order *entity.Order, version int) *entity.Order {
	o := *order
	o.Version = version
	return &o
}
