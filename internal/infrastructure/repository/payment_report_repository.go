package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	domainRepo "github.com/sangkips/order-reconciler/internal/domain/repository"
	"gorm.io/gorm"
)

const paymentReportBatchSize = 500

type paymentReportRepository struct {
	db *gorm.DB
}

// NewPaymentReportRepository creates a new payment report repository
func NewPaymentReportRepository(db *gorm.DB) domainRepo.PaymentReportRepository {
	return &paymentReportRepository{db: db}
}

func (r *paymentReportRepository) Append(ctx context.Context, rows []entity.PaymentReportRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&rows, paymentReportBatchSize).Error
}

func (r *paymentReportRepository) ListByCourier(ctx context.Context, courier enum.Courier) ([]entity.PaymentReportRow, error) {
	var rows []entity.PaymentReportRow
	err := r.db.WithContext(ctx).
		Where("courier = ?", courier).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *paymentReportRepository) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&entity.PaymentReportRow{}, "id IN ?", ids).Error
}
