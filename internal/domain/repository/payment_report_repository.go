package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
)

// PaymentReportRepository stores courier payment report rows, one logical
// collection per courier.
type PaymentReportRepository interface {
	Append(ctx context.Context, rows []entity.PaymentReportRow) error
	ListByCourier(ctx context.Context, courier enum.Courier) ([]entity.PaymentReportRow, error)
	Delete(ctx context.Context, ids []uuid.UUID) error
}
