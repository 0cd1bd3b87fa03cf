package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentReportRow is one line of a courier payment report. Rows are kept per
// courier until a reconciliation pass applies them.
type PaymentReportRow struct {
	ID             uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	Courier        enum.Courier      `gorm:"size:50;not null;index" json:"courier"`
	Invoice        string            `gorm:"size:100;not null;index" json:"invoice"`
	CodAmount      decimal.Decimal   `gorm:"type:numeric(14,2);default:0" json:"cod_amount"`
	ShippingCharge decimal.Decimal   `gorm:"type:numeric(14,2);default:0" json:"shipping_charge"`
	Status         enum.ReportStatus `gorm:"size:50;not null" json:"status"`
	OrderRef       string            `gorm:"size:100" json:"order_ref,omitempty"`
	ConsignmentID  string            `gorm:"size:100" json:"consignment_id,omitempty"`
	TrackingCode   string            `gorm:"size:100" json:"tracking_code,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new report row
func (r *PaymentReportRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PaymentReportRow model
func (PaymentReportRow) TableName() string {
	return "payment_report_rows"
}
