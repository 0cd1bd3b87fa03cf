package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Order is a customer order tracked from creation through courier delivery.
// InvoiceID is the business key shared with courier payment reports.
type Order struct {
	ID                uuid.UUID                        `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID         string                           `gorm:"size:100;not null;index" json:"invoice_id"`
	OrderDate         *time.Time                       `json:"order_date,omitempty"`
	PageName          string                           `gorm:"size:255" json:"page_name"`
	CustomerName      string                           `gorm:"size:255" json:"customer_name"`
	PhoneNumber       string                           `gorm:"size:50" json:"phone_number"`
	Address           string                           `gorm:"type:text" json:"address"`
	Note              string                           `gorm:"type:text" json:"note"`
	Products          datatypes.JSONSlice[ProductLine] `gorm:"type:jsonb" json:"products"`
	DeliveryCost      decimal.Decimal                  `gorm:"type:numeric(14,2);default:0" json:"delivery_cost"`
	Advance           decimal.Decimal                  `gorm:"type:numeric(14,2);default:0" json:"advance"`
	Discount          decimal.Decimal                  `gorm:"type:numeric(14,2);default:0" json:"discount"`
	GrandTotal        decimal.Decimal                  `gorm:"type:numeric(14,2);default:0" json:"grand_total"`
	CodAmount         decimal.Decimal                  `gorm:"type:numeric(14,2);default:0" json:"cod_amount"`
	ShippingCharge    decimal.Decimal                  `gorm:"type:numeric(14,2);default:0" json:"shipping_charge"`
	Status            enum.OrderStatus                 `gorm:"size:50;not null;index" json:"status"`
	LogisticStatus    enum.LogisticStatus              `gorm:"size:50;index" json:"logistic_status"`
	ConsignmentID     string                           `gorm:"size:100;index" json:"consignment_id"`
	ConsignmentStatus string                           `gorm:"size:50" json:"consignment_status"`
	AssignedTo        string                           `gorm:"size:100;index" json:"assigned_to"`
	Attempt           int                              `gorm:"default:0" json:"attempt"`
	Comment           string                           `gorm:"type:text" json:"comment"`
	ScheduleDate      *time.Time                       `json:"schedule_date,omitempty"`
	District          string                           `gorm:"size:100" json:"district"`
	Area              string                           `gorm:"size:100" json:"area"`
	ReturnedProduct   datatypes.JSONSlice[ProductLine] `gorm:"type:jsonb" json:"returned_product,omitempty"`
	MarkAsPrinted     bool                             `gorm:"default:false" json:"mark_as_printed"`
	MarkAs            string                           `gorm:"size:50" json:"mark_as"`
	Version           int                              `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time                        `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time                        `gorm:"index" json:"updated_at"`
}

// ProductLine is one line item. Bundles list their components in Skus.
type ProductLine struct {
	ParentSku    string          `json:"parent_sku"`
	Sku          string          `json:"sku"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Qty          int             `json:"qty"`
	Total        decimal.Decimal `json:"total"`
	Skus         []ComponentSku  `json:"skus,omitempty"`
}

// ComponentSku is a part of a bundle product.
type ComponentSku struct {
	Sku          string          `json:"sku"`
	Name         string          `json:"name"`
	BuyingPrice  decimal.Decimal `json:"buying_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Qty          int             `json:"qty"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// RecomputeGrandTotal sets GrandTotal to the sum of the line totals.
func (o *Order) RecomputeGrandTotal() {
	total := decimal.Zero
	for _, p := range o.Products {
		total = total.Add(p.Total)
	}
	o.GrandTotal = total
}

// IsParcelDue reports whether reconciliation has parked the order.
func (o *Order) IsParcelDue() bool {
	return o.ConsignmentStatus == enum.ConsignmentStatusParcelDue
}

// LineIndex returns the index of the line with the given sku, or -1.
func (o *Order) LineIndex(sku string) int {
	for i, p := range o.Products {
		if p.Sku == sku {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without aliasing stored slices.
func (o *Order) Clone() *Order {
	c := *o
	c.Products = cloneLines(o.Products)
	c.ReturnedProduct = cloneLines(o.ReturnedProduct)
	if o.ScheduleDate != nil {
		d := *o.ScheduleDate
		c.ScheduleDate = &d
	}
	if o.OrderDate != nil {
		d := *o.OrderDate
		c.OrderDate = &d
	}
	return &c
}

func cloneLines(lines []ProductLine) []ProductLine {
	if lines == nil {
		return nil
	}
	out := make([]ProductLine, len(lines))
	for i, l := range lines {
		out[i] = l
		if l.Skus != nil {
			out[i].Skus = append([]ComponentSku(nil), l.Skus...)
		}
	}
	return out
}
