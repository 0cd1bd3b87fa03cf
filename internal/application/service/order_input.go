package service

import (
	"strings"
	"time"

	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/pkg/coerce"
	"github.com/shopspring/decimal"
)

// ProductLineInput is a line item as supplied by clients and spreadsheet exports.
// Numbers may arrive as strings; unreadable numbers count as zero.
type ProductLineInput struct {
	ParentSku    string              `json:"parent_sku"`
	Sku          string              `json:"sku" validate:"required"`
	SellingPrice coerce.Number       `json:"selling_price"`
	Qty          coerce.Number       `json:"qty"`
	Total        coerce.Number       `json:"total"`
	Skus         []ComponentSkuInput `json:"skus"`
}

// ComponentSkuInput is a bundle component as supplied by clients.
type ComponentSkuInput struct {
	Sku          string        `json:"sku"`
	Name         string        `json:"name"`
	BuyingPrice  coerce.Number `json:"buying_price"`
	SellingPrice coerce.Number `json:"selling_price"`
	Qty          coerce.Number `json:"qty"`
}

// ToLine normalises the input. A missing total is derived from qty × price.
func (p ProductLineInput) ToLine() entity.ProductLine {
	line := entity.ProductLine{
		ParentSku:    strings.TrimSpace(p.ParentSku),
		Sku:          strings.TrimSpace(p.Sku),
		SellingPrice: p.SellingPrice.Decimal(),
		Qty:          p.Qty.Int(),
	}
	if p.Total.Valid() {
		line.Total = p.Total.Decimal()
	} else {
		line.Total = line.SellingPrice.Mul(decimal.NewFromInt(int64(line.Qty)))
	}
	if len(p.Skus) > 0 {
		line.Skus = make([]entity.ComponentSku, len(p.Skus))
		for i, s := range p.Skus {
			line.Skus[i] = entity.ComponentSku{
				Sku:          strings.TrimSpace(s.Sku),
				Name:         s.Name,
				BuyingPrice:  s.BuyingPrice.Decimal(),
				SellingPrice: s.SellingPrice.Decimal(),
				Qty:          s.Qty.Int(),
			}
		}
	}
	return line
}

func toLines(in []ProductLineInput) []entity.ProductLine {
	if in == nil {
		return nil
	}
	lines := make([]entity.ProductLine, len(in))
	for i, p := range in {
		lines[i] = p.ToLine()
	}
	return lines
}

// StatusChangeInput carries the fields an agent submits with a status change.
// Nil pointers and a nil product list leave the stored values untouched.
type StatusChangeInput struct {
	CustomerName  *string            `json:"customer_name"`
	PhoneNumber   *string            `json:"phone_number"`
	Address       *string            `json:"address"`
	Note          *string            `json:"note"`
	ConsignmentID *string            `json:"consignment_id"`
	Products      []ProductLineInput `json:"products" validate:"omitempty,dive"`
	DeliveryCost  *coerce.Number     `json:"delivery_cost"`
	Advance       *coerce.Number     `json:"advance"`
	Discount      *coerce.Number     `json:"discount"`
	Comment       string             `json:"comment"`
	ScheduleDate  *time.Time         `json:"schedule_date"`
	District      string             `json:"district"`
	Area          string             `json:"area"`
}

// CreateOrderInput represents the create order input
type CreateOrderInput struct {
	InvoiceID    string             `json:"invoice_id" validate:"required"`
	OrderDate    *time.Time         `json:"order_date"`
	PageName     string             `json:"page_name"`
	CustomerName string             `json:"customer_name" validate:"required"`
	PhoneNumber  string             `json:"phone_number"`
	Address      string             `json:"address"`
	Note         string             `json:"note"`
	Products     []ProductLineInput `json:"products" validate:"required,min=1,dive"`
	DeliveryCost coerce.Number      `json:"delivery_cost"`
	Advance      coerce.Number      `json:"advance"`
	Discount     coerce.Number      `json:"discount"`
	AssignedTo   string             `json:"assigned_to"`
	Status       string             `json:"status"`
}
