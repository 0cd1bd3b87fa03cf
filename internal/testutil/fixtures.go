package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Dec parses a decimal literal and panics on bad input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Line builds a product line whose total is qty × price.
func Line(parentSku, sku string, qty int, price string) entity.ProductLine {
	p := Dec(price)
	return entity.ProductLine{
		ParentSku:    parentSku,
		Sku:          sku,
		SellingPrice: p,
		Qty:          qty,
		Total:        p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// Order builds an order with a consistent grand total.
func Order(invoice string, status enum.OrderStatus, lines ...entity.ProductLine) *entity.Order {
	o := &entity.Order{
		InvoiceID:    invoice,
		CustomerName: "Test Customer",
		PhoneNumber:  "01700000000",
		Status:       status,
		Products:     lines,
	}
	o.RecomputeGrandTotal()
	return o
}

// ReportRow builds a courier payment report row.
func ReportRow(courier enum.Courier, invoice string, status enum.ReportStatus, cod, charge string) entity.PaymentReportRow {
	return entity.PaymentReportRow{
		Courier:        courier,
		Invoice:        invoice,
		CodAmount:      Dec(cod),
		ShippingCharge: Dec(charge),
		Status:         status,
	}
}

// RecordingReconciler counts reconcile calls per courier.
type RecordingReconciler struct {
	mu    sync.Mutex
	Calls []enum.Courier
	Err   error
}

func (r *RecordingReconciler) ReconcileCourier(_ context.Context, courier enum.Courier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, courier)
	return r.Err
}

// FakeCourierClient returns canned responses.
type FakeCourierClient struct {
	mu            sync.Mutex
	ConsignmentID string
	Status        string
	Err           error
	Dispatched    []uuid.UUID
	AreaList      []entity.CourierArea
	Districts     []string
}

func (c *FakeCourierClient) Dispatch(_ context.Context, order *entity.Order, _ string, _ int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", c.Err
	}
	c.Dispatched = append(c.Dispatched, order.ID)
	return c.ConsignmentID, nil
}

func (c *FakeCourierClient) Areas(_ context.Context, district string) ([]entity.CourierArea, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	c.Districts = append(c.Districts, district)
	return c.AreaList, nil
}

func (c *FakeCourierClient) FetchStatus(_ context.Context, _ string) (string, error) {
	if c.Err != nil {
		return "", c.Err
	}
	return c.Status, nil
}
