package enum

import (
	"database/sql/driver"
	"fmt"
)

// OrderStatus is the agent-facing workflow status of an order.
// Any status may move to any other status; delivery outcomes live on LogisticStatus.
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "Pending"
	OrderStatusRedx         OrderStatus = "Redx"
	OrderStatusSteadfast    OrderStatus = "Steadfast"
	OrderStatusPathaow      OrderStatus = "Pathaow"
	OrderStatusStore        OrderStatus = "Store"
	OrderStatusCancel       OrderStatus = "Cancel"
	OrderStatusNoAnswer     OrderStatus = "No Answer"
	OrderStatusOkPending    OrderStatus = "Ok Pending"
	OrderStatusTomorrow     OrderStatus = "Tomorrow"
	OrderStatusScheduleMemo OrderStatus = "Schedule Memo"
	OrderStatusStockOut     OrderStatus = "Stock Out"
	OrderStatusExchange     OrderStatus = "Exchange"
)

// OrderStatuses lists every business status in display order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusRedx,
		OrderStatusSteadfast,
		OrderStatusPathaow,
		OrderStatusStore,
		OrderStatusCancel,
		OrderStatusNoAnswer,
		OrderStatusOkPending,
		OrderStatusTomorrow,
		OrderStatusScheduleMemo,
		OrderStatusStockOut,
		OrderStatusExchange,
	}
}

func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known business statuses.
func (s OrderStatus) IsValid() bool {
	for _, known := range OrderStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Courier returns the courier an order in this status has been handed to.
func (s OrderStatus) Courier() (Courier, bool) {
	switch s {
	case OrderStatusRedx:
		return CourierRedx, true
	case OrderStatusSteadfast:
		return CourierSteadfast, true
	case OrderStatusPathaow:
		return CourierPathaow, true
	}
	return "", false
}

// RequiresDeliveryArea reports whether the status needs district and area.
func (s OrderStatus) RequiresDeliveryArea() bool {
	return s == OrderStatusRedx || s == OrderStatusPathaow
}

func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *OrderStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into OrderStatus", value)
	}
	return nil
}
