package enum

import "strings"

// Courier identifies a third-party delivery provider.
type Courier string

const (
	CourierRedx      Courier = "Redx"
	CourierSteadfast Courier = "Steadfast"
	CourierPathaow   Courier = "Pathaow"
)

// ReconcilableCouriers lists couriers that deliver payment reports, in the
// order the scheduler processes them.
func ReconcilableCouriers() []Courier {
	return []Courier{CourierSteadfast, CourierRedx}
}

// ParseCourier accepts a courier name in any letter case.
func ParseCourier(s string) (Courier, bool) {
	for _, c := range []Courier{CourierRedx, CourierSteadfast, CourierPathaow} {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

func (c Courier) String() string {
	return string(c)
}

// Reconcilable reports whether the courier has a payment report collection.
func (c Courier) Reconcilable() bool {
	return c == CourierRedx || c == CourierSteadfast
}

// OrderStatus is the business status of orders handed to this courier.
func (c Courier) OrderStatus() OrderStatus {
	return OrderStatus(c)
}

// LogisticStatus is the logistic status recorded when a parcel is dispatched.
func (c Courier) LogisticStatus() LogisticStatus {
	return LogisticStatus(c)
}

// ReportStatus is the outcome vocabulary used in courier payment reports.
type ReportStatus string

const (
	ReportStatusReturned  ReportStatus = "Returned"
	ReportStatusCompleted ReportStatus = "Completed"
	ReportStatusPartial   ReportStatus = "Partial"
)

// ParseReportStatus normalises a spreadsheet status cell.
func ParseReportStatus(s string) (ReportStatus, bool) {
	for _, rs := range []ReportStatus{ReportStatusReturned, ReportStatusCompleted, ReportStatusPartial} {
		if strings.EqualFold(strings.TrimSpace(s), string(rs)) {
			return rs, true
		}
	}
	return ReportStatus(strings.TrimSpace(s)), false
}
