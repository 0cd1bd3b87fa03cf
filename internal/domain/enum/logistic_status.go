package enum

import (
	"database/sql/driver"
	"fmt"
)

// LogisticStatus is the courier-confirmed outcome of a dispatched parcel.
type LogisticStatus string

const (
	LogisticStatusUnset     LogisticStatus = ""
	LogisticStatusPending   LogisticStatus = "Pending"
	LogisticStatusCompleted LogisticStatus = "Completed"
	LogisticStatusReturned  LogisticStatus = "Returned"
	LogisticStatusPartial   LogisticStatus = "Partial"
	LogisticStatusDamage    LogisticStatus = "Damage"
	LogisticStatusRedx      LogisticStatus = "Redx"
	LogisticStatusSteadfast LogisticStatus = "Steadfast"
	LogisticStatusPathaow   LogisticStatus = "Pathaow"
)

func (s LogisticStatus) String() string {
	return string(s)
}

// IsValid reports whether s can be set through a logistic status update.
// The unset value is accepted so an operator can clear a wrong outcome.
func (s LogisticStatus) IsValid() bool {
	switch s {
	case LogisticStatusUnset, LogisticStatusPending, LogisticStatusCompleted,
		LogisticStatusReturned, LogisticStatusPartial, LogisticStatusDamage,
		LogisticStatusRedx, LogisticStatusSteadfast, LogisticStatusPathaow:
		return true
	}
	return false
}

func (s LogisticStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *LogisticStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = LogisticStatusUnset
	case string:
		*s = LogisticStatus(v)
	case []byte:
		*s = LogisticStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into LogisticStatus", value)
	}
	return nil
}

// ConsignmentStatusParcelDue marks an order whose courier report disagreed with
// local state. Reconciliation skips such orders until a person edits them.
const ConsignmentStatusParcelDue = "Parcel Due"
