package enums

import "fmt"

// PaymentStatus is the lifecycle state shared by transactions and salary
// payments. Deleted applies to transactions only (soft delete).
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusReversed  PaymentStatus = "reversed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusDeleted   PaymentStatus = "deleted"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusReversed,
	PaymentStatusRefunded,
	PaymentStatusDeleted,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave this state.
func (p PaymentStatus) IsTerminal() bool {
	switch p {
	case PaymentStatusReversed, PaymentStatusRefunded, PaymentStatusDeleted:
		return true
	}
	return false
}

// CountsTowardTotals reports whether records in this state contribute to
// balance and aggregate calculations.
func (p PaymentStatus) CountsTowardTotals() bool {
	return !p.IsTerminal()
}

// ActivePaymentStatuses lists the states that count toward totals, for
// use in SQL IN clauses.
func ActivePaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentStatusPending, PaymentStatusCompleted}
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
