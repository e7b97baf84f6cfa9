package guard

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

const (
	// ReversalWindowDays bounds how long after creation a payment can be reversed.
	ReversalWindowDays = 90
	// TransactionMatchWindow bounds the best-effort salary-to-transaction join.
	// The value has no documented rationale; keep it named, do not inline it.
	TransactionMatchWindow = 5 * time.Minute
)

// LargePaymentThreshold flags payouts worth an extra notification. Informational only.
var LargePaymentThreshold = decimal.NewFromInt(10_000_000)

// Decision is the outcome of a guard rule. Reason is human-readable and
// surfaced to the operator verbatim.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanPaySalary decides whether a salary payment may be created for the
// driver in the calendar month of effectiveDate. History must hold the
// driver's existing salary rows; reversed rows do not block a re-pay.
func CanPaySalary(driver *models.Driver, history []models.DriverSalary, effectiveDate time.Time) Decision {
	if driver == nil {
		return deny("driver not found")
	}
	if driver.IsDeleted {
		return deny("driver is deleted")
	}
	if driver.Status != enums.DriverStatusActive {
		return deny("driver is not active")
	}

	month, year := effectiveDate.Month(), effectiveDate.Year()
	for _, salary := range history {
		if salary.DriverID != driver.ID {
			continue
		}
		if salary.Status == enums.PaymentStatusReversed {
			continue
		}
		if salary.EffectiveDate.Month() == month && salary.EffectiveDate.Year() == year {
			return deny(fmt.Sprintf("salary has already been paid for %s %d", month, year))
		}
	}
	return allow()
}

// CanReversePayment decides whether a completed payment is still reversible.
func CanReversePayment(salary *models.DriverSalary, now time.Time) Decision {
	if salary == nil {
		return deny("payment not found")
	}
	if salary.Status == enums.PaymentStatusReversed {
		return deny("payment has already been reversed")
	}
	if salary.Status == enums.PaymentStatusRefunded {
		return deny("payment has already been refunded")
	}
	if daysSince(salary.CreatedAt, now) > ReversalWindowDays {
		return deny(fmt.Sprintf("reversal window expired: payments can only be reversed within %d days", ReversalWindowDays))
	}
	return allow()
}

// IsLargePayment reports whether the amount exceeds the notification
// threshold. It never blocks a payment.
func IsLargePayment(amount decimal.Decimal) bool {
	return amount.GreaterThan(LargePaymentThreshold)
}

// ReversalWindowRemaining renders the days left before the reversal window
// closes, floor-rounded, or "Expired" at or below zero.
func ReversalWindowRemaining(salary *models.DriverSalary, now time.Time) string {
	if salary == nil {
		return "Expired"
	}
	remaining := ReversalWindowDays - daysSince(salary.CreatedAt, now)
	if remaining <= 0 {
		return "Expired"
	}
	if remaining == 1 {
		return "1 day left"
	}
	return fmt.Sprintf("%d days left", remaining)
}

func daysSince(from, now time.Time) int {
	return int(now.Sub(from).Hours() / 24)
}
