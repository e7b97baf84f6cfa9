package guard

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

func activeDriver() *models.Driver {
	return &models.Driver{
		ID:            uuid.New(),
		Name:          "Bekzod",
		Status:        enums.DriverStatusActive,
		MonthlySalary: decimal.NewFromInt(3_000_000),
	}
}

func TestCanPaySalaryAllowsFreshMonth(t *testing.T) {
	driver := activeDriver()
	effective := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	decision := CanPaySalary(driver, nil, effective)
	if !decision.Allowed {
		t.Fatalf("expected payment allowed, got reason %q", decision.Reason)
	}
}

func TestCanPaySalaryDeniesInactiveDriver(t *testing.T) {
	driver := activeDriver()
	driver.Status = enums.DriverStatusOffline

	decision := CanPaySalary(driver, nil, time.Now())
	if decision.Allowed {
		t.Fatal("expected denial for inactive driver")
	}
	if !strings.Contains(decision.Reason, "not active") {
		t.Fatalf("unexpected reason %q", decision.Reason)
	}
}

func TestCanPaySalaryDeniesDuplicateMonth(t *testing.T) {
	driver := activeDriver()
	effective := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	history := []models.DriverSalary{{
		ID:            uuid.New(),
		DriverID:      driver.ID,
		EffectiveDate: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
		Status:        enums.PaymentStatusCompleted,
	}}

	decision := CanPaySalary(driver, history, effective)
	if decision.Allowed {
		t.Fatal("expected denial for duplicate month")
	}
	if !strings.Contains(decision.Reason, "already been paid") {
		t.Fatalf("unexpected reason %q", decision.Reason)
	}
}

func TestCanPaySalaryAllowsAfterReversal(t *testing.T) {
	driver := activeDriver()
	effective := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	history := []models.DriverSalary{{
		ID:            uuid.New(),
		DriverID:      driver.ID,
		EffectiveDate: effective,
		Status:        enums.PaymentStatusReversed,
	}}

	decision := CanPaySalary(driver, history, effective)
	if !decision.Allowed {
		t.Fatalf("expected reversed salary to unblock the month, got %q", decision.Reason)
	}
}

func TestCanPaySalaryRefundedStillBlocksMonth(t *testing.T) {
	driver := activeDriver()
	effective := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	history := []models.DriverSalary{{
		ID:            uuid.New(),
		DriverID:      driver.ID,
		EffectiveDate: effective,
		Status:        enums.PaymentStatusRefunded,
	}}

	decision := CanPaySalary(driver, history, effective)
	if decision.Allowed {
		t.Fatal("refunded salary should still block the month")
	}
}

func TestCanPaySalaryIgnoresOtherDrivers(t *testing.T) {
	driver := activeDriver()
	effective := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	history := []models.DriverSalary{{
		ID:            uuid.New(),
		DriverID:      uuid.New(),
		EffectiveDate: effective,
		Status:        enums.PaymentStatusCompleted,
	}}

	decision := CanPaySalary(driver, history, effective)
	if !decision.Allowed {
		t.Fatalf("other drivers' salaries must not block, got %q", decision.Reason)
	}
}

func TestCanReversePaymentWindowBoundary(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	// Just inside the window: 90 days minus an hour.
	inside := &models.DriverSalary{
		Status:    enums.PaymentStatusCompleted,
		CreatedAt: now.Add(-90*24*time.Hour + time.Hour),
	}
	if decision := CanReversePayment(inside, now); !decision.Allowed {
		t.Fatalf("expected reversal allowed at window boundary, got %q", decision.Reason)
	}

	// 91 days out: expired.
	outside := &models.DriverSalary{
		Status:    enums.PaymentStatusCompleted,
		CreatedAt: now.Add(-91 * 24 * time.Hour),
	}
	decision := CanReversePayment(outside, now)
	if decision.Allowed {
		t.Fatal("expected reversal denied past the window")
	}
	if !strings.Contains(decision.Reason, "90 days") {
		t.Fatalf("unexpected reason %q", decision.Reason)
	}
}

func TestCanReversePaymentDeniesTerminalStates(t *testing.T) {
	now := time.Now()
	cases := []struct {
		status enums.PaymentStatus
		want   string
	}{
		{enums.PaymentStatusReversed, "already been reversed"},
		{enums.PaymentStatusRefunded, "already been refunded"},
	}
	for _, tc := range cases {
		salary := &models.DriverSalary{Status: tc.status, CreatedAt: now}
		decision := CanReversePayment(salary, now)
		if decision.Allowed {
			t.Fatalf("expected denial for status %s", tc.status)
		}
		if !strings.Contains(decision.Reason, tc.want) {
			t.Fatalf("status %s: unexpected reason %q", tc.status, decision.Reason)
		}
	}
}

func TestIsLargePayment(t *testing.T) {
	if IsLargePayment(decimal.NewFromInt(10_000_000)) {
		t.Fatal("threshold itself is not large")
	}
	if !IsLargePayment(decimal.NewFromInt(10_000_001)) {
		t.Fatal("above threshold should be large")
	}
}

func TestReversalWindowRemaining(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	fresh := &models.DriverSalary{CreatedAt: now.Add(-10 * 24 * time.Hour)}
	if got := ReversalWindowRemaining(fresh, now); got != "80 days left" {
		t.Fatalf("expected 80 days left, got %q", got)
	}

	lastDay := &models.DriverSalary{CreatedAt: now.Add(-89*24*time.Hour - 12*time.Hour)}
	if got := ReversalWindowRemaining(lastDay, now); got != "1 day left" {
		t.Fatalf("expected 1 day left, got %q", got)
	}

	expired := &models.DriverSalary{CreatedAt: now.Add(-95 * 24 * time.Hour)}
	if got := ReversalWindowRemaining(expired, now); got != "Expired" {
		t.Fatalf("expected Expired, got %q", got)
	}
}
