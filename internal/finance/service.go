package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
)

const leaderboardLimit = 20

// Summary is the income/expense picture over one window.
type Summary struct {
	Window    Window
	Income    decimal.Decimal
	Expense   decimal.Decimal
	NetProfit decimal.Decimal
}

// PayrollFigures describes one month's payroll position.
type PayrollFigures struct {
	PaidSalaries    decimal.Decimal
	PendingSalaries decimal.Decimal
	DriversPaid     int64
}

// Profitability separates payroll from operating costs for one month.
/// OwnerProfit is a projection: what remains if every non-deleted driver
// were paid their full monthly salary.
type Profitability struct {
	PeriodIncome      decimal.Decimal
	PeriodExpense     decimal.Decimal
	PaidSalaries      decimal.Decimal
	NonSalaryExpenses decimal.Decimal
	GrossProfit       decimal.Decimal
	TotalPayroll      decimal.Decimal
	OwnerProfit       decimal.Decimal
}

// Service computes dashboard aggregates from the current record snapshot.
type Service interface {
	Summary(ctx context.Context, window Window) (*Summary, error)
	PayrollFigures(ctx context.Context, month time.Month, year int) (*PayrollFigures, error)
	Profitability(ctx context.Context, month time.Month, year int) (*Profitability, error)
	Leaderboard(ctx context.Context, window Window) ([]LeaderboardRow, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the finance read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("finance repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Summary(ctx context.Context, window Window) (*Summary, error) {
	from, err := s.windowStart(window)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.SumTransactions(ctx, from, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum transactions")
	}
	return &Summary{
		Window:    window,
		Income:    totals.Income,
		Expense:   totals.Expense,
		NetProfit: totals.Income.Sub(totals.Expense),
	}, nil
}

func (s *service) PayrollFigures(ctx context.Context, month time.Month, year int) (*PayrollFigures, error) {
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}
	paid, err := s.repo.SumPaidSalaries(ctx, month, year)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum paid salaries")
	}
	payroll, err := s.repo.SumActivePayroll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active payroll")
	}

	// Reversed salaries drop out of the paid sum, so the pending figure
	// can momentarily exceed the commitment. Clamp at zero.
	pending := payroll.Sub(paid.Paid)
	if pending.IsNegative() {
		pending = decimal.Zero
	}
	return &PayrollFigures{
		PaidSalaries:    paid.Paid,
		PendingSalaries: pending,
		DriversPaid:     paid.DriversPaid,
	}, nil
}

func (s *service) Profitability(ctx context.Context, month time.Month, year int) (*Profitability, error) {
	if err := validateMonth(month, year); err != nil {
		return nil, err
	}
	start, end := monthRange(month, year)
	totals, err := s.repo.SumTransactions(ctx, &start, &end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum transactions")
	}
	paid, err := s.repo.SumPaidSalaries(ctx, month, year)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum paid salaries")
	}
	payroll, err := s.repo.SumActivePayroll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active payroll")
	}

	nonSalary := totals.Expense.Sub(paid.Paid)
	gross := totals.Income.Sub(nonSalary)
	return &Profitability{
		PeriodIncome:      totals.Income,
		PeriodExpense:     totals.Expense,
		PaidSalaries:      paid.Paid,
		NonSalaryExpenses: nonSalary,
		GrossProfit:       gross,
		TotalPayroll:      payroll,
		OwnerProfit:       gross.Sub(payroll),
	}, nil
}

func (s *service) Leaderboard(ctx context.Context, window Window) ([]LeaderboardRow, error) {
	from, err := s.windowStart(window)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Leaderboard(ctx, from, leaderboardLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load leaderboard")
	}
	return rows, nil
}

func (s *service) windowStart(window Window) (*time.Time, error) {
	if !window.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid window %q", window))
	}
	from, err := window.Range(s.now())
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	return from, nil
}

func validateMonth(month time.Month, year int) error {
	if month < time.January || month > time.December {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid month %d", month))
	}
	if year < 2000 || year > 2200 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid year %d", year))
	}
	return nil
}
