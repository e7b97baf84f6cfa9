package finance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
)

type stubFinanceRepo struct {
	totals  Totals
	paid    SalaryTotals
	payroll decimal.Decimal
	rows    []LeaderboardRow

	lastFrom *time.Time
	lastTo   *time.Time
}

func (s *stubFinanceRepo) SumTransactions(ctx context.Context, from, to *time.Time) (*Totals, error) {
	s.lastFrom, s.lastTo = from, to
	totals := s.totals
	return &totals, nil
}

func (s *stubFinanceRepo) SumPaidSalaries(ctx context.Context, month time.Month, year int) (*SalaryTotals, error) {
	paid := s.paid
	return &paid, nil
}

func (s *stubFinanceRepo) SumActivePayroll(ctx context.Context) (decimal.Decimal, error) {
	return s.payroll, nil
}

func (s *stubFinanceRepo) Leaderboard(ctx context.Context, from *time.Time, limit int) ([]LeaderboardRow, error) {
	s.lastFrom = from
	return s.rows, nil
}

func buildService(t *testing.T, repo *stubFinanceRepo, now time.Time) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.(*service).now = func() time.Time { return now }
	return svc
}

func TestWindowRanges(t *testing.T) {
	// A Wednesday, mid-afternoon.
	now := time.Date(2025, time.June, 18, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		window Window
		want   time.Time
	}{
		{WindowToday, time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC)},
		{WindowWeek, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)}, // Sunday
		{WindowMonth, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{WindowYear, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		from, err := tc.window.Range(now)
		if err != nil {
			t.Fatalf("%s: %v", tc.window, err)
		}
		if from == nil || !from.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %v", tc.window, tc.want, from)
		}
	}

	from, err := WindowAll.Range(now)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if from != nil {
		t.Fatalf("all window must be unbounded, got %v", from)
	}
}

func TestWeekStartsOnSundayEvenOnSunday(t *testing.T) {
	sunday := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)
	from, err := WindowWeek.Range(sunday)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	want := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	if !from.Equal(want) {
		t.Fatalf("on a Sunday the week starts that same midnight, got %s", from)
	}
}

func TestSummaryComputesNetProfit(t *testing.T) {
	repo := &stubFinanceRepo{totals: Totals{
		Income:  decimal.NewFromInt(5_000_000),
		Expense: decimal.NewFromInt(3_200_000),
	}}
	svc := buildService(t, repo, time.Now())

	summary, err := svc.Summary(context.Background(), WindowMonth)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.NetProfit.Equal(decimal.NewFromInt(1_800_000)) {
		t.Fatalf("expected net profit 1800000, got %s", summary.NetProfit)
	}
}

func TestSummaryRejectsUnknownWindow(t *testing.T) {
	svc := buildService(t, &stubFinanceRepo{}, time.Now())

	_, err := svc.Summary(context.Background(), Window("fortnight"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPendingSalariesClampedAtZero(t *testing.T) {
	// Paid exceeds the commitment when drivers were removed after payday.
	repo := &stubFinanceRepo{
		paid:    SalaryTotals{Paid: decimal.NewFromInt(9_000_000), DriversPaid: 4},
		payroll: decimal.NewFromInt(7_500_000),
	}
	svc := buildService(t, repo, time.Now())

	figures, err := svc.PayrollFigures(context.Background(), time.June, 2025)
	if err != nil {
		t.Fatalf("payroll figures: %v", err)
	}
	if !figures.PendingSalaries.IsZero() {
		t.Fatalf("pending salaries must clamp at zero, got %s", figures.PendingSalaries)
	}
	if figures.DriversPaid != 4 {
		t.Fatalf("expected 4 drivers paid, got %d", figures.DriversPaid)
	}
}

func TestPendingSalariesRemainder(t *testing.T) {
	repo := &stubFinanceRepo{
		paid:    SalaryTotals{Paid: decimal.NewFromInt(5_000_000), DriversPaid: 2},
		payroll: decimal.NewFromInt(7_500_000),
	}
	svc := buildService(t, repo, time.Now())

	figures, err := svc.PayrollFigures(context.Background(), time.June, 2025)
	if err != nil {
		t.Fatalf("payroll figures: %v", err)
	}
	if !figures.PendingSalaries.Equal(decimal.NewFromInt(2_500_000)) {
		t.Fatalf("expected pending 2500000, got %s", figures.PendingSalaries)
	}
}

func TestProfitabilityFormulas(t *testing.T) {
	repo := &stubFinanceRepo{
		totals: Totals{
			Income:  decimal.NewFromInt(20_000_000),
			Expense: decimal.NewFromInt(12_000_000),
		},
		paid:    SalaryTotals{Paid: decimal.NewFromInt(7_000_000), DriversPaid: 3},
		payroll: decimal.NewFromInt(9_000_000),
	}
	svc := buildService(t, repo, time.Now())

	profit, err := svc.Profitability(context.Background(), time.June, 2025)
	if err != nil {
		t.Fatalf("profitability: %v", err)
	}
	if !profit.NonSalaryExpenses.Equal(decimal.NewFromInt(5_000_000)) {
		t.Fatalf("nonSalaryExpenses = expense - paidSalaries, got %s", profit.NonSalaryExpenses)
	}
	if !profit.GrossProfit.Equal(decimal.NewFromInt(15_000_000)) {
		t.Fatalf("grossProfit = income - nonSalaryExpenses, got %s", profit.GrossProfit)
	}
	if !profit.OwnerProfit.Equal(decimal.NewFromInt(6_000_000)) {
		t.Fatalf("ownerProfit = grossProfit - totalPayroll, got %s", profit.OwnerProfit)
	}

	if repo.lastFrom == nil || repo.lastTo == nil {
		t.Fatal("profitability must bound the transaction sum to the month")
	}
	if !repo.lastTo.Equal(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("month upper bound must be the next first-of-month, got %s", repo.lastTo)
	}
}

func TestProfitabilityIsIdempotent(t *testing.T) {
	repo := &stubFinanceRepo{
		totals:  Totals{Income: decimal.NewFromInt(1_000), Expense: decimal.NewFromInt(400)},
		paid:    SalaryTotals{Paid: decimal.NewFromInt(100)},
		payroll: decimal.NewFromInt(300),
	}
	svc := buildService(t, repo, time.Now())

	first, err := svc.Profitability(context.Background(), time.March, 2025)
	if err != nil {
		t.Fatalf("profitability: %v", err)
	}
	second, err := svc.Profitability(context.Background(), time.March, 2025)
	if err != nil {
		t.Fatalf("profitability: %v", err)
	}
	if !first.OwnerProfit.Equal(second.OwnerProfit) || !first.GrossProfit.Equal(second.GrossProfit) {
		t.Fatal("recomputation over unchanged rows must return identical figures")
	}
}

func TestLeaderboardPassesWindowStart(t *testing.T) {
	now := time.Date(2025, time.June, 18, 12, 0, 0, 0, time.UTC)
	repo := &stubFinanceRepo{rows: []LeaderboardRow{}}
	svc := buildService(t, repo, now)

	if _, err := svc.Leaderboard(context.Background(), WindowToday); err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	want := time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC)
	if repo.lastFrom == nil || !repo.lastFrom.Equal(want) {
		t.Fatalf("expected window start %s, got %v", want, repo.lastFrom)
	}
}
