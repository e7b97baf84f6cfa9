package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

// Totals are the signed transaction sums over one window.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// SalaryTotals aggregates active salary payments for one calendar month.
type SalaryTotals struct {
	Paid        decimal.Decimal
	DriversPaid int64
}

// LeaderboardRow is one driver's income rank entry.
type LeaderboardRow struct {
	DriverID uuid.UUID
	Name     string
	Income   decimal.Decimal
}

// Repository runs the read-side aggregates. Every query recomputes from
// current rows; there is no cached or incremental state to invalidate.
type Repository interface {
	// SumTransactions totals income and expense over transactions still
	// counting toward balances. Nil bounds mean unbounded on that side.
	SumTransactions(ctx context.Context, from, to *time.Time) (*Totals, error)
	// SumPaidSalaries totals active salary payments whose effective date
	// falls in the given calendar month, with a distinct driver count.
	SumPaidSalaries(ctx context.Context, month time.Month, year int) (*SalaryTotals, error)
	// SumActivePayroll is the monthly salary commitment across all
	// non-deleted drivers.
	SumActivePayroll(ctx context.Context) (decimal.Decimal, error)
	// Leaderboard ranks drivers by income over the window, highest first.
	Leaderboard(ctx context.Context, from *time.Time, limit int) ([]LeaderboardRow, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a finance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SumTransactions(ctx context.Context, from, to *time.Time) (*Totals, error) {
	var row struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select(
			"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS income, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS expense",
			enums.TransactionTypeIncome, enums.TransactionTypeExpense,
		).
		Where("status IN ?", enums.ActivePaymentStatuses())
	if from != nil {
		query = query.Where("occurred_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("occurred_at < ?", *to)
	}

	if err := query.Scan(&row).Error; err != nil {
		return nil, err
	}
	return &Totals{Income: row.Income, Expense: row.Expense}, nil
}

func (r *repository) SumPaidSalaries(ctx context.Context, month time.Month, year int) (*SalaryTotals, error) {
	from, to := monthRange(month, year)

	var row struct {
		Paid        decimal.Decimal
		DriversPaid int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.DriverSalary{}).
		Select("COALESCE(SUM(amount), 0) AS paid, COUNT(DISTINCT driver_id) AS drivers_paid").
		Where("status IN ?", enums.ActivePaymentStatuses()).
		Where("effective_date >= ? AND effective_date < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &SalaryTotals{Paid: row.Paid, DriversPaid: row.DriversPaid}, nil
}

func (r *repository) SumActivePayroll(ctx context.Context) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Select("COALESCE(SUM(monthly_salary), 0) AS total").
		Where("is_deleted = ?", false).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repository) Leaderboard(ctx context.Context, from *time.Time, limit int) ([]LeaderboardRow, error) {
	query := r.db.WithContext(ctx).
		Table("transactions").
		Select("transactions.driver_id, drivers.name, COALESCE(SUM(transactions.amount), 0) AS income").
		Joins("JOIN drivers ON drivers.id = transactions.driver_id").
		Where("transactions.type = ?", enums.TransactionTypeIncome).
		Where("transactions.status IN ?", enums.ActivePaymentStatuses()).
		Where("drivers.is_deleted = ?", false)
	if from != nil {
		query = query.Where("transactions.occurred_at >= ?", *from)
	}

	var rows []LeaderboardRow
	err := query.
		Group("transactions.driver_id, drivers.name").
		Order("income DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
