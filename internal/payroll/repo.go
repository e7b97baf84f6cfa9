package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/internal/guard"
	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
)

// SalaryFilters narrows payroll listings.
type SalaryFilters struct {
	DriverID *uuid.UUID
	Status   *enums.PaymentStatus
}

// SalaryList is one page of salary payments.
type SalaryList struct {
	Salaries   []models.DriverSalary
	NextCursor string
}

// ReversalFilters narrows reversal-request listings.
type ReversalFilters struct {
	ApprovalStatus *enums.ApprovalStatus
	DriverID       *uuid.UUID
}

// ReversalList is one page of reversal records.
type ReversalList struct {
	Reversals  []models.PaymentReversal
	NextCursor string
}

// StatusMeta carries the who/when/why recorded on a salary status flip.
type StatusMeta struct {
	ReversedAt time.Time
	ReversedBy uuid.UUID
	Reason     string
}

// Repository manages persistence for salary payments and reversal records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateSalary(ctx context.Context, salary *models.DriverSalary) error
	FindSalaryByID(ctx context.Context, id uuid.UUID) (*models.DriverSalary, error)
	ListSalariesByDriver(ctx context.Context, driverID uuid.UUID) ([]models.DriverSalary, error)
	ListSalaries(ctx context.Context, params pagination.Params, filters SalaryFilters) (*SalaryList, error)
	// UpdateSalaryStatusIfCompleted flips the status only when the row is
	// still completed, returning the number of rows changed. Zero rows
	// means a concurrent writer won the race.
	UpdateSalaryStatusIfCompleted(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, meta StatusMeta) (int64, error)

	CreateReversal(ctx context.Context, reversal *models.PaymentReversal) error
	FindReversalByID(ctx context.Context, id uuid.UUID) (*models.PaymentReversal, error)
	ListReversals(ctx context.Context, params pagination.Params, filters ReversalFilters) (*ReversalList, error)
	UpdateReversalStatusIfPending(ctx context.Context, id uuid.UUID, status enums.ApprovalStatus) (int64, error)

	// MatchTransaction is the best-effort join between a salary payment
	// and its originating expense entry: same driver, same amount, type
	// expense, still counting toward totals, occurred within the match
	// window of the salary's creation. Returns nil when nothing matches.
	MatchTransaction(ctx context.Context, driverID uuid.UUID, amount decimal.Decimal, around time.Time) (*models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payroll repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSalary(ctx context.Context, salary *models.DriverSalary) error {
	return r.db.WithContext(ctx).Create(salary).Error
}

func (r *repository) FindSalaryByID(ctx context.Context, id uuid.UUID) (*models.DriverSalary, error) {
	var salary models.DriverSalary
	if err := r.db.WithContext(ctx).First(&salary, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &salary, nil
}

func (r *repository) ListSalariesByDriver(ctx context.Context, driverID uuid.UUID) ([]models.DriverSalary, error) {
	var salaries []models.DriverSalary
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("effective_date DESC").
		Find(&salaries).Error; err != nil {
		return nil, err
	}
	return salaries, nil
}

func (r *repository) ListSalaries(ctx context.Context, params pagination.Params, filters SalaryFilters) (*SalaryList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.DriverSalary{})
	if filters.DriverID != nil {
		query = query.Where("driver_id = ?", *filters.DriverID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.DriverSalary
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &SalaryList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Salaries = rows
	return list, nil
}

func (r *repository) UpdateSalaryStatusIfCompleted(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, meta StatusMeta) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DriverSalary{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusCompleted).
		Updates(map[string]any{
			"status":          status,
			"reversed_at":     meta.ReversedAt,
			"reversed_by":     meta.ReversedBy,
			"reversal_reason": meta.Reason,
			"updated_at":      time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) CreateReversal(ctx context.Context, reversal *models.PaymentReversal) error {
	return r.db.WithContext(ctx).Create(reversal).Error
}

func (r *repository) FindReversalByID(ctx context.Context, id uuid.UUID) (*models.PaymentReversal, error) {
	var reversal models.PaymentReversal
	if err := r.db.WithContext(ctx).First(&reversal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reversal, nil
}

func (r *repository) ListReversals(ctx context.Context, params pagination.Params, filters ReversalFilters) (*ReversalList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.PaymentReversal{})
	if filters.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", *filters.ApprovalStatus)
	}
	if filters.DriverID != nil {
		query = query.Where("driver_id = ?", *filters.DriverID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.PaymentReversal
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &ReversalList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Reversals = rows
	return list, nil
}

func (r *repository) UpdateReversalStatusIfPending(ctx context.Context, id uuid.UUID, status enums.ApprovalStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentReversal{}).
		Where("id = ? AND approval_status = ?", id, enums.ApprovalStatusPending).
		Updates(map[string]any{
			"approval_status": status,
			"updated_at":      time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) MatchTransaction(ctx context.Context, driverID uuid.UUID, amount decimal.Decimal, around time.Time) (*models.Transaction, error) {
	from := around.Add(-guard.TransactionMatchWindow)
	to := around.Add(guard.TransactionMatchWindow)

	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Where("amount = ?", amount).
		Where("type = ?", enums.TransactionTypeExpense).
		Where("status IN ?", enums.ActivePaymentStatuses()).
		Where("occurred_at > ? AND occurred_at < ?", from, to).
		Order("occurred_at DESC").
		First(&txn).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}
