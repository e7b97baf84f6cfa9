package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
)

// ListFilters narrows transaction listings.
type ListFilters struct {
	DriverID       *uuid.UUID
	Type           *enums.TransactionType
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
}

// List is one page of transactions.
type List struct {
	Transactions []models.Transaction
	NextCursor   string
}

// Repository manages persistence for income/expense entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	// UpdateStatusIfCompleted flips the status only when the row is still
	// completed, returning the number of rows changed. Zero rows means a
	// concurrent writer won the race.
	UpdateStatusIfCompleted(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, meta ReversalMeta) (int64, error)
	// FindRecentMatch returns the newest completed entry for the driver
	// with the same type and amount occurring at or after since. Nil when
	// nothing matches.
	FindRecentMatch(ctx context.Context, driverID uuid.UUID, txType enums.TransactionType, amount decimal.Decimal, since time.Time) (*models.Transaction, error)
}

// ReversalMeta carries the who/when/why recorded on a status flip.
type ReversalMeta struct {
	ReversedAt time.Time
	ReversedBy uuid.UUID
	Reason     string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transactions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Transaction{})
	if filters.DriverID != nil {
		query = query.Where("driver_id = ?", *filters.DriverID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.From != nil {
		query = query.Where("occurred_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("occurred_at < ?", *filters.To)
	}
	if !filters.IncludeDeleted {
		query = query.Where("status <> ?", enums.PaymentStatusDeleted)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(occurred_at < ?) OR (occurred_at = ? AND id < ?)",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.Transaction
	if err := query.
		Order("occurred_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &List{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.OccurredAt,
			ID:        last.ID,
		})
	}
	list.Transactions = rows
	return list, nil
}

func (r *repository) FindRecentMatch(ctx context.Context, driverID uuid.UUID, txType enums.TransactionType, amount decimal.Decimal, since time.Time) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND type = ? AND amount = ? AND status = ? AND occurred_at >= ?",
			driverID, txType, amount, enums.PaymentStatusCompleted, since).
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

func (r *repository) UpdateStatusIfCompleted(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, meta ReversalMeta) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
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
