package drivers

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

// ListFilters narrows roster listings.
type ListFilters struct {
	Status         *enums.DriverStatus
	IncludeDeleted bool
}

// List is one page of roster entries.
type List struct {
	Drivers    []models.Driver
	NextCursor string
}

// Repository manages persistence for roster entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, driver *models.Driver) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// DerivedBalance sums signed active transaction amounts for the
	// driver. Balance is never stored on the driver row.
	DerivedBalance(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error)
	// MarkStaleOffline flips drivers whose last telemetry ping predates
	// the cutoff back to offline. Drivers that never pinged are left
	// alone.
	MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a drivers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, driver *models.Driver) error {
	return r.db.WithContext(ctx).Create(driver).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.WithContext(ctx).First(&driver, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Driver{})
	if !filters.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
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

	var rows []models.Driver
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &List{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Drivers = rows
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DerivedBalance(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Balance decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE -amount END), 0) AS balance",
			enums.TransactionTypeIncome).
		Where("driver_id = ?", driverID).
		Where("status IN ?", enums.ActivePaymentStatuses()).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Balance, nil
}

func (r *repository) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("status <> ?", enums.DriverStatusOffline).
		Where("is_deleted = ?", false).
		Where("located_at IS NOT NULL AND located_at < ?", cutoff).
		Updates(map[string]any{
			"status":     enums.DriverStatusOffline,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
