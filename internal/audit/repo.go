package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
)

// ListFilters narrows the audit listing for the admin console.
type ListFilters struct {
	Action      *enums.AuditAction
	PerformedBy *uuid.UUID
}

// List is one page of audit entries.
type List struct {
	Entries    []models.AuditLog
	NextCursor string
}

// Repository persists audit entries. The model is append-only: there is
// deliberately no update or delete method on this interface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filters.Action != nil {
		query = query.Where("action = ?", *filters.Action)
	}
	if filters.PerformedBy != nil {
		query = query.Where("performed_by = ?", *filters.PerformedBy)
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

	var entries []models.AuditLog
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	list := &List{}
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Entries = entries
	return list, nil
}
