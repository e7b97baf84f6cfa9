package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
)

// UserNotification pairs a broadcast with the viewing user's receipt state.
type UserNotification struct {
	Notification models.Notification
	DeliveredAt  time.Time
	ReadAt       *time.Time
}

// UserList is one page of a user's inbox.
type UserList struct {
	Items      []UserNotification
	NextCursor string
}

// Repository manages broadcasts and per-user receipts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateNotification(ctx context.Context, notification *models.Notification) error
	CreateReceipts(ctx context.Context, receipts []models.NotificationReceipt) error
	// ListForUser returns the user's inbox, newest first, hiding expired
	// broadcasts and receipts the user deleted. Expiry is a timestamp
	// comparison at read time, never an active deletion.
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, now time.Time) (*UserList, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) error
	DeleteForUser(ctx context.Context, notificationID, userID uuid.UUID, at time.Time) (int64, error)
	// PurgeExpiredBefore hard-deletes broadcasts whose expiry passed
	// before the cutoff, receipts included. Run by the cron worker;
	// reads never see these rows anyway.
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) CreateReceipts(ctx context.Context, receipts []models.NotificationReceipt) error {
	if len(receipts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&receipts).Error
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, now time.Time) (*UserList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	type row struct {
		models.Notification
		DeliveredAt time.Time
		ReadAt      *time.Time
	}

	query := r.db.WithContext(ctx).
		Table("notifications").
		Select("notifications.*, notification_receipts.delivered_at, notification_receipts.read_at").
		Joins("JOIN notification_receipts ON notification_receipts.notification_id = notifications.id").
		Where("notification_receipts.user_id = ?", userID).
		Where("notification_receipts.deleted_at IS NULL").
		Where("notifications.expires_at IS NULL OR notifications.expires_at > ?", now)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(notifications.created_at < ?) OR (notifications.created_at = ? AND notifications.id < ?)",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []row
	if err := query.
		Order("notifications.created_at DESC, notifications.id DESC").
		Limit(limit + 1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	list := &UserList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.CreatedAt,
			ID:        last.ID,
		})
	}
	for _, item := range rows {
		list.Items = append(list.Items, UserNotification{
			Notification: item.Notification,
			DeliveredAt:  item.DeliveredAt,
			ReadAt:       item.ReadAt,
		})
	}
	return list, nil
}

func (r *repository) MarkRead(ctx context.Context, notificationID, userID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.NotificationReceipt{}).
		Where("notification_id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

func (r *repository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.NotificationReceipt{}).
		Where("user_id = ? AND read_at IS NULL AND deleted_at IS NULL", userID).
		Update("read_at", at).Error
}

func (r *repository) DeleteForUser(ctx context.Context, notificationID, userID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.NotificationReceipt{}).
		Where("notification_id = ? AND user_id = ? AND deleted_at IS NULL", notificationID, userID).
		Update("deleted_at", at)
	return res.RowsAffected, res.Error
}

func (r *repository) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := r.db.WithContext(ctx).
		Where("notification_id IN (?)", r.db.
			Model(&models.Notification{}).
			Select("id").
			Where("expires_at IS NOT NULL AND expires_at < ?", cutoff)).
		Delete(&models.NotificationReceipt{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
