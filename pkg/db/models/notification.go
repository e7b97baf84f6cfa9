package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

// Notification is a broadcast message composed by an admin. Expiry is a
// timestamp comparison at read time, not an active deletion.
type Notification struct {
	ID          uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string                     `gorm:"column:title;not null"`
	Message     string                     `gorm:"column:message;not null"`
	Category    enums.NotificationCategory `gorm:"column:category;type:notification_category;not null"`
	Priority    enums.NotificationPriority `gorm:"column:priority;type:notification_priority;not null;default:'normal'"`
	TargetScope string                     `gorm:"column:target_scope;not null"`
	CreatedBy   uuid.UUID                  `gorm:"column:created_by;type:uuid;not null"`
	CreatorName string                     `gorm:"column:creator_name;not null"`
	ExpiresAt   *time.Time                 `gorm:"column:expires_at;type:timestamptz"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

// NotificationReceipt tracks delivery/read/delete state per recipient so a
// user hiding a broadcast does not affect anyone else.
type NotificationReceipt struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	NotificationID uuid.UUID  `gorm:"column:notification_id;type:uuid;not null;index"`
	UserID         uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	DeliveredAt    time.Time  `gorm:"column:delivered_at;type:timestamptz;not null"`
	ReadAt         *time.Time `gorm:"column:read_at;type:timestamptz"`
	DeletedAt      *time.Time `gorm:"column:deleted_at;type:timestamptz"`
}
