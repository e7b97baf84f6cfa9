package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

// AuditLog is append-only: there is no update or delete path anywhere in
// the codebase, and none may be added.
type AuditLog struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Action        enums.AuditAction `gorm:"column:action;not null;index"`
	TargetID      string            `gorm:"column:target_id;not null"`
	TargetName    string            `gorm:"column:target_name;not null"`
	PerformedBy   uuid.UUID         `gorm:"column:performed_by;type:uuid;not null;index"`
	PerformerName string            `gorm:"column:performer_name;not null"`
	Detail        string            `gorm:"column:detail;not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}
