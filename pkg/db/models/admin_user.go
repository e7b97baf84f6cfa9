package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

// AdminUser is a dashboard operator account.
type AdminUser struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;not null;unique"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Name         string          `gorm:"column:name;not null"`
	Role         enums.AdminRole `gorm:"column:role;type:admin_role;not null;default:'viewer'"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
