package models

import (
	"time"

	"github.com/google/uuid"
)

// BotSession links a driver to a Telegram chat so the bot bridge can
// resolve webhook calls to a deliverable chat id.
type BotSession struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID  uuid.UUID `gorm:"column:driver_id;type:uuid;not null;unique"`
	ChatID    int64     `gorm:"column:chat_id;not null;unique"`
	LinkedAt  time.Time `gorm:"column:linked_at;type:timestamptz;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
