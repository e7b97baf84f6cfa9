package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

// Transaction is a single income or expense entry. Amount is always a
// positive magnitude and is never mutated after creation; every later
// state change happens through the status column or a linked
// compensating entry.
type Transaction struct {
	ID                    uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID              uuid.UUID             `gorm:"column:driver_id;type:uuid;not null;index"`
	Amount                decimal.Decimal       `gorm:"column:amount;type:numeric(18,2);not null"`
	Type                  enums.TransactionType `gorm:"column:type;type:transaction_type;not null"`
	Description           string                `gorm:"column:description;not null"`
	OccurredAt            time.Time             `gorm:"column:occurred_at;type:timestamptz;not null;index"`
	Status                enums.PaymentStatus   `gorm:"column:status;type:payment_status;not null;default:'completed';index"`
	ReversedAt            *time.Time            `gorm:"column:reversed_at;type:timestamptz"`
	ReversedBy            *uuid.UUID            `gorm:"column:reversed_by;type:uuid"`
	ReversalReason        *string               `gorm:"column:reversal_reason"`
	OriginalTransactionID *uuid.UUID            `gorm:"column:original_transaction_id;type:uuid"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
