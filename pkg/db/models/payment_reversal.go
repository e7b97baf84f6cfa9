package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

// PaymentReversal is the auditable record of a reversal request, kept
// separate from the payment rows it affects and created in the same
// atomic batch as the status updates it authorizes.
type PaymentReversal struct {
	ID             uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SalaryID       uuid.UUID            `gorm:"column:salary_id;type:uuid;not null;index"`
	TransactionID  *uuid.UUID           `gorm:"column:transaction_id;type:uuid"`
	DriverID       uuid.UUID            `gorm:"column:driver_id;type:uuid;not null;index"`
	OriginalAmount decimal.Decimal      `gorm:"column:original_amount;type:numeric(18,2);not null"`
	ReversedBy     uuid.UUID            `gorm:"column:reversed_by;type:uuid;not null"`
	ReversedAt     time.Time            `gorm:"column:reversed_at;type:timestamptz;not null"`
	Reason         string               `gorm:"column:reason;not null"`
	ApprovalStatus enums.ApprovalStatus `gorm:"column:approval_status;type:approval_status;not null;default:'pending';index"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
