package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

// DriverSalary records one salary payment. EffectiveDate anchors the pay
// period and is distinct from CreatedAt (back-dated payments are allowed).
// At most one non-reversed, non-refunded salary may exist per driver per
// calendar month; the guard evaluator enforces this before creation.
type DriverSalary struct {
	ID             uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID       uuid.UUID           `gorm:"column:driver_id;type:uuid;not null;index"`
	Amount         decimal.Decimal     `gorm:"column:amount;type:numeric(18,2);not null"`
	EffectiveDate  time.Time           `gorm:"column:effective_date;type:timestamptz;not null;index"`
	CreatedBy      uuid.UUID           `gorm:"column:created_by;type:uuid;not null"`
	Status         enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'completed';index"`
	TransactionID  *uuid.UUID          `gorm:"column:transaction_id;type:uuid"`
	ReversedAt     *time.Time          `gorm:"column:reversed_at;type:timestamptz"`
	ReversedBy     *uuid.UUID          `gorm:"column:reversed_by;type:uuid"`
	ReversalReason *string             `gorm:"column:reversal_reason"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
