package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

// Driver is a roster entry. Drivers are soft-deleted so historical
// transactions keep a valid reference; balance is never stored, it is
// derived from active transactions.
type Driver struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string             `gorm:"column:name;not null"`
	LicensePlate  string             `gorm:"column:license_plate;not null;unique"`
	CarModel      string             `gorm:"column:car_model;not null"`
	Status        enums.DriverStatus `gorm:"column:status;type:driver_status;not null;default:'offline'"`
	MonthlySalary decimal.Decimal    `gorm:"column:monthly_salary;type:numeric(18,2);not null"`
	DailyPlan     decimal.Decimal    `gorm:"column:daily_plan;type:numeric(18,2);not null;default:0"`
	Rating        float64            `gorm:"column:rating;not null;default:0"`
	LastLat       *float64           `gorm:"column:last_lat"`
	LastLng       *float64           `gorm:"column:last_lng"`
	LocatedAt     *time.Time         `gorm:"column:located_at;type:timestamptz"`
	IsDeleted     bool               `gorm:"column:is_deleted;not null;default:false;index"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
