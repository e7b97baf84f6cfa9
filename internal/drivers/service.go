package drivers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/internal/stream"
	"github.com/davronbekov/taxipark-backend/pkg/db"
	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type changePublisher interface {
	Publish(ctx context.Context, collection, op, id string)
}

// CreateInput carries the roster fields an admin supplies on creation.
type CreateInput struct {
	Name          string
	LicensePlate  string
	CarModel      string
	MonthlySalary decimal.Decimal
	DailyPlan     decimal.Decimal
}

// UpdateInput carries optional roster changes; nil fields are untouched.
type UpdateInput struct {
	Name          *string
	CarModel      *string
	MonthlySalary *decimal.Decimal
	DailyPlan     *decimal.Decimal
}

// LocationPing is a best-effort telemetry write from the driver app.
type LocationPing struct {
	Lat float64
	Lng float64
	At  time.Time
}

// DriverView is a roster entry plus its derived balance.
type DriverView struct {
	Driver  models.Driver
	Balance decimal.Decimal
}

// Service defines roster operations.
type Service interface {
	Create(ctx context.Context, input CreateInput, actor audit.Actor) (*models.Driver, error)
	Get(ctx context.Context, id uuid.UUID) (*DriverView, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput, actor audit.Actor) (*models.Driver, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.DriverStatus) error
	RecordLocation(ctx context.Context, id uuid.UUID, ping LocationPing) error
	SoftDelete(ctx context.Context, id uuid.UUID, actor audit.Actor) error
}

type service struct {
	repo    Repository
	tx      txRunner
	auditor audit.Service
	feed    changePublisher
}

// NewService builds a drivers service with the required dependencies.
func NewService(repo Repository, tx txRunner, auditor audit.Service, feed changePublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("drivers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if feed == nil {
		return nil, fmt.Errorf("change publisher required")
	}
	return &service{repo: repo, tx: tx, auditor: auditor, feed: feed}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput, actor audit.Actor) (*models.Driver, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver name required")
	}
	if input.LicensePlate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license plate required")
	}
	if input.MonthlySalary.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "monthly salary cannot be negative")
	}
	if input.DailyPlan.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "daily plan cannot be negative")
	}

	driver := &models.Driver{
		Name:          input.Name,
		LicensePlate:  input.LicensePlate,
		CarModel:      input.CarModel,
		Status:        enums.DriverStatusOffline,
		MonthlySalary: input.MonthlySalary,
		DailyPlan:     input.DailyPlan,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, driver); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "license plate already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create driver")
		}
		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionCreateDriver,
			TargetID:   driver.ID.String(),
			TargetName: driver.Name,
			Detail:     fmt.Sprintf("registered with plate %s", driver.LicensePlate),
		})
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx, stream.CollectionDrivers, stream.OpCreate, driver.ID.String())
	return driver, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*DriverView, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	driver, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}
	balance, err := s.repo.DerivedBalance(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "derive driver balance")
	}
	return &DriverView{Driver: *driver, Balance: balance}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid driver status %q", *filters.Status))
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drivers")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput, actor audit.Actor) (*models.Driver, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.CarModel != nil {
		updates["car_model"] = *input.CarModel
	}
	if input.MonthlySalary != nil {
		if input.MonthlySalary.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "monthly salary cannot be negative")
		}
		updates["monthly_salary"] = *input.MonthlySalary
	}
	if input.DailyPlan != nil {
		if input.DailyPlan.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "daily plan cannot be negative")
		}
		updates["daily_plan"] = *input.DailyPlan
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no changes provided")
	}

	var updated *models.Driver
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		driver, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
		}
		if driver.IsDeleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "driver is deleted")
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update driver")
		}
		if err := s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionUpdateDriver,
			TargetID:   driver.ID.String(),
			TargetName: driver.Name,
			Detail:     fmt.Sprintf("updated %d field(s)", len(updates)-1),
		}); err != nil {
			return err
		}
		updated, err = repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload driver")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx, stream.CollectionDrivers, stream.OpUpdate, id.String())
	return updated, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.DriverStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid driver status %q", status))
	}

	driver, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}
	if driver.IsDeleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "driver is deleted")
	}

	if err := s.repo.Update(ctx, id, map[string]any{"status": status}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update driver status")
	}
	s.feed.Publish(ctx, stream.CollectionDrivers, stream.OpUpdate, id.String())
	return nil
}

// RecordLocation is best-effort telemetry: it skips the audit trail and
// the change feed, and callers treat failures as non-fatal.
func (s *service) RecordLocation(ctx context.Context, id uuid.UUID, ping LocationPing) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	if ping.Lat < -90 || ping.Lat > 90 || ping.Lng < -180 || ping.Lng > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	at := ping.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if err := s.repo.Update(ctx, id, map[string]any{
		"last_lat":   ping.Lat,
		"last_lng":   ping.Lng,
		"located_at": at,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record driver location")
	}
	return nil
}

func (s *service) SoftDelete(ctx context.Context, id uuid.UUID, actor audit.Actor) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		driver, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
		}
		if driver.IsDeleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "driver already deleted")
		}
		if err := repo.Update(ctx, id, map[string]any{
			"is_deleted": true,
			"status":     enums.DriverStatusOffline,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "soft delete driver")
		}
		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionDeleteDriver,
			TargetID:   driver.ID.String(),
			TargetName: driver.Name,
			Detail:     "soft deleted; historical transactions retained",
		})
	})
	if err != nil {
		return err
	}

	s.feed.Publish(ctx, stream.CollectionDrivers, stream.OpDelete, id.String())
	return nil
}
