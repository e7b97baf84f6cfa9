package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
)

// Actor identifies who performed an administrative action.
type Actor struct {
	UserID uuid.UUID
	Name   string
}

// SystemActor identifies an automated writer such as the bot bridge or a
// scheduled job. System entries carry a nil user id and are attributed by
// name only.
func SystemActor(name string) Actor {
	return Actor{UserID: uuid.Nil, Name: name}
}

// Entry captures the auditable facts of one action.
type Entry struct {
	Action     enums.AuditAction
	TargetID   string
	TargetName string
	Detail     string
}

// Service records and lists audit entries.
type Service interface {
	// Record appends an entry; when tx is non-nil the write joins the
	// caller's transaction so financial mutations and their audit rows
	// commit together.
	Record(ctx context.Context, tx *gorm.DB, actor Actor, entry Entry) error
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
}

type service struct {
	repo Repository
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, actor Actor, entry Entry) error {
	if actor.UserID == uuid.Nil && actor.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit actor required")
	}
	if !entry.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid audit action %q", entry.Action))
	}
	if entry.TargetID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit target id required")
	}

	row := &models.AuditLog{
		Action:        entry.Action,
		TargetID:      entry.TargetID,
		TargetName:    entry.TargetName,
		PerformedBy:   actor.UserID,
		PerformerName: actor.Name,
		Detail:        entry.Detail,
	}
	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit entry")
	}
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	if filters.Action != nil && !filters.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid audit action %q", *filters.Action))
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	return list, nil
}
