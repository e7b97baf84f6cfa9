package adminusers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/internal/stream"
	"github.com/davronbekov/taxipark-backend/pkg/config"
	"github.com/davronbekov/taxipark-backend/pkg/db"
	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
	"github.com/davronbekov/taxipark-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type changePublisher interface {
	Publish(ctx context.Context, collection, op, id string)
}

// CreateInput registers a new dashboard account.
type CreateInput struct {
	Email    string
	Name     string
	Role     enums.AdminRole
	Password string
}

// UpdateInput patches an account; nil fields are left untouched.
type UpdateInput struct {
	Name     *string
	Role     *enums.AdminRole
	Password *string
}

// Service manages dashboard operator accounts. Role enforcement at the
// route layer keeps these superadmin-only; the service re-checks the
// invariants it owns (self-demotion, self-deactivation).
type Service interface {
	Create(ctx context.Context, input CreateInput, actor audit.Actor) (*models.AdminUser, error)
	Get(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	List(ctx context.Context, params pagination.Params) (*List, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput, actor audit.Actor) (*models.AdminUser, error)
	Deactivate(ctx context.Context, id uuid.UUID, actor audit.Actor) error
}

type service struct {
	repo    Repository
	tx      txRunner
	auditor audit.Service
	feed    changePublisher
	pwCfg   config.PasswordConfig
}

// NewService builds the admin-users service.
func NewService(repo Repository, tx txRunner, auditor audit.Service, feed changePublisher, pwCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("admin users repository required")
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
	return &service{repo: repo, tx: tx, auditor: auditor, feed: feed, pwCfg: pwCfg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput, actor audit.Actor) (*models.AdminUser, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid email required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}

	password := input.Password
	if password == "" {
		generated, err := security.GenerateTempPassword(16)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate temporary password")
		}
		password = generated
	}
	if len(password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hash password")
	}

	user := &models.AdminUser{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Role:         input.Role,
		IsActive:     true,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin user")
		}
		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionCreateAdminUser,
			TargetID:   user.ID.String(),
			TargetName: user.Name,
			Detail:     fmt.Sprintf("created with role %s", user.Role),
		})
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx, stream.CollectionAdminUsers, stream.OpCreate, user.ID.String())
	return user, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, params pagination.Params) (*List, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list admin users")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput, actor audit.Actor) (*models.AdminUser, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		fields["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", *input.Role))
		}
		if user.ID == actor.UserID && *input.Role != user.Role {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot change your own role")
		}
		fields["role"] = *input.Role
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
		}
		hash, err := security.HashPassword(*input.Password, s.pwCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hash password")
		}
		fields["password_hash"] = hash
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, id, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update admin user")
		}
		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionUpdateAdminUser,
			TargetID:   user.ID.String(),
			TargetName: user.Name,
			Detail:     fmt.Sprintf("updated fields: %s", fieldNames(fields)),
		})
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx, stream.CollectionAdminUsers, stream.OpUpdate, user.ID.String())
	return s.load(ctx, id)
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID, actor audit.Actor) error {
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot deactivate your own account")
	}
	if !user.IsActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "account is already deactivated")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, id, map[string]any{"is_active": false}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate admin user")
		}
		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionDeactivateAdminUser,
			TargetID:   user.ID.String(),
			TargetName: user.Name,
			Detail:     "account deactivated",
		})
	})
	if err != nil {
		return err
	}

	s.feed.Publish(ctx, stream.CollectionAdminUsers, stream.OpUpdate, user.ID.String())
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin user")
	}
	return user, nil
}

func fieldNames(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == "password_hash" {
			name = "password"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
