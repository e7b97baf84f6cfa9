package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/internal/stream"
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

type driverFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
}

// CreateInput carries the fields for a manual or bot-entered entry.
// Amount is a positive magnitude; the type carries the sign.
type CreateInput struct {
	DriverID    uuid.UUID
	Amount      decimal.Decimal
	Type        enums.TransactionType
	Description string
	OccurredAt  time.Time
}

// Service defines income/expense operations. The same creation contract
// serves the dashboard and the bot bridge.
type Service interface {
	Create(ctx context.Context, input CreateInput, actor audit.Actor) (*models.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor audit.Actor) error
	// FindRecentMatch reports an existing completed entry with the same
	// driver, type, and amount occurring at or after since. The bot bridge
	// uses it to acknowledge duplicate submissions without a second insert.
	FindRecentMatch(ctx context.Context, driverID uuid.UUID, txType enums.TransactionType, amount decimal.Decimal, since time.Time) (*models.Transaction, error)
}

type service struct {
	repo    Repository
	drivers driverFinder
	tx      txRunner
	auditor audit.Service
	feed    changePublisher
}

// NewService builds a transactions service with the required dependencies.
func NewService(repo Repository, drivers driverFinder, tx txRunner, auditor audit.Service, feed changePublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if drivers == nil {
		return nil, fmt.Errorf("driver finder required")
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
	return &service{repo: repo, drivers: drivers, tx: tx, auditor: auditor, feed: feed}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput, actor audit.Actor) (*models.Transaction, error) {
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive magnitude")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}

	driver, err := s.drivers.FindByID(ctx, input.DriverID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}
	if driver.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "driver is deleted")
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	// Entries always start completed; there is no pending-approval flow.
	txn := &models.Transaction{
		DriverID:    input.DriverID,
		Amount:      input.Amount,
		Type:        input.Type,
		Description: input.Description,
		OccurredAt:  occurredAt,
		Status:      enums.PaymentStatusCompleted,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
		}
		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionCreateTransaction,
			TargetID:   txn.ID.String(),
			TargetName: driver.Name,
			Detail:     fmt.Sprintf("%s of %s", txn.Type, txn.Amount.StringFixed(2)),
		})
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx, stream.CollectionTransactions, stream.OpCreate, txn.ID.String())
	return txn, nil
}

func (s *service) FindRecentMatch(ctx context.Context, driverID uuid.UUID, txType enums.TransactionType, amount decimal.Decimal, since time.Time) (*models.Transaction, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	txn, err := s.repo.FindRecentMatch(ctx, driverID, txType, amount, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match recent transaction")
	}
	return txn, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	if filters.Type != nil && !filters.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", *filters.Type))
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return list, nil
}

// SoftDelete flips completed→deleted. The row is excluded from every
// aggregate from then on but stays visible in historical views.
func (s *service) SoftDelete(ctx context.Context, id uuid.UUID, actor audit.Actor) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		txn, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}
		if txn.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("transaction is already %s", txn.Status))
		}

		affected, err := repo.UpdateStatusIfCompleted(ctx, id, enums.PaymentStatusDeleted, ReversalMeta{
			ReversedAt: time.Now().UTC(),
			ReversedBy: actor.UserID,
			Reason:     "soft delete",
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "soft delete transaction")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction changed state concurrently")
		}

		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionDeleteTransaction,
			TargetID:   txn.ID.String(),
			TargetName: txn.Description,
			Detail:     fmt.Sprintf("%s of %s soft deleted", txn.Type, txn.Amount.StringFixed(2)),
		})
	})
	if err != nil {
		return err
	}

	s.feed.Publish(ctx, stream.CollectionTransactions, stream.OpDelete, id.String())
	return nil
}
