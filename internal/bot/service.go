package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/internal/guard"
	"github.com/davronbekov/taxipark-backend/internal/transactions"
	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
)

// botActorName identifies bridge-originated writes in the audit trail.
const botActorName = "telegram-bot"

type transactionCreator interface {
	Create(ctx context.Context, input transactions.CreateInput, actor audit.Actor) (*models.Transaction, error)
	FindRecentMatch(ctx context.Context, driverID uuid.UUID, txType enums.TransactionType, amount decimal.Decimal, since time.Time) (*models.Transaction, error)
}

// TransactionInput is a driver-entered income/expense command relayed by
// the bot. It feeds the same creation contract the dashboard uses.
type TransactionInput struct {
	DriverID    uuid.UUID
	Amount      decimal.Decimal
	Type        enums.TransactionType
	Description string
}

// SalaryPaidInput is the payload of the salary-paid webhook.
type SalaryPaidInput struct {
	DriverID uuid.UUID
	Amount   decimal.Decimal
	Date     time.Time
}

// SalaryPaidResult reports whether the driver could be notified. A
// missing chat link is an expected outcome, not an error.
type SalaryPaidResult struct {
	Delivered bool
	ChatID    int64
	Reason    string
}

// Service is the Telegram bridge: bot-entered transactions and the
// salary-paid notification hook. Command parsing lives in the bot itself.
type Service interface {
	RecordTransaction(ctx context.Context, input TransactionInput) (*models.Transaction, error)
	SalaryPaid(ctx context.Context, input SalaryPaidInput) (*SalaryPaidResult, error)
	LinkDriver(ctx context.Context, driverID uuid.UUID, chatID int64) (*models.BotSession, error)
	UnlinkDriver(ctx context.Context, driverID uuid.UUID) error
}

type service struct {
	repo Repository
	txns transactionCreator
	logg *logger.Logger
}

// NewService builds the bot bridge service.
func NewService(repo Repository, txns transactionCreator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bot repository required")
	}
	if txns == nil {
		return nil, fmt.Errorf("transaction creator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, txns: txns, logg: logg}, nil
}

func botActor() audit.Actor {
	return audit.SystemActor(botActorName)
}

// RecordTransaction relays a bot-entered entry through the shared creation
// contract. A matching entry recorded within the match window is treated
// as the same submission arriving twice and acknowledged without a second
// insert.
func (s *service) RecordTransaction(ctx context.Context, input TransactionInput) (*models.Transaction, error) {
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}

	since := time.Now().UTC().Add(-guard.TransactionMatchWindow)
	existing, err := s.txns.FindRecentMatch(ctx, input.DriverID, input.Type, input.Amount, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check for duplicate entry")
	}
	if existing != nil {
		s.logg.Info(
			s.logg.WithFields(ctx, map[string]any{
				"driver_id":      input.DriverID.String(),
				"transaction_id": existing.ID.String(),
			}),
			"duplicate bot entry acknowledged",
		)
		return existing, nil
	}

	return s.txns.Create(ctx, transactions.CreateInput{
		DriverID:    input.DriverID,
		Amount:      input.Amount,
		Type:        input.Type,
		Description: input.Description,
	}, botActor())
}

func (s *service) SalaryPaid(ctx context.Context, input SalaryPaidInput) (*SalaryPaidResult, error) {
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}

	link, err := s.repo.FindByDriverID(ctx, input.DriverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(s.logg.WithDriverID(ctx, input.DriverID.String()), "salary-paid webhook for unlinked driver")
			return &SalaryPaidResult{Delivered: false, Reason: "telegram not linked"}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve chat link")
	}

	s.logg.Info(
		s.logg.WithFields(ctx, map[string]any{
			"driver_id": input.DriverID.String(),
			"chat_id":   link.ChatID,
			"amount":    input.Amount.StringFixed(2),
		}),
		"salary-paid notification resolved",
	)
	return &SalaryPaidResult{Delivered: true, ChatID: link.ChatID}, nil
}

func (s *service) LinkDriver(ctx context.Context, driverID uuid.UUID, chatID int64) (*models.BotSession, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	if chatID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat id required")
	}
	link, err := s.repo.Link(ctx, driverID, chatID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link driver chat")
	}
	return link, nil
}

func (s *service) UnlinkDriver(ctx context.Context, driverID uuid.UUID) error {
	if driverID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	affected, err := s.repo.Unlink(ctx, driverID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlink driver chat")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "driver has no chat link")
	}
	return nil
}
