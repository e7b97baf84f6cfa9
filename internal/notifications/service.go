package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// RecipientResolver resolves target scopes into admin user ids.
type RecipientResolver interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	ListActiveIDsByRole(ctx context.Context, role enums.AdminRole) ([]uuid.UUID, error)
}

// Target is the broadcast scope: everyone, one role, or an explicit list.
// Exactly one selector must be set.
type Target struct {
	All   bool
	Role  *enums.AdminRole
	Users []uuid.UUID
}

func (t Target) scopeLabel() string {
	switch {
	case t.All:
		return "all"
	case t.Role != nil:
		return "role:" + t.Role.String()
	default:
		return fmt.Sprintf("users:%d", len(t.Users))
	}
}

// SendInput carries a composed broadcast.
type SendInput struct {
	Title     string
	Message   string
	Category  enums.NotificationCategory
	Priority  enums.NotificationPriority
	Target    Target
	ExpiresIn *time.Duration
}

// Service defines notification operations.
type Service interface {
	Send(ctx context.Context, input SendInput, actor audit.Actor) (*models.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*UserList, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	DeleteForUser(ctx context.Context, notificationID, userID uuid.UUID) error
}

type service struct {
	repo       Repository
	recipients RecipientResolver
	tx         txRunner
	auditor    audit.Service
	feed       changePublisher
}

// NewService builds a notifications service with the required dependencies.
func NewService(repo Repository, recipients RecipientResolver, tx txRunner, auditor audit.Service, feed changePublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if recipients == nil {
		return nil, fmt.Errorf("recipient resolver required")
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
	return &service{repo: repo, recipients: recipients, tx: tx, auditor: auditor, feed: feed}, nil
}

func (s *service) Send(ctx context.Context, input SendInput, actor audit.Actor) (*models.Notification, error) {
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}
	if input.Message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification message required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notification category %q", input.Category))
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.NotificationPriorityNormal
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notification priority %q", priority))
	}
	if input.ExpiresIn != nil && *input.ExpiresIn <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry must be in the future")
	}

	recipients, err := s.resolveRecipients(ctx, input.Target)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification has no recipients")
	}

	now := time.Now().UTC()
	notification := &models.Notification{
		Title:       input.Title,
		Message:     input.Message,
		Category:    input.Category,
		Priority:    priority,
		TargetScope: input.Target.scopeLabel(),
		CreatedBy:   actor.UserID,
		CreatorName: actor.Name,
	}
	if input.ExpiresIn != nil {
		expiresAt := now.Add(*input.ExpiresIn)
		notification.ExpiresAt = &expiresAt
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateNotification(ctx, notification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
		}

		receipts := make([]models.NotificationReceipt, 0, len(recipients))
		for _, userID := range recipients {
			receipts = append(receipts, models.NotificationReceipt{
				NotificationID: notification.ID,
				UserID:         userID,
				DeliveredAt:    now,
			})
		}
		if err := repo.CreateReceipts(ctx, receipts); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification receipts")
		}

		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionSendNotification,
			TargetID:   notification.ID.String(),
			TargetName: notification.Title,
			Detail:     fmt.Sprintf("sent to %s (%d recipients)", notification.TargetScope, len(receipts)),
		})
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx, stream.CollectionNotifications, stream.OpCreate, notification.ID.String())
	return notification, nil
}

func (s *service) resolveRecipients(ctx context.Context, target Target) ([]uuid.UUID, error) {
	selectors := 0
	if target.All {
		selectors++
	}
	if target.Role != nil {
		selectors++
	}
	if len(target.Users) > 0 {
		selectors++
	}
	if selectors != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one target selector required")
	}

	switch {
	case target.All:
		ids, err := s.recipients.ListActiveIDs(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve recipients")
		}
		return ids, nil
	case target.Role != nil:
		if !target.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target role %q", *target.Role))
		}
		ids, err := s.recipients.ListActiveIDsByRole(ctx, *target.Role)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve recipients")
		}
		return ids, nil
	default:
		seen := map[uuid.UUID]struct{}{}
		ids := make([]uuid.UUID, 0, len(target.Users))
		for _, id := range target.Users {
			if id == uuid.Nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "target user id cannot be empty")
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		return ids, nil
	}
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*UserList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	list, err := s.repo.ListForUser(ctx, userID, params, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return list, nil
}

func (s *service) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	if notificationID == uuid.Nil || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id and user id required")
	}
	affected, err := s.repo.MarkRead(ctx, notificationID, userID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all notifications read")
	}
	return nil
}

// DeleteForUser hides the broadcast for one user only; other recipients
// are unaffected.
func (s *service) DeleteForUser(ctx context.Context, notificationID, userID uuid.UUID) error {
	if notificationID == uuid.Nil || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id and user id required")
	}
	affected, err := s.repo.DeleteForUser(ctx, notificationID, userID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}
