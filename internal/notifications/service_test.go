package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
)

type stubNotifRepo struct {
	notifications []*models.Notification
	receipts      []models.NotificationReceipt
	readCount     int64
}

func (s *stubNotifRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubNotifRepo) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	s.notifications = append(s.notifications, notification)
	return nil
}

func (s *stubNotifRepo) CreateReceipts(ctx context.Context, receipts []models.NotificationReceipt) error {
	s.receipts = append(s.receipts, receipts...)
	return nil
}

func (s *stubNotifRepo) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, now time.Time) (*UserList, error) {
	list := &UserList{}
	for _, receipt := range s.receipts {
		if receipt.UserID != userID || receipt.DeletedAt != nil {
			continue
		}
		for _, notification := range s.notifications {
			if notification.ID != receipt.NotificationID {
				continue
			}
			if notification.ExpiresAt != nil && !notification.ExpiresAt.After(now) {
				continue
			}
			list.Items = append(list.Items, UserNotification{
				Notification: *notification,
				DeliveredAt:  receipt.DeliveredAt,
				ReadAt:       receipt.ReadAt,
			})
		}
	}
	return list, nil
}

func (s *stubNotifRepo) MarkRead(ctx context.Context, notificationID, userID uuid.UUID, at time.Time) (int64, error) {
	return s.readCount, nil
}

func (s *stubNotifRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return nil
}

func (s *stubNotifRepo) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *stubNotifRepo) DeleteForUser(ctx context.Context, notificationID, userID uuid.UUID, at time.Time) (int64, error) {
	for i := range s.receipts {
		if s.receipts[i].NotificationID == notificationID && s.receipts[i].UserID == userID && s.receipts[i].DeletedAt == nil {
			s.receipts[i].DeletedAt = &at
			return 1, nil
		}
	}
	return 0, nil
}

type stubResolver struct {
	all    []uuid.UUID
	byRole map[enums.AdminRole][]uuid.UUID
}

func (s *stubResolver) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.all, nil
}

func (s *stubResolver) ListActiveIDsByRole(ctx context.Context, role enums.AdminRole) ([]uuid.UUID, error) {
	return s.byRole[role], nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubAuditor struct {
	entries []audit.Entry
}

func (s *stubAuditor) Record(ctx context.Context, tx *gorm.DB, actor audit.Actor, entry audit.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubAuditor) List(ctx context.Context, params pagination.Params, filters audit.ListFilters) (*audit.List, error) {
	return &audit.List{}, nil
}

type stubFeed struct {
	events []string
}

func (s *stubFeed) Publish(ctx context.Context, collection, op, id string) {
	s.events = append(s.events, collection+":"+op)
}

func buildService(t *testing.T, resolver *stubResolver) (Service, *stubNotifRepo, *stubAuditor, *stubFeed) {
	t.Helper()
	repo := &stubNotifRepo{}
	auditor := &stubAuditor{}
	feed := &stubFeed{}
	svc, err := NewService(repo, resolver, stubTxRunner{}, auditor, feed)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, auditor, feed
}

func TestSendBroadcastToAll(t *testing.T) {
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	svc, repo, auditor, feed := buildService(t, &stubResolver{all: users})

	notification, err := svc.Send(context.Background(), SendInput{
		Title:    "Maintenance tonight",
		Message:  "Dashboard will be down 02:00-03:00",
		Category: enums.NotificationCategorySystem,
		Priority: enums.NotificationPriorityNormal,
		Target:   Target{All: true},
	}, audit.Actor{UserID: uuid.New(), Name: "admin"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if notification.TargetScope != "all" {
		t.Fatalf("expected target scope all, got %q", notification.TargetScope)
	}
	if len(repo.receipts) != len(users) {
		t.Fatalf("expected %d receipts, got %d", len(users), len(repo.receipts))
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != enums.AuditActionSendNotification {
		t.Fatalf("expected SEND_NOTIFICATION audit entry, got %+v", auditor.entries)
	}
	if len(feed.events) != 1 || feed.events[0] != "notifications:create" {
		t.Fatalf("expected notifications:create feed event, got %v", feed.events)
	}
}

func TestSendBroadcastToRole(t *testing.T) {
	viewers := []uuid.UUID{uuid.New()}
	role := enums.AdminRoleViewer
	svc, repo, _, _ := buildService(t, &stubResolver{
		byRole: map[enums.AdminRole][]uuid.UUID{role: viewers},
	})

	notification, err := svc.Send(context.Background(), SendInput{
		Title:    "Read-only reminder",
		Message:  "Viewer accounts cannot edit records",
		Category: enums.NotificationCategoryInfo,
		Target:   Target{Role: &role},
	}, audit.Actor{UserID: uuid.New(), Name: "admin"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if notification.TargetScope != "role:viewer" {
		t.Fatalf("expected target scope role:viewer, got %q", notification.TargetScope)
	}
	if len(repo.receipts) != 1 || repo.receipts[0].UserID != viewers[0] {
		t.Fatalf("expected one receipt for the viewer, got %+v", repo.receipts)
	}
}

func TestSendDeduplicatesExplicitUsers(t *testing.T) {
	svc, repo, _, _ := buildService(t, &stubResolver{})
	userID := uuid.New()

	_, err := svc.Send(context.Background(), SendInput{
		Title:    "Ping",
		Message:  "Direct message",
		Category: enums.NotificationCategoryInfo,
		Target:   Target{Users: []uuid.UUID{userID, userID}},
	}, audit.Actor{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(repo.receipts) != 1 {
		t.Fatalf("expected duplicate target users collapsed to one receipt, got %d", len(repo.receipts))
	}
}

func TestSendRejectsAmbiguousTarget(t *testing.T) {
	role := enums.AdminRoleAdmin
	svc, _, _, _ := buildService(t, &stubResolver{})

	_, err := svc.Send(context.Background(), SendInput{
		Title:    "Bad target",
		Message:  "two selectors",
		Category: enums.NotificationCategoryInfo,
		Target:   Target{All: true, Role: &role},
	}, audit.Actor{UserID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendRejectsEmptyRecipientSet(t *testing.T) {
	svc, _, _, feed := buildService(t, &stubResolver{})

	_, err := svc.Send(context.Background(), SendInput{
		Title:    "No one home",
		Message:  "resolver returns no users",
		Category: enums.NotificationCategoryAlert,
		Target:   Target{All: true},
	}, audit.Actor{UserID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(feed.events) != 0 {
		t.Fatalf("no feed event expected on failure, got %v", feed.events)
	}
}

func TestExpiredNotificationsHiddenFromInbox(t *testing.T) {
	userID := uuid.New()
	svc, repo, _, _ := buildService(t, &stubResolver{all: []uuid.UUID{userID}})

	shortLived := time.Millisecond
	if _, err := svc.Send(context.Background(), SendInput{
		Title:     "Flash notice",
		Message:   "gone in a millisecond",
		Category:  enums.NotificationCategoryInfo,
		Target:    Target{All: true},
		ExpiresIn: &shortLived,
	}, audit.Actor{UserID: uuid.New()}); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Expiry is a read-time comparison: the row survives, the inbox hides it.
	expired := repo.notifications[0].ExpiresAt.Add(time.Second)
	list, err := repo.ListForUser(context.Background(), userID, pagination.Params{}, expired)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("expired broadcast must be hidden, got %d items", len(list.Items))
	}
	if len(repo.notifications) != 1 {
		t.Fatal("expired broadcast must not be deleted")
	}
}

func TestDeleteForUserHidesOnlyOwnReceipt(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	svc, repo, _, _ := buildService(t, &stubResolver{all: []uuid.UUID{alice, bob}})

	notification, err := svc.Send(context.Background(), SendInput{
		Title:    "Shared broadcast",
		Message:  "both inboxes",
		Category: enums.NotificationCategoryInfo,
		Target:   Target{All: true},
	}, audit.Actor{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := svc.DeleteForUser(context.Background(), notification.ID, alice); err != nil {
		t.Fatalf("delete for user: %v", err)
	}

	aliceList, _ := repo.ListForUser(context.Background(), alice, pagination.Params{}, time.Now())
	bobList, _ := repo.ListForUser(context.Background(), bob, pagination.Params{}, time.Now())
	if len(aliceList.Items) != 0 {
		t.Fatal("deleted receipt must hide the broadcast for the deleting user")
	}
	if len(bobList.Items) != 1 {
		t.Fatal("other recipients must keep the broadcast")
	}
}

func TestMarkReadMissingReceipt(t *testing.T) {
	svc, repo, _, _ := buildService(t, &stubResolver{})
	repo.readCount = 0

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
