package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
)

type stubAuditRepo struct {
	rows []models.AuditLog
}

func (s *stubAuditRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	s.rows = append(s.rows, *entry)
	return nil
}

func (s *stubAuditRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	return &List{Entries: s.rows}, nil
}

func buildService(t *testing.T) (Service, *stubAuditRepo) {
	t.Helper()
	repo := &stubAuditRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestRecordRejectsEmptyActor(t *testing.T) {
	svc, repo := buildService(t)

	err := svc.Record(context.Background(), nil, Actor{}, Entry{
		Action:   enums.AuditActionCreateDriver,
		TargetID: uuid.NewString(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty actor, got %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatal("rejected entry must not be persisted")
	}
}

func TestRecordAcceptsNamedSystemActor(t *testing.T) {
	svc, repo := buildService(t)

	err := svc.Record(context.Background(), nil, SystemActor("telegram-bot"), Entry{
		Action:     enums.AuditActionCreateTransaction,
		TargetID:   uuid.NewString(),
		TargetName: "Sardor",
		Detail:     "income of 45000.00",
	})
	if err != nil {
		t.Fatalf("record with system actor: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one audit row, got %d", len(repo.rows))
	}
	row := repo.rows[0]
	if row.PerformedBy != uuid.Nil || row.PerformerName != "telegram-bot" {
		t.Fatalf("system entries are attributed by name with a nil user id, got %s %q", row.PerformedBy, row.PerformerName)
	}
}

func TestRecordRequiresTarget(t *testing.T) {
	svc, _ := buildService(t)

	err := svc.Record(context.Background(), nil, Actor{UserID: uuid.New(), Name: "admin"}, Entry{
		Action: enums.AuditActionCreateDriver,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing target, got %v", err)
	}
}
