package drivers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
)

type stubDriversRepo struct {
	drivers map[uuid.UUID]*models.Driver
	balance decimal.Decimal
	updates map[string]any
	failOn  string
}

func newStubDriversRepo() *stubDriversRepo {
	return &stubDriversRepo{drivers: map[uuid.UUID]*models.Driver{}}
}

func (s *stubDriversRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubDriversRepo) Create(ctx context.Context, driver *models.Driver) error {
	if s.failOn == "create" {
		return errors.New("create failed")
	}
	if driver.ID == uuid.Nil {
		driver.ID = uuid.New()
	}
	s.drivers[driver.ID] = driver
	return nil
}

func (s *stubDriversRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	driver, ok := s.drivers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *driver
	return &copied, nil
}

func (s *stubDriversRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	list := &List{}
	for _, driver := range s.drivers {
		if !filters.IncludeDeleted && driver.IsDeleted {
			continue
		}
		list.Drivers = append(list.Drivers, *driver)
	}
	return list, nil
}

func (s *stubDriversRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.failOn == "update" {
		return errors.New("update failed")
	}
	driver, ok := s.drivers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.updates = updates
	if v, ok := updates["is_deleted"].(bool); ok {
		driver.IsDeleted = v
	}
	if v, ok := updates["status"].(enums.DriverStatus); ok {
		driver.Status = v
	}
	if v, ok := updates["name"].(string); ok {
		driver.Name = v
	}
	return nil
}

func (s *stubDriversRepo) DerivedBalance(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	return s.balance, nil
}

func (s *stubDriversRepo) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubAuditor struct {
	entries []audit.Entry
	err     error
}

func (s *stubAuditor) Record(ctx context.Context, tx *gorm.DB, actor audit.Actor, entry audit.Entry) error {
	if s.err != nil {
		return s.err
	}
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

func testActor() audit.Actor {
	return audit.Actor{UserID: uuid.New(), Name: "admin"}
}

func newTestService(t *testing.T, repo *stubDriversRepo) (Service, *stubAuditor, *stubFeed) {
	t.Helper()
	auditor := &stubAuditor{}
	feed := &stubFeed{}
	svc, err := NewService(repo, stubTxRunner{}, auditor, feed)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, auditor, feed
}

func TestCreateDriverRecordsAuditAndFeed(t *testing.T) {
	repo := newStubDriversRepo()
	svc, auditor, feed := newTestService(t, repo)

	driver, err := svc.Create(context.Background(), CreateInput{
		Name:          "Bekzod",
		LicensePlate:  "01A123BC",
		CarModel:      "Cobalt",
		MonthlySalary: decimal.NewFromInt(3_000_000),
	}, testActor())
	if err != nil {
		t.Fatalf("create driver: %v", err)
	}
	if driver.Status != enums.DriverStatusOffline {
		t.Fatalf("new drivers start offline, got %s", driver.Status)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != enums.AuditActionCreateDriver {
		t.Fatalf("expected one CREATE_DRIVER audit entry, got %+v", auditor.entries)
	}
	if len(feed.events) != 1 || feed.events[0] != "drivers:create" {
		t.Fatalf("expected drivers:create feed event, got %v", feed.events)
	}
}

func TestCreateDriverRejectsNegativeSalary(t *testing.T) {
	repo := newStubDriversRepo()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateInput{
		Name:          "Bekzod",
		LicensePlate:  "01A123BC",
		MonthlySalary: decimal.NewFromInt(-1),
	}, testActor())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetDriverIncludesDerivedBalance(t *testing.T) {
	repo := newStubDriversRepo()
	driver := &models.Driver{ID: uuid.New(), Name: "Bekzod", Status: enums.DriverStatusActive}
	repo.drivers[driver.ID] = driver
	repo.balance = decimal.NewFromInt(250_000)
	svc, _, _ := newTestService(t, repo)

	view, err := svc.Get(context.Background(), driver.ID)
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	if !view.Balance.Equal(decimal.NewFromInt(250_000)) {
		t.Fatalf("expected derived balance 250000, got %s", view.Balance)
	}
}

func TestSoftDeleteMarksWithoutRemoving(t *testing.T) {
	repo := newStubDriversRepo()
	driver := &models.Driver{ID: uuid.New(), Name: "Bekzod", Status: enums.DriverStatusActive}
	repo.drivers[driver.ID] = driver
	svc, auditor, feed := newTestService(t, repo)

	if err := svc.SoftDelete(context.Background(), driver.ID, testActor()); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if !repo.drivers[driver.ID].IsDeleted {
		t.Fatal("expected is_deleted flag set")
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != enums.AuditActionDeleteDriver {
		t.Fatalf("expected DELETE_DRIVER audit entry, got %+v", auditor.entries)
	}
	if len(feed.events) != 1 || feed.events[0] != "drivers:delete" {
		t.Fatalf("expected drivers:delete feed event, got %v", feed.events)
	}

	err := svc.SoftDelete(context.Background(), driver.ID, testActor())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double delete, got %v", err)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := newStubDriversRepo()
	driver := &models.Driver{ID: uuid.New(), Name: "Bekzod"}
	repo.drivers[driver.ID] = driver
	svc, _, _ := newTestService(t, repo)

	err := svc.UpdateStatus(context.Background(), driver.ID, enums.DriverStatus("flying"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordLocationBoundsCoordinates(t *testing.T) {
	repo := newStubDriversRepo()
	driver := &models.Driver{ID: uuid.New(), Name: "Bekzod"}
	repo.drivers[driver.ID] = driver
	svc, _, feed := newTestService(t, repo)

	if err := svc.RecordLocation(context.Background(), driver.ID, LocationPing{Lat: 41.31, Lng: 69.24}); err != nil {
		t.Fatalf("record location: %v", err)
	}
	if len(feed.events) != 0 {
		t.Fatal("location pings must not hit the change feed")
	}

	err := svc.RecordLocation(context.Background(), driver.ID, LocationPing{Lat: 120, Lng: 0})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for out-of-range lat, got %v", err)
	}
}

func TestAuditFailureRollsBackCreate(t *testing.T) {
	repo := newStubDriversRepo()
	auditor := &stubAuditor{err: errors.New("audit down")}
	feed := &stubFeed{}
	svc, err := NewService(repo, stubTxRunner{}, auditor, feed)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Create(context.Background(), CreateInput{
		Name:          "Bekzod",
		LicensePlate:  "01A123BC",
		MonthlySalary: decimal.NewFromInt(3_000_000),
	}, testActor())
	if err == nil {
		t.Fatal("expected create to fail when audit write fails")
	}
	if len(feed.events) != 0 {
		t.Fatal("no feed event may be published for an uncommitted mutation")
	}
}
