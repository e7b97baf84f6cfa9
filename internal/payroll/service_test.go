package payroll

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/internal/notifications"
	"github.com/davronbekov/taxipark-backend/internal/transactions"
	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
	"github.com/davronbekov/taxipark-backend/pkg/pagination"
)

type stubPayrollRepo struct {
	salaries  map[uuid.UUID]*models.DriverSalary
	reversals map[uuid.UUID]*models.PaymentReversal

	// matched is returned by MatchTransaction when set.
	matched *models.Transaction

	salaryUpdateOK   bool
	reversalUpdateOK bool
	failCreateSalary bool
}

func newStubPayrollRepo() *stubPayrollRepo {
	return &stubPayrollRepo{
		salaries:         map[uuid.UUID]*models.DriverSalary{},
		reversals:        map[uuid.UUID]*models.PaymentReversal{},
		salaryUpdateOK:   true,
		reversalUpdateOK: true,
	}
}

func (s *stubPayrollRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPayrollRepo) CreateSalary(ctx context.Context, salary *models.DriverSalary) error {
	if s.failCreateSalary {
		return gorm.ErrInvalidData
	}
	if salary.ID == uuid.Nil {
		salary.ID = uuid.New()
	}
	if salary.CreatedAt.IsZero() {
		salary.CreatedAt = time.Now().UTC()
	}
	s.salaries[salary.ID] = salary
	return nil
}

func (s *stubPayrollRepo) FindSalaryByID(ctx context.Context, id uuid.UUID) (*models.DriverSalary, error) {
	salary, ok := s.salaries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *salary
	return &copied, nil
}

func (s *stubPayrollRepo) ListSalariesByDriver(ctx context.Context, driverID uuid.UUID) ([]models.DriverSalary, error) {
	var out []models.DriverSalary
	for _, salary := range s.salaries {
		if salary.DriverID == driverID {
			out = append(out, *salary)
		}
	}
	return out, nil
}

func (s *stubPayrollRepo) ListSalaries(ctx context.Context, params pagination.Params, filters SalaryFilters) (*SalaryList, error) {
	list := &SalaryList{}
	for _, salary := range s.salaries {
		list.Salaries = append(list.Salaries, *salary)
	}
	return list, nil
}

func (s *stubPayrollRepo) UpdateSalaryStatusIfCompleted(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, meta StatusMeta) (int64, error) {
	salary, ok := s.salaries[id]
	if !ok || !s.salaryUpdateOK || salary.Status != enums.PaymentStatusCompleted {
		return 0, nil
	}
	salary.Status = status
	salary.ReversedAt = &meta.ReversedAt
	salary.ReversedBy = &meta.ReversedBy
	reason := meta.Reason
	salary.ReversalReason = &reason
	return 1, nil
}

func (s *stubPayrollRepo) CreateReversal(ctx context.Context, reversal *models.PaymentReversal) error {
	if reversal.ID == uuid.Nil {
		reversal.ID = uuid.New()
	}
	s.reversals[reversal.ID] = reversal
	return nil
}

func (s *stubPayrollRepo) FindReversalByID(ctx context.Context, id uuid.UUID) (*models.PaymentReversal, error) {
	reversal, ok := s.reversals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *reversal
	return &copied, nil
}

func (s *stubPayrollRepo) ListReversals(ctx context.Context, params pagination.Params, filters ReversalFilters) (*ReversalList, error) {
	list := &ReversalList{}
	for _, reversal := range s.reversals {
		list.Reversals = append(list.Reversals, *reversal)
	}
	return list, nil
}

func (s *stubPayrollRepo) UpdateReversalStatusIfPending(ctx context.Context, id uuid.UUID, status enums.ApprovalStatus) (int64, error) {
	reversal, ok := s.reversals[id]
	if !ok || !s.reversalUpdateOK || reversal.ApprovalStatus != enums.ApprovalStatusPending {
		return 0, nil
	}
	reversal.ApprovalStatus = status
	return 1, nil
}

func (s *stubPayrollRepo) MatchTransaction(ctx context.Context, driverID uuid.UUID, amount decimal.Decimal, around time.Time) (*models.Transaction, error) {
	return s.matched, nil
}

type stubTxnRepo struct {
	rows map[uuid.UUID]*models.Transaction
}

func newStubTxnRepo() *stubTxnRepo {
	return &stubTxnRepo{rows: map[uuid.UUID]*models.Transaction{}}
}

func (s *stubTxnRepo) WithTx(tx *gorm.DB) transactions.Repository { return s }

func (s *stubTxnRepo) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	s.rows[txn.ID] = txn
	return nil
}

func (s *stubTxnRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	txn, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *txn
	return &copied, nil
}

func (s *stubTxnRepo) List(ctx context.Context, params pagination.Params, filters transactions.ListFilters) (*transactions.List, error) {
	return &transactions.List{}, nil
}

func (s *stubTxnRepo) FindRecentMatch(ctx context.Context, driverID uuid.UUID, txType enums.TransactionType, amount decimal.Decimal, since time.Time) (*models.Transaction, error) {
	return nil, nil
}

func (s *stubTxnRepo) UpdateStatusIfCompleted(ctx context.Context, id uuid.UUID, status enums.PaymentStatus, meta transactions.ReversalMeta) (int64, error) {
	txn, ok := s.rows[id]
	if !ok || txn.Status != enums.PaymentStatusCompleted {
		return 0, nil
	}
	txn.Status = status
	return 1, nil
}

type stubDriverFinder struct {
	drivers map[uuid.UUID]*models.Driver
}

func (s *stubDriverFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	driver, ok := s.drivers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return driver, nil
}

// rollbackTxRunner mimics a database transaction over the stub stores: a
// failing closure restores every store to its pre-transaction state, so
// tests can assert that mid-batch failures leave nothing behind.
type rollbackTxRunner struct {
	repo    *stubPayrollRepo
	txns    *stubTxnRepo
	auditor *stubAuditor
}

func (r *rollbackTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	salaries := copyMap(r.repo.salaries)
	reversals := copyMap(r.repo.reversals)
	rows := copyMap(r.txns.rows)
	entries := append([]audit.Entry(nil), r.auditor.entries...)

	if err := fn(nil); err != nil {
		r.repo.salaries = salaries
		r.repo.reversals = reversals
		r.txns.rows = rows
		r.auditor.entries = entries
		return err
	}
	return nil
}

func copyMap[T any](src map[uuid.UUID]*T) map[uuid.UUID]*T {
	out := make(map[uuid.UUID]*T, len(src))
	for id, v := range src {
		copied := *v
		out[id] = &copied
	}
	return out
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

func (s *stubFeed) has(event string) bool {
	for _, e := range s.events {
		if e == event {
			return true
		}
	}
	return false
}

type stubNotifier struct {
	sent []notifications.SendInput
}

func (s *stubNotifier) Send(ctx context.Context, input notifications.SendInput, actor audit.Actor) (*models.Notification, error) {
	s.sent = append(s.sent, input)
	return &models.Notification{ID: uuid.New()}, nil
}

type fixture struct {
	svc      Service
	repo     *stubPayrollRepo
	txns     *stubTxnRepo
	drivers  *stubDriverFinder
	auditor  *stubAuditor
	feed     *stubFeed
	notifier *stubNotifier
}

func buildFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newStubPayrollRepo(),
		txns:     newStubTxnRepo(),
		drivers:  &stubDriverFinder{drivers: map[uuid.UUID]*models.Driver{}},
		auditor:  &stubAuditor{},
		feed:     &stubFeed{},
		notifier: &stubNotifier{},
	}
	logg := logger.New(logger.Options{ServiceName: "payroll-test", Output: io.Discard})
	runner := &rollbackTxRunner{repo: f.repo, txns: f.txns, auditor: f.auditor}
	svc, err := NewService(f.repo, f.txns, f.drivers, runner, f.auditor, f.feed, f.notifier, nil, logg, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) seedDriver(salary int64) *models.Driver {
	driver := &models.Driver{
		ID:            uuid.New(),
		Name:          "Olim",
		Status:        enums.DriverStatusActive,
		MonthlySalary: decimal.NewFromInt(salary),
	}
	f.drivers.drivers[driver.ID] = driver
	return driver
}

func (f *fixture) paySalary(t *testing.T, driverID uuid.UUID) *models.DriverSalary {
	t.Helper()
	salary, err := f.svc.PaySalary(context.Background(), PaySalaryInput{DriverID: driverID}, audit.Actor{UserID: uuid.New(), Name: "admin"})
	if err != nil {
		t.Fatalf("pay salary: %v", err)
	}
	return salary
}

func TestPaySalaryCreatesLinkedExpense(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)

	salary := f.paySalary(t, driver.ID)

	if salary.Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed salary, got %s", salary.Status)
	}
	if !salary.Amount.Equal(driver.MonthlySalary) {
		t.Fatalf("amount must come from the driver row, got %s", salary.Amount)
	}
	if salary.TransactionID == nil {
		t.Fatal("salary must link its expense transaction")
	}
	txn := f.txns.rows[*salary.TransactionID]
	if txn == nil || txn.Type != enums.TransactionTypeExpense || !txn.Amount.Equal(salary.Amount) {
		t.Fatalf("expected matching expense transaction, got %+v", txn)
	}
	if len(f.auditor.entries) != 1 || f.auditor.entries[0].Action != enums.AuditActionPaySalary {
		t.Fatalf("expected PAY_SALARY audit entry, got %+v", f.auditor.entries)
	}
	if !f.feed.has("driver_salaries:create") || !f.feed.has("transactions:create") {
		t.Fatalf("expected salary and transaction feed events, got %v", f.feed.events)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("regular payment must not notify, got %d", len(f.notifier.sent))
	}
}

func TestPaySalaryDeniesDuplicateMonth(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)

	f.paySalary(t, driver.ID)
	_, err := f.svc.PaySalary(context.Background(), PaySalaryInput{DriverID: driver.ID}, audit.Actor{UserID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for duplicate month, got %v", err)
	}
}

func TestPaySalaryAboveThresholdNotifies(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(15_000_000)

	f.paySalary(t, driver.ID)

	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one large-payment notification, got %d", len(f.notifier.sent))
	}
	sent := f.notifier.sent[0]
	if sent.Category != enums.NotificationCategoryPayment || sent.Priority != enums.NotificationPriorityHigh {
		t.Fatalf("expected high-priority payment notification, got %+v", sent)
	}
	if !sent.Target.All {
		t.Fatal("large payment notification must broadcast to all admins")
	}
}

func TestPaySalaryMidBatchFailureCommitsNothing(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)

	// The expense transaction is written first; the salary write fails
	// after it. The whole batch must unwind.
	f.repo.failCreateSalary = true

	_, err := f.svc.PaySalary(context.Background(), PaySalaryInput{DriverID: driver.ID}, audit.Actor{UserID: uuid.New(), Name: "admin"})
	if err == nil {
		t.Fatal("expected mid-batch failure to surface")
	}
	if len(f.txns.rows) != 0 {
		t.Fatalf("expense transaction must roll back with the salary, got %d rows", len(f.txns.rows))
	}
	if len(f.repo.salaries) != 0 {
		t.Fatalf("no salary may persist, got %d", len(f.repo.salaries))
	}
	if len(f.auditor.entries) != 0 {
		t.Fatalf("no audit entry may persist, got %d", len(f.auditor.entries))
	}
	if len(f.feed.events) != 0 {
		t.Fatalf("nothing may be published for an uncommitted payment, got %v", f.feed.events)
	}
}

func TestPaySalaryAuditFailureCommitsNothing(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)

	f.auditor.err = gorm.ErrInvalidData

	_, err := f.svc.PaySalary(context.Background(), PaySalaryInput{DriverID: driver.ID}, audit.Actor{UserID: uuid.New(), Name: "admin"})
	if err == nil {
		t.Fatal("expected the audit failure to surface")
	}
	if len(f.txns.rows) != 0 || len(f.repo.salaries) != 0 {
		t.Fatalf("payment and transaction must roll back with the audit row, got %d txns, %d salaries",
			len(f.txns.rows), len(f.repo.salaries))
	}
	if len(f.feed.events) != 0 {
		t.Fatalf("nothing may be published for an uncommitted payment, got %v", f.feed.events)
	}
}

func TestReverseVoidsLinkedTransaction(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)
	salary := f.paySalary(t, driver.ID)

	err := f.svc.ReverseSalaryPayment(context.Background(), VoidInput{SalaryID: salary.ID, Reason: "wrong driver"}, audit.Actor{UserID: uuid.New(), Name: "admin"})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}

	stored := f.repo.salaries[salary.ID]
	if stored.Status != enums.PaymentStatusReversed {
		t.Fatalf("expected reversed salary, got %s", stored.Status)
	}
	if !stored.Amount.Equal(salary.Amount) {
		t.Fatal("original amount must never change")
	}
	txn := f.txns.rows[*salary.TransactionID]
	if txn.Status != enums.PaymentStatusReversed {
		t.Fatalf("linked transaction must be voided, got %s", txn.Status)
	}
	if len(f.txns.rows) != 1 {
		t.Fatalf("voiding the linked entry must not synthesize a compensating one, got %d transactions", len(f.txns.rows))
	}
	if len(f.repo.reversals) != 1 {
		t.Fatalf("expected one reversal record, got %d", len(f.repo.reversals))
	}
	if !f.feed.has("transactions:update") {
		t.Fatalf("expected transactions:update feed event, got %v", f.feed.events)
	}
}

func TestReverseDeniedAfterWindow(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)
	salary := f.paySalary(t, driver.ID)

	old := time.Now().UTC().AddDate(0, 0, -91)
	f.repo.salaries[salary.ID].CreatedAt = old

	err := f.svc.ReverseSalaryPayment(context.Background(), VoidInput{SalaryID: salary.ID, Reason: "too late"}, audit.Actor{UserID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error past the window, got %v", err)
	}
	if f.repo.salaries[salary.ID].Status != enums.PaymentStatusCompleted {
		t.Fatal("salary must stay completed when the window has expired")
	}
}

func TestRefundWithoutResolvableTransactionCompensates(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)
	salary := f.paySalary(t, driver.ID)

	// Simulate an older write path that never persisted the link.
	delete(f.txns.rows, *salary.TransactionID)
	f.repo.salaries[salary.ID].TransactionID = nil

	err := f.svc.RefundSalaryPayment(context.Background(), VoidInput{SalaryID: salary.ID, Reason: "duplicate payment"}, audit.Actor{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}

	if f.repo.salaries[salary.ID].Status != enums.PaymentStatusRefunded {
		t.Fatalf("expected refunded salary, got %s", f.repo.salaries[salary.ID].Status)
	}
	if len(f.txns.rows) != 1 {
		t.Fatalf("expected one compensating transaction, got %d", len(f.txns.rows))
	}
	for _, txn := range f.txns.rows {
		if txn.Type != enums.TransactionTypeIncome || !txn.Amount.Equal(salary.Amount) {
			t.Fatalf("compensating entry must be an income of the salary amount, got %+v", txn)
		}
	}
	if !f.feed.has("transactions:create") {
		t.Fatalf("expected transactions:create for the compensating entry, got %v", f.feed.events)
	}
}

func TestRefundSkipsTerminalLinkedTransaction(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)
	salary := f.paySalary(t, driver.ID)

	// The linked entry was already voided by hand: touching it again or
	// adding a compensating entry would double-credit the driver.
	f.txns.rows[*salary.TransactionID].Status = enums.PaymentStatusDeleted

	err := f.svc.RefundSalaryPayment(context.Background(), VoidInput{SalaryID: salary.ID, Reason: "cleanup"}, audit.Actor{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if len(f.txns.rows) != 1 {
		t.Fatalf("no compensating entry expected, got %d transactions", len(f.txns.rows))
	}
	if f.repo.salaries[salary.ID].Status != enums.PaymentStatusRefunded {
		t.Fatalf("expected refunded salary, got %s", f.repo.salaries[salary.ID].Status)
	}
}

func TestVoidTerminalSalaryConflicts(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)
	salary := f.paySalary(t, driver.ID)

	if err := f.svc.RefundSalaryPayment(context.Background(), VoidInput{SalaryID: salary.ID, Reason: "first"}, audit.Actor{UserID: uuid.New()}); err != nil {
		t.Fatalf("refund: %v", err)
	}

	err := f.svc.ReverseSalaryPayment(context.Background(), VoidInput{SalaryID: salary.ID, Reason: "second"}, audit.Actor{UserID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double void, got %v", err)
	}
}

func TestConcurrentVoidLosesRace(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)
	salary := f.paySalary(t, driver.ID)

	// The load saw a completed row but the conditional update finds it gone.
	f.repo.salaryUpdateOK = false

	err := f.svc.RefundSalaryPayment(context.Background(), VoidInput{SalaryID: salary.ID, Reason: "race"}, audit.Actor{UserID: uuid.New()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict when the conditional update misses, got %v", err)
	}
	if f.txns.rows[*salary.TransactionID].Status != enums.PaymentStatusCompleted {
		t.Fatal("losing the race must leave the linked transaction untouched")
	}
}

func TestReversalApprovalFlow(t *testing.T) {
	f := buildFixture(t, Config{ReversalRequiresApproval: true})
	driver := f.seedDriver(2_500_000)
	salary := f.paySalary(t, driver.ID)
	actor := audit.Actor{UserID: uuid.New(), Name: "admin"}

	if err := f.svc.ReverseSalaryPayment(context.Background(), VoidInput{SalaryID: salary.ID, Reason: "overpaid"}, actor); err != nil {
		t.Fatalf("request reversal: %v", err)
	}
	if f.repo.salaries[salary.ID].Status != enums.PaymentStatusCompleted {
		t.Fatal("requesting a reversal must not touch the payment yet")
	}

	var reversalID uuid.UUID
	for id, reversal := range f.repo.reversals {
		if reversal.ApprovalStatus != enums.ApprovalStatusPending {
			t.Fatalf("expected pending reversal, got %s", reversal.ApprovalStatus)
		}
		reversalID = id
	}

	if err := f.svc.ApproveReversal(context.Background(), reversalID, actor); err != nil {
		t.Fatalf("approve reversal: %v", err)
	}
	if f.repo.reversals[reversalID].ApprovalStatus != enums.ApprovalStatusApproved {
		t.Fatal("reversal must be approved")
	}
	if f.repo.salaries[salary.ID].Status != enums.PaymentStatusReversed {
		t.Fatal("approval must void the payment")
	}
	if f.txns.rows[*salary.TransactionID].Status != enums.PaymentStatusReversed {
		t.Fatal("approval must void the linked transaction")
	}
}

func TestRejectReversalLeavesPaymentCompleted(t *testing.T) {
	f := buildFixture(t, Config{ReversalRequiresApproval: true})
	driver := f.seedDriver(2_500_000)
	salary := f.paySalary(t, driver.ID)
	actor := audit.Actor{UserID: uuid.New(), Name: "admin"}

	if err := f.svc.ReverseSalaryPayment(context.Background(), VoidInput{SalaryID: salary.ID, Reason: "mistake"}, actor); err != nil {
		t.Fatalf("request reversal: %v", err)
	}
	var reversalID uuid.UUID
	for id := range f.repo.reversals {
		reversalID = id
	}

	if err := f.svc.RejectReversal(context.Background(), reversalID, actor); err != nil {
		t.Fatalf("reject reversal: %v", err)
	}
	if f.repo.reversals[reversalID].ApprovalStatus != enums.ApprovalStatusRejected {
		t.Fatal("reversal must be rejected")
	}
	if f.repo.salaries[salary.ID].Status != enums.PaymentStatusCompleted {
		t.Fatal("rejection must leave the payment completed")
	}

	// A resolved request cannot be approved afterwards.
	err := f.svc.ApproveReversal(context.Background(), reversalID, actor)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict approving a resolved request, got %v", err)
	}
}

func TestReversedSalaryUnblocksMonth(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)
	salary := f.paySalary(t, driver.ID)

	if err := f.svc.ReverseSalaryPayment(context.Background(), VoidInput{SalaryID: salary.ID, Reason: "wrong month"}, audit.Actor{UserID: uuid.New()}); err != nil {
		t.Fatalf("reverse: %v", err)
	}

	// Reversal reopens the month; a corrected payment can go through.
	if _, err := f.svc.PaySalary(context.Background(), PaySalaryInput{DriverID: driver.ID}, audit.Actor{UserID: uuid.New()}); err != nil {
		t.Fatalf("repay after reversal: %v", err)
	}
}

func TestGetSalaryReportsWindowRemaining(t *testing.T) {
	f := buildFixture(t, Config{})
	driver := f.seedDriver(2_500_000)
	salary := f.paySalary(t, driver.ID)

	view, err := f.svc.GetSalary(context.Background(), salary.ID)
	if err != nil {
		t.Fatalf("get salary: %v", err)
	}
	if view.WindowRemaining == "" || view.WindowRemaining == "Expired" {
		t.Fatalf("fresh payment must have window time left, got %q", view.WindowRemaining)
	}

	f.repo.salaries[salary.ID].CreatedAt = time.Now().UTC().AddDate(0, 0, -120)
	view, err = f.svc.GetSalary(context.Background(), salary.ID)
	if err != nil {
		t.Fatalf("get salary: %v", err)
	}
	if view.WindowRemaining != "Expired" {
		t.Fatalf("expected Expired, got %q", view.WindowRemaining)
	}
}
