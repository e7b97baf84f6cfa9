package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/internal/guard"
	"github.com/davronbekov/taxipark-backend/internal/notifications"
	"github.com/davronbekov/taxipark-backend/internal/stream"
	"github.com/davronbekov/taxipark-backend/internal/transactions"
	"github.com/davronbekov/taxipark-backend/pkg/db/models"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
	"github.com/davronbekov/taxipark-backend/pkg/metrics"
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

type notifier interface {
	Send(ctx context.Context, input notifications.SendInput, actor audit.Actor) (*models.Notification, error)
}

// PaySalaryInput starts a salary payment. Amount always comes from the
// driver row, never from the caller.
type PaySalaryInput struct {
	DriverID      uuid.UUID
	EffectiveDate time.Time
}

// VoidInput targets an existing salary payment for refund or reversal.
type VoidInput struct {
	SalaryID uuid.UUID
	Reason   string
}

// PaymentView is a salary payment plus its reversal-window state.
type PaymentView struct {
	Salary          models.DriverSalary
	WindowRemaining string
}

// Service is the payment state machine and reconciliation engine.
type Service interface {
	PaySalary(ctx context.Context, input PaySalaryInput, actor audit.Actor) (*models.DriverSalary, error)
	GetSalary(ctx context.Context, id uuid.UUID) (*PaymentView, error)
	ListSalaries(ctx context.Context, params pagination.Params, filters SalaryFilters) (*SalaryList, error)

	RefundSalaryPayment(ctx context.Context, input VoidInput, actor audit.Actor) error
	ReverseSalaryPayment(ctx context.Context, input VoidInput, actor audit.Actor) error
	ApproveReversal(ctx context.Context, reversalID uuid.UUID, actor audit.Actor) error
	RejectReversal(ctx context.Context, reversalID uuid.UUID, actor audit.Actor) error
	ListReversals(ctx context.Context, params pagination.Params, filters ReversalFilters) (*ReversalList, error)

	// MatchTransaction exposes the best-effort salary-to-transaction
	// join. Returns nil when nothing matches.
	MatchTransaction(ctx context.Context, salary *models.DriverSalary) (*models.Transaction, error)
}

// Config carries payroll policy knobs.
type Config struct {
	// ReversalRequiresApproval routes reversals through a pending record
	// that a second admin must approve.
	ReversalRequiresApproval bool
}

type service struct {
	repo     Repository
	txns     transactions.Repository
	drivers  driverFinder
	tx       txRunner
	auditor  audit.Service
	feed     changePublisher
	notify   notifier
	payments *metrics.PaymentMetrics
	logg     *logger.Logger
	cfg      Config
}

// NewService builds the payroll service with the required dependencies.
func NewService(
	repo Repository,
	txns transactions.Repository,
	drivers driverFinder,
	tx txRunner,
	auditor audit.Service,
	feed changePublisher,
	notify notifier,
	payments *metrics.PaymentMetrics,
	logg *logger.Logger,
	cfg Config,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payroll repository required")
	}
	if txns == nil {
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
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		txns:     txns,
		drivers:  drivers,
		tx:       tx,
		auditor:  auditor,
		feed:     feed,
		notify:   notify,
		payments: payments,
		logg:     logg,
		cfg:      cfg,
	}, nil
}

func (s *service) PaySalary(ctx context.Context, input PaySalaryInput, actor audit.Actor) (*models.DriverSalary, error) {
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id required")
	}
	effective := input.EffectiveDate
	if effective.IsZero() {
		effective = time.Now().UTC()
	}

	driver, err := s.drivers.FindByID(ctx, input.DriverID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}

	history, err := s.repo.ListSalariesByDriver(ctx, driver.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load salary history")
	}

	if decision := guard.CanPaySalary(driver, history, effective); !decision.Allowed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, decision.Reason)
	}

	amount := driver.MonthlySalary
	now := time.Now().UTC()

	salary := &models.DriverSalary{
		DriverID:      driver.ID,
		Amount:        amount,
		EffectiveDate: effective,
		CreatedBy:     actor.UserID,
		Status:        enums.PaymentStatusCompleted,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txn := &models.Transaction{
			DriverID:    driver.ID,
			Amount:      amount,
			Type:        enums.TransactionTypeExpense,
			Description: fmt.Sprintf("Salary payment for %s (%s %d)", driver.Name, effective.Month(), effective.Year()),
			OccurredAt:  now,
			Status:      enums.PaymentStatusCompleted,
		}
		if err := s.txns.WithTx(tx).Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create salary transaction")
		}

		salary.TransactionID = &txn.ID
		if err := s.repo.WithTx(tx).CreateSalary(ctx, salary); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create salary payment")
		}

		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionPaySalary,
			TargetID:   salary.ID.String(),
			TargetName: driver.Name,
			Detail:     fmt.Sprintf("paid %s for %s %d", amount.StringFixed(2), effective.Month(), effective.Year()),
		})
	})
	if err != nil {
		return nil, err
	}

	s.payments.IncPayment(enums.PaymentStatusCompleted.String())
	s.feed.Publish(ctx, stream.CollectionSalaries, stream.OpCreate, salary.ID.String())
	s.feed.Publish(ctx, stream.CollectionTransactions, stream.OpCreate, salary.TransactionID.String())

	if guard.IsLargePayment(amount) {
		s.notifyLargePayment(ctx, driver, amount, actor)
	}
	return salary, nil
}

// notifyLargePayment is informational and best-effort: a failure here
// never unwinds the committed payment.
func (s *service) notifyLargePayment(ctx context.Context, driver *models.Driver, amount decimal.Decimal, actor audit.Actor) {
	_, err := s.notify.Send(ctx, notifications.SendInput{
		Title:    "Large salary payment",
		Message:  fmt.Sprintf("Salary of %s paid to %s exceeds the large payment threshold", amount.StringFixed(2), driver.Name),
		Category: enums.NotificationCategoryPayment,
		Priority: enums.NotificationPriorityHigh,
		Target:   notifications.Target{All: true},
	}, actor)
	if err != nil {
		s.logg.Warn(s.logg.WithDriverID(ctx, driver.ID.String()), "large payment notification failed")
	}
}

func (s *service) GetSalary(ctx context.Context, id uuid.UUID) (*PaymentView, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "salary id required")
	}
	salary, err := s.repo.FindSalaryByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "salary payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load salary payment")
	}
	return &PaymentView{
		Salary:          *salary,
		WindowRemaining: guard.ReversalWindowRemaining(salary, time.Now().UTC()),
	}, nil
}

func (s *service) ListSalaries(ctx context.Context, params pagination.Params, filters SalaryFilters) (*SalaryList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", *filters.Status))
	}
	list, err := s.repo.ListSalaries(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list salary payments")
	}
	return list, nil
}

func (s *service) RefundSalaryPayment(ctx context.Context, input VoidInput, actor audit.Actor) error {
	salary, err := s.loadVoidableSalary(ctx, input.SalaryID)
	if err != nil {
		return err
	}

	var result voidResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		result, applyErr = s.applyVoid(ctx, tx, salary, enums.PaymentStatusRefunded, input.Reason, actor, enums.AuditActionRefundSalary)
		return applyErr
	})
	if err != nil {
		return err
	}

	s.payments.IncPayment(enums.PaymentStatusRefunded.String())
	s.feed.Publish(ctx, stream.CollectionSalaries, stream.OpUpdate, salary.ID.String())
	s.publishVoidedTransaction(ctx, result)
	return nil
}

func (s *service) ReverseSalaryPayment(ctx context.Context, input VoidInput, actor audit.Actor) error {
	salary, err := s.loadVoidableSalary(ctx, input.SalaryID)
	if err != nil {
		return err
	}

	if decision := guard.CanReversePayment(salary, time.Now().UTC()); !decision.Allowed {
		return pkgerrors.New(pkgerrors.CodeValidation, decision.Reason)
	}

	if s.cfg.ReversalRequiresApproval {
		return s.requestReversal(ctx, salary, input.Reason, actor)
	}

	var result voidResult
	reversal := s.buildReversal(salary, input.Reason, actor, enums.ApprovalStatusApproved)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateReversal(ctx, reversal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reversal record")
		}
		var applyErr error
		result, applyErr = s.applyVoid(ctx, tx, salary, enums.PaymentStatusReversed, input.Reason, actor, enums.AuditActionReverseSalary)
		return applyErr
	})
	if err != nil {
		return err
	}

	s.payments.IncPayment(enums.PaymentStatusReversed.String())
	s.payments.IncReversal("direct")
	s.feed.Publish(ctx, stream.CollectionSalaries, stream.OpUpdate, salary.ID.String())
	s.feed.Publish(ctx, stream.CollectionReversals, stream.OpCreate, reversal.ID.String())
	s.publishVoidedTransaction(ctx, result)
	return nil
}

func (s *service) requestReversal(ctx context.Context, salary *models.DriverSalary, reason string, actor audit.Actor) error {
	reversal := s.buildReversal(salary, reason, actor, enums.ApprovalStatusPending)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateReversal(ctx, reversal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reversal request")
		}
		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionRequestReversal,
			TargetID:   salary.ID.String(),
			TargetName: salary.DriverID.String(),
			Detail:     fmt.Sprintf("reversal of %s pending approval: %s", salary.Amount.StringFixed(2), reason),
		})
	})
	if err != nil {
		return err
	}

	s.payments.IncReversal("requested")
	s.feed.Publish(ctx, stream.CollectionReversals, stream.OpCreate, reversal.ID.String())
	return nil
}

func (s *service) ApproveReversal(ctx context.Context, reversalID uuid.UUID, actor audit.Actor) error {
	reversal, err := s.loadPendingReversal(ctx, reversalID)
	if err != nil {
		return err
	}

	salary, err := s.loadVoidableSalary(ctx, reversal.SalaryID)
	if err != nil {
		return err
	}

	var result voidResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.UpdateReversalStatusIfPending(ctx, reversal.ID, enums.ApprovalStatusApproved)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve reversal")
		}
		if affected == 0 {
			return s.stateConflict("reversal request already resolved")
		}
		var applyErr error
		result, applyErr = s.applyVoid(ctx, tx, salary, enums.PaymentStatusReversed, reversal.Reason, actor, enums.AuditActionReverseSalary)
		return applyErr
	})
	if err != nil {
		return err
	}

	s.payments.IncPayment(enums.PaymentStatusReversed.String())
	s.payments.IncReversal("approved")
	s.feed.Publish(ctx, stream.CollectionSalaries, stream.OpUpdate, salary.ID.String())
	s.feed.Publish(ctx, stream.CollectionReversals, stream.OpUpdate, reversal.ID.String())
	s.publishVoidedTransaction(ctx, result)
	return nil
}

func (s *service) RejectReversal(ctx context.Context, reversalID uuid.UUID, actor audit.Actor) error {
	reversal, err := s.loadPendingReversal(ctx, reversalID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.UpdateReversalStatusIfPending(ctx, reversal.ID, enums.ApprovalStatusRejected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject reversal")
		}
		if affected == 0 {
			return s.stateConflict("reversal request already resolved")
		}
		return s.auditor.Record(ctx, tx, actor, audit.Entry{
			Action:     enums.AuditActionRejectReversal,
			TargetID:   reversal.SalaryID.String(),
			TargetName: reversal.DriverID.String(),
			Detail:     fmt.Sprintf("rejected reversal of %s", reversal.OriginalAmount.StringFixed(2)),
		})
	})
	if err != nil {
		return err
	}

	s.payments.IncReversal("rejected")
	s.feed.Publish(ctx, stream.CollectionReversals, stream.OpUpdate, reversal.ID.String())
	return nil
}

func (s *service) ListReversals(ctx context.Context, params pagination.Params, filters ReversalFilters) (*ReversalList, error) {
	if filters.ApprovalStatus != nil && !filters.ApprovalStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid approval status %q", *filters.ApprovalStatus))
	}
	list, err := s.repo.ListReversals(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reversals")
	}
	return list, nil
}

func (s *service) MatchTransaction(ctx context.Context, salary *models.DriverSalary) (*models.Transaction, error) {
	if salary == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "salary payment required")
	}
	txn, err := s.repo.MatchTransaction(ctx, salary.DriverID, salary.Amount, salary.CreatedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match salary transaction")
	}
	return txn, nil
}

// voidResult reports which transaction row a void touched so callers can
// publish the right change-feed event after commit.
type voidResult struct {
	TransactionID string
	Op            string
}

func (s *service) publishVoidedTransaction(ctx context.Context, result voidResult) {
	if result.TransactionID == "" {
		return
	}
	s.feed.Publish(ctx, stream.CollectionTransactions, result.Op, result.TransactionID)
}

// applyVoid is the reconciliation core shared by refund and reversal:
// inside the caller's transaction it flips the salary status, voids the
// linked or matched expense entry, or synthesizes a compensating income
// entry when none can be resolved, and appends the audit row. Original
// amounts are never touched.
func (s *service) applyVoid(
	ctx context.Context,
	tx *gorm.DB,
	salary *models.DriverSalary,
	target enums.PaymentStatus,
	reason string,
	actor audit.Actor,
	action enums.AuditAction,
) (voidResult, error) {
	now := time.Now().UTC()
	repo := s.repo.WithTx(tx)
	txns := s.txns.WithTx(tx)

	affected, err := repo.UpdateSalaryStatusIfCompleted(ctx, salary.ID, target, StatusMeta{
		ReversedAt: now,
		ReversedBy: actor.UserID,
		Reason:     reason,
	})
	if err != nil {
		return voidResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update salary status")
	}
	if affected == 0 {
		return voidResult{}, s.stateConflict("payment already left the completed state")
	}

	linked, err := s.resolveTransaction(ctx, repo, txns, salary)
	if err != nil {
		return voidResult{}, err
	}

	result := voidResult{}
	relatedTxn := "NONE"
	switch {
	case linked != nil && linked.Status == enums.PaymentStatusCompleted:
		affected, err := txns.UpdateStatusIfCompleted(ctx, linked.ID, target, transactions.ReversalMeta{
			ReversedAt: now,
			ReversedBy: actor.UserID,
			Reason:     reason,
		})
		if err != nil {
			return voidResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update linked transaction")
		}
		if affected == 0 {
			return voidResult{}, s.stateConflict("linked transaction changed state concurrently")
		}
		relatedTxn = linked.ID.String()
		result = voidResult{TransactionID: relatedTxn, Op: stream.OpUpdate}

	case linked != nil:
		// Already terminal: its balance effect is gone, a compensating
		// entry would double-credit the driver.
		relatedTxn = linked.ID.String()

	default:
		compensating := &models.Transaction{
			DriverID:    salary.DriverID,
			Amount:      salary.Amount,
			Type:        enums.TransactionTypeIncome,
			Description: fmt.Sprintf("Manual correction: %s salary payment", target),
			OccurredAt:  now,
			Status:      enums.PaymentStatusCompleted,
		}
		if err := txns.Create(ctx, compensating); err != nil {
			return voidResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create compensating transaction")
		}
		result = voidResult{TransactionID: compensating.ID.String(), Op: stream.OpCreate}
	}

	err = s.auditor.Record(ctx, tx, actor, audit.Entry{
		Action:     action,
		TargetID:   salary.ID.String(),
		TargetName: salary.DriverID.String(),
		Detail:     fmt.Sprintf("amount %s, transaction %s: %s", salary.Amount.StringFixed(2), relatedTxn, reason),
	})
	if err != nil {
		return voidResult{}, err
	}
	return result, nil
}

// resolveTransaction prefers the stored link and falls back to the
// best-effort match. The link is not always persisted by older write
// paths, so the heuristic is sometimes the only recovery route.
func (s *service) resolveTransaction(ctx context.Context, repo Repository, txns transactions.Repository, salary *models.DriverSalary) (*models.Transaction, error) {
	if salary.TransactionID != nil {
		txn, err := txns.FindByID(ctx, *salary.TransactionID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load linked transaction")
		}
		if txn != nil {
			return txn, nil
		}
	}
	txn, err := repo.MatchTransaction(ctx, salary.DriverID, salary.Amount, salary.CreatedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match salary transaction")
	}
	return txn, nil
}

func (s *service) loadVoidableSalary(ctx context.Context, id uuid.UUID) (*models.DriverSalary, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "salary id required")
	}
	salary, err := s.repo.FindSalaryByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "salary payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load salary payment")
	}
	if salary.Status.IsTerminal() {
		return nil, s.stateConflict(fmt.Sprintf("payment is already %s", salary.Status))
	}
	return salary, nil
}

func (s *service) loadPendingReversal(ctx context.Context, id uuid.UUID) (*models.PaymentReversal, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reversal id required")
	}
	reversal, err := s.repo.FindReversalByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reversal request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reversal request")
	}
	if reversal.ApprovalStatus != enums.ApprovalStatusPending {
		return nil, s.stateConflict(fmt.Sprintf("reversal request is already %s", reversal.ApprovalStatus))
	}
	return reversal, nil
}

func (s *service) buildReversal(salary *models.DriverSalary, reason string, actor audit.Actor, status enums.ApprovalStatus) *models.PaymentReversal {
	return &models.PaymentReversal{
		SalaryID:       salary.ID,
		TransactionID:  salary.TransactionID,
		DriverID:       salary.DriverID,
		OriginalAmount: salary.Amount,
		ReversedBy:     actor.UserID,
		ReversedAt:     time.Now().UTC(),
		Reason:         reason,
		ApprovalStatus: status,
	}
}

func (s *service) stateConflict(msg string) error {
	s.payments.IncStateConflict()
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg)
}
