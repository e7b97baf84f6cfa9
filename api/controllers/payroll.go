package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davronbekov/taxipark-backend/api/middleware"
	"github.com/davronbekov/taxipark-backend/api/responses"
	"github.com/davronbekov/taxipark-backend/api/validators"
	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/internal/payroll"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
)

type paySalaryRequest struct {
	DriverID      string     `json:"driverId" validate:"required"`
	EffectiveDate *time.Time `json:"effectiveDate"`
}

type voidSalaryRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// PaySalary issues one month's salary payment for a driver.
func PaySalary(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		var req paySalaryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driverID, err := uuid.Parse(req.DriverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id"))
			return
		}

		input := payroll.PaySalaryInput{DriverID: driverID}
		if req.EffectiveDate != nil {
			input.EffectiveDate = *req.EffectiveDate
		}

		salary, err := svc.PaySalary(r.Context(), input, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toSalaryView(*salary, ""))
	}
}

// GetSalary returns one payment with its remaining reversal window.
func GetSalary(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "salaryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetSalary(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSalaryView(view.Salary, view.WindowRemaining))
	}
}

// ListSalaries returns the paginated payment history.
func ListSalaries(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := payroll.SalaryFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("driverId")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driverId filter"))
				return
			}
			filters.DriverID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePaymentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.ListSalaries(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]salaryView, 0, len(list.Salaries))
		for _, salary := range list.Salaries {
			items = append(items, toSalaryView(salary, ""))
		}
		responses.WriteSuccess(w, listEnvelope[salaryView]{Items: items, NextCursor: list.NextCursor})
	}
}

// RefundSalary voids a payment as money returned: the month opens back
// up for a corrected payment.
func RefundSalary(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return voidSalaryHandler(svc, logg, payroll.Service.RefundSalaryPayment)
}

// ReverseSalary voids a payment as an accounting correction. Depending
// on policy this either applies immediately or queues for approval.
func ReverseSalary(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return voidSalaryHandler(svc, logg, payroll.Service.ReverseSalaryPayment)
}

type voidFn func(svc payroll.Service, ctx context.Context, input payroll.VoidInput, actor audit.Actor) error

func voidSalaryHandler(svc payroll.Service, logg *logger.Logger, apply voidFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "salaryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req voidSalaryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payroll.VoidInput{SalaryID: id, Reason: req.Reason}
		if err := apply(svc, r.Context(), input, middleware.ActorFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "accepted"})
	}
}

// ApproveReversal applies a pending reversal request.
func ApproveReversal(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "reversalID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ApproveReversal(r.Context(), id, middleware.ActorFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "approved"})
	}
}

// RejectReversal declines a pending reversal request; the payment stays
// completed.
func RejectReversal(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "reversalID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RejectReversal(r.Context(), id, middleware.ActorFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "rejected"})
	}
}

// ListReversals returns the reversal queue for review.
func ListReversals(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := payroll.ReversalFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("approvalStatus")); raw != "" {
			status, err := enums.ParseApprovalStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid approvalStatus filter"))
				return
			}
			filters.ApprovalStatus = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("driverId")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driverId filter"))
				return
			}
			filters.DriverID = &id
		}

		list, err := svc.ListReversals(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]reversalView, 0, len(list.Reversals))
		for _, reversal := range list.Reversals {
			items = append(items, toReversalView(reversal))
		}
		responses.WriteSuccess(w, listEnvelope[reversalView]{Items: items, NextCursor: list.NextCursor})
	}
}
