package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davronbekov/taxipark-backend/api/middleware"
	"github.com/davronbekov/taxipark-backend/api/responses"
	"github.com/davronbekov/taxipark-backend/api/validators"
	"github.com/davronbekov/taxipark-backend/internal/drivers"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
)

type createDriverRequest struct {
	Name          string          `json:"name" validate:"required"`
	LicensePlate  string          `json:"licensePlate" validate:"required"`
	CarModel      string          `json:"carModel"`
	MonthlySalary decimal.Decimal `json:"monthlySalary"`
	DailyPlan     decimal.Decimal `json:"dailyPlan"`
}

type updateDriverRequest struct {
	Name          *string          `json:"name"`
	CarModel      *string          `json:"carModel"`
	MonthlySalary *decimal.Decimal `json:"monthlySalary"`
	DailyPlan     *decimal.Decimal `json:"dailyPlan"`
}

type updateDriverStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type driverLocationRequest struct {
	Lat float64    `json:"lat" validate:"min=-90,max=90"`
	Lng float64    `json:"lng" validate:"min=-180,max=180"`
	At  *time.Time `json:"at"`
}

// CreateDriver registers a new roster entry.
func CreateDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}

		var req createDriverRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		driver, err := svc.Create(r.Context(), drivers.CreateInput{
			Name:          req.Name,
			LicensePlate:  req.LicensePlate,
			CarModel:      req.CarModel,
			MonthlySalary: req.MonthlySalary,
			DailyPlan:     req.DailyPlan,
		}, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toDriverView(*driver, nil))
	}
}

// GetDriver returns one roster entry with its derived balance.
func GetDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "driverID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toDriverView(view.Driver, &view.Balance))
	}
}

// ListDrivers returns the paginated roster.
func ListDrivers(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := drivers.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseDriverStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("includeDeleted")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid includeDeleted value"))
				return
			}
			filters.IncludeDeleted = value
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]driverView, 0, len(list.Drivers))
		for _, driver := range list.Drivers {
			items = append(items, toDriverView(driver, nil))
		}
		responses.WriteSuccess(w, listEnvelope[driverView]{Items: items, NextCursor: list.NextCursor})
	}
}

// UpdateDriver patches roster fields.
func UpdateDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "driverID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateDriverRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		driver, err := svc.Update(r.Context(), id, drivers.UpdateInput{
			Name:          req.Name,
			CarModel:      req.CarModel,
			MonthlySalary: req.MonthlySalary,
			DailyPlan:     req.DailyPlan,
		}, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toDriverView(*driver, nil))
	}
}

// UpdateDriverStatus flips the live availability flag.
func UpdateDriverStatus(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "driverID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateDriverStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseDriverStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		if err := svc.UpdateStatus(r.Context(), id, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status.String()})
	}
}

// RecordDriverLocation stores the latest telemetry ping.
func RecordDriverLocation(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "driverID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req driverLocationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ping := drivers.LocationPing{Lat: req.Lat, Lng: req.Lng}
		if req.At != nil {
			ping.At = *req.At
		}
		if err := svc.RecordLocation(r.Context(), id, ping); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "recorded"})
	}
}

// DeleteDriver soft-deletes a roster entry; history stays intact.
func DeleteDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "driverID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDelete(r.Context(), id, middleware.ActorFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
