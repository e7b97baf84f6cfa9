package controllers

import (
	"net/http"

	"github.com/davronbekov/taxipark-backend/api/middleware"
	"github.com/davronbekov/taxipark-backend/api/responses"
	"github.com/davronbekov/taxipark-backend/api/validators"
	"github.com/davronbekov/taxipark-backend/internal/adminusers"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
)

type createAdminUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required"`
	Password string `json:"password"`
}

type updateAdminUserRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// CreateAdminUser registers a dashboard operator account. When no
// password is supplied a temporary one is generated and returned once.
func CreateAdminUser(svc adminusers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin users service unavailable"))
			return
		}

		var req createAdminUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseAdminRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		user, err := svc.Create(r.Context(), adminusers.CreateInput{
			Email:    req.Email,
			Name:     req.Name,
			Role:     role,
			Password: req.Password,
		}, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toAdminUserView(*user))
	}
}

// GetAdminUser returns one operator account.
func GetAdminUser(svc adminusers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin users service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAdminUserView(*user))
	}
}

// ListAdminUsers returns the paginated operator roster.
func ListAdminUsers(svc adminusers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin users service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]adminUserView, 0, len(list.Users))
		for _, user := range list.Users {
			items = append(items, toAdminUserView(user))
		}
		responses.WriteSuccess(w, listEnvelope[adminUserView]{Items: items, NextCursor: list.NextCursor})
	}
}

// UpdateAdminUser patches an operator account.
func UpdateAdminUser(svc adminusers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin users service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateAdminUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := adminusers.UpdateInput{Name: req.Name, Password: req.Password}
		if req.Role != nil {
			role, err := enums.ParseAdminRole(*req.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
				return
			}
			input.Role = &role
		}

		user, err := svc.Update(r.Context(), id, input, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAdminUserView(*user))
	}
}

// DeactivateAdminUser disables an operator account; their sessions stop
// working on the next refresh.
func DeactivateAdminUser(svc adminusers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin users service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), id, middleware.ActorFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
