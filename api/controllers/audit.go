package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/davronbekov/taxipark-backend/api/responses"
	"github.com/davronbekov/taxipark-backend/api/validators"
	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
)

// ListAuditLog returns the administrative action trail, newest first.
func ListAuditLog(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := audit.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("action")); raw != "" {
			action, err := enums.ParseAuditAction(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action filter"))
				return
			}
			filters.Action = &action
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("performedBy")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid performedBy filter"))
				return
			}
			filters.PerformedBy = &id
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]auditView, 0, len(list.Entries))
		for _, entry := range list.Entries {
			items = append(items, toAuditView(entry))
		}
		responses.WriteSuccess(w, listEnvelope[auditView]{Items: items, NextCursor: list.NextCursor})
	}
}
