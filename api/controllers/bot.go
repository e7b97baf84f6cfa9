package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davronbekov/taxipark-backend/api/responses"
	"github.com/davronbekov/taxipark-backend/api/validators"
	"github.com/davronbekov/taxipark-backend/internal/bot"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
)

type botTransactionRequest struct {
	DriverID    string          `json:"driverId" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type" validate:"required,oneof=income expense"`
	Description string          `json:"description"`
}

type botSalaryPaidRequest struct {
	DriverID string          `json:"driverId" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Date     *time.Time      `json:"date"`
}

type botLinkRequest struct {
	DriverID string `json:"driverId" validate:"required"`
	ChatID   int64  `json:"chatId" validate:"required"`
}

type botUnlinkRequest struct {
	DriverID string `json:"driverId" validate:"required"`
}

// BotRecordTransaction accepts a transaction entered through the
// Telegram bot. Same contract as the dashboard, attributed to the bot.
func BotRecordTransaction(svc bot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bot service unavailable"))
			return
		}

		var req botTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driverID, err := uuid.Parse(req.DriverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id"))
			return
		}
		txnType, err := enums.ParseTransactionType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
			return
		}

		txn, err := svc.RecordTransaction(r.Context(), bot.TransactionInput{
			DriverID:    driverID,
			Amount:      req.Amount,
			Type:        txnType,
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toTransactionView(*txn))
	}
}

// BotSalaryPaid resolves the driver's chat link so the bot can deliver
// a salary-paid message. A missing link is reported, not an error.
func BotSalaryPaid(svc bot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bot service unavailable"))
			return
		}

		var req botSalaryPaidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driverID, err := uuid.Parse(req.DriverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id"))
			return
		}

		input := bot.SalaryPaidInput{DriverID: driverID, Amount: req.Amount}
		if req.Date != nil {
			input.Date = *req.Date
		}

		result, err := svc.SalaryPaid(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := map[string]any{"delivered": result.Delivered}
		if result.Delivered {
			payload["chatId"] = result.ChatID
		} else {
			payload["reason"] = result.Reason
		}
		responses.WriteSuccess(w, payload)
	}
}

// BotLinkDriver binds a driver to a Telegram chat.
func BotLinkDriver(svc bot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bot service unavailable"))
			return
		}

		var req botLinkRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driverID, err := uuid.Parse(req.DriverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id"))
			return
		}

		session, err := svc.LinkDriver(r.Context(), driverID, req.ChatID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"driverId": session.DriverID.String(),
			"chatId":   session.ChatID,
		})
	}
}

// BotUnlinkDriver removes a driver's chat binding.
func BotUnlinkDriver(svc bot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bot service unavailable"))
			return
		}

		var req botUnlinkRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driverID, err := uuid.Parse(req.DriverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id"))
			return
		}

		if err := svc.UnlinkDriver(r.Context(), driverID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "unlinked"})
	}
}
