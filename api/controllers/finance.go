package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davronbekov/taxipark-backend/api/responses"
	"github.com/davronbekov/taxipark-backend/api/validators"
	"github.com/davronbekov/taxipark-backend/internal/finance"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
)

type financeSummaryResponse struct {
	Window    string          `json:"window"`
	Income    decimal.Decimal `json:"income"`
	Expense   decimal.Decimal `json:"expense"`
	NetProfit decimal.Decimal `json:"netProfit"`
}

type payrollFiguresResponse struct {
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	PaidSalaries    decimal.Decimal `json:"paidSalaries"`
	PendingSalaries decimal.Decimal `json:"pendingSalaries"`
	DriversPaid     int64           `json:"driversPaid"`
}

type profitabilityResponse struct {
	Month             int             `json:"month"`
	Year              int             `json:"year"`
	PeriodIncome      decimal.Decimal `json:"periodIncome"`
	PeriodExpense     decimal.Decimal `json:"periodExpense"`
	PaidSalaries      decimal.Decimal `json:"paidSalaries"`
	NonSalaryExpenses decimal.Decimal `json:"nonSalaryExpenses"`
	GrossProfit       decimal.Decimal `json:"grossProfit"`
	TotalPayroll      decimal.Decimal `json:"totalPayroll"`
	OwnerProfit       decimal.Decimal `json:"ownerProfit"`
}

type leaderboardEntry struct {
	DriverID string          `json:"driverId"`
	Name     string          `json:"name"`
	Income   decimal.Decimal `json:"income"`
}

func parseWindow(r *http.Request) finance.Window {
	raw := strings.TrimSpace(r.URL.Query().Get("window"))
	if raw == "" {
		return finance.WindowMonth
	}
	return finance.Window(raw)
}

// FinanceSummary returns income/expense/net over the requested window.
func FinanceSummary(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "finance service unavailable"))
			return
		}

		summary, err := svc.Summary(r.Context(), parseWindow(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, financeSummaryResponse{
			Window:    summary.Window.String(),
			Income:    summary.Income,
			Expense:   summary.Expense,
			NetProfit: summary.NetProfit,
		})
	}
}

// PayrollFigures returns the paid/pending payroll position for a month.
func PayrollFigures(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "finance service unavailable"))
			return
		}

		month, year, err := validators.ParseMonthYear(r, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		figures, err := svc.PayrollFigures(r.Context(), month, year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payrollFiguresResponse{
			Month:           int(month),
			Year:            year,
			PaidSalaries:    figures.PaidSalaries,
			PendingSalaries: figures.PendingSalaries,
			DriversPaid:     figures.DriversPaid,
		})
	}
}

// Profitability separates payroll from operating costs for a month.
func Profitability(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "finance service unavailable"))
			return
		}

		month, year, err := validators.ParseMonthYear(r, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Profitability(r.Context(), month, year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profitabilityResponse{
			Month:             int(month),
			Year:              year,
			PeriodIncome:      report.PeriodIncome,
			PeriodExpense:     report.PeriodExpense,
			PaidSalaries:      report.PaidSalaries,
			NonSalaryExpenses: report.NonSalaryExpenses,
			GrossProfit:       report.GrossProfit,
			TotalPayroll:      report.TotalPayroll,
			OwnerProfit:       report.OwnerProfit,
		})
	}
}

// Leaderboard ranks drivers by income over the requested window.
func Leaderboard(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "finance service unavailable"))
			return
		}

		rows, err := svc.Leaderboard(r.Context(), parseWindow(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]leaderboardEntry, 0, len(rows))
		for _, row := range rows {
			items = append(items, leaderboardEntry{
				DriverID: row.DriverID.String(),
				Name:     row.Name,
				Income:   row.Income,
			})
		}
		responses.WriteSuccess(w, listEnvelope[leaderboardEntry]{Items: items})
	}
}
