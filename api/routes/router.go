package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davronbekov/taxipark-backend/api/controllers"
	"github.com/davronbekov/taxipark-backend/api/middleware"
	"github.com/davronbekov/taxipark-backend/internal/adminusers"
	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/internal/auth"
	"github.com/davronbekov/taxipark-backend/internal/bot"
	"github.com/davronbekov/taxipark-backend/internal/drivers"
	"github.com/davronbekov/taxipark-backend/internal/finance"
	"github.com/davronbekov/taxipark-backend/internal/notifications"
	"github.com/davronbekov/taxipark-backend/internal/payroll"
	"github.com/davronbekov/taxipark-backend/internal/stream"
	"github.com/davronbekov/taxipark-backend/internal/transactions"
	"github.com/davronbekov/taxipark-backend/pkg/auth/session"
	"github.com/davronbekov/taxipark-backend/pkg/config"
	"github.com/davronbekov/taxipark-backend/pkg/db"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
	"github.com/davronbekov/taxipark-backend/pkg/metrics"
	"github.com/davronbekov/taxipark-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	HTTPMetrics *metrics.HTTPMetrics
	Feed        *stream.Publisher

	Auth          auth.Service
	Drivers       drivers.Service
	Transactions  transactions.Service
	Payroll       payroll.Service
	Finance       finance.Service
	Notifications notifications.Service
	Audit         audit.Service
	AdminUsers    adminusers.Service
	Bot           bot.Service
}

// NewRouter assembles the HTTP surface: public health and auth, the
// authenticated dashboard API, the superadmin console, and the bot
// webhook bridge.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.HTTPMetrics(deps.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.Login(deps.Auth, logg))
		r.Post("/refresh", controllers.Refresh(deps.Auth, logg))
		r.Post("/logout", controllers.Logout(deps.Auth, logg))
	})

	r.Route("/api/v1/webhooks/bot", func(r chi.Router) {
		r.Use(middleware.WebhookSecret(cfg.Bot.WebhookSecret, logg))
		r.Post("/transactions", controllers.BotRecordTransaction(deps.Bot, logg))
		r.Post("/salary-paid", controllers.BotSalaryPaid(deps.Bot, logg))
		r.Post("/link", controllers.BotLinkDriver(deps.Bot, logg))
		r.Post("/unlink", controllers.BotUnlinkDriver(deps.Bot, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Get("/stream", controllers.StreamChanges(deps.Feed, logg))

		r.Route("/drivers", func(r chi.Router) {
			r.Get("/", controllers.ListDrivers(deps.Drivers, logg))
			r.Get("/{driverID}", controllers.GetDriver(deps.Drivers, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMutator(logg))
				r.Post("/", controllers.CreateDriver(deps.Drivers, logg))
				r.Patch("/{driverID}", controllers.UpdateDriver(deps.Drivers, logg))
				r.Put("/{driverID}/status", controllers.UpdateDriverStatus(deps.Drivers, logg))
				r.Put("/{driverID}/location", controllers.RecordDriverLocation(deps.Drivers, logg))
				r.Delete("/{driverID}", controllers.DeleteDriver(deps.Drivers, logg))
			})
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.ListTransactions(deps.Transactions, logg))
			r.Get("/{transactionID}", controllers.GetTransaction(deps.Transactions, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMutator(logg))
				r.Post("/", controllers.CreateTransaction(deps.Transactions, logg))
				r.Delete("/{transactionID}", controllers.DeleteTransaction(deps.Transactions, logg))
			})
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/salaries", controllers.ListSalaries(deps.Payroll, logg))
			r.Get("/salaries/{salaryID}", controllers.GetSalary(deps.Payroll, logg))
			r.Get("/reversals", controllers.ListReversals(deps.Payroll, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMutator(logg))
				r.Post("/salaries", controllers.PaySalary(deps.Payroll, logg))
				r.Post("/salaries/{salaryID}/refund", controllers.RefundSalary(deps.Payroll, logg))
				r.Post("/salaries/{salaryID}/reverse", controllers.ReverseSalary(deps.Payroll, logg))
				r.Post("/reversals/{reversalID}/approve", controllers.ApproveReversal(deps.Payroll, logg))
				r.Post("/reversals/{reversalID}/reject", controllers.RejectReversal(deps.Payroll, logg))
			})
		})

		r.Route("/finance", func(r chi.Router) {
			r.Get("/summary", controllers.FinanceSummary(deps.Finance, logg))
			r.Get("/payroll", controllers.PayrollFigures(deps.Finance, logg))
			r.Get("/profitability", controllers.Profitability(deps.Finance, logg))
			r.Get("/leaderboard", controllers.Leaderboard(deps.Finance, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Delete("/{notificationID}", controllers.DeleteNotification(deps.Notifications, logg))
			r.With(middleware.RequireMutator(logg)).Post("/", controllers.SendNotification(deps.Notifications, logg))
		})

		r.Get("/audit", controllers.ListAuditLog(deps.Audit, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireSuperAdmin(logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListAdminUsers(deps.AdminUsers, logg))
			r.Post("/", controllers.CreateAdminUser(deps.AdminUsers, logg))
			r.Get("/{userID}", controllers.GetAdminUser(deps.AdminUsers, logg))
			r.Patch("/{userID}", controllers.UpdateAdminUser(deps.AdminUsers, logg))
			r.Delete("/{userID}", controllers.DeactivateAdminUser(deps.AdminUsers, logg))
		})
	})

	return r
}
