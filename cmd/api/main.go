package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/davronbekov/taxipark-backend/api/routes"
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
	"github.com/davronbekov/taxipark-backend/pkg/migrate"
	"github.com/davronbekov/taxipark-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	feed, err := stream.NewPublisher(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create change feed publisher", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	gormDB := dbClient.DB()
	auditRepo := audit.NewRepository(gormDB)
	driversRepo := drivers.NewRepository(gormDB)
	transactionsRepo := transactions.NewRepository(gormDB)
	payrollRepo := payroll.NewRepository(gormDB)
	financeRepo := finance.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)
	adminUsersRepo := adminusers.NewRepository(gormDB)
	botRepo := bot.NewRepository(gormDB)

	auditService, err := audit.NewService(auditRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	driversService, err := drivers.NewService(driversRepo, dbClient, auditService, feed)
	if err != nil {
		logg.Error(context.Background(), "failed to create drivers service", err)
		os.Exit(1)
	}

	transactionsService, err := transactions.NewService(transactionsRepo, driversRepo, dbClient, auditService, feed)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo, adminUsersRepo, dbClient, auditService, feed)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	payrollService, err := payroll.NewService(
		payrollRepo,
		transactionsRepo,
		driversRepo,
		dbClient,
		auditService,
		feed,
		notificationsService,
		paymentMetrics,
		logg,
		payroll.Config{ReversalRequiresApproval: cfg.Payroll.ReversalRequiresApproval},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payroll service", err)
		os.Exit(1)
	}

	financeService, err := finance.NewService(financeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create finance service", err)
		os.Exit(1)
	}

	adminUsersService, err := adminusers.NewService(adminUsersRepo, dbClient, auditService, feed, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin users service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(adminUsersRepo, sessionManager, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	botService, err := bot.NewService(botRepo, transactionsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create bot service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Sessions:      sessionManager,
		HTTPMetrics:   httpMetrics,
		Feed:          feed,
		Auth:          authService,
		Drivers:       driversService,
		Transactions:  transactionsService,
		Payroll:       payrollService,
		Finance:       financeService,
		Notifications: notificationsService,
		Audit:         auditService,
		AdminUsers:    adminUsersService,
		Bot:           botService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
