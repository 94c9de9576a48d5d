package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lanaapp/lana-api/internal/config"
	"github.com/lanaapp/lana-api/internal/domain"
	"github.com/lanaapp/lana-api/internal/handler"
	"github.com/lanaapp/lana-api/internal/infra/cache"
	"github.com/lanaapp/lana-api/internal/infra/observability"
	"github.com/lanaapp/lana-api/internal/infra/sqlite"
	"github.com/lanaapp/lana-api/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("db_path", cfg.DBPath),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "lana-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()

	// --- Cache ---
	dashboardCache := cache.NewTTL[*domain.DashboardSummary](cfg.CacheTTL)
	defer dashboardCache.Close()

	// --- Services ---
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, logger)
	ledgerSvc := service.NewLedgerService(store, metrics, logger)
	dashboardSvc := service.NewDashboardService(store, store, store, store, ledgerSvc, store, dashboardCache, metrics, logger)
	ledgerSvc.WithInvalidator(dashboardSvc)
	billSvc := service.NewBillService(store, store, ledgerSvc, metrics, logger).WithInvalidator(dashboardSvc)
	goalSvc := service.NewGoalService(store, store, store, metrics, logger).WithInvalidator(dashboardSvc)
	tandaSvc := service.NewTandaService(store, store, metrics, logger).WithInvalidator(dashboardSvc)
	calendarSvc := service.NewCalendarService(store, store, store, store, store, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Auth:      authSvc,
		Bills:     billSvc,
		Ledger:    ledgerSvc,
		Goals:     goalSvc,
		Tandas:    tandaSvc,
		Calendar:  calendarSvc,
		Dashboard: dashboardSvc,
		Metrics:   metrics,
		Logger:    logger,
		DB:        store,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
