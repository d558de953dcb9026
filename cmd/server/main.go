package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/infisparks/gautami-ledger/internal/adapter/http"
	"github.com/infisparks/gautami-ledger/internal/adapter/http/handler"
	"github.com/infisparks/gautami-ledger/internal/adapter/http/middleware"
	postgresRepo "github.com/infisparks/gautami-ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/infisparks/gautami-ledger/internal/adapter/repository/redis"
	"github.com/infisparks/gautami-ledger/internal/domain"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/config"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/eventpublisher"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/logger"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/metrics"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/postgres"
	"github.com/infisparks/gautami-ledger/internal/infrastructure/redis"
	"github.com/infisparks/gautami-ledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger
	zerolog.SetGlobalLevel(appLogger.GetLevel())

	ctx := context.Background()

	// Connect to PostgreSQL
	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	connectCancel()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Run schema migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations", appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	appMetrics := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	recordRepo := postgresRepo.NewRecordRepository(pool)
	bedRegistry := postgresRepo.NewBedRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(cfg.MergeMaxRetries, appLogger, appMetrics)

	paymentMethods := domain.NewPaymentMethods(cfg.PaymentMethods)

	// Initialize use cases
	recordUC := usecase.NewRecordUseCase(txManager, recordRepo, outboxRepo, idGen, appMetrics)
	billingUC := usecase.NewBillingUseCase(txManager, recordRepo, outboxRepo, retrier, idGen, appMetrics)
	paymentUC := usecase.NewPaymentUseCase(txManager, recordRepo, outboxRepo, retrier, idGen, paymentMethods, appMetrics)
	dischargeUC := usecase.NewDischargeUseCase(txManager, recordRepo, bedRegistry, outboxRepo, retrier, idGen, appLogger, appMetrics)
	invoiceUC := usecase.NewInvoiceUseCase(recordRepo, cache, cfg.InvoiceCacheTTL, appLogger, appMetrics)
	reconciliationUC := usecase.NewReconciliationUseCase(recordRepo, bedRegistry, appLogger, appMetrics)

	// Initialize handlers
	recordHandler := handler.NewRecordHandler(recordUC)
	serviceHandler := handler.NewServiceHandler(billingUC)
	paymentHandler := handler.NewPaymentHandler(paymentUC)
	dischargeHandler := handler.NewDischargeHandler(dischargeUC)
	invoiceHandler := handler.NewInvoiceHandler(invoiceUC)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		RecordHandler:         recordHandler,
		ServiceHandler:        serviceHandler,
		PaymentHandler:        paymentHandler,
		DischargeHandler:      dischargeHandler,
		InvoiceHandler:        invoiceHandler,
		ReconciliationHandler: reconciliationHandler,
		HealthHandler:         healthHandler,
		IdempotencyStore:      idempotencyStore,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           middleware.NewRateLimiter(cfg.HTTPRateLimit, cfg.HTTPRateBurst),
		Logging:               middleware.NewLoggingMiddleware(appLogger),
	})

	// Background workers share a cancellable context
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	// Outbox publisher: in-process fanout plus a log sink
	hub := eventpublisher.NewHub(eventpublisher.NewLogPublisher(appLogger))
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  hub,
		Logger:     appLogger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	// Bed release reconciliation loop
	go runReconciliation(workerCtx, reconciliationUC, cfg.ReconcileInterval, appLogger)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")
	stopWorkers()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}

type bedReconciler interface {
	ReleasePendingBeds(ctx context.Context) (*usecase.BedReleaseReport, error)
}

// runReconciliation periodically releases beds left occupied by partial
// discharges.
func runReconciliation(ctx context.Context, uc bedReconciler, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := uc.ReleasePendingBeds(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("bed release reconciliation failed")
				continue
			}
			if report.Pending > 0 {
				logger.Info().
					Int("pending", report.Pending).
					Int("released", report.Released).
					Msg("bed release reconciliation pass")
			}
		}
	}
}
