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

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/mimhaad/finance-ledger/internal/adapter/http"
	"github.com/mimhaad/finance-ledger/internal/adapter/http/handler"
	"github.com/mimhaad/finance-ledger/internal/adapter/http/middleware"
	postgresRepo "github.com/mimhaad/finance-ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/mimhaad/finance-ledger/internal/adapter/repository/redis"
	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/auth"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/breaker"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/config"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/eventpublisher"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/logger"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/metrics"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/postgres"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/redis"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

const serviceName = "finance-ledger"

var errMissingJWTSecret = errors.New("AUTH_ENABLED requires JWT_SECRET")

func main() {
	// Console logging until the configured logger is ready
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(loggerConfig(cfg))
	log.Logger = appLogger

	verifier, err := newTokenVerifier(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid auth configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Redis is optional: without it there is no account cache, no idempotency
	// replay and float sync runs without the cross-instance lock.
	var (
		redisClient      goredis.UniversalClient
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
		locker           usecase.Locker
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		log.Info().Msg("connected to redis")

		lockOpts := redisRepo.DefaultLockOptions()
		if cfg.FloatSyncLockTTL > 0 {
			lockOpts.Expiry = cfg.FloatSyncLockTTL
		}

		redisClient = client
		cache = redisRepo.NewCache(client)
		idempotencyStore = redisRepo.NewIdempotencyStore(client)
		locker = redisRepo.NewLocker(client, lockOpts, appLogger)
	} else {
		log.Warn().Msg("REDIS_URL is empty; cache, idempotency and sync lock disabled")
	}

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	floatRepo := postgresRepo.NewFloatAccountRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	chartUC := usecase.NewChartUseCase(accountRepo, auditRepo, cache, idGen, m, appLogger)
	builderUC := usecase.NewBuilderUseCase(txManager, chartUC, journalRepo, outboxRepo, auditRepo, idGen, m, appLogger)
	postingUC := usecase.NewPostingUseCase(txManager, accountRepo, journalRepo, outboxRepo, auditRepo, idGen, m, appLogger)
	trialBalanceUC := usecase.NewTrialBalanceUseCase(ledgerRepo, m, appLogger)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)
	reconciliationUC := usecase.NewReconciliationUseCase(accountRepo, ledgerRepo)
	floatSyncUC := usecase.NewFloatSyncUseCase(usecase.FloatSyncConfig{
		TxManager:    txManager,
		Chart:        chartUC,
		Builder:      builderUC,
		Posting:      postingUC,
		FloatRepo:    floatRepo,
		OutboxRepo:   outboxRepo,
		AuditRepo:    auditRepo,
		IDGen:        idGen,
		Locker:       locker,
		Breaker:      breaker.New("float-source", breaker.DefaultConfig(), m, appLogger),
		Retrier:      postgresRepo.NewRetrier(appLogger),
		Metrics:      m,
		Logger:       appLogger,
		ClearingCode: cfg.FloatClearingCode,
	})

	// Provision the chart before serving traffic
	created, err := chartUC.EnsureRequiredAccounts(ctx, requiredCodes(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to ensure required GL accounts")
	}
	log.Info().Int("created", len(created)).Msg("required GL accounts present")

	// Background workers
	publisher, closePublisher := newPublisher(cfg, appLogger)
	defer closePublisher()

	outboxRelay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Metrics:    m,
		Logger:     appLogger,
		Interval:   cfg.OutboxPollInterval,
	})
	go func() {
		if err := outboxRelay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("outbox relay stopped")
		}
	}()

	if cfg.FloatSyncInterval > 0 {
		go floatSyncUC.Run(ctx, cfg.FloatSyncInterval)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	go rateLimiter.RunCleanup(ctx, 5*time.Minute)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(chartUC),
		EntryHandler:       handler.NewEntryHandler(builderUC, postingUC),
		TransactionHandler: handler.NewTransactionHandler(postingUC),
		ReportHandler:      handler.NewReportHandler(trialBalanceUC),
		FloatHandler:       handler.NewFloatHandler(floatSyncUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC, reconciliationUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		Metrics:            m,
		TokenVerifier:      verifier,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             appLogger,
	})

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
		log.Info().Str("port", cfg.HTTPPort).Bool("auth", verifier != nil).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func loggerConfig(cfg *config.Config) logger.Config {
	return logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	}
}

func requiredCodes(cfg *config.Config) []string {
	if len(cfg.RequiredAccountCodes) == 0 {
		return domain.DefaultChartCodes()
	}
	return cfg.RequiredAccountCodes
}

// newTokenVerifier returns nil when authentication is disabled.
func newTokenVerifier(cfg *config.Config) (middleware.TokenVerifier, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	if cfg.JWTSecret == "" {
		return nil, errMissingJWTSecret
	}
	return auth.NewJWTManager(cfg.JWTSecret), nil
}

// newPublisher dials RabbitMQ when configured and falls back to logging events.
func newPublisher(cfg *config.Config, logger zerolog.Logger) (eventpublisher.Publisher, func()) {
	if cfg.RabbitMQURL == "" {
		return eventpublisher.NewLogPublisher(logger), func() {}
	}

	rabbit, err := eventpublisher.DialRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		logger.Error().Err(err).Msg("rabbitmq unavailable, logging outbox events instead")
		return eventpublisher.NewLogPublisher(logger), func() {}
	}

	logger.Info().Str("exchange", cfg.RabbitMQExchange).Msg("publishing outbox events to rabbitmq")
	return rabbit, func() {
		if err := rabbit.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close rabbitmq publisher")
		}
	}
}
