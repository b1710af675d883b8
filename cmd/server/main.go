package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/minibank/internal/adapter/http"
	"github.com/iho/minibank/internal/adapter/http/handler"
	"github.com/iho/minibank/internal/adapter/http/middleware"
	"github.com/iho/minibank/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/minibank/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/minibank/internal/adapter/repository/redis"
	"github.com/iho/minibank/internal/infrastructure/auth"
	"github.com/iho/minibank/internal/infrastructure/config"
	"github.com/iho/minibank/internal/infrastructure/logger"
	"github.com/iho/minibank/internal/infrastructure/metrics"
	"github.com/iho/minibank/internal/infrastructure/postgres"
	"github.com/iho/minibank/internal/infrastructure/redis"
	"github.com/iho/minibank/internal/usecase"
)

// storage bundles the repository implementations picked by the
// STORAGE_BACKEND setting.
type storage struct {
	txManager   usecase.TransactionManager
	accountRepo usecase.AccountRepository
	log         usecase.TransactionLog
	ledgerRepo  usecase.LedgerRepository
	userRepo    usecase.UserRepository
	retrier     usecase.Retrier

	pool *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx := context.Background()

	store, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	if store.pool != nil {
		defer store.pool.Close()
	}

	// Redis is optional; without it the service runs with no idempotency
	// keys and no user cache.
	var redisClient *goredis.Client
	var idempotencyStore usecase.IdempotencyStore
	userRepo := store.userRepo
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		userRepo = redisRepo.NewUserCache(store.userRepo, redisRepo.NewCache(redisClient))
	}

	m := metrics.New()
	if store.pool != nil {
		m.DBConnections.Set(float64(store.pool.Stat().TotalConns()))
	}

	idGen := postgresRepo.NewULIDGenerator()
	numberGen := postgresRepo.NewAccountNumberGenerator()

	userUC := usecase.NewUserUseCase(userRepo, idGen)
	accountUC := usecase.NewAccountUseCase(store.accountRepo, idGen, numberGen)
	accountUC.OnNumberRetry(m.AccountNumberRetries.Inc)
	ledgerUC := usecase.NewLedgerUseCase(store.txManager, store.accountRepo, store.log, idGen)
	reconciliationUC := usecase.NewReconciliationUseCase(store.accountRepo, store.log, store.ledgerRepo)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:           handler.NewAuthHandler(userUC, jwtManager, m),
		AccountHandler:        handler.NewAccountHandler(accountUC, m),
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC, store.retrier, m),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC, m),
		HealthHandler:         handler.NewHealthHandler(store.pool, redisClient),

		JWTManager:       jwtManager,
		UserRepository:   userRepo,
		IdempotencyStore: idempotencyStore,
		RateLimiter:      middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m),
		Logger:           log,
		Metrics:          m,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.StorageBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		store := memory.NewStore()
		return &storage{
			txManager:   store,
			accountRepo: store,
			log:         store,
			ledgerRepo:  store,
			userRepo:    memory.NewUserStore(),
			retrier:     usecase.NopRetrier{},
		}, nil

	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		if err := postgres.RunMigrations(log, cfg.DatabaseURL, "migrations"); err != nil {
			pool.Close()
			return nil, err
		}

		return &storage{
			txManager:   postgresRepo.NewTxManager(pool),
			accountRepo: postgresRepo.NewAccountRepository(pool),
			log:         postgresRepo.NewEntryRepository(pool),
			ledgerRepo:  postgresRepo.NewLedgerRepository(pool),
			userRepo:    postgresRepo.NewUserRepository(pool),
			retrier:     postgresRepo.NewRetrier(log),
			pool:        pool,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
