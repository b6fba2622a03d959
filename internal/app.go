// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	router "fintrack-ledger/internal/api"
	"fintrack-ledger/internal/api/handler"
	"fintrack-ledger/internal/config"
	"fintrack-ledger/internal/repository"
	"fintrack-ledger/internal/repository/postgres"
	"fintrack-ledger/internal/repository/redisstore"
	"fintrack-ledger/internal/service"
	"fintrack-ledger/internal/util"
	"fintrack-ledger/internal/worker"
	"fintrack-ledger/pkg/cache"
	"fintrack-ledger/pkg/db"
	"fintrack-ledger/pkg/telemetry"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Redis  *redis.Client // nil when REDIS_ADDR is unset

	// Repositories
	UserRepository        repository.UserRepository
	WalletRepository      repository.WalletRepository
	TransactionRepository repository.TransactionRepository
	RecurringRepository   repository.RecurringRepository
	IdempotencyStore      repository.IdempotencyStore

	// Services
	WalletService    service.WalletService
	LedgerService    service.LedgerService
	RecurringService service.RecurringService

	RecurringWorker *worker.RecurringWorker

	// HTTP API
	HTTPHandler http.Handler

	shutdownTracer telemetry.ShutdownFunc
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		app.Logger = util.GetLogger()
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Tracing
	app.shutdownTracer, err = telemetry.InitTracer(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	}, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// 4. Connect to Database and migrate
	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	if cfg.DB.AutoMigrate {
		if err := db.Migrate(app.DB.DB, cfg.DB.DBName); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		app.Logger.Info("Database migrations applied.")
	}

	// 5. Optional Redis for idempotency keys and the recurring job lock
	var locker cache.Locker = cache.LocalLocker{}
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.Redis = client
		app.IdempotencyStore = redisstore.NewIdempotencyStore(client)
		locker = cache.NewRedisLocker(client, 2*cfg.RecurringInterval, app.Logger)
		app.Logger.Info("Redis connection established.", "addr", cfg.Redis.Addr)
	} else {
		app.Logger.Warn("REDIS_ADDR not set, idempotency keys disabled and recurring lock is process-local")
	}

	// 6. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository()
	app.WalletRepository = postgres.NewWalletRepository()
	app.TransactionRepository = postgres.NewTransactionRepository()
	app.RecurringRepository = postgres.NewRecurringRepository()
	app.Logger.Info("Repositories initialized.")

	// 7. Initialize Services
	uow := db.NewDefaultTxManager(app.DB)
	policy := service.MissingWalletSkip
	if cfg.LedgerStrictWallets {
		policy = service.MissingWalletReject
	}
	mutator := service.NewLedgerMutator(app.WalletRepository, policy, app.Logger)

	app.LedgerService = service.NewLedgerService(
		uow,
		app.DB, // This is the DBExecutor for reads
		app.WalletRepository,
		app.TransactionRepository,
		mutator,
		app.Logger,
	)
	app.WalletService = service.NewWalletService(
		uow,
		app.DB,
		app.UserRepository,
		app.WalletRepository,
		app.TransactionRepository,
	)
	app.RecurringService = service.NewRecurringService(
		uow,
		app.DB,
		app.WalletRepository,
		app.RecurringRepository,
		app.LedgerService,
		app.Logger,
	)
	app.RecurringWorker = worker.NewRecurringWorker(app.RecurringService, locker, cfg.RecurringInterval, app.Logger)
	app.Logger.Info("Services initialized.", "strict_wallets", cfg.LedgerStrictWallets)

	// 8. Initialize HTTP Handlers and Router
	app.HTTPHandler = router.NewRouter(router.Handlers{
		User:        handler.NewUserHandler(app.WalletService, app.Logger),
		Wallet:      handler.NewWalletHandler(app.WalletService, app.LedgerService, app.Logger),
		Transaction: handler.NewTransactionHandler(app.LedgerService, app.Logger),
		Recurring:   handler.NewRecurringHandler(app.RecurringService, app.Logger),
	}, router.IdempotencyOptions{
		Store: app.IdempotencyStore,
		TTL:   cfg.IdempotencyTTL,
	}, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// StartBackground starts the recurring worker when it is enabled.
func (app *Application) StartBackground(ctx context.Context) {
	if !app.Config.RecurringEnabled {
		app.Logger.Info("Recurring worker disabled.")
		return
	}
	app.RecurringWorker.Start(ctx)
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	var errs []error

	if app.RecurringWorker != nil {
		if err := app.RecurringWorker.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close redis connection", "error", err)
			errs = append(errs, fmt.Errorf("failed to close redis connection: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		} else {
			app.Logger.Info("Database connection closed.")
		}
	}
	if app.shutdownTracer != nil {
		if err := app.shutdownTracer(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down tracer: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
