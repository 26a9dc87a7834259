// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	router "ledger-bank/internal/api"
	"ledger-bank/internal/api/handler"
	"ledger-bank/internal/config"
	"ledger-bank/internal/metrics"
	"ledger-bank/internal/publisher"
	"ledger-bank/internal/repository"
	"ledger-bank/internal/repository/postgres"
	"ledger-bank/internal/service"
	"ledger-bank/internal/util"
	"ledger-bank/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config  *config.AppConfig
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *metrics.Metrics

	// Repositories
	UserRepository        repository.UserRepository
	AccountRepository     repository.AccountRepository
	TransactionRepository repository.TransactionRepository

	// Services
	TransactionService service.TransactionService
	BalanceService     service.BalanceService
	AccountService     service.AccountService
	UserService        service.UserService

	// HTTP API
	HTTPHandler http.Handler
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
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	logger, err := util.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Logger.Info("Application configuration loaded successfully.", zap.String("env", cfg.Env))

	// 3. Apply schema migrations
	if cfg.DB.AutoMigrate {
		applied, err := db.Migrate(cfg.DB, db.DirectionUp)
		if err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		app.Logger.Info("Database schema is up to date.", zap.Bool("applied", applied))
	}

	// 4. Connect to Database
	database, err := db.NewPostgresDB(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.",
		zap.String("host", cfg.DB.Host),
		zap.String("database", cfg.DB.DBName),
	)

	// 5. Connect to Redis when configured
	var events service.EventPublisher = publisher.NopPublisher{}
	if cfg.Redis.Enabled() {
		rdb, err := publisher.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.Redis = rdb
		events = publisher.NewRedisPublisher(rdb, cfg.Redis.Channel)
		app.Logger.Info("Redis publisher enabled.", zap.String("channel", cfg.Redis.Channel))
	} else {
		app.Logger.Info("Redis not configured, transaction events are disabled.")
	}

	app.Metrics = metrics.New()

	// 6. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository()
	app.AccountRepository = postgres.NewAccountRepository()
	app.TransactionRepository = postgres.NewTransactionRepository()
	app.Logger.Info("Repositories initialized.")

	// 7. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx and rollback functions from pkg/db
	rollbackTx := db.NewRollbackTx(app.Logger.Named("db"))
	app.TransactionService = service.NewTransactionService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.AccountRepository,
		app.TransactionRepository,
		db.BeginTx,
		db.CommitTx,
		rollbackTx,
		service.WithLockTimeout(cfg.Ledger.LockTimeout),
		service.WithPublisher(events),
		service.WithMetrics(app.Metrics),
		service.WithLogger(app.Logger.Named("ledger")),
	)
	app.BalanceService = service.NewBalanceService(app.DB, app.AccountRepository)
	app.AccountService = service.NewAccountService(
		app.DB,
		app.DB,
		app.AccountRepository,
		app.TransactionRepository,
		app.UserRepository,
		db.BeginTx,
		db.CommitTx,
		rollbackTx,
	)
	app.UserService = service.NewUserService(app.DB, app.UserRepository, app.AccountRepository, cfg.BcryptCost)
	app.Logger.Info("Services initialized.", zap.Duration("lock_timeout", cfg.Ledger.LockTimeout))

	// 8. Initialize HTTP Handlers and Router
	httpLogger := app.Logger.Named("http")
	app.HTTPHandler = router.NewRouter(router.Handlers{
		Transactions: handler.NewTransactionHandler(app.TransactionService, app.BalanceService, httpLogger),
		Accounts:     handler.NewAccountHandler(app.AccountService, httpLogger),
		Users:        handler.NewUserHandler(app.UserService, httpLogger),
	}, app.Metrics, httpLogger, cfg.CORSAllowedOrigins)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")

	var errs []error
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close redis client", zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		} else {
			app.Logger.Info("Redis client closed.")
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		} else {
			app.Logger.Info("Database connection closed.")
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	app.Logger.Info("Application shut down gracefully.")
	_ = app.Logger.Sync()
	return nil
}
