// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	router "tradehub-ledger/internal/api"
	"tradehub-ledger/internal/api/handler"
	"tradehub-ledger/internal/cache"
	"tradehub-ledger/internal/config"
	"tradehub-ledger/internal/gateway"
	"tradehub-ledger/internal/repository"
	"tradehub-ledger/internal/repository/postgres"
	"tradehub-ledger/internal/service"
	"tradehub-ledger/internal/util"
	"tradehub-ledger/pkg/db"
)

// How long a processed reference stays in the fast-path cache. The ledger's
// unique index answers for anything older.
const processedCacheTTL = 24 * time.Hour

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	// Repositories
	WalletRepository      repository.WalletRepository
	TransactionRepository repository.TransactionRepository
	SplitRepository       repository.RevenueSplitRepository
	WithdrawalRepository  repository.WithdrawalRepository

	// Services
	WalletStore          *service.WalletStore
	RevenueSplitter      *service.RevenueSplitter
	ReconciliationEngine *service.ReconciliationEngine
	PaymentService       *service.PaymentService
	WithdrawalWorkflow   *service.WithdrawalWorkflow

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()

	// 2. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Optional processed-reference cache
	var processedCache service.ProcessedCache
	if app.Config.RedisAddr != "" {
		app.Redis = redis.NewClient(&redis.Options{Addr: app.Config.RedisAddr})
		if err := app.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping Redis: %w", err)
		}
		processedCache = cache.NewProcessedReferenceCache(app.Redis, processedCacheTTL)
		app.Logger.Info("Redis processed-reference cache enabled.")
	}

	// 5. Initialize Repositories
	app.WalletRepository = postgres.NewWalletRepository(app.DB)
	app.TransactionRepository = postgres.NewTransactionRepository(app.DB)
	app.SplitRepository = postgres.NewRevenueSplitRepository(app.DB)
	app.WithdrawalRepository = postgres.NewWithdrawalRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 6. Initialize Services
	app.WalletStore = service.NewWalletStore(
		app.DB, app.DB,
		app.WalletRepository, app.TransactionRepository,
		db.BeginTx, db.CommitTx, db.RollbackTx,
	)
	app.RevenueSplitter = service.NewRevenueSplitter(
		app.DB, app.DB,
		app.SplitRepository, app.WalletRepository, app.WalletStore,
		db.BeginTx, db.CommitTx, db.RollbackTx,
		app.Logger,
	)
	app.ReconciliationEngine = service.NewReconciliationEngine(
		app.DB, app.DB,
		app.WalletRepository, app.TransactionRepository, app.WithdrawalRepository,
		app.WalletStore, app.RevenueSplitter,
		processedCache, nil, // paid notifier is registered by the embedding platform
		app.Config.Currency,
		db.BeginTx, db.CommitTx, db.RollbackTx,
		app.Logger,
	)
	app.PaymentService = service.NewPaymentService(
		app.DB, app.DB,
		app.TransactionRepository, app.WalletStore,
		app.Config.Currency, app.Config.CallbackBaseURL,
		db.BeginTx, db.CommitTx, db.RollbackTx,
	)
	payoutGateway := gateway.NewHTTPPayoutGateway(app.Config.GatewayURL, app.Config.GatewayAPIKey)
	app.WithdrawalWorkflow = service.NewWithdrawalWorkflow(
		app.DB, app.DB,
		app.WalletRepository, app.WithdrawalRepository, app.TransactionRepository,
		app.WalletStore, payoutGateway,
		app.Config.MinWithdrawal, app.Config.Currency,
		db.BeginTx, db.CommitTx, db.RollbackTx,
		app.Logger,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	webhookGateway := gateway.NewWebhookGateway(app.Config.WebhookSecret)
	webhookHandler := handler.NewWebhookHandler(webhookGateway, app.ReconciliationEngine, app.Logger)
	paymentHandler := handler.NewPaymentHandler(app.PaymentService, app.Logger)
	walletHandler := handler.NewWalletHandler(app.WalletStore, app.Logger)
	withdrawalHandler := handler.NewWithdrawalHandler(app.WithdrawalWorkflow, app.Logger)
	splitHandler := handler.NewSplitHandler(app.RevenueSplitter, app.Logger)
	app.HTTPHandler = router.NewRouter(webhookHandler, paymentHandler, walletHandler, withdrawalHandler, splitHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close Redis connection", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
