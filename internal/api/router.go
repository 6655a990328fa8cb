// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tradehub-ledger/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(
	webhookHandler *handler.WebhookHandler,
	paymentHandler *handler.PaymentHandler,
	walletHandler *handler.WalletHandler,
	withdrawalHandler *handler.WithdrawalHandler,
	splitHandler *handler.SplitHandler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Payment gateway callback
	r.Post("/webhooks/payment", webhookHandler.HandleEvent)

	// Manual reconciliation queue
	r.Get("/reconciliation/pending", webhookHandler.ListPending)

	// Initiation contract for business subsystems
	r.Route("/payments", func(r chi.Router) {
		r.Post("/initiate", paymentHandler.Initiate)
		r.Get("/{reference}", paymentHandler.Status)
	})

	// Wallet API routes
	r.Route("/wallets", func(r chi.Router) {
		r.Post("/", walletHandler.CreateWallet)
		r.Get("/{walletID}/balance", walletHandler.GetWalletBalance)
		r.Get("/{walletID}/transactions", walletHandler.GetTransactionHistory)
	})

	// Withdrawal workflow
	r.Route("/withdrawals", func(r chi.Router) {
		r.Post("/", withdrawalHandler.Create)
		r.Get("/", withdrawalHandler.List)
		r.Get("/stats", withdrawalHandler.Stats)
		r.Post("/{id}/approve", withdrawalHandler.Approve)
		r.Post("/{id}/reject", withdrawalHandler.Reject)
		r.Post("/{id}/cancel", withdrawalHandler.Cancel)
		r.Post("/{id}/process", withdrawalHandler.Process)
	})

	// Revenue split configuration and exposure
	r.Post("/settings/revenue-split", splitHandler.ActivateSettings)
	r.Get("/splits/{reference}", splitHandler.GetSplit)

	return r
}
