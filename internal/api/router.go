// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack-ledger/internal/api/handler"
	"fintrack-ledger/internal/repository"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	User        *handler.UserHandler
	Wallet      *handler.WalletHandler
	Transaction *handler.TransactionHandler
	Recurring   *handler.RecurringHandler
}

// IdempotencyOptions configures the Idempotency-Key middleware.
// A nil Store disables it.
type IdempotencyOptions struct {
	Store repository.IdempotencyStore
	TTL   time.Duration
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, idempotency IdempotencyOptions, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(handler.TraceContext)                       // Continue the caller's trace
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/users", h.User.CreateUser)

	// Everything below acts on behalf of the user in X-User-ID.
	r.Group(func(r chi.Router) {
		r.Use(handler.RequireUser(logger))
		idempotent := handler.Idempotency(idempotency.Store, idempotency.TTL, logger)

		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", h.Wallet.CreateWallet)
			r.Get("/", h.Wallet.ListWallets)
			r.Get("/{walletID}", h.Wallet.GetWallet)
			r.Get("/{walletID}/transactions", h.Wallet.GetTransactionHistory)
			r.Post("/{walletID}/reconcile", h.Wallet.Reconcile)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.With(idempotent).Post("/", h.Transaction.CreateTransaction)
			r.With(idempotent).Post("/batch", h.Transaction.CreateBatch)
			r.Get("/{transactionID}", h.Transaction.GetTransaction)
			r.Put("/{transactionID}", h.Transaction.UpdateTransaction)
			r.Delete("/{transactionID}", h.Transaction.DeleteTransaction)
		})

		r.Route("/recurring", func(r chi.Router) {
			r.Post("/", h.Recurring.CreateRecurring)
			r.Get("/", h.Recurring.ListRecurring)
			r.Delete("/{recurringID}", h.Recurring.DeactivateRecurring)
		})
	})

	return r
}
