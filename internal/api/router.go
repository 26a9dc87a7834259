// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ledger-bank/internal/api/handler"
	"ledger-bank/internal/metrics"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Transactions *handler.TransactionHandler
	Accounts     *handler.AccountHandler
	Users        *handler.UserHandler
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, m *metrics.Metrics, logger *zap.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(requestLogger(logger, m))                   // Log and measure HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.Transactions.CreateTransaction)
			r.Get("/", h.Transactions.ListTransactions)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", h.Accounts.CreateAccount)
			r.Get("/", h.Accounts.ListAccounts)
			r.Get("/{accountID}", h.Accounts.GetAccount)
			r.Put("/{accountID}", h.Accounts.UpdateAccount)
			r.Delete("/{accountID}", h.Accounts.DeleteAccount)
		})

		// {user} is a numeric id on the CRUD routes and an owner name on /balance.
		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Users.CreateUser)
			r.Get("/", h.Users.ListUsers)
			r.Get("/{user}", h.Users.GetUser)
			r.Put("/{user}", h.Users.UpdateUser)
			r.Delete("/{user}", h.Users.DeleteUser)
			r.Get("/{user}/balance", h.Transactions.GetTotalBalance)
		})

		r.Post("/auth/login", h.Users.Login)
	})

	return r
}
