// Package api wires the HTTP routes of the enrichment service.
package api

import (
	"net/http"
	"time"

	"github.com/dvloznov/transaction-enricher/internal/api/handlers"
	"github.com/dvloznov/transaction-enricher/internal/api/middleware"
	"github.com/dvloznov/transaction-enricher/internal/provider"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// MaxRequestBytes bounds the size of a categorization request.
const MaxRequestBytes = 25 << 20

// NewRouter builds the HTTP handler with the full middleware chain. p backs
// the connectivity check, which is bounded by providerTimeout.
func NewRouter(gateway handlers.Categorizer, p provider.Provider, providerTimeout time.Duration, log zerolog.Logger) http.Handler {
	transactions := handlers.NewTransactionsHandler(gateway, log)
	check := handlers.NewProviderHandler(p, providerTimeout, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS)
	r.Use(middleware.MaxBodyBytes(MaxRequestBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", handlers.Hello)
	r.Get("/testCategorize", check.TestCategorize)
	r.Post("/api/categorize_transactions", transactions.CategorizeTransactions)

	return r
}
