package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dvloznov/transaction-enricher/internal/api/middleware"
	"github.com/dvloznov/transaction-enricher/internal/logger"
	"github.com/dvloznov/transaction-enricher/internal/provider"
	"github.com/rs/zerolog"
)

// PingInstruction is the fixed prompt sent by the connectivity check.
const PingInstruction = "Respond with exactly: 'API test successful'"

// Matches JavaScript's Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ProviderCheckResponse is the body of GET /testCategorize.
type ProviderCheckResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Provider  string `json:"provider"`
	Timestamp string `json:"timestamp"`
}

// ProviderHandler reports whether the configured model provider answers.
type ProviderHandler struct {
	provider provider.Provider
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewProviderHandler creates a connectivity check bounded by timeout.
func NewProviderHandler(p provider.Provider, timeout time.Duration, log zerolog.Logger) *ProviderHandler {
	return &ProviderHandler{
		provider: p,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
	}
}

// TestCategorize handles GET /testCategorize
func (h *ProviderHandler) TestCategorize(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)
	log.Info().Str("provider", h.provider.Name()).Msg("Provider check called")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	text, err := h.provider.Generate(ctx, "", PingInstruction)
	resp := ProviderCheckResponse{
		Provider:  h.provider.Name(),
		Timestamp: h.now().UTC().Format(isoMillis),
	}
	if err != nil {
		log.Error().Err(err).Msg("Provider check failed")
		resp.Status = "error"
		resp.Message = err.Error()
		middleware.WriteJSON(w, http.StatusInternalServerError, resp)
		return
	}

	resp.Status = "success"
	resp.Message = text
	middleware.WriteJSON(w, http.StatusOK, resp)
}
