package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dvloznov/transaction-enricher/internal/api/middleware"
	"github.com/dvloznov/transaction-enricher/internal/enrich"
	"github.com/dvloznov/transaction-enricher/internal/logger"
	"github.com/rs/zerolog"
)

// Client-facing error messages.
const (
	msgNotJSON      = "Request must be JSON"
	msgBodyTooLarge = "Request body too large"
)

// Categorizer runs a batch through the model. Implemented by *enrich.Gateway.
type Categorizer interface {
	Categorize(ctx context.Context, body []byte) (*enrich.Result, error)
}

// TransactionsHandler handles transaction enrichment endpoints.
type TransactionsHandler struct {
	gateway Categorizer
	log     zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(gateway Categorizer, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		gateway: gateway,
		log:     log,
	}
}

// CategorizeTransactions handles POST /api/categorize_transactions
func (h *TransactionsHandler) CategorizeTransactions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	if !isJSON(r.Header.Get("Content-Type")) {
		log.Error().Str("content_type", r.Header.Get("Content-Type")).Msg("Request is not in JSON format")
		middleware.WriteError(w, http.StatusBadRequest, msgNotJSON)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Error().Int64("limit", tooLarge.Limit).Msg(msgBodyTooLarge)
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		log.Error().Err(err).Msg("Failed to read request body")
		middleware.WriteError(w, http.StatusBadRequest, msgNotJSON)
		return
	}

	res, err := h.gateway.Categorize(r.Context(), body)
	if err != nil {
		if enrich.KindOf(err) == enrich.KindInvalidRequest {
			middleware.WriteError(w, http.StatusBadRequest, msgNotJSON)
			return
		}
		log.Error().Err(err).Str("kind", string(enrich.KindOf(err))).Msg("An error occurred")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.WriteRawJSON(w, http.StatusOK, res.Batch)
}

// Hello handles GET /
func Hello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Hello, World!")
}

// isJSON reports whether the content type is application/json or an
// application/*+json type.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}
