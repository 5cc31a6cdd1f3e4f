// Package enrich forwards transaction batches to a language model and returns
// the model's enriched copy of the batch.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dvloznov/transaction-enricher/internal/config"
	"github.com/dvloznov/transaction-enricher/internal/domain"
	"github.com/dvloznov/transaction-enricher/internal/logger"
	"github.com/dvloznov/transaction-enricher/internal/provider"
	"github.com/rs/zerolog"
)

// Generator is the part of provider.Provider the gateway needs.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, userInstruction string) (string, error)
}

var _ Generator = (provider.Provider)(nil)

// Result is a successful categorization.
type Result struct {
	// Batch is the parsed model output, returned to the client as-is apart
	// from sentinel fallback fills.
	Batch json.RawMessage

	// RawText is the model's unprocessed reply.
	RawText string

	// Fallbacks counts transactions that received the sentinel categories
	// because the model left them out.
	Fallbacks int

	ProviderLatency time.Duration
}

// Gateway validates a batch, asks the model to enrich it and parses the reply.
// It holds no per-request state and is safe for concurrent use.
type Gateway struct {
	gen     Generator
	ref     Reference
	timeout time.Duration
	log     zerolog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithReference adds category guidance to every prompt.
func WithReference(ref Reference) Option {
	return func(g *Gateway) {
		g.ref = ref
	}
}

// NewGateway creates a gateway that calls gen, bounding each call by
// cfg.ProviderTimeout.
func NewGateway(cfg config.Config, gen Generator, log zerolog.Logger, opts ...Option) *Gateway {
	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = config.DefaultProviderTimeout
	}
	g := &Gateway{gen: gen, timeout: timeout, log: log}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Categorize runs one batch through the model. Failures are *Error values;
// no step is retried.
func (g *Gateway) Categorize(ctx context.Context, body []byte) (*Result, error) {
	log := logger.FromContext(ctx, g.log)
	log.Info().Int("bytes", len(body)).Msg("Received request for transaction categorization")

	if !json.Valid(body) {
		log.Error().Msg("Request is not in JSON format")
		return nil, &Error{Kind: KindInvalidRequest, Err: ErrInvalidRequest}
	}
	log.Debug().RawJSON("request", body).Msg("Request data")

	prompt, err := BuildPrompt(body, g.ref)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build prompt")
		return nil, &Error{Kind: KindPrompt, Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	log.Info().Int("prompt_bytes", len(prompt.User)).Msg("Sending request to model provider")
	start := time.Now()
	text, err := g.gen.Generate(callCtx, prompt.System, prompt.User)
	latency := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			log.Error().Err(err).Dur("timeout", g.timeout).Msg("Model provider timed out")
		} else {
			log.Error().Err(err).Dur("latency", latency).Msg("Model provider call failed")
		}
		return nil, &Error{Kind: KindProvider, Err: err}
	}
	log.Info().Dur("latency", latency).Int("response_bytes", len(text)).Msg("Received response from model provider")
	log.Debug().Str("response", text).Msg("Raw model response")

	parsed, err := ParseModelJSON(text)
	if err != nil {
		log.Error().Err(err).Str("response", text).Msg("Model response is not valid JSON")
		return nil, &Error{Kind: KindParse, Err: err}
	}

	batch, filled := domain.ApplyFallback(parsed)
	if filled > 0 {
		log.Warn().Int("transactions", filled).Msg("Model omitted categories, applied General fallback")
	}
	log.Debug().RawJSON("response", batch).Msg("Parsed model response")

	return &Result{
		Batch:           batch,
		RawText:         text,
		Fallbacks:       filled,
		ProviderLatency: latency,
	}, nil
}
