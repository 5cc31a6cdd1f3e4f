// Package provider adapts generative-language model APIs to a single
// request → text capability.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/transaction-enricher/internal/config"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// Provider generates text from a system instruction and a user instruction.
type Provider interface {
	Generate(ctx context.Context, systemInstruction, userInstruction string) (string, error)
	// Name identifies the provider and model in logs, e.g. "gemini/gemini-2.5-flash".
	Name() string
}

// New builds the provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.Config) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.APIKey(), cfg.Model)
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.APIKey(), cfg.OpenAIBaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("provider: unsupported provider %q", cfg.Provider)
	}
}
