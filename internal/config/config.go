// Package config loads the service configuration from the environment and an
// optional dotenv file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted in ENRICH_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Default values used when the environment does not set them.
const (
	DefaultProvider        = ProviderGemini
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultPort            = "8080"
	DefaultProviderTimeout = 120 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
)

// Config is the process-wide configuration. It is read once at start-up and
// passed explicitly to the components that need it.
type Config struct {
	Provider        string
	Model           string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	ProviderTimeout time.Duration

	// CategoryTable is an optional path to a category reference table.
	CategoryTable string

	Port      string
	LogLevel  string
	LogFormat string
}

// APIKey returns the credential for the selected provider.
func (c Config) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// Validate checks that the selected provider is known and has a credential.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported provider %q (want %q or %q)", c.Provider, ProviderGemini, ProviderOpenAI)
	}
	if c.Model == "" {
		return errors.New("model identifier is empty")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive, got %s", c.ProviderTimeout)
	}
	return nil
}

// Load reads configuration from the environment. When envFile is non-empty
// and exists, its KEY=VALUE pairs are used for anything the environment does
// not set. A missing envFile is not an error.
func Load(envFile string) (Config, error) {
	v := viper.New()
	v.SetDefault("enrich_provider", DefaultProvider)
	v.SetDefault("provider_timeout", DefaultProviderTimeout)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("config: reading %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: stat %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Provider:        strings.ToLower(strings.TrimSpace(v.GetString("enrich_provider"))),
		Model:           strings.TrimSpace(v.GetString("enrich_model")),
		GeminiAPIKey:    v.GetString("gemini_api_key"),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		OpenAIBaseURL:   v.GetString("openai_base_url"),
		ProviderTimeout: v.GetDuration("provider_timeout"),
		CategoryTable:   strings.TrimSpace(v.GetString("category_table")),
		Port:            v.GetString("port"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
	}

	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
		if cfg.Provider == ProviderOpenAI {
			cfg.Model = DefaultOpenAIModel
		}
	}

	return cfg, nil
}
