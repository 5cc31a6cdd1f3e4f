package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/transaction-enricher/internal/api"
	"github.com/dvloznov/transaction-enricher/internal/categories"
	"github.com/dvloznov/transaction-enricher/internal/config"
	"github.com/dvloznov/transaction-enricher/internal/enrich"
	"github.com/dvloznov/transaction-enricher/internal/logger"
	"github.com/dvloznov/transaction-enricher/internal/provider"
	"github.com/rs/zerolog"
)

func main() {
	var (
		envFile = flag.String("env-file", ".env", "Optional dotenv file read before the environment")
		port    = flag.String("port", "", "HTTP server port (overrides PORT)")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		bootLog().Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		bootLog().Fatal().Err(err).Msg("Failed to create logger")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	p, err := provider.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model provider")
	}

	var opts []enrich.Option
	if cfg.CategoryTable != "" {
		table, err := categories.Load(cfg.CategoryTable)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load category table")
		}
		log.Info().Str("path", cfg.CategoryTable).Int("entries", table.Len()).Msg("Loaded category table")
		opts = append(opts, enrich.WithReference(table))
	}
	gateway := enrich.NewGateway(cfg, p, log, opts...)

	// Read and write timeouts must cover a full provider round trip.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(gateway, p, cfg.ProviderTimeout, log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ProviderTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("provider", p.Name()).
			Dur("provider_timeout", cfg.ProviderTimeout).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// bootLog is used before the configured logger exists.
func bootLog() *zerolog.Logger {
	l := logger.NewWithWriter(os.Stderr)
	return &l
}
