// purl-server resolves specimen PURLs to landing pages, NBA documents and
// multimedia by content negotiation.
// Designed for Cloud Run deployment with stateless operation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"purl-resolver/internal/config"
	"purl-resolver/internal/handler"
	"purl-resolver/internal/metric"
	"purl-resolver/internal/middleware"
	"purl-resolver/internal/nba"
	"purl-resolver/internal/resolver"
	"purl-resolver/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := initLogger(cfg.Environment, cfg.LogLevel)

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("nba_base_url", cfg.Resolver.NBABaseURL),
		slog.String("nba_api_version", cfg.Resolver.NBAAPIVersion),
		slog.Int("variants", len(cfg.Resolver.Variants)),
		slog.Bool("no_redirect", cfg.NoRedirect),
	)

	client, err := nba.New(cfg.NBAConfig())
	if err != nil {
		return fmt.Errorf("creating NBA client: %w", err)
	}

	metrics := metric.NewRegistry()
	repo := metric.InstrumentRepository(client, metrics)

	variants, err := cfg.BuildVariants()
	if err != nil {
		return fmt.Errorf("building variants: %w", err)
	}

	resolvers := make([]*resolver.Resolver, 0, len(variants))
	for _, v := range variants {
		resolvers = append(resolvers, resolver.New(v, repo, client, logger))
		logger.Info("variant registered",
			slog.String("variant", v.Name),
			slog.Any("source_systems", v.Sources.Codes()),
			slog.String("multimedia", string(v.Multimedia)),
		)
	}

	h := handler.New(resolvers, handler.Options{
		NoRedirect: cfg.NoRedirect,
		Fetcher:    transport.NewLoader(cfg.UpstreamTimeout, cfg.Resolver.TLSFingerprint),
		Metrics:    metrics,
	}, logger)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → logging → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger(environment, levelName string) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
