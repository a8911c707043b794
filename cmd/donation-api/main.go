package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/foodloop/donation-engine/app"
	"github.com/foodloop/donation-engine/config"
	"github.com/foodloop/donation-engine/internal/observability"
	"github.com/foodloop/donation-engine/routes"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "donation-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := initLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	telemetry, err := observability.InitProvider(ctx, observability.TelemetryConfig{
		Enabled:         cfg.Observability.OTelEnabled,
		ServiceName:     cfg.Observability.ServiceName,
		ServiceVersion:  version,
		Environment:     cfg.Environment,
		OTLPEndpoint:    cfg.Observability.OTLPEndpoint,
		TracesSampler:   cfg.Observability.TracesSampler,
		MetricsInterval: cfg.Observability.MetricsInterval,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Warn("failed to register metrics, continuing without them", zap.Error(err))
		metrics = nil
	}

	deps, err := app.NewDependencies(ctx, cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("donation-api listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := deps.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	logger.Info("donation-api stopped")
	return errors.Join(errs...)
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func initLogger() (*zap.Logger, error) {
	return observability.NewLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}
