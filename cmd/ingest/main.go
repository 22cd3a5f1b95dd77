package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"dataingest/internal/config"
	"dataingest/internal/infrastructure"
	"dataingest/internal/operations"
)

const shutdownTimeout = 5 * time.Second

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	os.Exit(run(context.Background(), config.DefaultParamsPath))
}

// run performs one ingestion and returns the process exit code
func run(ctx context.Context, paramsPath string) int {
	settings, err := config.LoadSettings()
	if err != nil {
		slog.Warn("Failed to load settings, using defaults", "error", err)
		settings = config.Default()
	}

	registry := infrastructure.InitializeLogging(settings.Logging)
	defer infrastructure.CloseLogging()

	logger := registry.Logger(config.ComponentPipeline)
	slog.SetDefault(logger)

	logger.Debug("Starting data ingestion",
		slog.String("version", Version),
		slog.String("params", paramsPath))

	telemetry, err := infrastructure.InitializeTelemetry(settings, logger)
	if err != nil {
		logger.Warn("Failed to initialize telemetry, continuing without it",
			slog.String("error", err.Error()))
		telemetry = nil
	}
	defer func() {
		if telemetry == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	pipeline := operations.NewIngestionPipeline(paramsPath, registry, telemetry)
	state, err := pipeline.Run(ctx)
	if err != nil {
		return 1
	}

	logger.Info(state.Message,
		slog.String("run_id", state.RunID),
		slog.Duration("duration", state.Duration()))
	return 0
}
