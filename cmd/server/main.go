// Package main is the entry point for the coin flip service.
// It serves fair random outcomes from a simulated one-qubit circuit,
// tags batched trial runs with pseudonymous identifiers, and releases
// outcome counts under differential privacy.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/quantumflip/internal/config"
	"github.com/aristath/quantumflip/internal/di"
	"github.com/aristath/quantumflip/internal/server"
	"github.com/aristath/quantumflip/pkg/logger"
)

// main is the application entry point:
// 1. Loads configuration from environment variables (.env file optional)
// 2. Initializes logging
// 3. Wires all dependencies via the DI container
// 4. Starts the HTTP server and the job scheduler
// 5. Waits for a shutdown signal and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.DevMode,
		Service: "quantumflip",
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("backend", cfg.Backend).
		Int("max_batch_size", cfg.MaxBatchSize).
		Dur("batch_delay", cfg.BatchDelay).
		Msg("Starting quantum coin flip service")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      jobs,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()

	// Run the first self-test right away instead of waiting a full interval
	if jobs.SourceHealth != nil {
		go func() {
			if err := container.Scheduler.RunNow(jobs.SourceHealth); err != nil {
				log.Warn().Err(err).Msg("Initial source self-test did not pass")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
