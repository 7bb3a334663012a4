// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/aristath/quantumflip/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container
// This is the main entry point for dependency injection
// Order of operations:
// 1. Initialize services
// 2. Register jobs
// The scheduler is returned stopped; the caller starts it.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container := &Container{}

	// Step 1: Initialize services
	if err := InitializeServices(container, cfg, log); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Step 2: Register jobs
	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed")

	return container, jobs, nil
}
