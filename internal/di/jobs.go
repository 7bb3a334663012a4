// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aristath/quantumflip/internal/config"
	"github.com/aristath/quantumflip/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs registers all jobs with the scheduler.
// Returns JobInstances for manual triggering via API.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.Scheduler == nil {
		return nil, fmt.Errorf("container and scheduler cannot be nil")
	}

	instances := &JobInstances{}

	if cfg.SelfTestSchedule == "" {
		log.Info().Msg("Source self-test disabled")
		return instances, nil
	}

	sourceHealth := scheduler.NewSourceHealthJob(container.Source, cfg.SelfTestShots, cfg.SelfTestAlpha)
	sourceHealth.SetLogger(log)
	if err := container.Scheduler.AddJob(cfg.SelfTestSchedule, sourceHealth); err != nil {
		return nil, fmt.Errorf("failed to register source health job: %w", err)
	}
	instances.SourceHealth = sourceHealth

	return instances, nil
}
