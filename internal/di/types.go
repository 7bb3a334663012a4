/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server for access to services.
 */
package di

import (
	"github.com/aristath/quantumflip/internal/modules/privacy"
	"github.com/aristath/quantumflip/internal/modules/quantum"
	"github.com/aristath/quantumflip/internal/modules/trials"
	"github.com/aristath/quantumflip/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Randomness
	Source quantum.BitSource

	// Privacy
	Pseudonymizer *privacy.Pseudonymizer
	Aggregator    *privacy.Aggregator

	// Trials
	Orchestrator *trials.Orchestrator

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds references to registered jobs for manual triggering via API
type JobInstances struct {
	// SourceHealth is nil when the self-test schedule is disabled
	SourceHealth *scheduler.SourceHealthJob
}
