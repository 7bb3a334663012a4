package di

import (
	"fmt"

	"github.com/aristath/quantumflip/internal/config"
	"github.com/aristath/quantumflip/internal/modules/privacy"
	"github.com/aristath/quantumflip/internal/modules/quantum"
	"github.com/aristath/quantumflip/internal/modules/trials"
	"github.com/aristath/quantumflip/internal/scheduler"
	"github.com/rs/zerolog"
)

// InitializeServices creates all services and stores them in the container.
// Order matters: the orchestrator needs the source and the pseudonymizer.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	source, err := NewBitSource(cfg.Backend)
	if err != nil {
		return err
	}
	container.Source = source

	if !cfg.PrivacySaltConfigured() {
		log.Warn().Msg("PRIVACY_SALT not set, pseudonyms use the built-in default salt")
	}
	container.Pseudonymizer = privacy.NewPseudonymizer(cfg.PrivacySalt)
	container.Aggregator = privacy.NewAggregator(cfg.StrictStats)

	container.Orchestrator = trials.NewOrchestrator(source, container.Pseudonymizer, trials.Config{
		MaxBatchSize: cfg.MaxBatchSize,
		BatchDelay:   cfg.BatchDelay,
	}, log)

	container.Scheduler = scheduler.New(log)

	log.Info().
		Str("backend", source.Name()).
		Bool("quantum", source.Quantum()).
		Bool("strict_stats", cfg.StrictStats).
		Msg("Services initialized")

	return nil
}

// NewBitSource returns the source configured by name
func NewBitSource(backend string) (quantum.BitSource, error) {
	switch backend {
	case config.BackendSimulator:
		return quantum.NewSimulator(), nil
	case config.BackendClassical:
		return quantum.NewClassicalSource(), nil
	default:
		return nil, fmt.Errorf("unknown quantum backend %q", backend)
	}
}
