package trials

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aristath/quantumflip/internal/modules/privacy"
	"github.com/aristath/quantumflip/internal/modules/quantum"
	"github.com/aristath/quantumflip/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sleeper waits for d or until ctx is done, whichever comes first
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config controls batching of a run
type Config struct {
	MaxBatchSize int
	BatchDelay   time.Duration
}

// Orchestrator runs batched trials against a bit source.
// It holds no per-run state and is safe for concurrent use.
type Orchestrator struct {
	source        quantum.BitSource
	pseudonymizer *privacy.Pseudonymizer
	maxBatchSize  int
	batchDelay    time.Duration
	sleep         Sleeper
	clock         privacy.Clock
	log           zerolog.Logger
}

// NewOrchestrator creates an orchestrator. A batch size outside [1, quantum.MaxShots]
// falls back to quantum.MaxShots.
func NewOrchestrator(source quantum.BitSource, pseudonymizer *privacy.Pseudonymizer, cfg Config, log zerolog.Logger) *Orchestrator {
	batchSize := cfg.MaxBatchSize
	if batchSize < 1 || batchSize > quantum.MaxShots {
		batchSize = quantum.MaxShots
	}

	return &Orchestrator{
		source:        source,
		pseudonymizer: pseudonymizer,
		maxBatchSize:  batchSize,
		batchDelay:    cfg.BatchDelay,
		sleep:         ContextSleep,
		clock:         privacy.SystemClock,
		log:           log.With().Str("component", "trial_orchestrator").Logger(),
	}
}

// SetSleeper replaces the inter-batch wait
func (o *Orchestrator) SetSleeper(s Sleeper) {
	o.sleep = s
}

// SetClock replaces the clock used for record timestamps and session tokens
func (o *Orchestrator) SetClock(c privacy.Clock) {
	o.clock = c
}

// Source returns the underlying bit source
func (o *Orchestrator) Source() quantum.BitSource {
	return o.source
}

// MaxBatchSize returns the number of shots requested per source call
func (o *Orchestrator) MaxBatchSize() int {
	return o.maxBatchSize
}

// BatchDelay returns the pause between consecutive batches of a run
func (o *Orchestrator) BatchDelay() time.Duration {
	return o.batchDelay
}

// RunTrials produces count records for subjectID.
//
// The run is all-or-nothing: if any batch fails, or ctx is cancelled while
// waiting between batches, the result carries Success=false and no records.
// In privacy mode each record's UserID is the pseudonym of subjectID followed
// by the record's index within its batch, so the index restarts at 0 for every
// batch and trials 1 and 101 share a UserID.
func (o *Orchestrator) RunTrials(ctx context.Context, count int, subjectID string, privacyMode bool) *TrialRunResult {
	runID := uuid.New().String()
	log := o.log.With().
		Str("run_id", runID).
		Int("count", count).
		Bool("privacy_mode", privacyMode).
		Logger()

	if count < 0 {
		return failedRun(runID, count, fmt.Errorf("%w: %d", ErrInvalidCount, count))
	}

	batchID := o.pseudonymizer.Pseudonymize(subjectID)
	batches := (count + o.maxBatchSize - 1) / o.maxBatchSize
	timer := utils.NewTimer("run_trials", log).
		WithSlowThreshold(utils.DefaultSlowThreshold + time.Duration(batches)*o.batchDelay)

	results := make([]TrialRecord, 0, count)
	for batchStart := 0; batchStart < count; batchStart += o.maxBatchSize {
		shots := min(o.maxBatchSize, count-batchStart)

		batch, err := o.source.GenerateBatch(ctx, shots)
		if err == nil {
			if verr := batch.Validate(); verr != nil {
				err = &quantum.SourceError{Backend: o.source.Name(), Err: verr}
			}
		}
		if err != nil {
			log.Error().Err(err).Int("batch_start", batchStart).Msg("Trial run aborted")
			return failedRun(runID, count, fmt.Errorf("batch starting at trial %d: %w", batchStart+1, err))
		}

		for i, outcome := range batch.Outcomes {
			userID := subjectID
			if privacyMode {
				userID = string(o.pseudonymizer.Pseudonymize(subjectID + strconv.Itoa(i)))
			}

			results = append(results, TrialRecord{
				Outcome:      outcome,
				Quantum:      batch.Quantum,
				Timestamp:    o.clock.Now(),
				CircuitDepth: batch.CircuitDepth,
				GateCount:    batch.GateCount,
				BatchID:      batchID,
				TrialNumber:  batchStart + i + 1,
				UserID:       userID,
				SessionID:    privacy.NewSessionToken(o.clock),
			})
		}

		if batchStart+shots < count {
			if err := o.sleep(ctx, o.batchDelay); err != nil {
				log.Warn().Err(err).Int("completed", len(results)).Msg("Trial run cancelled")
				return failedRun(runID, count, fmt.Errorf("run cancelled: %w", err))
			}
		}
	}

	timer.StopWithContext(map[string]interface{}{
		"batches": batches,
		"backend": o.source.Name(),
	})

	log.Info().Str("batch_id", string(batchID)).Msg("Trial run completed")

	return &TrialRunResult{
		Success:     true,
		Results:     results,
		BatchID:     batchID,
		TotalTrials: count,
		Quantum:     o.source.Quantum(),
		RunID:       runID,
	}
}

// Flip draws a single outcome
func (o *Orchestrator) Flip(ctx context.Context) (*FlipResult, error) {
	batch, err := o.source.GenerateBatch(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("flip: %w", err)
	}
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("flip: %w", &quantum.SourceError{Backend: o.source.Name(), Err: err})
	}

	return &FlipResult{
		Outcome:      batch.Outcomes[0],
		Outcomes:     batch.Outcomes,
		Counts:       batch.Counts,
		Quantum:      batch.Quantum,
		CircuitDepth: batch.CircuitDepth,
		GateCount:    batch.GateCount,
		Timestamp:    batch.ProducedAt,
		Shots:        batch.Shots,
		Backend:      batch.Backend,
	}, nil
}

func failedRun(runID string, count int, err error) *TrialRunResult {
	return &TrialRunResult{
		Success:     false,
		Results:     []TrialRecord{},
		TotalTrials: count,
		RunID:       runID,
		Error:       err.Error(),
		Err:         err,
	}
}
