package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/quantumflip/internal/modules/quantum"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// sourceHealthTimeout bounds a single self-test run
const sourceHealthTimeout = 30 * time.Second

// SourceHealthResult is the outcome of one monobit self-test
type SourceHealthResult struct {
	Backend    string    `json:"backend"`
	Shots      int       `json:"shots"`
	Heads      int       `json:"heads"`
	HeadsRatio float64   `json:"heads_ratio"`
	ChiSquare  float64   `json:"chi_square"`
	PValue     float64   `json:"p_value"`
	Alpha      float64   `json:"alpha"`
	Passed     bool      `json:"passed"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// SourceHealthJob samples the bit source and runs a chi-square goodness-of-fit
// test of the heads/tails split against the fair 50/50 expectation.
type SourceHealthJob struct {
	source quantum.BitSource
	shots  int
	alpha  float64
	log    zerolog.Logger

	mu   sync.RWMutex
	last *SourceHealthResult
}

// NewSourceHealthJob creates a self-test drawing shots samples per run.
// The source fails the test when the p-value drops below alpha.
func NewSourceHealthJob(source quantum.BitSource, shots int, alpha float64) *SourceHealthJob {
	return &SourceHealthJob{
		source: source,
		shots:  shots,
		alpha:  alpha,
		log:    zerolog.Nop(),
	}
}

// SetLogger sets the logger for the job
func (j *SourceHealthJob) SetLogger(log zerolog.Logger) {
	j.log = log.With().Str("job", j.Name()).Logger()
}

// Name returns the job name
func (j *SourceHealthJob) Name() string {
	return "source_health_check"
}

// Run executes the self-test and records its result
func (j *SourceHealthJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), sourceHealthTimeout)
	defer cancel()

	result := j.check(ctx)

	j.mu.Lock()
	j.last = &result
	j.mu.Unlock()

	if result.Error != "" {
		return fmt.Errorf("source self-test could not sample: %s", result.Error)
	}
	if !result.Passed {
		j.log.Warn().
			Float64("p_value", result.PValue).
			Float64("heads_ratio", result.HeadsRatio).
			Msg("Source failed the fairness self-test")
		return fmt.Errorf("source self-test failed: p=%.3g below alpha %.3g", result.PValue, result.Alpha)
	}

	j.log.Info().
		Float64("p_value", result.PValue).
		Float64("heads_ratio", result.HeadsRatio).
		Msg("Source passed the fairness self-test")
	return nil
}

// LastResult returns the most recent result, if any run has completed
func (j *SourceHealthJob) LastResult() (SourceHealthResult, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.last == nil {
		return SourceHealthResult{}, false
	}
	return *j.last, true
}

func (j *SourceHealthJob) check(ctx context.Context) SourceHealthResult {
	result := SourceHealthResult{
		Backend:   j.source.Name(),
		Shots:     j.shots,
		Alpha:     j.alpha,
		CheckedAt: time.Now(),
	}

	bits := make([]float64, 0, j.shots)
	for len(bits) < j.shots {
		batch, err := j.source.GenerateBatch(ctx, min(quantum.MaxShots, j.shots-len(bits)))
		if err != nil {
			result.Error = err.Error()
			return result
		}
		for _, outcome := range batch.Outcomes {
			if outcome == quantum.Heads {
				result.Heads++
				bits = append(bits, 1)
			} else {
				bits = append(bits, 0)
			}
		}
	}

	result.HeadsRatio = stat.Mean(bits, nil)

	half := float64(len(bits)) / 2
	observed := []float64{float64(result.Heads), float64(len(bits) - result.Heads)}
	expected := []float64{half, half}

	result.ChiSquare = stat.ChiSquare(observed, expected)
	result.PValue = distuv.ChiSquared{K: 1}.Survival(result.ChiSquare)
	result.Passed = result.PValue >= j.alpha

	return result
}
