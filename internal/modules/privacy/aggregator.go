package privacy

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/quantumflip/internal/modules/quantum"
	"github.com/aristath/quantumflip/internal/utils"
)

// Sensitivity of a count query: one record changes one count by at most 1
const Sensitivity = 1.0

// StatsRecord is the part of a trial record the aggregator reads
type StatsRecord struct {
	Outcome quantum.Outcome `json:"outcome"`
}

// Stats are outcome counts released under the Laplace mechanism.
//
// HeadsPercentage is computed from the raw counts while NoisyHeads and
// NoisyTails carry noise. Callers must keep that asymmetry.
type Stats struct {
	RawHeads        int     `json:"raw_heads_count"`
	RawTails        int     `json:"raw_tails_count"`
	NoisyHeads      int     `json:"heads_count"`
	NoisyTails      int     `json:"tails_count"`
	TotalTrials     int     `json:"total_trials"`
	HeadsPercentage float64 `json:"heads_percentage"`
	Epsilon         float64 `json:"epsilon"`
	SkippedRecords  int     `json:"skipped_records"`
}

// Aggregator computes Stats. It holds no mutable state; every Aggregate
// call seeds a fresh noise stream, so repeated calls over the same records
// return different noisy counts.
type Aggregator struct {
	strict  bool
	entropy io.Reader
}

// NewAggregator creates an aggregator. In strict mode a record whose outcome
// is missing or unknown fails the whole call with *AggregationError; otherwise
// such records are skipped and reported in Stats.SkippedRecords.
func NewAggregator(strict bool) *Aggregator {
	return NewAggregatorWithEntropy(strict, nil)
}

// NewAggregatorWithEntropy seeds noise from entropy (crypto/rand when nil)
func NewAggregatorWithEntropy(strict bool, entropy io.Reader) *Aggregator {
	return &Aggregator{strict: strict, entropy: entropy}
}

// Strict reports the malformed-record policy
func (a *Aggregator) Strict() bool { return a.strict }

// Aggregate counts outcomes and perturbs each count with Laplace(0, 1/epsilon) noise
func (a *Aggregator) Aggregate(records []StatsRecord, epsilon float64) (*Stats, error) {
	if err := ValidateEpsilon(epsilon); err != nil {
		return nil, err
	}

	stats := &Stats{Epsilon: epsilon}
	for i, rec := range records {
		switch rec.Outcome {
		case quantum.Heads:
			stats.RawHeads++
		case quantum.Tails:
			stats.RawTails++
		default:
			if a.strict {
				return nil, recordError(i, rec)
			}
			stats.SkippedRecords++
		}
	}
	stats.TotalTrials = stats.RawHeads + stats.RawTails
	if stats.TotalTrials > 0 {
		stats.HeadsPercentage = float64(stats.RawHeads) / float64(stats.TotalTrials) * 100
	}

	src, err := utils.NewSeededSource(a.entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to seed noise source: %w", err)
	}
	stats.NoisyHeads = AddNoise(stats.RawHeads, epsilon, src)
	stats.NoisyTails = AddNoise(stats.RawTails, epsilon, src)

	return stats, nil
}

// AddNoise returns max(0, round(value + Laplace(0, Sensitivity/epsilon))).
// Successive calls with the same src draw independent noise.
func AddNoise(value int, epsilon float64, src rand.Source) int {
	noise := distuv.Laplace{Mu: 0, Scale: Sensitivity / epsilon, Src: src}.Rand()
	noisy := math.Round(float64(value) + noise)
	switch {
	case math.IsNaN(noisy) || noisy <= 0:
		return 0
	case noisy >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(noisy)
}

// ValidateEpsilon rejects budgets the mechanism cannot use
func ValidateEpsilon(epsilon float64) error {
	if epsilon <= 0 || math.IsNaN(epsilon) || math.IsInf(epsilon, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidEpsilon, epsilon)
	}
	return nil
}

func recordError(i int, rec StatsRecord) *AggregationError {
	if rec.Outcome == "" {
		return &AggregationError{Index: i, Reason: "missing outcome"}
	}
	return &AggregationError{Index: i, Reason: fmt.Sprintf("unknown outcome %q", rec.Outcome)}
}
