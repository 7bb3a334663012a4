package privacy

import (
	"math"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantumflip/internal/modules/quantum"
	"github.com/aristath/quantumflip/internal/utils"
)

func records(heads, tails int) []StatsRecord {
	out := make([]StatsRecord, 0, heads+tails)
	for i := 0; i < heads; i++ {
		out = append(out, StatsRecord{Outcome: quantum.Heads})
	}
	for i := 0; i < tails; i++ {
		out = append(out, StatsRecord{Outcome: quantum.Tails})
	}
	return out
}

func TestAggregate_SevenHeadsThreeTails(t *testing.T) {
	agg := NewAggregator(true)
	input := records(7, 3)

	first, err := agg.Aggregate(input, 0.1)
	require.NoError(t, err)
	second, err := agg.Aggregate(input, 0.1)
	require.NoError(t, err)

	for _, stats := range []*Stats{first, second} {
		assert.Equal(t, 7, stats.RawHeads)
		assert.Equal(t, 3, stats.RawTails)
		assert.Equal(t, 10, stats.TotalTrials)
		assert.InDelta(t, 70.0, stats.HeadsPercentage, 1e-9)
		assert.GreaterOrEqual(t, stats.NoisyHeads, 0)
		assert.GreaterOrEqual(t, stats.NoisyTails, 0)
		assert.InDelta(t, 0.1, stats.Epsilon, 1e-12)
	}
}

func TestAggregate_NoiseIsFreshPerCall(t *testing.T) {
	agg := NewAggregator(true)
	input := records(500, 500)

	seen := make(map[int]bool)
	for i := 0; i < 20; i++ {
		stats, err := agg.Aggregate(input, 0.1)
		require.NoError(t, err)
		seen[stats.NoisyHeads] = true
	}

	// Scale-10 noise landing on one integer 20 times in a row is practically impossible.
	assert.Greater(t, len(seen), 1)
}

func TestAggregate_Empty(t *testing.T) {
	stats, err := NewAggregator(true).Aggregate(nil, 0.1)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalTrials)
	assert.Equal(t, 0, stats.RawHeads)
	assert.Equal(t, 0, stats.RawTails)
	assert.Equal(t, 0.0, stats.HeadsPercentage)
	assert.GreaterOrEqual(t, stats.NoisyHeads, 0)
	assert.GreaterOrEqual(t, stats.NoisyTails, 0)
}

func TestAggregate_InvalidEpsilon(t *testing.T) {
	agg := NewAggregator(true)

	for _, eps := range []float64{0, -0.5, math.NaN(), math.Inf(1)} {
		stats, err := agg.Aggregate(records(1, 1), eps)
		assert.ErrorIs(t, err, ErrInvalidEpsilon)
		assert.Nil(t, stats)
	}
}

func TestAggregate_StrictRejectsMalformedRecord(t *testing.T) {
	input := append(records(2, 1), StatsRecord{}, StatsRecord{Outcome: "Edge"})

	stats, err := NewAggregator(true).Aggregate(input, 1)

	assert.Nil(t, stats)
	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, 3, aggErr.Index)
	assert.Equal(t, "missing outcome", aggErr.Reason)
}

func TestAggregate_LenientSkipsMalformedRecords(t *testing.T) {
	input := append(records(2, 1), StatsRecord{}, StatsRecord{Outcome: "heads"})

	stats, err := NewAggregator(false).Aggregate(input, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.RawHeads)
	assert.Equal(t, 1, stats.RawTails)
	assert.Equal(t, 3, stats.TotalTrials)
	assert.Equal(t, 2, stats.SkippedRecords)
	assert.InDelta(t, 200.0/3.0, stats.HeadsPercentage, 1e-9)
}

func TestAggregate_EntropyFailure(t *testing.T) {
	agg := NewAggregatorWithEntropy(true, iotest.ErrReader(assert.AnError))

	_, err := agg.Aggregate(records(1, 0), 1)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAddNoise_LargeEpsilonIsNearlyExact(t *testing.T) {
	src, err := utils.NewSeededSource(nil)
	require.NoError(t, err)

	for _, v := range []int{0, 1, 42, 1000} {
		assert.Equal(t, v, AddNoise(v, 1e9, src))
	}
}

func TestAddNoise_ClampsAtZero(t *testing.T) {
	src, err := utils.NewSeededSource(nil)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		assert.GreaterOrEqual(t, AddNoise(0, 0.01, src), 0)
	}
}

func TestAddNoise_Unbiased(t *testing.T) {
	src, err := utils.NewSeededSource(nil)
	require.NoError(t, err)

	const draws = 4000
	sum := 0
	for i := 0; i < draws; i++ {
		sum += AddNoise(1000, 1, src) - 1000
	}

	// Laplace(0, 1) has standard deviation sqrt(2); the mean of 4000 draws stays well inside 0.2.
	assert.InDelta(t, 0, float64(sum)/draws, 0.2)
}
