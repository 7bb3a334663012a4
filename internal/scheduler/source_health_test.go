package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aristath/quantumflip/internal/modules/quantum"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constantSource always measures the same bit
type constantSource struct {
	bit int
	err error

	mu    sync.Mutex
	shots []int
}

func (s *constantSource) GenerateBatch(ctx context.Context, shots int) (*quantum.OutcomeBatch, error) {
	s.mu.Lock()
	s.shots = append(s.shots, shots)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	bits := make([]int, shots)
	for i := range bits {
		bits[i] = s.bit
	}
	return quantum.NewBatch(bits, 1, 1, time.Now(), false, s.Name()), nil
}

func (s *constantSource) Name() string { return "constant" }

func (s *constantSource) Quantum() bool { return false }

func TestSourceHealthJob_Name(t *testing.T) {
	job := NewSourceHealthJob(&constantSource{}, 10, 0.01)
	assert.Equal(t, "source_health_check", job.Name())
}

func TestSourceHealthJob_NoResultBeforeRun(t *testing.T) {
	job := NewSourceHealthJob(&constantSource{}, 10, 0.01)

	_, ok := job.LastResult()
	assert.False(t, ok)
}

func TestSourceHealthJob_FairSourcePasses(t *testing.T) {
	job := NewSourceHealthJob(quantum.NewSimulator(), 2000, 1e-9)
	job.SetLogger(zerolog.New(nil).Level(zerolog.Disabled))

	require.NoError(t, job.Run())

	result, ok := job.LastResult()
	require.True(t, ok)
	assert.True(t, result.Passed)
	assert.Equal(t, quantum.SimulatorBackend, result.Backend)
	assert.Equal(t, 2000, result.Shots)
	assert.InDelta(t, 0.5, result.HeadsRatio, 0.1)
	assert.Greater(t, result.PValue, 1e-9)
	assert.Empty(t, result.Error)
}

func TestSourceHealthJob_BiasedSourceFails(t *testing.T) {
	source := &constantSource{bit: 1}
	job := NewSourceHealthJob(source, 250, 0.001)

	err := job.Run()
	assert.Error(t, err)

	result, ok := job.LastResult()
	require.True(t, ok)
	assert.False(t, result.Passed)
	assert.Equal(t, 250, result.Heads)
	assert.InDelta(t, 1.0, result.HeadsRatio, 1e-12)
	assert.InDelta(t, 250.0, result.ChiSquare, 1e-9)
	assert.Less(t, result.PValue, 0.001)

	// Samples are drawn in batches no larger than the source accepts.
	assert.Equal(t, []int{100, 100, 50}, source.shots)
}

func TestSourceHealthJob_ExactlyBalancedSample(t *testing.T) {
	job := NewSourceHealthJob(&alternatingSource{}, 100, 0.05)

	require.NoError(t, job.Run())

	result, _ := job.LastResult()
	assert.Equal(t, 50, result.Heads)
	assert.InDelta(t, 0.0, result.ChiSquare, 1e-12)
	assert.InDelta(t, 1.0, result.PValue, 1e-12)
}

func TestSourceHealthJob_SourceFailureIsRecorded(t *testing.T) {
	source := &constantSource{err: &quantum.SourceError{Backend: "constant", Err: errors.New("offline")}}
	job := NewSourceHealthJob(source, 100, 0.01)

	err := job.Run()
	assert.Error(t, err)

	result, ok := job.LastResult()
	require.True(t, ok)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Error, "offline")
}

type alternatingSource struct{}

func (alternatingSource) GenerateBatch(ctx context.Context, shots int) (*quantum.OutcomeBatch, error) {
	bits := make([]int, shots)
	for i := range bits {
		bits[i] = i % 2
	}
	return quantum.NewBatch(bits, 1, 1, time.Now(), false, "alternating"), nil
}

func (alternatingSource) Name() string { return "alternating" }

func (alternatingSource) Quantum() bool { return false }
