package quantum

import (
	"context"
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/quantumflip/internal/utils"
)

// SimulatorBackend is the backend name reported by Simulator
const SimulatorBackend = "qasm_simulator"

// Simulator samples measurements of the coin-flip circuit.
// Every call seeds its own ChaCha8 stream from the entropy reader, so a
// Simulator holds no mutable state and is safe for concurrent use.
type Simulator struct {
	circuit *Circuit
	entropy io.Reader
	now     func() time.Time
}

// NewSimulator creates a simulator seeded from crypto/rand
func NewSimulator() *Simulator {
	return NewSimulatorWithEntropy(nil)
}

// NewSimulatorWithEntropy creates a simulator that seeds each batch from entropy.
// A nil reader means crypto/rand.
func NewSimulatorWithEntropy(entropy io.Reader) *Simulator {
	return &Simulator{
		circuit: NewCoinFlipCircuit(),
		entropy: entropy,
		now:     time.Now,
	}
}

// Name implements BitSource
func (s *Simulator) Name() string { return SimulatorBackend }

// Quantum implements BitSource
func (s *Simulator) Quantum() bool { return true }

// Circuit returns the circuit being sampled
func (s *Simulator) Circuit() *Circuit { return s.circuit }

// GenerateBatch runs the circuit for the given number of shots
func (s *Simulator) GenerateBatch(ctx context.Context, shots int) (*OutcomeBatch, error) {
	if err := validateShots(shots); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &SourceError{Backend: s.Name(), Err: err}
	}

	p1, err := s.circuit.ProbabilityOfOne()
	if err != nil {
		return nil, &SourceError{Backend: s.Name(), Err: err}
	}

	src, err := utils.NewSeededSource(s.entropy)
	if err != nil {
		return nil, &SourceError{Backend: s.Name(), Err: fmt.Errorf("seeding measurement sampler: %w", err)}
	}

	measurement := distuv.Bernoulli{P: p1, Src: src}
	bits := make([]int, shots)
	for i := range bits {
		bits[i] = int(measurement.Rand())
	}

	return NewBatch(bits, s.circuit.Depth(), s.circuit.GateCount(), s.now(), true, s.Name()), nil
}
