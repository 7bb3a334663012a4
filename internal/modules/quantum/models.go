// Package quantum produces fair random bits from a simulated one-qubit circuit
// and describes the batches they are delivered in.
package quantum

import (
	"fmt"
	"strconv"
	"time"
)

// Outcome is the result of a single coin flip
type Outcome string

const (
	Heads Outcome = "Heads"
	Tails Outcome = "Tails"
)

// OutcomeFromBit maps a measured bit to an outcome: 1 is Heads, 0 is Tails.
// The naming is kept for wire compatibility and carries no bias.
func OutcomeFromBit(bit int) Outcome {
	if bit == 1 {
		return Heads
	}
	return Tails
}

// Valid reports whether o is Heads or Tails.
func (o Outcome) Valid() bool {
	return o == Heads || o == Tails
}

// OutcomeBatch is the result of one GenerateBatch call
type OutcomeBatch struct {
	Outcomes     []Outcome      `json:"outcomes"`
	Counts       map[string]int `json:"counts"` // raw bit ("0"/"1") -> occurrences
	CircuitDepth int            `json:"circuit_depth"`
	GateCount    int            `json:"gate_count"`
	ProducedAt   time.Time      `json:"timestamp"`
	Shots        int            `json:"shots"`
	Quantum      bool           `json:"quantum"`
	Backend      string         `json:"backend"`
}

// NewBatch assembles a batch from measured bits. Counts only carries keys
// that were actually observed.
func NewBatch(bits []int, depth, gates int, producedAt time.Time, quantumBacked bool, backend string) *OutcomeBatch {
	batch := &OutcomeBatch{
		Outcomes:     make([]Outcome, len(bits)),
		Counts:       make(map[string]int, 2),
		CircuitDepth: depth,
		GateCount:    gates,
		ProducedAt:   producedAt,
		Shots:        len(bits),
		Quantum:      quantumBacked,
		Backend:      backend,
	}
	for i, bit := range bits {
		batch.Outcomes[i] = OutcomeFromBit(bit)
		batch.Counts[strconv.Itoa(bit)]++
	}
	return batch
}

// Heads returns how many outcomes in the batch are Heads.
func (b *OutcomeBatch) Heads() int {
	return b.Counts["1"]
}

// Validate checks len(Outcomes) == Shots == sum(Counts) and the metadata bounds.
func (b *OutcomeBatch) Validate() error {
	if b.Shots < 1 {
		return fmt.Errorf("batch has %d shots", b.Shots)
	}
	if len(b.Outcomes) != b.Shots {
		return fmt.Errorf("batch has %d outcomes for %d shots", len(b.Outcomes), b.Shots)
	}
	total := 0
	for key, count := range b.Counts {
		if key != "0" && key != "1" {
			return fmt.Errorf("unexpected measurement key %q", key)
		}
		total += count
	}
	if total != b.Shots {
		return fmt.Errorf("counts sum to %d for %d shots", total, b.Shots)
	}
	if b.CircuitDepth < 1 || b.GateCount < 1 {
		return fmt.Errorf("invalid circuit metadata depth=%d gates=%d", b.CircuitDepth, b.GateCount)
	}
	for i, o := range b.Outcomes {
		if !o.Valid() {
			return fmt.Errorf("outcome %d is %q", i, o)
		}
	}
	return nil
}
