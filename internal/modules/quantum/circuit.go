package quantum

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	hadamard = mat.NewDense(2, 2, []float64{
		1 / math.Sqrt2, 1 / math.Sqrt2,
		1 / math.Sqrt2, -1 / math.Sqrt2,
	})
	pauliX = mat.NewDense(2, 2, []float64{
		0, 1,
		1, 0,
	})
)

var errNotMeasured = errors.New("circuit has no measurement")

type gate struct {
	name    string
	unitary mat.Matrix
}

// Circuit is a single-qubit circuit with real-valued gates followed by
// one computational-basis measurement. A Circuit is immutable once built
// and may be shared between goroutines.
type Circuit struct {
	gates    []gate
	measured bool
}

// NewCoinFlipCircuit returns H then measure: |0> becomes (|0> + |1>)/sqrt(2),
// so both outcomes have probability 1/2.
func NewCoinFlipCircuit() *Circuit {
	return (&Circuit{}).H().Measure()
}

// H appends a Hadamard gate.
func (c *Circuit) H() *Circuit {
	return c.apply("h", hadamard)
}

// X appends a Pauli-X (bit flip) gate.
func (c *Circuit) X() *Circuit {
	return c.apply("x", pauliX)
}

// apply returns a copy with u appended. Gates after the measurement are
// ignored: the measured circuit is returned unchanged.
func (c *Circuit) apply(name string, u mat.Matrix) *Circuit {
	if c.measured {
		return c
	}
	gates := make([]gate, 0, len(c.gates)+1)
	gates = append(gates, c.gates...)
	return &Circuit{gates: append(gates, gate{name: name, unitary: u})}
}

// Measure appends the measurement.
func (c *Circuit) Measure() *Circuit {
	return &Circuit{gates: c.gates, measured: true}
}

// Depth counts layers. With one qubit every operation is its own layer.
func (c *Circuit) Depth() int {
	return c.GateCount()
}

// GateCount counts instructions, measurement included.
func (c *Circuit) GateCount() int {
	n := len(c.gates)
	if c.measured {
		n++
	}
	return n
}

// Gates lists instruction names in order.
func (c *Circuit) Gates() []string {
	names := make([]string, 0, c.GateCount())
	for _, g := range c.gates {
		names = append(names, g.name)
	}
	if c.measured {
		names = append(names, "measure")
	}
	return names
}

// StateVector evolves |0> through every gate.
func (c *Circuit) StateVector() *mat.VecDense {
	state := mat.NewVecDense(2, []float64{1, 0})
	for _, g := range c.gates {
		next := mat.NewVecDense(2, nil)
		next.MulVec(g.unitary, state)
		state = next
	}
	return state
}

// ProbabilityOfOne applies the Born rule to the final state.
func (c *Circuit) ProbabilityOfOne() (float64, error) {
	if !c.measured {
		return 0, errNotMeasured
	}
	state := c.StateVector()
	a0, a1 := state.AtVec(0), state.AtVec(1)
	norm := a0*a0 + a1*a1
	if norm == 0 || math.IsNaN(norm) {
		return 0, errors.New("circuit produced a zero state")
	}
	return a1 * a1 / norm, nil
}
