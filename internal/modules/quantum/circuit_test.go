package quantum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinFlipCircuit_EqualSuperposition(t *testing.T) {
	c := NewCoinFlipCircuit()

	p1, err := c.ProbabilityOfOne()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p1, 1e-12)

	state := c.StateVector()
	assert.InDelta(t, state.AtVec(0), state.AtVec(1), 1e-12)
}

func TestCoinFlipCircuit_Metadata(t *testing.T) {
	c := NewCoinFlipCircuit()

	assert.Equal(t, 2, c.Depth())
	assert.Equal(t, 2, c.GateCount())
	assert.Equal(t, []string{"h", "measure"}, c.Gates())
}

func TestCircuit_DeterministicGates(t *testing.T) {
	testCases := []struct {
		name     string
		circuit  *Circuit
		expected float64
	}{
		{"identity", (&Circuit{}).Measure(), 0},
		{"x flips to one", (&Circuit{}).X().Measure(), 1},
		{"h h is identity", (&Circuit{}).H().H().Measure(), 0},
		{"x h is balanced", (&Circuit{}).X().H().Measure(), 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p1, err := tc.circuit.ProbabilityOfOne()
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, p1, 1e-12)
		})
	}
}

func TestCircuit_RequiresMeasurement(t *testing.T) {
	_, err := (&Circuit{}).H().ProbabilityOfOne()
	assert.ErrorIs(t, err, errNotMeasured)
}

func TestCircuit_GatesAfterMeasurementIgnored(t *testing.T) {
	measured := NewCoinFlipCircuit()
	after := measured.X()

	assert.Same(t, measured, after)
	assert.Equal(t, 2, after.GateCount())
}

func TestCircuit_BuildersDoNotShareState(t *testing.T) {
	base := (&Circuit{}).H()
	withX := base.X()
	withH := base.H()

	assert.Equal(t, []string{"h", "x"}, withX.Gates())
	assert.Equal(t, []string{"h", "h"}, withH.Gates())
}
