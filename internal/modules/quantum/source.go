package quantum

import (
	"context"
	"fmt"
)

// MaxShots is the largest batch a single GenerateBatch call accepts.
// Larger trial counts are split into several calls by the caller.
const MaxShots = 100

// BitSource produces independent fair binary samples plus provenance metadata.
// Implementations must be safe for concurrent use.
type BitSource interface {
	// GenerateBatch returns exactly shots outcomes. Failures wrap ErrSourceFailure.
	GenerateBatch(ctx context.Context, shots int) (*OutcomeBatch, error)
	// Name identifies the backend in responses and logs.
	Name() string
	// Quantum reports whether outcomes come from a (simulated) quantum circuit.
	Quantum() bool
}

func validateShots(shots int) error {
	if shots < 1 || shots > MaxShots {
		return fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidShots, shots, MaxShots)
	}
	return nil
}
