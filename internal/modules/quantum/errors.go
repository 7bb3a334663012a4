package quantum

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceFailure marks any failure of the randomness source to produce a batch.
	ErrSourceFailure = errors.New("randomness source failure")
	// ErrInvalidShots is returned for shot counts outside [1, MaxShots].
	ErrInvalidShots = errors.New("invalid shot count")
)

// SourceError describes a failed GenerateBatch call.
// errors.Is(err, ErrSourceFailure) holds for every SourceError.
type SourceError struct {
	Backend string
	Err     error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrSourceFailure, e.Backend, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceFailure, e.Err}
}
