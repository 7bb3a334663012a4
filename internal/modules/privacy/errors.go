package privacy

import (
	"errors"
	"fmt"
)

// ErrInvalidEpsilon is returned for a non-positive or non-finite privacy budget
var ErrInvalidEpsilon = errors.New("epsilon must be a positive finite number")

// AggregationError reports a record that cannot be counted
type AggregationError struct {
	Index  int
	Reason string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
}
