// Package trials drives the bit source through batched trial runs and tags
// every outcome with batch, subject and session metadata.
package trials

import (
	"errors"
	"time"

	"github.com/aristath/quantumflip/internal/modules/privacy"
	"github.com/aristath/quantumflip/internal/modules/quantum"
)

// ErrInvalidCount is returned for negative trial counts
var ErrInvalidCount = errors.New("trial count must not be negative")

// TrialRecord is one outcome of a run. Records are created once and never modified.
type TrialRecord struct {
	Outcome      quantum.Outcome      `json:"outcome"`
	Quantum      bool                 `json:"quantum"`
	Timestamp    time.Time            `json:"timestamp"`
	CircuitDepth int                  `json:"circuit_depth"`
	GateCount    int                  `json:"gate_count"`
	BatchID      privacy.Pseudonym    `json:"batch_id"`
	TrialNumber  int                  `json:"trial_number"`
	UserID       string               `json:"user_id"` // pseudonym in privacy mode, raw subject otherwise
	SessionID    privacy.SessionToken `json:"session_id"`
}

// TrialRunResult is the outcome of one RunTrials call. On failure Results is
// empty: no record from an earlier batch of the run is ever returned.
type TrialRunResult struct {
	Success     bool              `json:"success"`
	Results     []TrialRecord     `json:"results"`
	BatchID     privacy.Pseudonym `json:"batch_id,omitempty"`
	TotalTrials int               `json:"total_trials"`
	Quantum     bool              `json:"quantum"`
	RunID       string            `json:"run_id"`
	Error       string            `json:"error,omitempty"`

	// Err is the cause behind Error, for errors.Is checks at the transport boundary.
	Err error `json:"-"`
}

// FlipResult is a single flip with the metadata of the batch it came from
type FlipResult struct {
	Outcome      quantum.Outcome   `json:"outcome"`
	Outcomes     []quantum.Outcome `json:"outcomes"`
	Counts       map[string]int    `json:"counts"`
	Quantum      bool              `json:"quantum"`
	CircuitDepth int               `json:"circuit_depth"`
	GateCount    int               `json:"gate_count"`
	Timestamp    time.Time         `json:"timestamp"`
	Shots        int               `json:"shots"`
	Backend      string            `json:"backend"`
}
