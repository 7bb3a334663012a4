package quantum

import (
	"context"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ClassicalBackend is the backend name reported by ClassicalSource
const ClassicalBackend = "classical_fallback"

// ClassicalSource derives each bit from SHA-256 over the current time and 32
// bytes of system entropy; the parity of the first digest byte decides the
// outcome (even is Heads). Outcomes are flagged as not quantum-backed.
type ClassicalSource struct {
	entropy io.Reader
	now     func() time.Time
}

// NewClassicalSource creates a classical source reading from crypto/rand
func NewClassicalSource() *ClassicalSource {
	return NewClassicalSourceWithEntropy(nil)
}

// NewClassicalSourceWithEntropy creates a classical source reading from entropy.
// A nil reader means crypto/rand.
func NewClassicalSourceWithEntropy(entropy io.Reader) *ClassicalSource {
	if entropy == nil {
		entropy = crand.Reader
	}
	return &ClassicalSource{entropy: entropy, now: time.Now}
}

// Name implements BitSource
func (c *ClassicalSource) Name() string { return ClassicalBackend }

// Quantum implements BitSource
func (c *ClassicalSource) Quantum() bool { return false }

// GenerateBatch implements BitSource
func (c *ClassicalSource) GenerateBatch(ctx context.Context, shots int) (*OutcomeBatch, error) {
	if err := validateShots(shots); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &SourceError{Backend: c.Name(), Err: err}
	}

	bits := make([]int, shots)
	buf := make([]byte, 32)
	for i := range bits {
		if _, err := io.ReadFull(c.entropy, buf); err != nil {
			return nil, &SourceError{Backend: c.Name(), Err: fmt.Errorf("reading entropy: %w", err)}
		}
		digest := sha256.Sum256([]byte(strconv.FormatInt(c.now().UnixMilli(), 10) + hex.EncodeToString(buf)))
		if digest[0]%2 == 0 {
			bits[i] = 1
		}
	}

	return NewBatch(bits, 1, 1, c.now(), false, c.Name()), nil
}
