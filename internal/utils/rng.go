package utils

import (
	crand "crypto/rand"
	"fmt"
	"io"
	"math/rand/v2"
)

// NewSeededSource returns a ChaCha8 source seeded with 32 bytes read from
// entropy (crypto/rand when nil). Each caller gets its own source, so no
// RNG state is shared between goroutines.
func NewSeededSource(entropy io.Reader) (*rand.ChaCha8, error) {
	if entropy == nil {
		entropy = crand.Reader
	}
	var seed [32]byte
	if _, err := io.ReadFull(entropy, seed[:]); err != nil {
		return nil, fmt.Errorf("failed to read seed: %w", err)
	}
	return rand.NewChaCha8(seed), nil
}
