// Package privacy pseudonymizes identifiers and reports outcome counts under
// the Laplace mechanism.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
)

// hexLength is the length of pseudonyms and session tokens
const hexLength = 16

// Pseudonym is the first 16 hex characters of SHA-256(identifier || salt).
//
// It is deterministic and one-way but truncated to 64 bits, so distinct
// identifiers collide with probability around n^2/2^65 for n identifiers.
// Treat it as a label, not a unique key.
type Pseudonym string

// Pseudonymize hashes identifier with salt
func Pseudonymize(identifier, salt string) Pseudonym {
	sum := sha256.Sum256([]byte(identifier + salt))
	return Pseudonym(hex.EncodeToString(sum[:])[:hexLength])
}

// Pseudonymizer holds the process-wide salt. It is read-only after
// construction and safe for concurrent use.
type Pseudonymizer struct {
	salt string
}

// NewPseudonymizer creates a pseudonymizer for salt
func NewPseudonymizer(salt string) *Pseudonymizer {
	return &Pseudonymizer{salt: salt}
}

// Pseudonymize hashes identifier with the configured salt
func (p *Pseudonymizer) Pseudonymize(identifier string) Pseudonym {
	return Pseudonymize(identifier, p.salt)
}
