package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// SessionToken tags records produced within the same call.
//
// It is derived from the wall clock only: it is guessable, and two tokens
// generated within one clock tick are identical. It is not a credential.
type SessionToken string

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now implements Clock
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads time.Now
var SystemClock Clock = ClockFunc(time.Now)

// NewSessionToken hashes the clock's current time in nanoseconds
func NewSessionToken(clock Clock) SessionToken {
	if clock == nil {
		clock = SystemClock
	}
	stamp := strconv.FormatInt(clock.Now().UnixNano(), 10)
	sum := sha256.Sum256([]byte(stamp))
	return SessionToken(hex.EncodeToString(sum[:])[:hexLength])
}
