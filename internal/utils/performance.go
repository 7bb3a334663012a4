package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultSlowThreshold is the duration above which a timed operation is logged as slow
const DefaultSlowThreshold = 5 * time.Second

// Timer is a simple performance timer for measuring operation duration
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
	slow  time.Duration
}

// NewTimer creates a new timer with the given name
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
		slow:  DefaultSlowThreshold,
	}
}

// WithSlowThreshold overrides the slow-operation threshold. Zero disables the warning.
func (t *Timer) WithSlowThreshold(d time.Duration) *Timer {
	t.slow = d
	return t
}

// Stop stops the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	return t.StopWithContext(nil)
}

// StopWithContext stops the timer and logs with additional context
func (t *Timer) StopWithContext(context map[string]interface{}) time.Duration {
	duration := time.Since(t.start)

	event := t.log.Debug()
	if t.slow > 0 && duration > t.slow {
		event = t.log.Warn().Dur("threshold", t.slow)
	}

	event = event.
		Str("operation", t.name).
		Dur("duration_ms", duration)

	for key, value := range context {
		switch v := value.(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		default:
			event = event.Interface(key, v)
		}
	}

	if t.slow > 0 && duration > t.slow {
		event.Msg("Slow operation detected")
	} else {
		event.Msg("Operation completed")
	}

	return duration
}
