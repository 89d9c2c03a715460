package clock

import "time"

// Clock abstracts "now" so time-driven automation can be tested with a fixed
// instant. Aggregate methods themselves take explicit time arguments; the
// clock exists for the callers that supply them.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in UTC.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time {
	return f.Instant
}
