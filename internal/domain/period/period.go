package period

import "time"

// Kind discriminates the closed set of rental period variants. The factory
// dispatches exhaustively on exactly these three.
type Kind string

const (
	KindDay     Kind = "DAY"
	KindNight   Kind = "NIGHT"
	KindFullDay Kind = "FULL_DAY"
)

// IsValid reports whether the kind names a known variant.
func (k Kind) IsValid() bool {
	switch k {
	case KindDay, KindNight, KindFullDay:
		return true
	}
	return false
}

// Period is an immutable, validated rental window. Construct through Create
// (validating) or Reconstitute (trusted persisted data); never mutate.
type Period struct {
	kind  Kind
	start time.Time
	end   time.Time
}

func (p Period) Kind() Kind       { return p.kind }
func (p Period) Start() time.Time { return p.start }
func (p Period) End() time.Time   { return p.end }

// DurationHours returns the window length in hours, fractional allowed.
func (p Period) DurationHours() float64 {
	return p.end.Sub(p.start).Hours()
}

// Overlaps tests half-open interval intersection with another period.
func (p Period) Overlaps(other Period) bool {
	return p.start.Before(other.end) && other.start.Before(p.end)
}

// IsPast reports whether the window has fully elapsed.
func (p Period) IsPast(now time.Time) bool {
	return now.After(p.end)
}

// IsActive reports whether now falls within [start, end].
func (p Period) IsActive(now time.Time) bool {
	return !now.Before(p.start) && !now.After(p.end)
}

// IsUpcoming reports whether the window has not started yet.
func (p Period) IsUpcoming(now time.Time) bool {
	return p.start.After(now)
}

// ContainsDate reports whether the calendar date of t falls within the
// window's calendar span. Used for leg placement.
func (p Period) ContainsDate(t time.Time) bool {
	day := truncateToDay(t)
	return !day.Before(truncateToDay(p.start)) && !day.After(truncateToDay(p.end))
}

// SecurityDetailMultiplier is the cost factor for optional security coverage:
// each 24h block of a full-day rental needs double coverage.
func (p Period) SecurityDetailMultiplier() int64 {
	if p.kind == KindFullDay {
		return 2
	}
	return 1
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
