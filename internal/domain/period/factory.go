package period

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is the sentinel every period validation failure wraps.
var ErrInvalidPeriod = errors.New("period: invalid period")

// InvalidPeriodError carries the attempted kind and both timestamps so the
// caller can report exactly what was rejected.
type InvalidPeriodError struct {
	Kind   Kind
	Start  time.Time
	End    time.Time
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("period: invalid %s period [%s, %s]: %s",
		e.Kind, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error {
	return ErrInvalidPeriod
}

const (
	dayHours = 12

	dayPickupEarliest = 7
	dayPickupLatest   = 11

	nightStartHour = 23
	nightEndHour   = 5

	fullDayStartEarliest = 7
	fullDayStartLatest   = 22
)

// CreateParams feed the validating factory. Start carries the pickup time for
// Day, only the calendar date for Night, and an explicit instant for FullDay.
// End is ignored for Night, optional for Day (defaults to start+12h) and
// required for FullDay.
type CreateParams struct {
	Kind  Kind
	Start time.Time
	End   time.Time
}

// Create dispatches on the kind and runs the variant's validation. Every
// violation yields an *InvalidPeriodError; no logically inconsistent period
// can come out of this path.
func Create(params CreateParams, now time.Time) (Period, error) {
	start := params.Start.UTC()
	end := params.End.UTC()
	switch params.Kind {
	case KindDay:
		return createDay(start, end, now)
	case KindNight:
		return createNight(start, now)
	case KindFullDay:
		return createFullDay(start, end)
	default:
		return Period{}, &InvalidPeriodError{Kind: params.Kind, Start: start, End: end, Reason: "unknown period kind"}
	}
}

// Reconstitute rebuilds a period from trusted data, bypassing all validation.
// Only the persistence boundary may use it.
func Reconstitute(kind Kind, start, end time.Time) Period {
	return Period{kind: kind, start: start.UTC(), end: end.UTC()}
}

func createDay(start, end, now time.Time) (Period, error) {
	if hour := start.Hour(); hour < dayPickupEarliest || hour > dayPickupLatest {
		return Period{}, dayErr(start, end, fmt.Sprintf("pickup hour must be between %02d:00 and %02d:00", dayPickupEarliest, dayPickupLatest))
	}
	if !start.After(now) {
		return Period{}, dayErr(start, end, "start must be in the future")
	}
	if end.IsZero() {
		end = start.Add(dayHours * time.Hour)
	}
	// N-day bookings run 12h on the last day plus 24h per preceding day.
	extra := end.Sub(start) - dayHours*time.Hour
	if extra < 0 || extra%(24*time.Hour) != 0 {
		return Period{}, dayErr(start, end, "duration must equal 12h plus whole days")
	}
	return Period{kind: KindDay, start: start, end: end}, nil
}

func createNight(start, now time.Time) (Period, error) {
	// The caller's time component is ignored: nights always run 23:00-05:00.
	forcedStart := time.Date(start.Year(), start.Month(), start.Day(), nightStartHour, 0, 0, 0, time.UTC)
	forcedEnd := time.Date(start.Year(), start.Month(), start.Day(), nightEndHour, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if !forcedStart.After(now) {
		return Period{}, &InvalidPeriodError{Kind: KindNight, Start: forcedStart, End: forcedEnd, Reason: "start must be in the future"}
	}
	return Period{kind: KindNight, start: forcedStart, end: forcedEnd}, nil
}

func createFullDay(start, end time.Time) (Period, error) {
	if hour := start.Hour(); hour < fullDayStartEarliest || hour > fullDayStartLatest {
		return Period{}, fullDayErr(start, end, fmt.Sprintf("start hour must be between %02d:00 and %02d:00 UTC", fullDayStartEarliest, fullDayStartLatest))
	}
	dur := end.Sub(start)
	if dur < 24*time.Hour {
		return Period{}, fullDayErr(start, end, "duration must be at least 24 hours")
	}
	if dur%(24*time.Hour) != 0 {
		return Period{}, fullDayErr(start, end, "duration must be an exact multiple of 24 hours")
	}
	return Period{kind: KindFullDay, start: start, end: end}, nil
}

func dayErr(start, end time.Time, reason string) *InvalidPeriodError {
	return &InvalidPeriodError{Kind: KindDay, Start: start, End: end, Reason: reason}
}

func fullDayErr(start, end time.Time, reason string) *InvalidPeriodError {
	return &InvalidPeriodError{Kind: KindFullDay, Start: start, End: end, Reason: reason}
}
