package booking

import (
	"fmt"
	"time"

	"fleetride/internal/domain/period"
	"fleetride/internal/domain/shared/money"
)

// LegStatus is the per-day state of a multi-day booking's leg.
type LegStatus string

const (
	LegPending   LegStatus = "PENDING"
	LegActive    LegStatus = "ACTIVE"
	LegCompleted LegStatus = "COMPLETED"
)

// Legs progress strictly PENDING -> ACTIVE -> COMPLETED, no skipping.
var validLegTransitions = map[LegStatus][]LegStatus{
	LegPending:   {LegActive},
	LegActive:    {LegCompleted},
	LegCompleted: {},
}

// CanTransitionTo consults the leg adjacency table.
func (s LegStatus) CanTransitionTo(target LegStatus) bool {
	for _, t := range validLegTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsValid reports whether the status names a known leg state.
func (s LegStatus) IsValid() bool {
	_, ok := validLegTransitions[s]
	return ok
}

// ParseLegStatus guards the persistence boundary.
func ParseLegStatus(raw string) (LegStatus, error) {
	s := LegStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: leg status %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// reminderWindow is how far ahead of a leg boundary start/end reminders fire.
const reminderWindow = time.Hour

// Leg is one calendar day's service window inside a booking. Owned
// exclusively by its parent aggregate, never shared.
type Leg struct {
	ID                string
	Date              time.Time
	StartTime         time.Time
	EndTime           time.Time
	TotalDailyPrice   money.Money
	ItemsNetValue     money.Money
	FleetOwnerEarning money.Money
	Status            LegStatus
	Notes             string
}

// LegPricing carries the per-day monetary inputs for leg construction.
type LegPricing struct {
	TotalDailyPrice   money.Money
	ItemsNetValue     money.Money
	FleetOwnerEarning money.Money
}

// NewLeg validates the service window and amounts. The ID stays empty until
// the persistence boundary assigns one.
func NewLeg(date, start, end time.Time, pricing LegPricing) (*Leg, error) {
	if !start.Before(end) {
		return nil, ErrLegWindowInverted
	}
	for _, m := range []money.Money{pricing.TotalDailyPrice, pricing.ItemsNetValue, pricing.FleetOwnerEarning} {
		if m.Amount.IsNegative() {
			return nil, ErrNegativeLegAmount
		}
	}
	return &Leg{
		Date:              truncateToDay(date),
		StartTime:         start.UTC(),
		EndTime:           end.UTC(),
		TotalDailyPrice:   pricing.TotalDailyPrice,
		ItemsNetValue:     pricing.ItemsNetValue,
		FleetOwnerEarning: pricing.FleetOwnerEarning,
		Status:            LegPending,
	}, nil
}

// LegsForPeriod builds one leg per calendar day of the period, each running
// the daily window implied by the period's pickup time.
func LegsForPeriod(p period.Period, pricing LegPricing) ([]*Leg, error) {
	var legs []*Leg
	for day := truncateToDay(p.Start()); !day.After(truncateToDay(p.End())); day = day.AddDate(0, 0, 1) {
		start := time.Date(day.Year(), day.Month(), day.Day(), p.Start().Hour(), p.Start().Minute(), 0, 0, time.UTC)
		end := start.Add(12 * time.Hour)
		if end.After(p.End()) {
			end = p.End()
		}
		if !start.Before(end) {
			continue
		}
		leg, err := NewLeg(day, start, end, pricing)
		if err != nil {
			return nil, err
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

// Activate moves the leg into service.
func (l *Leg) Activate() error {
	if !l.Status.CanTransitionTo(LegActive) {
		return invalidLegTransition("activate", l.Status)
	}
	l.Status = LegActive
	return nil
}

// Complete closes the leg. COMPLETED is terminal.
func (l *Leg) Complete() error {
	if !l.Status.CanTransitionTo(LegCompleted) {
		return invalidLegTransition("complete", l.Status)
	}
	l.Status = LegCompleted
	return nil
}

// IsActiveAt is the pure time predicate: now within the service window.
// Automation loops drive explicit transitions off this; persisted reporting
// should keep trusting the stored status.
func (l *Leg) IsActiveAt(now time.Time) bool {
	return !now.Before(l.StartTime) && !now.After(l.EndTime)
}

// IsCompletedAt is allowed to race ahead of the recorded status: the leg
// counts as completed once the window has elapsed even before a transition
// is stored.
func (l *Leg) IsCompletedAt(now time.Time) bool {
	return now.After(l.EndTime) || l.Status == LegCompleted
}

// IsUpcomingAt reports whether the window has not started yet.
func (l *Leg) IsUpcomingAt(now time.Time) bool {
	return l.StartTime.After(now)
}

// EligibleForStartReminder is true within [start-1h, start).
func (l *Leg) EligibleForStartReminder(now time.Time) bool {
	return !now.Before(l.StartTime.Add(-reminderWindow)) && now.Before(l.StartTime)
}

// EligibleForEndReminder is true within [end-1h, end).
func (l *Leg) EligibleForEndReminder(now time.Time) bool {
	return !now.Before(l.EndTime.Add(-reminderWindow)) && now.Before(l.EndTime)
}

// DurationHours returns the window length in hours, fractional allowed.
func (l *Leg) DurationHours() float64 {
	return l.EndTime.Sub(l.StartTime).Hours()
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
