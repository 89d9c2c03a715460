package booking

import (
	"time"

	"fleetride/internal/domain/period"
)

type Created struct {
	BookingID  BookingID
	Reference  string
	CustomerID string
	CarID      string
	Kind       period.Kind
	Start      time.Time
	End        time.Time
	At         time.Time
}

func (e Created) EventName() string     { return "booking.created" }
func (e Created) AggregateID() string   { return string(e.BookingID) }
func (e Created) OccurredAt() time.Time { return e.At }

type Confirmed struct {
	BookingID BookingID
	Reference string
	At        time.Time
}

func (e Confirmed) EventName() string     { return "booking.confirmed" }
func (e Confirmed) AggregateID() string   { return string(e.BookingID) }
func (e Confirmed) OccurredAt() time.Time { return e.At }

type Activated struct {
	BookingID   BookingID
	ChauffeurID string
	At          time.Time
}

func (e Activated) EventName() string     { return "booking.activated" }
func (e Activated) AggregateID() string   { return string(e.BookingID) }
func (e Activated) OccurredAt() time.Time { return e.At }

type Completed struct {
	BookingID BookingID
	Reference string
	At        time.Time
}

func (e Completed) EventName() string     { return "booking.completed" }
func (e Completed) AggregateID() string   { return string(e.BookingID) }
func (e Completed) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	BookingID BookingID
	Reference string
	Reason    string
	At        time.Time
}

func (e Cancelled) EventName() string     { return "booking.cancelled" }
func (e Cancelled) AggregateID() string   { return string(e.BookingID) }
func (e Cancelled) OccurredAt() time.Time { return e.At }

type ChauffeurAssigned struct {
	BookingID    BookingID
	ChauffeurID  string
	FleetOwnerID string
	AssignedBy   string
	At           time.Time
}

func (e ChauffeurAssigned) EventName() string     { return "booking.chauffeur_assigned" }
func (e ChauffeurAssigned) AggregateID() string   { return string(e.BookingID) }
func (e ChauffeurAssigned) OccurredAt() time.Time { return e.At }

type ChauffeurUnassigned struct {
	BookingID    BookingID
	ChauffeurID  string
	FleetOwnerID string
	UnassignedBy string
	Reason       string
	At           time.Time
}

func (e ChauffeurUnassigned) EventName() string     { return "booking.chauffeur_unassigned" }
func (e ChauffeurUnassigned) AggregateID() string   { return string(e.BookingID) }
func (e ChauffeurUnassigned) OccurredAt() time.Time { return e.At }
