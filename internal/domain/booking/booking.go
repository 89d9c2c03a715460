package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleetride/internal/domain/period"
	"fleetride/internal/domain/shared/events"
)

type BookingID string

// DefaultCancellationReason is recorded when the customer gives none.
const DefaultCancellationReason = "Booking cancelled by customer"

// CancellationCutoff is how long before pickup a booking may still be
// cancelled. The boundary is inclusive: exactly at the cutoff still counts.
const CancellationCutoff = 12 * time.Hour

// ChauffeurAssignableStatuses parameterizes which lifecycle states accept
// chauffeur (re)assignment. Product owners have flip-flopped on whether an
// in-service booking may be reassigned; changing the rule means editing this
// set, not the state machine.
var ChauffeurAssignableStatuses = map[Status]bool{
	StatusConfirmed: true,
	StatusActive:    true,
}

// Booking is the aggregate root of a chauffeur-driven vehicle rental.
// State only changes through the guarded methods below; each state change
// records exactly one domain event.
type Booking struct {
	ID                    BookingID
	Reference             string
	Status                Status
	Period                period.Period
	PickupAddress         string
	DropOffAddress        string
	CustomerID            string
	CarID                 string
	ChauffeurID           string
	SpecialRequests       string
	Legs                  []*Leg
	PaymentStatus         PaymentStatus
	PaymentID             string
	Financials            Financials
	IncludeSecurityDetail bool
	CancelledAt           time.Time
	CancellationReason    string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Version               int64

	createdEmitted bool
	events.Recorder
}

// Repository is the persistence port for bookings.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	ListDue(ctx context.Context, now time.Time) ([]*Booking, error)
	Save(ctx context.Context, b *Booking) error
}

type CreateParams struct {
	ID                    BookingID
	Period                period.Period
	PickupAddress         string
	DropOffAddress        string
	CustomerID            string
	CarID                 string
	SpecialRequests       string
	Financials            Financials
	IncludeSecurityDetail bool
	CreatedAt             time.Time
}

// New builds a PENDING booking. No event is recorded here: creation events
// are deferred to MarkAsCreated so they always carry a persisted identity.
func New(params CreateParams) (*Booking, error) {
	if params.CustomerID == "" {
		return nil, ErrCustomerRequired
	}
	if params.CarID == "" {
		return nil, ErrCarRequired
	}
	if err := params.Financials.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	return &Booking{
		ID:                    params.ID,
		Reference:             generateReference(now),
		Status:                StatusPending,
		Period:                params.Period,
		PickupAddress:         params.PickupAddress,
		DropOffAddress:        params.DropOffAddress,
		CustomerID:            params.CustomerID,
		CarID:                 params.CarID,
		SpecialRequests:       params.SpecialRequests,
		PaymentStatus:         PaymentUnpaid,
		Financials:            params.Financials,
		IncludeSecurityDetail: params.IncludeSecurityDetail,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// MarkAsCreated records the creation event once the aggregate has a durable
// identity. Emits exactly once; later calls are no-ops.
func (b *Booking) MarkAsCreated(now time.Time) error {
	if b.ID == "" {
		return ErrIdentityRequired
	}
	if b.createdEmitted {
		return nil
	}
	b.createdEmitted = true
	b.Record(Created{BookingID: b.ID, Reference: b.Reference, CustomerID: b.CustomerID, CarID: b.CarID, Kind: b.Period.Kind(), Start: b.Period.Start(), End: b.Period.End(), At: now.UTC()})
	return nil
}

// Confirm moves PENDING to CONFIRMED.
func (b *Booking) Confirm(now time.Time) error {
	if !b.Status.CanTransitionTo(StatusConfirmed) {
		return invalidTransition("confirm", b.Status)
	}
	b.Status = StatusConfirmed
	b.touch(now)
	b.Record(Confirmed{BookingID: b.ID, Reference: b.Reference, At: b.UpdatedAt})
	return nil
}

// ConfirmWithPayment confirms and records the settled payment in one step.
func (b *Booking) ConfirmWithPayment(paymentID string, now time.Time) error {
	if err := b.Confirm(now); err != nil {
		return err
	}
	b.PaymentID = paymentID
	b.PaymentStatus = PaymentPaid
	return nil
}

// Activate moves CONFIRMED to ACTIVE. Callers consult
// IsEligibleForActivation first; the guard here only checks the state
// machine.
func (b *Booking) Activate(now time.Time) error {
	if !b.Status.CanTransitionTo(StatusActive) {
		return invalidTransition("activate", b.Status)
	}
	b.Status = StatusActive
	b.touch(now)
	b.Record(Activated{BookingID: b.ID, ChauffeurID: b.ChauffeurID, At: b.UpdatedAt})
	return nil
}

// Complete moves ACTIVE to COMPLETED.
func (b *Booking) Complete(now time.Time) error {
	if !b.Status.CanTransitionTo(StatusCompleted) {
		return invalidTransition("complete", b.Status)
	}
	b.Status = StatusCompleted
	b.touch(now)
	b.Record(Completed{BookingID: b.ID, Reference: b.Reference, At: b.UpdatedAt})
	return nil
}

// Cancel moves CONFIRMED to CANCELLED and records when and why.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if !b.Status.CanTransitionTo(StatusCancelled) {
		return invalidTransition("cancel", b.Status)
	}
	if reason == "" {
		reason = DefaultCancellationReason
	}
	b.Status = StatusCancelled
	b.touch(now)
	b.CancelledAt = b.UpdatedAt
	b.CancellationReason = reason
	b.Record(Cancelled{BookingID: b.ID, Reference: b.Reference, Reason: reason, At: b.UpdatedAt})
	return nil
}

// AssignChauffeur sets or replaces the chauffeur. Reassigning the same
// chauffeur is a no-op and records nothing; replacing records an
// unassignment for the old chauffeur followed by an assignment for the new.
func (b *Booking) AssignChauffeur(chauffeurID, fleetOwnerID, assignedBy string, now time.Time) error {
	if chauffeurID == "" {
		return ErrEmptyChauffeurID
	}
	if !ChauffeurAssignableStatuses[b.Status] {
		return invalidTransition("assign chauffeur to", b.Status)
	}
	if b.ChauffeurID == chauffeurID {
		return nil
	}
	at := now.UTC()
	if b.ChauffeurID != "" {
		b.Record(ChauffeurUnassigned{BookingID: b.ID, ChauffeurID: b.ChauffeurID, FleetOwnerID: fleetOwnerID, UnassignedBy: assignedBy, Reason: "replaced", At: at})
	}
	b.ChauffeurID = chauffeurID
	b.touch(now)
	b.Record(ChauffeurAssigned{BookingID: b.ID, ChauffeurID: chauffeurID, FleetOwnerID: fleetOwnerID, AssignedBy: assignedBy, At: at})
	return nil
}

// UnassignChauffeur removes the current chauffeur. Forbidden once service
// has started.
func (b *Booking) UnassignChauffeur(fleetOwnerID, unassignedBy, reason string, now time.Time) error {
	if b.ChauffeurID == "" {
		return ErrNoChauffeurToUnset
	}
	if b.Status == StatusActive || b.Status == StatusCompleted {
		return invalidTransition("unassign chauffeur from", b.Status)
	}
	old := b.ChauffeurID
	b.ChauffeurID = ""
	b.touch(now)
	b.Record(ChauffeurUnassigned{BookingID: b.ID, ChauffeurID: old, FleetOwnerID: fleetOwnerID, UnassignedBy: unassignedBy, Reason: reason, At: b.UpdatedAt})
	return nil
}

// AddLeg attaches a leg whose date must fall inside the rental period.
func (b *Booking) AddLeg(leg *Leg) error {
	if !b.Period.ContainsDate(leg.Date) {
		return fmt.Errorf("%w: %s", ErrLegOutsidePeriod, leg.Date.Format("2006-01-02"))
	}
	b.Legs = append(b.Legs, leg)
	return nil
}

// IsEligibleForActivation is the business query automation consults before
// calling Activate: confirmed, chauffeur on board, pickup time reached.
func (b *Booking) IsEligibleForActivation(now time.Time) bool {
	return b.Status == StatusConfirmed && b.ChauffeurID != "" && !now.Before(b.Period.Start())
}

// IsEligibleForCompletion requires an active booking past its period end.
func (b *Booking) IsEligibleForCompletion(now time.Time) bool {
	return b.Status == StatusActive && !now.Before(b.Period.End())
}

// IsEligibleForCancellation enforces the cutoff: no later than 12 hours
// before pickup, boundary inclusive.
func (b *Booking) IsEligibleForCancellation(now time.Time) bool {
	return !now.After(b.Period.Start().Add(-CancellationCutoff))
}

// DurationHours exposes the rental window length.
func (b *Booking) DurationHours() float64 {
	return b.Period.DurationHours()
}

func (b *Booking) touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}

func generateReference(now time.Time) string {
	return fmt.Sprintf("FR-%s-%s", now.Format("20060102"), uuid.NewString()[:8])
}
