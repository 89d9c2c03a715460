package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetride/internal/domain/shared/events"
	"fleetride/internal/domain/shared/money"
)

type PayoutID string

// Status is the disbursement lifecycle state.
type Status string

const (
	StatusPendingDisbursement Status = "PENDING_DISBURSEMENT"
	StatusProcessing          Status = "PROCESSING"
	StatusCompleted           Status = "COMPLETED"
	StatusFailed              Status = "FAILED"
)

// FAILED is retryable: Retry moves it back to PENDING_DISBURSEMENT. That is
// the only re-entry; COMPLETED is terminal.
var validTransitions = map[Status][]Status{
	StatusPendingDisbursement: {StatusProcessing},
	StatusProcessing:          {StatusCompleted, StatusFailed},
	StatusFailed:              {StatusPendingDisbursement},
	StatusCompleted:           {},
}

// CanTransitionTo consults the payout adjacency table.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsValid reports whether the status names a known state.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// ParseStatus guards the persistence boundary.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: payout status %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

var (
	ErrInvalidTransition  = errors.New("payout: invalid state transition")
	ErrUnknownStatus      = errors.New("payout: unknown status")
	ErrNonPositiveAmount  = errors.New("payout: amount must be strictly positive")
	ErrUnverifiedAccount  = errors.New("payout: bank account must be verified")
	ErrEmptyReference     = errors.New("payout: provider reference required")
	ErrEmptyFailureReason = errors.New("payout: failure reason required")
	ErrFleetOwnerRequired = errors.New("payout: fleet owner id required")
)

func invalidTransition(action string, current Status) error {
	return fmt.Errorf("%w: cannot %s payout in %s status", ErrInvalidTransition, action, current)
}

// Payout is an independent aggregate modeling disbursement of a fleet
// owner's earnings for one booking or extension.
type Payout struct {
	ID                PayoutID
	FleetOwnerID      string
	BookingID         string
	ExtensionID       string
	Amount            money.Money
	BankAccount       BankAccount
	Status            Status
	ProviderReference string
	FailureReason     string
	ProcessedAt       time.Time
	CompletedAt       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64

	events.Recorder
}

// Repository is the persistence port for payouts.
type Repository interface {
	ByID(ctx context.Context, id PayoutID) (*Payout, error)
	BySubject(ctx context.Context, bookingID, extensionID string) ([]*Payout, error)
	Save(ctx context.Context, p *Payout) error
}

type CreateParams struct {
	ID           PayoutID
	FleetOwnerID string
	BookingID    string
	ExtensionID  string
	Amount       money.Money
	BankAccount  BankAccount
	CreatedAt    time.Time
}

// New validates a strictly positive amount against a verified account and
// records the initiated event.
func New(params CreateParams) (*Payout, error) {
	if params.FleetOwnerID == "" {
		return nil, ErrFleetOwnerRequired
	}
	if !params.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	if !params.BankAccount.IsVerified() {
		return nil, ErrUnverifiedAccount
	}
	now := params.CreatedAt.UTC()
	p := &Payout{
		ID:           params.ID,
		FleetOwnerID: params.FleetOwnerID,
		BookingID:    params.BookingID,
		ExtensionID:  params.ExtensionID,
		Amount:       params.Amount,
		BankAccount:  params.BankAccount,
		Status:       StatusPendingDisbursement,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.Record(Initiated{PayoutID: p.ID, FleetOwnerID: p.FleetOwnerID, BookingID: p.BookingID, ExtensionID: p.ExtensionID, Amount: p.Amount, At: now})
	return p, nil
}

// Initiate moves the payout into PROCESSING under the given provider
// reference once the gateway call is underway.
func (p *Payout) Initiate(providerReference string, now time.Time) error {
	if providerReference == "" {
		return ErrEmptyReference
	}
	if !p.Status.CanTransitionTo(StatusProcessing) {
		return invalidTransition("initiate", p.Status)
	}
	p.Status = StatusProcessing
	p.ProviderReference = providerReference
	p.ProcessedAt = now.UTC()
	p.UpdatedAt = p.ProcessedAt
	p.Record(Processing{PayoutID: p.ID, ProviderReference: providerReference, At: p.ProcessedAt})
	return nil
}

// MarkCompleted settles a PROCESSING payout.
func (p *Payout) MarkCompleted(now time.Time) error {
	if !p.Status.CanTransitionTo(StatusCompleted) {
		return invalidTransition("complete", p.Status)
	}
	p.Status = StatusCompleted
	p.CompletedAt = now.UTC()
	p.UpdatedAt = p.CompletedAt
	p.Record(Completed{PayoutID: p.ID, FleetOwnerID: p.FleetOwnerID, Amount: p.Amount, At: p.CompletedAt})
	return nil
}

// MarkFailed records a gateway failure with its reason.
func (p *Payout) MarkFailed(reason string, now time.Time) error {
	if reason == "" {
		return ErrEmptyFailureReason
	}
	if !p.Status.CanTransitionTo(StatusFailed) {
		return invalidTransition("fail", p.Status)
	}
	p.Status = StatusFailed
	p.FailureReason = reason
	p.UpdatedAt = now.UTC()
	p.Record(Failed{PayoutID: p.ID, FleetOwnerID: p.FleetOwnerID, Reason: reason, At: p.UpdatedAt})
	return nil
}

// Retry resets a FAILED payout for another disbursement attempt. It clears
// the failure trail and records nothing; the caller's initiate workflow
// re-emits as it runs.
func (p *Payout) Retry(now time.Time) error {
	if !p.Status.CanTransitionTo(StatusPendingDisbursement) {
		return invalidTransition("retry", p.Status)
	}
	p.Status = StatusPendingDisbursement
	p.FailureReason = ""
	p.ProviderReference = ""
	p.ProcessedAt = time.Time{}
	p.UpdatedAt = now.UTC()
	return nil
}

// IsInProgress reports whether the payout still holds the disbursement slot
// for its subject.
func (p *Payout) IsInProgress() bool {
	return p.Status == StatusPendingDisbursement || p.Status == StatusProcessing
}

// IsFinal reports whether the payout reached a settled state.
func (p *Payout) IsFinal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}
