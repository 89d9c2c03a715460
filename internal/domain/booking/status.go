package booking

import "fmt"

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// validTransitions is the booking state machine. Cancellation is reachable
// only from CONFIRMED: it needs a commitment but no service delivered yet.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed},
	StatusConfirmed: {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

// IsValid reports whether the status names a known lifecycle state.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo consults the adjacency table.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves this status.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

func (s Status) String() string { return string(s) }

// ParseStatus guards the persistence boundary against corrupted state.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: booking status %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// PaymentStatus tracks the payment side independently of the lifecycle.
type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "UNPAID"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentRefundProcessing  PaymentStatus = "REFUND_PROCESSING"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentRefundFailed      PaymentStatus = "REFUND_FAILED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

var knownPaymentStatuses = map[PaymentStatus]struct{}{
	PaymentUnpaid:            {},
	PaymentPaid:              {},
	PaymentRefundProcessing:  {},
	PaymentRefunded:          {},
	PaymentRefundFailed:      {},
	PaymentPartiallyRefunded: {},
}

// ParsePaymentStatus mirrors ParseStatus for the payment dimension.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	s := PaymentStatus(raw)
	if _, ok := knownPaymentStatuses[s]; !ok {
		return "", fmt.Errorf("%w: payment status %q", ErrUnknownStatus, raw)
	}
	return s, nil
}
