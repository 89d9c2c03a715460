package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition wraps every guarded state machine violation.
	ErrInvalidTransition = errors.New("booking: invalid state transition")
	// ErrUnknownStatus marks persisted data whose status string matches no
	// known enum member. Indicates corrupted storage, not a client mistake.
	ErrUnknownStatus = errors.New("booking: unknown status")

	ErrEmptyChauffeurID   = errors.New("booking: chauffeur id required")
	ErrNoChauffeurToUnset = errors.New("booking: no chauffeur assigned")
	ErrLegOutsidePeriod   = errors.New("booking: leg date outside rental period")
	ErrLegWindowInverted  = errors.New("booking: leg start must precede leg end")
	ErrNegativeLegAmount  = errors.New("booking: leg amounts must not be negative")
	ErrIdentityRequired   = errors.New("booking: persisted identity required")
	ErrCustomerRequired   = errors.New("booking: customer id required")
	ErrCarRequired        = errors.New("booking: car id required")
)

func invalidTransition(action string, current Status) error {
	return fmt.Errorf("%w: cannot %s booking in %s status", ErrInvalidTransition, action, current)
}

func invalidLegTransition(action string, current LegStatus) error {
	return fmt.Errorf("%w: cannot %s leg in %s status", ErrInvalidTransition, action, current)
}
