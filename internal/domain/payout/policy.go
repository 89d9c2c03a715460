package payout

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleetride/internal/domain/shared/money"
)

// Eligibility is the result of a pure policy check. Reason is human-readable
// and only set on rejection.
type Eligibility struct {
	Eligible bool
	Reason   string
}

func eligible() Eligibility {
	return Eligibility{Eligible: true}
}

func ineligible(reason string) Eligibility {
	return Eligibility{Reason: reason}
}

// CanInitiatePayout decides whether a new disbursement may start for a
// subject. It stands in for a storage uniqueness constraint, so the caller
// must run the existing-payouts lookup and the subsequent save inside one
// serialized unit of work per subject.
func CanInitiatePayout(amount money.Money, account BankAccount, existing []*Payout) Eligibility {
	if !amount.IsPositive() {
		return ineligible("payout amount must be greater than zero")
	}
	if !account.IsVerified() {
		return ineligible("bank account has not been verified")
	}
	for _, p := range existing {
		if p.IsInProgress() {
			return ineligible(fmt.Sprintf("a payout for this subject is already in progress (%s)", p.Status))
		}
	}
	return eligible()
}

// GenerateReference builds the idempotency key handed to the payment
// gateway. Namespaced by subject type plus time-based and random suffixes so
// keys never collide across retries or subjects.
func GenerateReference(bookingID, extensionID string, now time.Time) string {
	subject := "GEN"
	id := ""
	switch {
	case extensionID != "":
		subject = "EXT"
		id = extensionID
	case bookingID != "":
		subject = "BKG"
		id = bookingID
	}
	if len(id) > 8 {
		id = id[:8]
	}
	suffix := uuid.NewString()[:8]
	if id == "" {
		return fmt.Sprintf("PAYOUT-%s-%d-%s", subject, now.UnixNano(), suffix)
	}
	return fmt.Sprintf("PAYOUT-%s-%s-%d-%s", subject, id, now.UnixNano(), suffix)
}
