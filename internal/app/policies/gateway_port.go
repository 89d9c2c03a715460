package policies

import (
	"context"

	domainpayout "fleetride/internal/domain/payout"
	"fleetride/internal/domain/shared/money"
)

// GatewayResult is the outcome of a disbursement attempt at the payment
// provider. Exactly one of ProviderReference / FailureMessage is meaningful.
type GatewayResult struct {
	Success           bool
	ProviderReference string
	FailureMessage    string
}

// PayoutGatewayPort is the narrow contract the core needs from the payment
// gateway. Timeouts and retries live behind the implementation.
type PayoutGatewayPort interface {
	InitiatePayout(ctx context.Context, account domainpayout.BankAccount, amount money.Money, reference, narration string) (GatewayResult, error)
}

// BankVerificationPort resolves a fleet owner's settlement account together
// with its externally-verified flag.
type BankVerificationPort interface {
	SettlementAccount(ctx context.Context, fleetOwnerID string) (domainpayout.BankAccount, error)
}
