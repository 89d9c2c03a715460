package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fleetride/internal/app/policies"
	domainpayout "fleetride/internal/domain/payout"
	"fleetride/internal/domain/shared/money"
)

// Sandbox is an in-process gateway for development and tests. Transfers
// succeed unless the account number carries the failure suffix, which lets
// scenarios exercise the failure path deterministically.
type Sandbox struct {
	FailureSuffix string

	mu       sync.Mutex
	accounts map[string]domainpayout.BankAccount
	calls    []SandboxCall
}

type SandboxCall struct {
	AccountNumber string
	Amount        money.Money
	Reference     string
	Narration     string
}

func NewSandbox() *Sandbox {
	return &Sandbox{
		FailureSuffix: "0000",
		accounts:      map[string]domainpayout.BankAccount{},
	}
}

// RegisterAccount seeds a settlement account for a fleet owner.
func (s *Sandbox) RegisterAccount(fleetOwnerID string, account domainpayout.BankAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[fleetOwnerID] = account
}

func (s *Sandbox) SettlementAccount(ctx context.Context, fleetOwnerID string) (domainpayout.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[fleetOwnerID]
	if !ok {
		return domainpayout.BankAccount{}, fmt.Errorf("gateway: no settlement account for fleet owner %s", fleetOwnerID)
	}
	return account, nil
}

func (s *Sandbox) InitiatePayout(ctx context.Context, account domainpayout.BankAccount, amount money.Money, reference, narration string) (policies.GatewayResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, SandboxCall{
		AccountNumber: account.AccountNumber,
		Amount:        amount,
		Reference:     reference,
		Narration:     narration,
	})
	s.mu.Unlock()

	if s.FailureSuffix != "" && strings.HasSuffix(account.AccountNumber, s.FailureSuffix) {
		return policies.GatewayResult{
			Success:        false,
			FailureMessage: "transfer rejected by sandbox account rule",
		}, nil
	}
	return policies.GatewayResult{
		Success:           true,
		ProviderReference: "SBX-" + reference,
	}, nil
}

// Calls returns a snapshot of transfers attempted so far.
func (s *Sandbox) Calls() []SandboxCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SandboxCall, len(s.calls))
	copy(out, s.calls)
	return out
}
