package payout

import (
	"context"
	"fmt"
	"time"

	"fleetride/internal/app/commands"
	"fleetride/internal/app/middleware"
	"fleetride/internal/app/outbox"
	"fleetride/internal/app/policies"
	"fleetride/internal/app/uow"
	domainpayout "fleetride/internal/domain/payout"
	"fleetride/internal/domain/shared/clock"
	"fleetride/internal/domain/shared/money"
)

const initiatePayoutKey = "payout.initiate"

type InitiatePayoutCommand struct {
	CommandID       string
	FleetOwnerID    string
	BookingID       string
	ExtensionID     string
	Amount          money.Money
	Narration       string
	IdempotencyKeyV string
}

func (c InitiatePayoutCommand) Key() string { return initiatePayoutKey }

func (c InitiatePayoutCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c InitiatePayoutCommand) ResultPrototype() any { return &InitiatePayoutResult{} }

type InitiatePayoutResult struct {
	PayoutID  string `json:"payout_id"`
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
}

// InitiatePayoutHandler runs the full disbursement workflow: eligibility
// check, aggregate creation, gateway call, and the state transition the
// gateway result dictates. The duplicate-payout rule is only correct because
// the existing-payouts lookup and the save share one unit of work.
type InitiatePayoutHandler struct {
	UoWFactory uow.Factory
	Gateway    policies.PayoutGatewayPort
	Accounts   policies.BankVerificationPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      clock.Clock
}

func (h *InitiatePayoutHandler) Handle(ctx context.Context, cmd InitiatePayoutCommand) (*InitiatePayoutResult, error) {
	unit, ctx, managed, err := acquireUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	account, err := h.Accounts.SettlementAccount(ctx, cmd.FleetOwnerID)
	if err != nil {
		return nil, err
	}
	existing, err := unit.Payouts().BySubject(ctx, cmd.BookingID, cmd.ExtensionID)
	if err != nil {
		return nil, err
	}
	if verdict := domainpayout.CanInitiatePayout(cmd.Amount, account, existing); !verdict.Eligible {
		return nil, fmt.Errorf("%w: %s", ErrNotEligible, verdict.Reason)
	}

	now := h.now()
	p, err := domainpayout.New(domainpayout.CreateParams{
		ID:           domainpayout.PayoutID(cmd.CommandID),
		FleetOwnerID: cmd.FleetOwnerID,
		BookingID:    cmd.BookingID,
		ExtensionID:  cmd.ExtensionID,
		Amount:       cmd.Amount,
		BankAccount:  account,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	reference := domainpayout.GenerateReference(cmd.BookingID, cmd.ExtensionID, now)
	if err := p.Initiate(reference, now); err != nil {
		return nil, err
	}
	result, err := h.Gateway.InitiatePayout(ctx, account, cmd.Amount, reference, cmd.Narration)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		if err := p.MarkFailed(result.FailureMessage, h.now()); err != nil {
			return nil, err
		}
	} else if result.ProviderReference != "" {
		p.ProviderReference = result.ProviderReference
	}

	if err := unit.Payouts().Save(ctx, p); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, p); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &InitiatePayoutResult{PayoutID: string(p.ID), Status: string(p.Status), Reference: p.ProviderReference}, nil
}

func (h *InitiatePayoutHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[InitiatePayoutCommand, *InitiatePayoutResult] = (*InitiatePayoutHandler)(nil)
var _ middleware.IdempotentCommand = (*InitiatePayoutCommand)(nil)
