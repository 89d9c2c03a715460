package payout

import (
	"context"
	"time"

	"fleetride/internal/app/commands"
	"fleetride/internal/app/outbox"
	"fleetride/internal/app/policies"
	"fleetride/internal/app/uow"
	domainpayout "fleetride/internal/domain/payout"
	"fleetride/internal/domain/shared/clock"
)

const retryPayoutKey = "payout.retry"

// RetryPayoutCommand re-runs disbursement for a FAILED payout: reset, fresh
// reference, fresh gateway attempt.
type RetryPayoutCommand struct {
	PayoutID  string
	Narration string
}

func (c RetryPayoutCommand) Key() string { return retryPayoutKey }

type RetryPayoutResult struct {
	PayoutID  string `json:"payout_id"`
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
}

type RetryPayoutHandler struct {
	UoWFactory uow.Factory
	Gateway    policies.PayoutGatewayPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      clock.Clock
}

func (h *RetryPayoutHandler) Handle(ctx context.Context, cmd RetryPayoutCommand) (*RetryPayoutResult, error) {
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

	p, err := unit.Payouts().ByID(ctx, domainpayout.PayoutID(cmd.PayoutID))
	if err != nil {
		return nil, err
	}
	now := h.now()
	if err := p.Retry(now); err != nil {
		return nil, err
	}
	reference := domainpayout.GenerateReference(p.BookingID, p.ExtensionID, now)
	if err := p.Initiate(reference, now); err != nil {
		return nil, err
	}
	result, err := h.Gateway.InitiatePayout(ctx, p.BankAccount, p.Amount, reference, cmd.Narration)
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
	return &RetryPayoutResult{PayoutID: string(p.ID), Status: string(p.Status), Reference: p.ProviderReference}, nil
}

func (h *RetryPayoutHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RetryPayoutCommand, *RetryPayoutResult] = (*RetryPayoutHandler)(nil)
