package payout

import (
	"context"
	"time"

	"fleetride/internal/app/commands"
	"fleetride/internal/app/outbox"
	"fleetride/internal/app/uow"
	domainpayout "fleetride/internal/domain/payout"
	"fleetride/internal/domain/shared/clock"
)

const settlePayoutKey = "payout.settle"

// SettlePayoutCommand carries the asynchronous gateway verdict (webhook or
// reconciliation sweep) for a PROCESSING payout.
type SettlePayoutCommand struct {
	PayoutID      string
	Succeeded     bool
	FailureReason string
}

func (c SettlePayoutCommand) Key() string { return settlePayoutKey }

type SettlePayoutResult struct {
	PayoutID string `json:"payout_id"`
	Status   string `json:"status"`
}

type SettlePayoutHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      clock.Clock
}

func (h *SettlePayoutHandler) Handle(ctx context.Context, cmd SettlePayoutCommand) (*SettlePayoutResult, error) {
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
	if cmd.Succeeded {
		err = p.MarkCompleted(now)
	} else {
		err = p.MarkFailed(cmd.FailureReason, now)
	}
	if err != nil {
		return nil, err
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
	return &SettlePayoutResult{PayoutID: string(p.ID), Status: string(p.Status)}, nil
}

func (h *SettlePayoutHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[SettlePayoutCommand, *SettlePayoutResult] = (*SettlePayoutHandler)(nil)
