package booking

import (
	"context"
	"time"

	"fleetride/internal/app/commands"
	"fleetride/internal/app/outbox"
	"fleetride/internal/app/uow"
	domainbooking "fleetride/internal/domain/booking"
	"fleetride/internal/domain/shared/clock"
)

const progressBookingKey = "booking.progress"

// ProgressBookingCommand is dispatched by the automation sweep. It drives
// explicit transitions off the time predicates: activate once pickup time is
// reached, complete once the period has elapsed, and move legs along with
// their own windows.
type ProgressBookingCommand struct {
	BookingID string
}

func (c ProgressBookingCommand) Key() string { return progressBookingKey }

type ProgressBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Changed   bool   `json:"changed"`
}

type ProgressBookingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      clock.Clock
}

func (h *ProgressBookingHandler) Handle(ctx context.Context, cmd ProgressBookingCommand) (*ProgressBookingResult, error) {
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

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	now := h.now()
	changed := false

	if b.IsEligibleForActivation(now) {
		if err := b.Activate(now); err != nil {
			return nil, err
		}
		changed = true
	}
	for _, leg := range b.Legs {
		if leg.Status == domainbooking.LegPending && leg.IsActiveAt(now) {
			if err := leg.Activate(); err != nil {
				return nil, err
			}
			changed = true
		}
		if leg.Status == domainbooking.LegActive && now.After(leg.EndTime) {
			if err := leg.Complete(); err != nil {
				return nil, err
			}
			changed = true
		}
	}
	if b.IsEligibleForCompletion(now) {
		if err := b.Complete(now); err != nil {
			return nil, err
		}
		changed = true
	}

	if changed {
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
		if err := drainEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
			return nil, err
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &ProgressBookingResult{BookingID: string(b.ID), Status: b.Status.String(), Changed: changed}, nil
}

func (h *ProgressBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ProgressBookingCommand, *ProgressBookingResult] = (*ProgressBookingHandler)(nil)
