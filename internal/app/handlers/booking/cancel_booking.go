package booking

import (
	"context"
	"errors"
	"time"

	"fleetride/internal/app/commands"
	"fleetride/internal/app/outbox"
	"fleetride/internal/app/uow"
	domainbooking "fleetride/internal/domain/booking"
	"fleetride/internal/domain/shared/clock"
)

const cancelBookingKey = "booking.cancel"

// ErrCancellationCutoffPassed rejects cancellations closer than the cutoff
// to pickup.
var ErrCancellationCutoffPassed = errors.New("booking: cancellation cutoff has passed")

type CancelBookingCommand struct {
	BookingID string
	Reason    string
	// Force skips the cutoff check for operator-driven cancellations.
	Force bool
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	BookingID   string    `json:"booking_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type CancelBookingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      clock.Clock
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
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
	if !cmd.Force && !b.IsEligibleForCancellation(now) {
		return nil, ErrCancellationCutoffPassed
	}
	if err := b.Cancel(cmd.Reason, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := drainEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &CancelBookingResult{BookingID: string(b.ID), CancelledAt: b.CancelledAt}, nil
}

func (h *CancelBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
