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

const (
	assignChauffeurKey   = "booking.assign_chauffeur"
	unassignChauffeurKey = "booking.unassign_chauffeur"
)

type AssignChauffeurCommand struct {
	BookingID    string
	ChauffeurID  string
	FleetOwnerID string
	AssignedBy   string
}

func (c AssignChauffeurCommand) Key() string { return assignChauffeurKey }

type UnassignChauffeurCommand struct {
	BookingID    string
	FleetOwnerID string
	UnassignedBy string
	Reason       string
}

func (c UnassignChauffeurCommand) Key() string { return unassignChauffeurKey }

type ChauffeurResult struct {
	BookingID   string `json:"booking_id"`
	ChauffeurID string `json:"chauffeur_id,omitempty"`
}

type AssignChauffeurHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      clock.Clock
}

func (h *AssignChauffeurHandler) Handle(ctx context.Context, cmd AssignChauffeurCommand) (*ChauffeurResult, error) {
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
	if err := b.AssignChauffeur(cmd.ChauffeurID, cmd.FleetOwnerID, cmd.AssignedBy, h.now()); err != nil {
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
	return &ChauffeurResult{BookingID: string(b.ID), ChauffeurID: b.ChauffeurID}, nil
}

func (h *AssignChauffeurHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

type UnassignChauffeurHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      clock.Clock
}

func (h *UnassignChauffeurHandler) Handle(ctx context.Context, cmd UnassignChauffeurCommand) (*ChauffeurResult, error) {
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
	if err := b.UnassignChauffeur(cmd.FleetOwnerID, cmd.UnassignedBy, cmd.Reason, h.now()); err != nil {
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
	return &ChauffeurResult{BookingID: string(b.ID)}, nil
}

func (h *UnassignChauffeurHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[AssignChauffeurCommand, *ChauffeurResult] = (*AssignChauffeurHandler)(nil)
var _ commands.Handler[UnassignChauffeurCommand, *ChauffeurResult] = (*UnassignChauffeurHandler)(nil)
