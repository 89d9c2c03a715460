package booking

import (
	"context"
	"time"

	"fleetride/internal/app/commands"
	"fleetride/internal/app/middleware"
	"fleetride/internal/app/outbox"
	"fleetride/internal/app/uow"
	domainbooking "fleetride/internal/domain/booking"
	"fleetride/internal/domain/period"
	"fleetride/internal/domain/shared/clock"
	"fleetride/internal/domain/shared/money"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	CommandID             string
	Kind                  period.Kind
	Start                 time.Time
	End                   time.Time
	PickupAddress         string
	DropOffAddress        string
	CustomerID            string
	CarID                 string
	SpecialRequests       string
	TotalAmount           money.Money
	NetTotal              money.Money
	PlatformServiceFee    money.Money
	VATAmount             money.Money
	SecurityDetailCost    money.Money
	IncludeSecurityDetail bool
	DailyPricing          domainbooking.LegPricing
	IdempotencyKeyV       string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

type CreateBookingResult struct {
	BookingID string `json:"booking_id"`
	Reference string `json:"reference"`
}

type CreateBookingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      clock.Clock
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
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

	now := h.now()
	p, err := period.Create(period.CreateParams{Kind: cmd.Kind, Start: cmd.Start, End: cmd.End}, now)
	if err != nil {
		return nil, err
	}

	securityCost := cmd.SecurityDetailCost
	if cmd.IncludeSecurityDetail {
		securityCost = securityCost.MulInt(p.SecurityDetailMultiplier())
	}
	fin := domainbooking.Financials{
		TotalAmount:         cmd.TotalAmount,
		NetTotal:            cmd.NetTotal,
		PlatformServiceFee:  cmd.PlatformServiceFee,
		VATAmount:           cmd.VATAmount,
		FleetOwnerPayoutNet: domainbooking.DefaultFleetOwnerPayoutNet(cmd.TotalAmount),
		SecurityDetailCost:  securityCost,
	}

	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:                    domainbooking.BookingID(cmd.CommandID),
		Period:                p,
		PickupAddress:         cmd.PickupAddress,
		DropOffAddress:        cmd.DropOffAddress,
		CustomerID:            cmd.CustomerID,
		CarID:                 cmd.CarID,
		SpecialRequests:       cmd.SpecialRequests,
		Financials:            fin,
		IncludeSecurityDetail: cmd.IncludeSecurityDetail,
		CreatedAt:             now,
	})
	if err != nil {
		return nil, err
	}

	legs, err := domainbooking.LegsForPeriod(p, cmd.DailyPricing)
	if err != nil {
		return nil, err
	}
	for _, leg := range legs {
		if err := b.AddLeg(leg); err != nil {
			return nil, err
		}
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	// The identity is durable once saved; only now may the created event go out.
	if err := b.MarkAsCreated(now); err != nil {
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
	return &CreateBookingResult{BookingID: string(b.ID), Reference: b.Reference}, nil
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
