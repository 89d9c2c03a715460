package booking

import (
	"context"
	"errors"

	"fleetride/internal/app/outbox"
	"fleetride/internal/app/uow"
	domainbooking "fleetride/internal/domain/booking"
)

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// acquireUnit reuses a unit of work from context (placed there by the
// transaction middleware) or begins a managed one from the factory.
func acquireUnit(ctx context.Context, factory uow.Factory) (unit uow.UnitOfWork, execCtx context.Context, managed bool, err error) {
	if existing, ok := uow.FromContext(ctx); ok {
		return existing, ctx, false, nil
	}
	if factory == nil {
		return nil, ctx, false, ErrUnitOfWorkRequired
	}
	unit, err = factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, false, err
	}
	execCtx = ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	return unit, uow.ContextWithUnitOfWork(execCtx, unit), true, nil
}

// drainEvents hands the aggregate's pending events to the outbox inside the
// saving transaction.
func drainEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, b *domainbooking.Booking) error {
	pending := b.PendingEvents()
	b.ClearEvents()
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	return outbox.RecordDomainEvents(ctx, box, encoder, pending)
}
