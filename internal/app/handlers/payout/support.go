package payout

import (
	"context"
	"errors"

	"fleetride/internal/app/outbox"
	"fleetride/internal/app/uow"
	domainpayout "fleetride/internal/domain/payout"
)

var (
	ErrUnitOfWorkRequired = errors.New("payout: unit of work required")
	// ErrNotEligible wraps a policy rejection; the reason travels in the
	// error message.
	ErrNotEligible = errors.New("payout: not eligible")
)

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

func drainEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, p *domainpayout.Payout) error {
	pending := p.PendingEvents()
	p.ClearEvents()
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	return outbox.RecordDomainEvents(ctx, box, encoder, pending)
}
