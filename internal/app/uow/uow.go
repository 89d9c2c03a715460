package uow

import (
	"context"

	domainbooking "fleetride/internal/domain/booking"
	domainpayout "fleetride/internal/domain/payout"
)

// UnitOfWork coordinates repositories inside a transaction boundary. The
// storage layer must serialize load-mutate-save per aggregate identity (the
// repositories enforce optimistic versions) so two concurrent activations of
// one booking cannot both succeed.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Payouts() domainpayout.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory starts unit of work instances.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
