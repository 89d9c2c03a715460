package schedule

import (
	"context"
	"log/slog"
	"time"

	"fleetride/internal/app/commands"
	bookingapp "fleetride/internal/app/handlers/booking"
	"fleetride/internal/app/uow"
	"fleetride/internal/domain/shared/clock"
)

// Sweeper periodically finds bookings whose time predicates have fired and
// dispatches progress commands for them. It never transitions aggregates
// directly; the command path keeps every transition inside one unit of work.
type Sweeper struct {
	UoWFactory uow.Factory
	Commands   commands.Bus
	Clock      clock.Clock
	Interval   time.Duration
	Logger     *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		s.logError("sweep begin failed", err)
		return
	}
	readCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		readCtx = injector.InjectContext(ctx)
	}
	due, err := unit.Bookings().ListDue(readCtx, s.now())
	_ = unit.Rollback(readCtx)
	if err != nil {
		s.logError("sweep listing failed", err)
		return
	}
	for _, b := range due {
		cmd := bookingapp.ProgressBookingCommand{BookingID: string(b.ID)}
		if _, err := s.Commands.Dispatch(ctx, cmd); err != nil {
			// Progress failures must not stall the rest of the sweep.
			s.logError("booking progress failed", err, "booking_id", string(b.ID))
		}
	}
}

func (s *Sweeper) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now().UTC()
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Minute
	}
	return s.Interval
}

func (s *Sweeper) logError(msg string, err error, args ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Error(msg, append([]any{"error", err}, args...)...)
}
