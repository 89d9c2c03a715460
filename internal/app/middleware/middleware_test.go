package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetride/internal/app/commands"
	bookingapp "fleetride/internal/app/handlers/booking"
	"fleetride/internal/app/middleware"
	"fleetride/internal/app/uow"
	domainbooking "fleetride/internal/domain/booking"
	"fleetride/internal/domain/period"
	"fleetride/internal/domain/shared/clock"
	"fleetride/internal/domain/shared/money"
	"fleetride/internal/infra/storage/memory"
)

func newPipeline(t *testing.T) (commands.Bus, *memory.BookingRepository) {
	t.Helper()
	bookings := memory.NewBookingRepository()
	factory := memory.Factory{BookingRepo: bookings, PayoutRepo: memory.NewPayoutRepository()}
	box := memory.NewOutbox()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: factory, Outbox: box, Clock: clock.Fixed{Instant: now},
	})

	chained := middleware.ChainCommands(
		bus,
		middleware.Idempotency(memory.NewIdempotencyStore(), nil, period.ErrInvalidPeriod),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)
	return chained, bookings
}

func createCommand(id, key string) bookingapp.CreateBookingCommand {
	return bookingapp.CreateBookingCommand{
		CommandID:       id,
		Kind:            period.KindDay,
		Start:           time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
		PickupAddress:   "1 Marina Rd, Lagos",
		CustomerID:      "cust-1",
		CarID:           "car-1",
		TotalAmount:     money.Must("1000", "NGN"),
		NetTotal:        money.Must("900", "NGN"),
		IdempotencyKeyV: key,
		DailyPricing: domainbooking.LegPricing{
			TotalDailyPrice:   money.Must("1000", "NGN"),
			ItemsNetValue:     money.Must("900", "NGN"),
			FleetOwnerEarning: money.Must("800", "NGN"),
		},
	}
}

type sessionMarker struct{}

// sessionFactory wraps the memory factory with a unit that carries a session
// through InjectContext, the way the mongo unit of work does.
type sessionFactory struct {
	inner    memory.Factory
	injected bool
}

func (f *sessionFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &sessionUnit{UnitOfWork: unit, factory: f}, nil
}

type sessionUnit struct {
	uow.UnitOfWork
	factory *sessionFactory
}

func (u *sessionUnit) InjectContext(ctx context.Context) context.Context {
	u.factory.injected = true
	return context.WithValue(ctx, sessionMarker{}, true)
}

type sessionCheckCommand struct{}

func (sessionCheckCommand) Key() string { return "test.session_check" }

func TestTransactionInjectsSessionContext(t *testing.T) {
	factory := &sessionFactory{inner: memory.Factory{
		BookingRepo: memory.NewBookingRepository(),
		PayoutRepo:  memory.NewPayoutRepository(),
	}}

	var sessionSeen, unitSeen bool
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, sessionCheckCommand{}.Key(),
		commands.HandlerFunc[sessionCheckCommand, struct{}](func(ctx context.Context, cmd sessionCheckCommand) (struct{}, error) {
			sessionSeen = ctx.Value(sessionMarker{}) != nil
			_, unitSeen = uow.FromContext(ctx)
			return struct{}{}, nil
		}))

	chained := middleware.ChainCommands(bus, middleware.Transaction(factory, nil))
	_, err := chained.Dispatch(context.Background(), sessionCheckCommand{})
	require.NoError(t, err)

	assert.True(t, factory.injected, "unit's InjectContext must run before the handler")
	assert.True(t, sessionSeen, "repository calls must see the session context")
	assert.True(t, unitSeen)
}

func TestPipelineReplaysIdempotentCommands(t *testing.T) {
	bus, bookings := newPipeline(t)

	first, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](context.Background(), bus, createCommand("bk-1", "idem-1"))
	require.NoError(t, err)

	// Same key replays the stored result instead of re-executing.
	second, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](context.Background(), bus, createCommand("bk-2", "idem-1"))
	require.NoError(t, err)
	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Equal(t, first.Reference, second.Reference)

	_, err = bookings.ByID(context.Background(), domainbooking.BookingID("bk-2"))
	assert.ErrorIs(t, err, memory.ErrBookingNotFound, "replay must not create a second booking")
}

func TestPipelineDistinctKeysExecuteBoth(t *testing.T) {
	bus, bookings := newPipeline(t)

	_, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](context.Background(), bus, createCommand("bk-1", "idem-1"))
	require.NoError(t, err)
	_, err = commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](context.Background(), bus, createCommand("bk-2", "idem-2"))
	require.NoError(t, err)

	for _, id := range []string{"bk-1", "bk-2"} {
		_, err := bookings.ByID(context.Background(), domainbooking.BookingID(id))
		assert.NoError(t, err, id)
	}
}

func TestPipelineStoresFailures(t *testing.T) {
	bus, _ := newPipeline(t)

	bad := createCommand("bk-1", "idem-err")
	bad.CustomerID = ""
	_, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](context.Background(), bus, bad)
	require.Error(t, err)

	// The stored failure replays verbatim for the same key.
	_, second := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](context.Background(), bus, bad)
	require.Error(t, second)
	assert.Equal(t, err.Error(), second.Error())
}

func TestPipelineReplayedFailureKeepsSentinel(t *testing.T) {
	bus, _ := newPipeline(t)

	// 14:00 is outside the day pickup window, so creation fails with the
	// period sentinel.
	bad := createCommand("bk-1", "idem-period")
	bad.Start = time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)
	_, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](context.Background(), bus, bad)
	require.ErrorIs(t, err, period.ErrInvalidPeriod)

	_, second := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](context.Background(), bus, bad)
	require.ErrorIs(t, second, period.ErrInvalidPeriod, "the replay must keep its errors.Is identity")
	assert.Equal(t, err.Error(), second.Error())
}
