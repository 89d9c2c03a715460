package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetride/internal/app/commands"
	bookingapp "fleetride/internal/app/handlers/booking"
	domainbooking "fleetride/internal/domain/booking"
	"fleetride/internal/domain/period"
	"fleetride/internal/domain/shared/clock"
	"fleetride/internal/domain/shared/money"
	"fleetride/internal/infra/storage/memory"
)

type sweepFixture struct {
	factory  memory.Factory
	bookings *memory.BookingRepository
	outbox   *memory.Outbox
	created  time.Time
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	bookings := memory.NewBookingRepository()
	return &sweepFixture{
		factory:  memory.Factory{BookingRepo: bookings, PayoutRepo: memory.NewPayoutRepository()},
		bookings: bookings,
		outbox:   memory.NewOutbox(),
		created:  time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

// seed creates a booking starting at the given instant; confirmed bookings
// are paid and ready for the sweep to activate.
func (f *sweepFixture) seed(t *testing.T, id string, start time.Time, confirm bool) {
	t.Helper()
	fixed := clock.Fixed{Instant: f.created}
	create := &bookingapp.CreateBookingHandler{UoWFactory: f.factory, Outbox: f.outbox, Clock: fixed}
	_, err := create.Handle(context.Background(), bookingapp.CreateBookingCommand{
		CommandID:     id,
		Kind:          period.KindDay,
		Start:         start,
		PickupAddress: "1 Marina Rd, Lagos",
		CustomerID:    "cust-1",
		CarID:         "car-" + id,
		TotalAmount:   money.Must("1000", "NGN"),
		NetTotal:      money.Must("900", "NGN"),
		DailyPricing: domainbooking.LegPricing{
			TotalDailyPrice:   money.Must("1000", "NGN"),
			ItemsNetValue:     money.Must("900", "NGN"),
			FleetOwnerEarning: money.Must("800", "NGN"),
		},
	})
	require.NoError(t, err)
	if confirm {
		h := &bookingapp.ConfirmBookingHandler{UoWFactory: f.factory, Outbox: f.outbox, Clock: fixed}
		_, err := h.Handle(context.Background(), bookingapp.ConfirmBookingCommand{BookingID: id})
		require.NoError(t, err)
		assign := &bookingapp.AssignChauffeurHandler{UoWFactory: f.factory, Outbox: f.outbox, Clock: fixed}
		_, err = assign.Handle(context.Background(), bookingapp.AssignChauffeurCommand{BookingID: id, ChauffeurID: "ch-" + id})
		require.NoError(t, err)
	}
}

func (f *sweepFixture) status(t *testing.T, id string) domainbooking.Status {
	t.Helper()
	b, err := f.bookings.ByID(context.Background(), domainbooking.BookingID(id))
	require.NoError(t, err)
	return b.Status
}

func TestSweepOnceActivatesDueBookings(t *testing.T) {
	f := newSweepFixture(t)
	sweepAt := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	f.seed(t, "bk-due", sweepAt, true)
	f.seed(t, "bk-later", time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC), true)

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, bookingapp.ProgressBookingCommand{}.Key(), &bookingapp.ProgressBookingHandler{
		UoWFactory: f.factory, Outbox: f.outbox, Clock: clock.Fixed{Instant: sweepAt},
	})

	s := &Sweeper{UoWFactory: f.factory, Commands: bus, Clock: clock.Fixed{Instant: sweepAt}}
	s.sweepOnce(context.Background())

	assert.Equal(t, domainbooking.StatusActive, f.status(t, "bk-due"))
	assert.Equal(t, domainbooking.StatusConfirmed, f.status(t, "bk-later"))
}

func TestSweepOnceSkipsUnconfirmedBookings(t *testing.T) {
	f := newSweepFixture(t)
	sweepAt := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	f.seed(t, "bk-unpaid", sweepAt, false)

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, bookingapp.ProgressBookingCommand{}.Key(), &bookingapp.ProgressBookingHandler{
		UoWFactory: f.factory, Outbox: f.outbox, Clock: clock.Fixed{Instant: sweepAt},
	})

	s := &Sweeper{UoWFactory: f.factory, Commands: bus, Clock: clock.Fixed{Instant: sweepAt}}
	s.sweepOnce(context.Background())

	// An unconfirmed booking is listed but never activated.
	assert.Equal(t, domainbooking.StatusPending, f.status(t, "bk-unpaid"))
}

func TestSweepOnceToleratesDispatchFailures(t *testing.T) {
	f := newSweepFixture(t)
	sweepAt := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	f.seed(t, "bk-due", sweepAt, true)

	// No handler is registered, so every dispatch fails; the sweep must
	// log and return rather than panic.
	s := &Sweeper{UoWFactory: f.factory, Commands: commands.NewInMemoryBus(), Clock: clock.Fixed{Instant: sweepAt}}
	s.sweepOnce(context.Background())

	assert.Equal(t, domainbooking.StatusConfirmed, f.status(t, "bk-due"))
}
