package payout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetride/internal/app/uow"
	domainpayout "fleetride/internal/domain/payout"
	"fleetride/internal/domain/shared/clock"
	"fleetride/internal/domain/shared/money"
	"fleetride/internal/infra/gateway"
	"fleetride/internal/infra/storage/memory"
)

type fixture struct {
	factory uow.Factory
	payouts *memory.PayoutRepository
	outbox  *memory.Outbox
	sandbox *gateway.Sandbox
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	payouts := memory.NewPayoutRepository()
	sandbox := gateway.NewSandbox()
	sandbox.RegisterAccount("fo-1", domainpayout.BankAccount{
		AccountName:   "Adeyemi Fleet Services",
		AccountNumber: "0123456789",
		BankCode:      "058",
		BankName:      "GTBank",
		Verified:      true,
	})
	sandbox.RegisterAccount("fo-unverified", domainpayout.BankAccount{
		AccountName:   "New Fleet Co",
		AccountNumber: "0987654321",
		BankCode:      "058",
		Verified:      false,
	})
	sandbox.RegisterAccount("fo-flaky", domainpayout.BankAccount{
		AccountName:   "Flaky Fleet",
		AccountNumber: "1111110000",
		BankCode:      "058",
		Verified:      true,
	})
	return &fixture{
		factory: memory.Factory{BookingRepo: memory.NewBookingRepository(), PayoutRepo: payouts},
		payouts: payouts,
		outbox:  memory.NewOutbox(),
		sandbox: sandbox,
		now:     time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) initiateHandler() *InitiatePayoutHandler {
	return &InitiatePayoutHandler{
		UoWFactory: f.factory,
		Gateway:    f.sandbox,
		Accounts:   f.sandbox,
		Outbox:     f.outbox,
		Clock:      clock.Fixed{Instant: f.now},
	}
}

func TestInitiatePayoutHandler(t *testing.T) {
	f := newFixture(t)
	h := f.initiateHandler()

	res, err := h.Handle(context.Background(), InitiatePayoutCommand{
		CommandID:    "po-1",
		FleetOwnerID: "fo-1",
		BookingID:    "bk-1",
		Amount:       money.Must("800", "NGN"),
		Narration:    "booking bk-1 earnings",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainpayout.StatusProcessing), res.Status)
	assert.NotEmpty(t, res.Reference)

	stored, err := f.payouts.ByID(context.Background(), "po-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayout.StatusProcessing, stored.Status)
	assert.True(t, stored.IsInProgress())

	calls := f.sandbox.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "0123456789", calls[0].AccountNumber)
	assert.Equal(t, "booking bk-1 earnings", calls[0].Narration)

	names := make([]string, 0)
	for _, rec := range f.outbox.Records() {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"payout.initiated", "payout.processing"}, names)
}

func TestInitiatePayoutUnverifiedAccount(t *testing.T) {
	f := newFixture(t)
	h := f.initiateHandler()

	_, err := h.Handle(context.Background(), InitiatePayoutCommand{
		CommandID:    "po-1",
		FleetOwnerID: "fo-unverified",
		BookingID:    "bk-1",
		Amount:       money.Must("800", "NGN"),
	})
	require.ErrorIs(t, err, ErrNotEligible)
	assert.Contains(t, err.Error(), "verified")
	assert.Empty(t, f.sandbox.Calls(), "gateway must not be reached")
}

func TestInitiatePayoutDuplicateBlocked(t *testing.T) {
	f := newFixture(t)
	h := f.initiateHandler()

	_, err := h.Handle(context.Background(), InitiatePayoutCommand{
		CommandID: "po-1", FleetOwnerID: "fo-1", BookingID: "bk-1", Amount: money.Must("800", "NGN"),
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), InitiatePayoutCommand{
		CommandID: "po-2", FleetOwnerID: "fo-1", BookingID: "bk-1", Amount: money.Must("800", "NGN"),
	})
	require.ErrorIs(t, err, ErrNotEligible)
	assert.Contains(t, err.Error(), "already in progress")
}

func TestInitiatePayoutGatewayFailure(t *testing.T) {
	f := newFixture(t)
	h := f.initiateHandler()

	res, err := h.Handle(context.Background(), InitiatePayoutCommand{
		CommandID:    "po-1",
		FleetOwnerID: "fo-flaky",
		BookingID:    "bk-1",
		Amount:       money.Must("800", "NGN"),
	})
	require.NoError(t, err, "a declined transfer is a recorded failure, not a handler error")
	assert.Equal(t, string(domainpayout.StatusFailed), res.Status)

	stored, _ := f.payouts.ByID(context.Background(), "po-1")
	assert.Equal(t, domainpayout.StatusFailed, stored.Status)
	assert.NotEmpty(t, stored.FailureReason)
}

func TestSettlePayoutHandler(t *testing.T) {
	f := newFixture(t)
	_, err := f.initiateHandler().Handle(context.Background(), InitiatePayoutCommand{
		CommandID: "po-1", FleetOwnerID: "fo-1", BookingID: "bk-1", Amount: money.Must("800", "NGN"),
	})
	require.NoError(t, err)
	f.outbox.Flush(context.Background())

	settle := &SettlePayoutHandler{UoWFactory: f.factory, Outbox: f.outbox, Clock: clock.Fixed{Instant: f.now}}

	t.Run("success webhook completes", func(t *testing.T) {
		res, err := settle.Handle(context.Background(), SettlePayoutCommand{PayoutID: "po-1", Succeeded: true})
		require.NoError(t, err)
		assert.Equal(t, string(domainpayout.StatusCompleted), res.Status)

		records := f.outbox.Records()
		require.Len(t, records, 1)
		assert.Equal(t, "payout.completed", records[0].Name)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		_, err := settle.Handle(context.Background(), SettlePayoutCommand{PayoutID: "po-1", Succeeded: false, FailureReason: "late decline"})
		assert.ErrorIs(t, err, domainpayout.ErrInvalidTransition)
	})
}

func TestRetryPayoutHandler(t *testing.T) {
	f := newFixture(t)

	// First attempt against the failing account.
	_, err := f.initiateHandler().Handle(context.Background(), InitiatePayoutCommand{
		CommandID: "po-1", FleetOwnerID: "fo-flaky", BookingID: "bk-1", Amount: money.Must("800", "NGN"),
	})
	require.NoError(t, err)
	f.outbox.Flush(context.Background())

	// Account gets fixed before the retry.
	f.sandbox.RegisterAccount("fo-flaky", domainpayout.BankAccount{
		AccountName:   "Flaky Fleet",
		AccountNumber: "1111112222",
		BankCode:      "058",
		Verified:      true,
	})
	stored, _ := f.payouts.ByID(context.Background(), "po-1")
	stored.BankAccount.AccountNumber = "1111112222"

	retry := &RetryPayoutHandler{UoWFactory: f.factory, Gateway: f.sandbox, Outbox: f.outbox, Clock: clock.Fixed{Instant: f.now.Add(time.Hour)}}
	res, err := retry.Handle(context.Background(), RetryPayoutCommand{PayoutID: "po-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainpayout.StatusProcessing), res.Status)

	after, _ := f.payouts.ByID(context.Background(), "po-1")
	assert.Empty(t, after.FailureReason)
	assert.NotEmpty(t, after.ProviderReference)

	t.Run("retry requires failed state", func(t *testing.T) {
		_, err := retry.Handle(context.Background(), RetryPayoutCommand{PayoutID: "po-1"})
		assert.ErrorIs(t, err, domainpayout.ErrInvalidTransition)
	})
}
