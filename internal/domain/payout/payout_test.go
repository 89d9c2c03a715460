package payout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetride/internal/domain/shared/money"
)

var payoutNow = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

func verifiedAccount() BankAccount {
	return BankAccount{
		AccountName:   "Adeyemi Fleet Services",
		AccountNumber: "0123456789",
		BankCode:      "058",
		BankName:      "GTBank",
		Verified:      true,
	}
}

func testPayout(t *testing.T) *Payout {
	t.Helper()
	p, err := New(CreateParams{
		ID:           PayoutID("po-1"),
		FleetOwnerID: "fo-1",
		BookingID:    "bk-1",
		Amount:       money.Must("800", "NGN"),
		BankAccount:  verifiedAccount(),
		CreatedAt:    payoutNow,
	})
	require.NoError(t, err)
	return p
}

func TestNewPayout(t *testing.T) {
	p := testPayout(t)
	assert.Equal(t, StatusPendingDisbursement, p.Status)
	require.Len(t, p.PendingEvents(), 1)
	assert.Equal(t, "payout.initiated", p.PendingEvents()[0].EventName())

	_, err := New(CreateParams{ID: "x", BookingID: "bk-1", Amount: money.Must("1", "NGN"), BankAccount: verifiedAccount(), CreatedAt: payoutNow})
	assert.ErrorIs(t, err, ErrFleetOwnerRequired)

	_, err = New(CreateParams{ID: "x", FleetOwnerID: "fo-1", Amount: money.Must("0", "NGN"), BankAccount: verifiedAccount(), CreatedAt: payoutNow})
	assert.ErrorIs(t, err, ErrNonPositiveAmount)

	unverified := verifiedAccount()
	unverified.Verified = false
	_, err = New(CreateParams{ID: "x", FleetOwnerID: "fo-1", Amount: money.Must("1", "NGN"), BankAccount: unverified, CreatedAt: payoutNow})
	assert.ErrorIs(t, err, ErrUnverifiedAccount)
}

func TestPayoutStatusTable(t *testing.T) {
	assert.True(t, StatusPendingDisbursement.CanTransitionTo(StatusProcessing))
	assert.False(t, StatusPendingDisbursement.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusProcessing.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusProcessing.CanTransitionTo(StatusFailed))
	assert.True(t, StatusFailed.CanTransitionTo(StatusPendingDisbursement), "failed payouts are retryable")
	assert.False(t, StatusCompleted.CanTransitionTo(StatusPendingDisbursement))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusProcessing))
}

func TestInitiateCompleteFlow(t *testing.T) {
	p := testPayout(t)

	require.NoError(t, p.Initiate("PAYOUT-BKG-bk-1-1-abc", payoutNow))
	assert.Equal(t, StatusProcessing, p.Status)
	assert.Equal(t, payoutNow, p.ProcessedAt)

	require.NoError(t, p.MarkCompleted(payoutNow.Add(time.Minute)))
	assert.Equal(t, StatusCompleted, p.Status)
	assert.True(t, p.IsFinal())
	assert.False(t, p.IsInProgress())

	// COMPLETED is terminal.
	assert.ErrorIs(t, p.Retry(payoutNow), ErrInvalidTransition)
	assert.ErrorIs(t, p.MarkFailed("late failure", payoutNow), ErrInvalidTransition)
}

func TestInitiateGuards(t *testing.T) {
	p := testPayout(t)
	assert.ErrorIs(t, p.Initiate("", payoutNow), ErrEmptyReference)
	assert.ErrorIs(t, p.MarkCompleted(payoutNow), ErrInvalidTransition, "cannot complete before processing")
	assert.ErrorIs(t, p.MarkFailed("x", payoutNow), ErrInvalidTransition, "cannot fail before processing")
}

func TestFailAndRetry(t *testing.T) {
	p := testPayout(t)
	require.NoError(t, p.Initiate("ref-1", payoutNow))

	assert.ErrorIs(t, p.MarkFailed("", payoutNow), ErrEmptyFailureReason)
	require.NoError(t, p.MarkFailed("insufficient provider balance", payoutNow))
	assert.Equal(t, StatusFailed, p.Status)
	assert.True(t, p.IsFinal())

	require.NoError(t, p.Retry(payoutNow.Add(time.Hour)))
	assert.Equal(t, StatusPendingDisbursement, p.Status)
	assert.Empty(t, p.FailureReason, "retry clears the failure trail")
	assert.Empty(t, p.ProviderReference)
	assert.True(t, p.ProcessedAt.IsZero())
	assert.True(t, p.IsInProgress())

	// A fresh attempt can run again.
	require.NoError(t, p.Initiate("ref-2", payoutNow.Add(2*time.Hour)))
	require.NoError(t, p.MarkCompleted(payoutNow.Add(3*time.Hour)))
}

func TestParsePayoutStatus(t *testing.T) {
	s, err := ParseStatus("PENDING_DISBURSEMENT")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingDisbursement, s)

	_, err = ParseStatus("SETTLED")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
