package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetride/internal/domain/period"
	"fleetride/internal/domain/shared/money"
)

func testPricing() LegPricing {
	return LegPricing{
		TotalDailyPrice:   money.Must("1000", "NGN"),
		ItemsNetValue:     money.Must("800", "NGN"),
		FleetOwnerEarning: money.Must("800", "NGN"),
	}
}

func TestNewLeg(t *testing.T) {
	start := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

	leg, err := NewLeg(start, start, start.Add(12*time.Hour), testPricing())
	require.NoError(t, err)
	assert.Equal(t, LegPending, leg.Status)
	assert.Empty(t, leg.ID)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), leg.Date)

	_, err = NewLeg(start, start.Add(time.Hour), start, testPricing())
	assert.ErrorIs(t, err, ErrLegWindowInverted)

	bad := testPricing()
	bad.TotalDailyPrice = money.Money{Amount: money.Must("1", "NGN").Amount.Neg(), Currency: "NGN"}
	_, err = NewLeg(start, start, start.Add(time.Hour), bad)
	assert.ErrorIs(t, err, ErrNegativeLegAmount)
}

func TestLegTransitions(t *testing.T) {
	start := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	leg, err := NewLeg(start, start, start.Add(12*time.Hour), testPricing())
	require.NoError(t, err)

	// Cannot complete a pending leg.
	assert.ErrorIs(t, leg.Complete(), ErrInvalidTransition)

	require.NoError(t, leg.Activate())
	assert.Equal(t, LegActive, leg.Status)
	assert.ErrorIs(t, leg.Activate(), ErrInvalidTransition)

	require.NoError(t, leg.Complete())
	assert.Equal(t, LegCompleted, leg.Status)

	// COMPLETED is terminal.
	assert.ErrorIs(t, leg.Activate(), ErrInvalidTransition)
	assert.ErrorIs(t, leg.Complete(), ErrInvalidTransition)
}

func TestLegTimePredicates(t *testing.T) {
	start := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	leg, err := NewLeg(start, start, start.Add(12*time.Hour), testPricing())
	require.NoError(t, err)

	assert.True(t, leg.IsUpcomingAt(start.Add(-time.Minute)))
	assert.True(t, leg.IsActiveAt(start))
	assert.True(t, leg.IsActiveAt(start.Add(12*time.Hour)))
	assert.False(t, leg.IsActiveAt(start.Add(12*time.Hour+time.Second)))

	// Completion by elapsed time beats the stored status.
	assert.True(t, leg.IsCompletedAt(start.Add(13*time.Hour)))
	assert.False(t, leg.IsCompletedAt(start.Add(time.Hour)))
	require.NoError(t, leg.Activate())
	require.NoError(t, leg.Complete())
	assert.True(t, leg.IsCompletedAt(start.Add(time.Hour)))
}

func TestLegReminders(t *testing.T) {
	start := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	leg, err := NewLeg(start, start, start.Add(12*time.Hour), testPricing())
	require.NoError(t, err)

	assert.False(t, leg.EligibleForStartReminder(start.Add(-61*time.Minute)))
	assert.True(t, leg.EligibleForStartReminder(start.Add(-time.Hour)))
	assert.True(t, leg.EligibleForStartReminder(start.Add(-time.Minute)))
	assert.False(t, leg.EligibleForStartReminder(start), "reminder window is half-open at the boundary")

	end := leg.EndTime
	assert.True(t, leg.EligibleForEndReminder(end.Add(-30*time.Minute)))
	assert.False(t, leg.EligibleForEndReminder(end))
}

func TestLegsForPeriod(t *testing.T) {
	t.Run("one leg per calendar day", func(t *testing.T) {
		start := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
		p := period.Reconstitute(period.KindDay, start, start.Add(60*time.Hour))
		legs, err := LegsForPeriod(p, testPricing())
		require.NoError(t, err)
		require.Len(t, legs, 3)
		for i, leg := range legs {
			assert.Equal(t, time.Date(2025, 3, 15+i, 0, 0, 0, 0, time.UTC), leg.Date)
			assert.Equal(t, 8, leg.StartTime.Hour())
		}
		// The last leg ends at the period boundary.
		assert.Equal(t, p.End(), legs[2].EndTime)
	})

	t.Run("single day yields one leg", func(t *testing.T) {
		start := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
		p := period.Reconstitute(period.KindDay, start, start.Add(12*time.Hour))
		legs, err := LegsForPeriod(p, testPricing())
		require.NoError(t, err)
		require.Len(t, legs, 1)
		assert.Equal(t, 12.0, legs[0].DurationHours())
	})
}
