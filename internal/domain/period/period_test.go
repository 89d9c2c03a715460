package period

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestCreateDay(t *testing.T) {
	t.Run("valid single day defaults to twelve hours", func(t *testing.T) {
		start := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
		p, err := Create(CreateParams{Kind: KindDay, Start: start}, testNow)
		require.NoError(t, err)
		assert.Equal(t, KindDay, p.Kind())
		assert.Equal(t, start, p.Start())
		assert.Equal(t, start.Add(12*time.Hour), p.End())
		assert.Equal(t, 12.0, p.DurationHours())
	})

	t.Run("pickup hour boundaries", func(t *testing.T) {
		for _, hour := range []int{7, 11} {
			start := time.Date(2025, 3, 15, hour, 0, 0, 0, time.UTC)
			_, err := Create(CreateParams{Kind: KindDay, Start: start}, testNow)
			assert.NoError(t, err, "hour %d should be accepted", hour)
		}
		for _, hour := range []int{6, 12, 0, 23} {
			start := time.Date(2025, 3, 15, hour, 0, 0, 0, time.UTC)
			_, err := Create(CreateParams{Kind: KindDay, Start: start}, testNow)
			assert.ErrorIs(t, err, ErrInvalidPeriod, "hour %d should be rejected", hour)
		}
	})

	t.Run("multi day durations", func(t *testing.T) {
		start := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
		// 12h + one full preceding day
		p, err := Create(CreateParams{Kind: KindDay, Start: start, End: start.Add(36 * time.Hour)}, testNow)
		require.NoError(t, err)
		assert.Equal(t, 36.0, p.DurationHours())

		_, err = Create(CreateParams{Kind: KindDay, Start: start, End: start.Add(24 * time.Hour)}, testNow)
		assert.ErrorIs(t, err, ErrInvalidPeriod)

		_, err = Create(CreateParams{Kind: KindDay, Start: start, End: start.Add(6 * time.Hour)}, testNow)
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})

	t.Run("start must be in the future", func(t *testing.T) {
		start := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)
		_, err := Create(CreateParams{Kind: KindDay, Start: start}, testNow)
		require.Error(t, err)
		var invalid *InvalidPeriodError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "start must be in the future", invalid.Reason)
	})
}

func TestCreateNight(t *testing.T) {
	t.Run("forces the fixed overnight window", func(t *testing.T) {
		// Time component of the input is irrelevant.
		requested := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)
		p, err := Create(CreateParams{Kind: KindNight, Start: requested}, testNow)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 15, 23, 0, 0, 0, time.UTC), p.Start())
		assert.Equal(t, time.Date(2025, 3, 16, 5, 0, 0, 0, time.UTC), p.End())
		assert.Equal(t, 6.0, p.DurationHours())
	})

	t.Run("rejects past dates", func(t *testing.T) {
		_, err := Create(CreateParams{Kind: KindNight, Start: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)}, testNow)
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})

	t.Run("same day evening is still bookable before 23:00", func(t *testing.T) {
		p, err := Create(CreateParams{Kind: KindNight, Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}, testNow)
		require.NoError(t, err)
		assert.Equal(t, 23, p.Start().Hour())
	})
}

func TestCreateFullDay(t *testing.T) {
	start := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("accepts whole day multiples", func(t *testing.T) {
		for _, hours := range []int{24, 48, 72} {
			p, err := Create(CreateParams{Kind: KindFullDay, Start: start, End: start.Add(time.Duration(hours) * time.Hour)}, testNow)
			require.NoError(t, err)
			assert.Equal(t, float64(hours), p.DurationHours())
		}
	})

	t.Run("rejects fractional or short durations", func(t *testing.T) {
		for _, hours := range []int{12, 23, 25, 36} {
			_, err := Create(CreateParams{Kind: KindFullDay, Start: start, End: start.Add(time.Duration(hours) * time.Hour)}, testNow)
			assert.ErrorIs(t, err, ErrInvalidPeriod, "%d hours should be rejected", hours)
		}
	})

	t.Run("start hour window", func(t *testing.T) {
		for _, hour := range []int{7, 22} {
			s := time.Date(2025, 3, 15, hour, 0, 0, 0, time.UTC)
			_, err := Create(CreateParams{Kind: KindFullDay, Start: s, End: s.Add(24 * time.Hour)}, testNow)
			assert.NoError(t, err, "hour %d", hour)
		}
		for _, hour := range []int{6, 23} {
			s := time.Date(2025, 3, 15, hour, 0, 0, 0, time.UTC)
			_, err := Create(CreateParams{Kind: KindFullDay, Start: s, End: s.Add(24 * time.Hour)}, testNow)
			assert.ErrorIs(t, err, ErrInvalidPeriod, "hour %d", hour)
		}
	})
}

func TestCreateUnknownKind(t *testing.T) {
	_, err := Create(CreateParams{Kind: Kind("WEEKEND"), Start: testNow.Add(time.Hour)}, testNow)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPeriodPredicates(t *testing.T) {
	start := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	p := Reconstitute(KindDay, start, start.Add(12*time.Hour))

	assert.True(t, p.IsUpcoming(start.Add(-time.Hour)))
	assert.True(t, p.IsActive(start))
	assert.True(t, p.IsActive(start.Add(12*time.Hour)))
	assert.False(t, p.IsActive(start.Add(13*time.Hour)))
	assert.True(t, p.IsPast(start.Add(13*time.Hour)))
	assert.False(t, p.IsPast(start.Add(12*time.Hour)))
}

func TestPeriodOverlaps(t *testing.T) {
	base := Reconstitute(KindDay, day(15, 9), day(15, 21))

	assert.True(t, base.Overlaps(Reconstitute(KindDay, day(15, 20), day(16, 8))))
	assert.False(t, base.Overlaps(Reconstitute(KindDay, day(15, 21), day(16, 9))), "touching boundaries do not overlap")
	assert.False(t, base.Overlaps(Reconstitute(KindDay, day(16, 9), day(16, 21))))
}

func TestContainsDate(t *testing.T) {
	p := Reconstitute(KindFullDay, day(15, 10), day(17, 10))
	assert.True(t, p.ContainsDate(day(15, 0)))
	assert.True(t, p.ContainsDate(day(16, 23)))
	assert.True(t, p.ContainsDate(day(17, 23)), "calendar day of the end instant counts")
	assert.False(t, p.ContainsDate(day(18, 0)))
	assert.False(t, p.ContainsDate(day(14, 23)))
}

func TestSecurityDetailMultiplier(t *testing.T) {
	assert.Equal(t, int64(2), Reconstitute(KindFullDay, day(15, 10), day(16, 10)).SecurityDetailMultiplier())
	assert.Equal(t, int64(1), Reconstitute(KindDay, day(15, 9), day(15, 21)).SecurityDetailMultiplier())
	assert.Equal(t, int64(1), Reconstitute(KindNight, day(15, 23), day(16, 5)).SecurityDetailMultiplier())
}

func day(d, hour int) time.Time {
	return time.Date(2025, 3, d, hour, 0, 0, 0, time.UTC)
}
