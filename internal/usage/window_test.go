package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestResolveWindow(t *testing.T) {
	now := time.Date(2024, time.September, 18, 14, 30, 0, 0, time.Local)

	t.Run("defaults to current month", func(t *testing.T) {
		w, err := ResolveWindow("", "", now)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.September, 1), w.Start)
		assert.Equal(t, date(2024, time.September, 18), w.End)
		assert.True(t, w.IsCurrent(now))
	})

	t.Run("explicit boundaries", func(t *testing.T) {
		w, err := ResolveWindow("2024-09-01", "2024-09-10", now)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.September, 1), w.Start)
		assert.Equal(t, date(2024, time.September, 10), w.End)
		assert.False(t, w.IsCurrent(now))
	})

	t.Run("missing start defaults to first of month", func(t *testing.T) {
		w, err := ResolveWindow("", "2024-09-10", now)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.September, 1), w.Start)
	})

	t.Run("missing end defaults to today", func(t *testing.T) {
		w, err := ResolveWindow("2024-09-05", "", now)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.September, 18), w.End)
		assert.True(t, w.IsCurrent(now))
	})

	t.Run("start after end rejected", func(t *testing.T) {
		_, err := ResolveWindow("2024-09-10", "2024-09-01", now)
		require.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("future end rejected", func(t *testing.T) {
		_, err := ResolveWindow("2024-09-01", "2024-09-19", now)
		require.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("malformed dates rejected", func(t *testing.T) {
		_, err := ResolveWindow("09/01/2024", "", now)
		require.ErrorIs(t, err, ErrInvalidWindow)
		_, err = ResolveWindow("", "2024-13-40", now)
		require.ErrorIs(t, err, ErrInvalidWindow)
	})
}

func TestWindowInstants(t *testing.T) {
	w := Window{Start: date(2024, time.September, 1), End: date(2024, time.September, 10)}

	assert.Equal(t, time.Date(2024, time.September, 10, 23, 59, 59, 0, time.Local), w.EndInstant())

	// The buffer extends the query past the final day without moving the
	// clamp bound.
	assert.Equal(t,
		time.Date(2024, time.September, 11, 0, 15, 0, 0, time.Local),
		w.QueryEnd(15*time.Minute))

	assert.Equal(t, "2024-09-01 to 2024-09-10", w.String())
}
