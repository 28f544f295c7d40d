package clock

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func istanbul(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)
	return loc
}

func TestTodayRangeUsesLocalMidnight(t *testing.T) {
	loc := istanbul(t)
	// 22:30 UTC is already the next day in Istanbul (UTC+3)
	now := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)
	c := Fixed(loc, func() time.Time { return now })

	start, end := c.TodayRange()
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, loc), end)
	assert.Equal(t, "2026-03-11", c.Today())
}

func TestDaysBetween(t *testing.T) {
	d, err := DaysBetween("2026-02-27", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, d)

	d, err = DaysBetween("2026-03-02", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, -1, d)

	_, err = DaysBetween("bad", "2026-03-01")
	assert.Error(t, err)
}
