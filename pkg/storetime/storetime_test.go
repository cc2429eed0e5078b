package storetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixed(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestToInstantRemovesOffset(t *testing.T) {
	c := New(7*time.Hour, nil)
	stored := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC), c.ToInstant(stored))
	assert.Equal(t, stored, c.ToStored(c.ToInstant(stored)))
}

func TestToInstantIgnoresLocationOfStoredValue(t *testing.T) {
	c := New(2*time.Hour, nil)
	loc := time.FixedZone("X", 5*3600)
	stored := time.Date(2024, 3, 1, 9, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC), c.ToInstant(stored))
}

func TestIsPastAndUntil(t *testing.T) {
	now := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	c := New(7*time.Hour, fixed(now))

	// 09:30 local equals 02:30 UTC
	stored := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	assert.False(t, c.IsPast(stored))
	assert.Equal(t, 30*time.Minute, c.Until(stored))

	stored = time.Date(2024, 3, 1, 8, 59, 0, 0, time.UTC)
	assert.True(t, c.IsPast(stored))
}

func TestTodayUsesLocalDate(t *testing.T) {
	// 20:00 UTC is already the next day at +7
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	c := New(7*time.Hour, fixed(now))
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), c.Today())
}

func TestNilClockUsesDefaultOffset(t *testing.T) {
	var c *Clock
	stored := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, stored.Add(-DefaultOffset), c.ToInstant(stored))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-08")
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-08", FormatDate(d))
	_, err = ParseDate("2024/01/08")
	assert.Error(t, err)
}

func TestParseWall(t *testing.T) {
	c := New(7*time.Hour, nil)

	got, err := c.ParseWall("2024-01-08T09:00:00")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), got)

	got, err = c.ParseWall("2024-01-08 09:30")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC), got)

	// an instant with zone lands on the local wall clock
	got, err = c.ParseWall("2024-01-08T02:00:00Z")
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-08T09:00:00", FormatWall(got))

	_, err = c.ParseWall("tomorrow")
	assert.Error(t, err)
}
