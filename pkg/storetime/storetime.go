// Package storetime converts between the naive local wall-clock values kept in
// the database and real instants.
//
// Stored timestamps are written as local wall-clock values without a zone, and
// the store compares them as if they were UTC. Every comparison with "now" and
// every delta between a stored value and an instant must go through a Clock so
// the offset is removed exactly once.
package storetime

import "time"

// DefaultOffset is the local-to-UTC offset of stored wall-clock values.
const DefaultOffset = 7 * time.Hour

// Clock applies the store offset. A nil *Clock behaves like Default().
type Clock struct {
	offset time.Duration
	now    func() time.Time
}

// New returns a Clock with the given offset; a nil now uses time.Now.
func New(offset time.Duration, now func() time.Time) *Clock {
	return &Clock{offset: offset, now: now}
}

// Default returns a Clock with DefaultOffset.
func Default() *Clock {
	return New(DefaultOffset, nil)
}

// Offset is the configured local-to-UTC offset.
func (c *Clock) Offset() time.Duration {
	if c == nil {
		return DefaultOffset
	}
	return c.offset
}

// Now is the current instant in UTC.
func (c *Clock) Now() time.Time {
	if c != nil && c.now != nil {
		return c.now().UTC()
	}
	return time.Now().UTC()
}

// ToInstant reinterprets the wall fields of a stored value as UTC and removes
// the offset.
func (c *Clock) ToInstant(stored time.Time) time.Time {
	if stored.IsZero() {
		return stored
	}
	naive := time.Date(stored.Year(), stored.Month(), stored.Day(),
		stored.Hour(), stored.Minute(), stored.Second(), stored.Nanosecond(), time.UTC)
	return naive.Add(-c.Offset())
}

// ToStored converts an instant into the wall-clock representation the store
// compares against.
func (c *Clock) ToStored(instant time.Time) time.Time {
	if instant.IsZero() {
		return instant
	}
	return instant.UTC().Add(c.Offset())
}

// StoredNow is Now expressed as a stored value, for store-side comparisons.
func (c *Clock) StoredNow() time.Time {
	return c.ToStored(c.Now())
}

// Today is the current calendar date in stored (local) terms, at midnight UTC.
func (c *Clock) Today() time.Time {
	return DateOf(c.StoredNow())
}

// Until is the time left until a stored value; negative when it has passed.
func (c *Clock) Until(stored time.Time) time.Duration {
	return c.ToInstant(stored).Sub(c.Now())
}

// IsPast reports whether a stored value lies before now.
func (c *Clock) IsPast(stored time.Time) bool {
	return c.ToInstant(stored).Before(c.Now())
}

// DateOf truncates a wall-clock value to its calendar date at midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// FormatDate renders a calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// WallLayout is the wire format of stored wall-clock values.
const WallLayout = "2006-01-02T15:04:05"

var wallLayouts = []string{
	WallLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// FormatWall renders a stored value without zone.
func FormatWall(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(WallLayout)
}

// ParseWall reads a timestamp sent by a client. Values without a zone are
// already local wall-clock values; values with a zone are real instants and are
// converted.
func (c *Clock) ParseWall(s string) (time.Time, error) {
	for _, layout := range wallLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	instant, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return c.ToStored(instant), nil
}
