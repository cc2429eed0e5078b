package occurrence

import (
	"errors"
	"strings"
	"time"

	"OrgCalendar/pkg/storetime"
)

// Kind tags what a Ref points at.
type Kind int8

const (
	KindEvent Kind = iota + 1
	KindSeries
	KindSeriesOccurrence
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindSeries:
		return "series"
	case KindSeriesOccurrence:
		return "occurrence"
	}
	return "unknown"
}

// Ref identifies a one-off event, a whole series, or one occurrence of a
// series by (seriesID, date).
type Ref struct {
	Kind     Kind
	EventID  string
	SeriesID string
	Date     time.Time
}

var ErrInvalidRef = errors.New("invalid entity reference")

func EventRef(id string) Ref {
	return Ref{Kind: KindEvent, EventID: id}
}

func SeriesRef(id string) Ref {
	return Ref{Kind: KindSeries, SeriesID: id}
}

func OccurrenceRef(seriesID string, date time.Time) Ref {
	return Ref{Kind: KindSeriesOccurrence, SeriesID: seriesID, Date: storetime.DateOf(date)}
}

func (r Ref) IsZero() bool {
	return r.Kind == 0
}

// String is the composite identifier used on the API and in stored keys:
// event:<id>, series:<id> or series:<id>:<YYYY-MM-DD>.
func (r Ref) String() string {
	switch r.Kind {
	case KindEvent:
		return "event:" + r.EventID
	case KindSeries:
		return "series:" + r.SeriesID
	case KindSeriesOccurrence:
		return "series:" + r.SeriesID + ":" + storetime.FormatDate(r.Date)
	}
	return ""
}

// Prefix is the leading part of every reminder job key that belongs to this
// entity. A series prefix covers all of its occurrences.
func (r Ref) Prefix() string {
	if r.Kind == KindSeries {
		return "series:" + r.SeriesID + ":"
	}
	return r.String() + "|"
}

// Pattern is a SQL LIKE pattern matching the stored identifiers of this entity.
// A series pattern covers all of its occurrences.
func (r Ref) Pattern() string {
	if r.Kind == KindSeries {
		return "series:" + r.SeriesID + ":%"
	}
	return r.String()
}

// Covers reports whether other is this entity or, for a series, one of its
// occurrences.
func (r Ref) Covers(other Ref) bool {
	if r.Kind == KindSeries {
		return other.SeriesID == r.SeriesID && (other.Kind == KindSeries || other.Kind == KindSeriesOccurrence)
	}
	return r.String() == other.String()
}

// ParseRef decodes the composite identifier.
func ParseRef(s string) (Ref, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	switch {
	case len(parts) == 2 && parts[0] == "event" && parts[1] != "":
		return EventRef(parts[1]), nil
	case len(parts) == 2 && parts[0] == "series" && parts[1] != "":
		return SeriesRef(parts[1]), nil
	case len(parts) == 3 && parts[0] == "series" && parts[1] != "":
		d, err := storetime.ParseDate(parts[2])
		if err != nil {
			return Ref{}, ErrInvalidRef
		}
		return OccurrenceRef(parts[1], d), nil
	}
	return Ref{}, ErrInvalidRef
}
