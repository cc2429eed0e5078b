// Package occurrence expands recurring series into dated occurrences.
//
// Expansion is a pure function of the series definition, a date window and the
// exception dates. Dates are calendar dates at midnight UTC; clock times are
// added on top as stored wall-clock values.
package occurrence

import (
	"time"

	"OrgCalendar/pkg/storetime"
)

// Unit is the recurrence step.
type Unit string

const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
)

func (u Unit) Valid() bool {
	return u == UnitDay || u == UnitWeek || u == UnitMonth
}

// MaxOccurrences caps the result of a single expansion.
const MaxOccurrences = 5000

// MaxDurationDays bounds how far an occurrence may extend past its date.
const MaxDurationDays = 31

// Series is the recurrence template as seen by the expander.
type Series struct {
	ID         string
	Unit       Unit
	Interval   int
	FirstDate  time.Time
	EndDate    *time.Time
	StartClock time.Duration
	EndClock   time.Duration
	// DurationDays moves the end of each occurrence that many days past its
	// start date.
	DurationDays int
}

// Occurrence is one dated instance of a series.
type Occurrence struct {
	Ref         Ref
	SeriesID    string
	Date        time.Time
	Start       time.Time
	End         time.Time
	IsGenerated bool
}

func (s Series) interval() int {
	if s.Interval < 1 {
		return 1
	}
	return s.Interval
}

// candidate returns the k-th lattice date. Month steps are always computed from
// the first date so the day-of-month stays anchored after a clamped month.
func (s Series) candidate(k int) time.Time {
	first := storetime.DateOf(s.FirstDate)
	n := k * s.interval()
	switch s.Unit {
	case UnitWeek:
		return first.AddDate(0, 0, 7*n)
	case UnitMonth:
		return addMonthsClamped(first, n)
	default:
		return first.AddDate(0, 0, n)
	}
}

// firstIndex returns the largest k whose candidate is not after from, or 0.
func (s Series) firstIndex(from time.Time) int {
	first := storetime.DateOf(s.FirstDate)
	if !from.After(first) {
		return 0
	}
	iv := s.interval()
	switch s.Unit {
	case UnitMonth:
		months := (from.Year()-first.Year())*12 + int(from.Month()) - int(first.Month())
		k := months / iv
		for k > 0 && s.candidate(k).After(from) {
			k--
		}
		return k
	case UnitWeek:
		return daysBetween(first, from) / (7 * iv)
	default:
		return daysBetween(first, from) / iv
	}
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func addMonthsClamped(d time.Time, n int) time.Time {
	total := int(d.Month()) - 1 + n
	y := d.Year() + total/12
	m := total % 12
	if m < 0 {
		m += 12
		y--
	}
	month := time.Month(m + 1)
	day := d.Day()
	if last := daysIn(y, month); day > last {
		day = last
	}
	return time.Date(y, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// lastDate is the later bound of the lattice, if any.
func (s Series) lastDate() (time.Time, bool) {
	if s.EndDate == nil || s.EndDate.IsZero() {
		return time.Time{}, false
	}
	return storetime.DateOf(*s.EndDate), true
}

// At builds the occurrence of the series on the given date.
func (s Series) At(date time.Time) Occurrence {
	d := storetime.DateOf(date)
	days := s.DurationDays
	if days < 0 {
		days = 0
	}
	return Occurrence{
		Ref:         OccurrenceRef(s.ID, d),
		SeriesID:    s.ID,
		Date:        d,
		Start:       d.Add(s.StartClock),
		End:         d.AddDate(0, 0, days).Add(s.EndClock),
		IsGenerated: true,
	}
}

// Expand lists the occurrences whose date lies in [windowStart, windowEnd],
// ordered by date, skipping exception dates.
func Expand(s Series, windowStart, windowEnd time.Time, exceptions []time.Time) []Occurrence {
	out := make([]Occurrence, 0)
	if s.FirstDate.IsZero() {
		return out
	}
	from := storetime.DateOf(windowStart)
	limit := storetime.DateOf(windowEnd)
	if limit.Before(from) {
		return out
	}
	if last, ok := s.lastDate(); ok && last.Before(limit) {
		limit = last
	}

	skip := make(map[string]struct{}, len(exceptions))
	for _, ex := range exceptions {
		skip[storetime.FormatDate(ex)] = struct{}{}
	}

	for k := s.firstIndex(from); len(out) < MaxOccurrences; k++ {
		d := s.candidate(k)
		if d.After(limit) {
			break
		}
		if d.Before(from) {
			continue
		}
		if _, ok := skip[storetime.FormatDate(d)]; ok {
			continue
		}
		out = append(out, s.At(d))
	}
	return out
}

// IsOccurrenceDate reports whether date is on the series lattice and within
// its bounds. Exceptions are not considered.
func IsOccurrenceDate(s Series, date time.Time) bool {
	if s.FirstDate.IsZero() {
		return false
	}
	d := storetime.DateOf(date)
	if d.Before(storetime.DateOf(s.FirstDate)) {
		return false
	}
	if last, ok := s.lastDate(); ok && d.After(last) {
		return false
	}
	return s.candidate(s.firstIndex(d)).Equal(d)
}

// OccurrenceTimes returns the stored start and end of the occurrence on date.
func OccurrenceTimes(s Series, date time.Time) (start, end time.Time) {
	o := s.At(date)
	return o.Start, o.End
}
