// Package daterange holds calendar-day arithmetic shared by the catalog and
// booking code. All dates are UTC midnights; ranges are half-open.
package daterange

import (
	"fmt"
	"sort"
	"time"
)

const (
	Layout = "2006-01-02"
	Day    = 24 * time.Hour

	// MaxDays bounds a single booking range.
	MaxDays = 366

	secondsPerDay = 86400
)

// ParseDate parses a YYYY-MM-DD string into a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s", s, Layout)
	}
	return t, nil
}

// Truncate drops the time of day, keeping the calendar date of t in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// DayCount is ceil((end - start) / 1 day). Non-positive spans give 0 or less.
// It works on Unix seconds so spans longer than time.Duration can hold are
// still exact.
func DayCount(start, end time.Time) int {
	secs := end.Unix() - start.Unix()
	if end.Nanosecond() > start.Nanosecond() {
		secs++
	}
	if secs > 0 {
		return int((secs + secondsPerDay - 1) / secondsPerDay)
	}
	return int(secs / secondsPerDay)
}

// Range is the half-open interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) Range {
	return Range{Start: start, End: end}
}

func (r Range) Valid() bool {
	return r.Start.Before(r.End)
}

// Overlaps reports whether r and o share any instant: s1 < e2 && s2 < e1.
func (r Range) Overlaps(o Range) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Contains reports whether day falls in [Start, End).
func (r Range) Contains(day time.Time) bool {
	return !day.Before(r.Start) && day.Before(r.End)
}

func (r Range) DayCount() int {
	return DayCount(r.Start, r.End)
}

// Days lists the calendar days covered by r, starting at Start.
func (r Range) Days() []time.Time {
	n := r.DayCount()
	if n <= 0 {
		return nil
	}
	start := Truncate(r.Start)
	days := make([]time.Time, 0, n)
	for i := range n {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}

func (r Range) String() string {
	return Format(r.Start) + "/" + Format(r.End)
}

// Month returns the half-open range covering the given calendar month.
func Month(year int, month time.Month) Range {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: start.AddDate(0, 1, 0)}
}

// MonthDays lists every day of the month in ascending order.
func MonthDays(year int, month time.Month) []time.Time {
	return Month(year, month).Days()
}

// Unique sorts days ascending and drops duplicates after truncating each to
// its calendar date.
func Unique(days []time.Time) []time.Time {
	if len(days) == 0 {
		return nil
	}
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		out = append(out, Truncate(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	n := 1
	for i := 1; i < len(out); i++ {
		if !out[i].Equal(out[n-1]) {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

// Span returns the smallest half-open range covering every day in days.
func Span(days []time.Time) Range {
	u := Unique(days)
	if len(u) == 0 {
		return Range{}
	}
	return Range{Start: u[0], End: u[len(u)-1].Add(Day)}
}
