package period

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned for tokens outside the fixed set below.
var ErrInvalidPeriod = errors.New("invalid period")

// Period is one of the fixed reporting-range tokens.
type Period string

const (
	Today     Period = "today"
	Yesterday Period = "yesterday"
	ThisWeek  Period = "this-week"
	LastWeek  Period = "last-week"
	ThisMonth Period = "this-month"
	LastMonth Period = "last-month"
	YTD       Period = "ytd"
	LastYear  Period = "last-year"
)

// All lists the valid tokens in display order.
var All = []Period{Today, Yesterday, ThisWeek, LastWeek, ThisMonth, LastMonth, YTD, LastYear}

var labels = map[Period]string{
	Today:     "Today",
	Yesterday: "Yesterday",
	ThisWeek:  "This Week",
	LastWeek:  "Last Week",
	ThisMonth: "This Month",
	LastMonth: "Last Month",
	YTD:       "Year To Date",
	LastYear:  "Last Year",
}

// Parse validates a token. Matching is exact and lowercase only.
func Parse(s string) (Period, error) {
	p := Period(s)
	if _, ok := labels[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// Label returns the human title for the period ("Today", "This Week", ...).
func (p Period) Label() string { return labels[p] }

// Range is an inclusive [Start, End] span of calendar dates.
// Start and End are midnight-normalized in the location of the anchor time.
type Range struct {
	Start time.Time
	End   time.Time
	Label string
}

// Contains reports whether date d (any time of day) falls inside the range.
func (r Range) Contains(d time.Time) bool {
	day := Date(d)
	return !day.Before(r.Start) && !day.After(r.End)
}

// Date truncates t to its calendar date, preserving the location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Resolve maps a period token to its inclusive date range anchored at now.
// Weeks start on Monday. The result is deterministic for a fixed now.
func Resolve(p Period, now time.Time) (Range, error) {
	today := Date(now)
	switch p {
	case Today:
		return Range{Start: today, End: today, Label: labels[p]}, nil
	case Yesterday:
		y := today.AddDate(0, 0, -1)
		return Range{Start: y, End: y, Label: labels[p]}, nil
	case ThisWeek:
		return Range{Start: weekStart(today), End: today, Label: labels[p]}, nil
	case LastWeek:
		start := weekStart(today).AddDate(0, 0, -7)
		return Range{Start: start, End: start.AddDate(0, 0, 6), Label: labels[p]}, nil
	case ThisMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return Range{Start: start, End: today, Label: labels[p]}, nil
	case LastMonth:
		thisStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return Range{Start: thisStart.AddDate(0, -1, 0), End: thisStart.AddDate(0, 0, -1), Label: labels[p]}, nil
	case YTD:
		start := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location())
		return Range{Start: start, End: today, Label: labels[p]}, nil
	case LastYear:
		start := time.Date(today.Year()-1, 1, 1, 0, 0, 0, 0, today.Location())
		end := time.Date(today.Year()-1, 12, 31, 0, 0, 0, 0, today.Location())
		return Range{Start: start, End: end, Label: labels[p]}, nil
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
	}
}

// weekStart returns the most recent Monday at or before day.
func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}
