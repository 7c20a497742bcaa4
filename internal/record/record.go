package record

import (
	"fmt"
	"time"
)

// DateLayout is the on-disk and wire format for record dates.
const DateLayout = "2006-01-02"

// TimeRecord is one completed work interval. Records are immutable once
// appended; Amend is the only sanctioned mutation path.
type TimeRecord struct {
	Task       string    // non-empty, free-form; may embed ids like "PROJ-123: fix bug"
	DurationMS int64     // non-negative milliseconds
	Date       time.Time // calendar date the interval was attributed to
	Project    string    // empty means no project
}

// ParseDate parses a YYYY-MM-DD date string in the local time zone.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return d, nil
}

// Validate checks the record invariants: non-empty task, duration >= 0.
func (r TimeRecord) Validate() error {
	if r.Task == "" {
		return fmt.Errorf("record task must not be empty")
	}
	if r.DurationMS < 0 {
		return fmt.Errorf("record duration must not be negative: %d", r.DurationMS)
	}
	return nil
}

// FormatMS renders milliseconds as HH:MM:SS.mmm.
func FormatMS(ms int64) string {
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

// FormatDuration renders milliseconds compactly as HHhMMm, appending seconds
// only when they are non-zero.
func FormatDuration(ms int64) string {
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if s == 0 {
		return fmt.Sprintf("%02dh%02dm", h, m)
	}
	return fmt.Sprintf("%02dh%02dm%02ds", h, m, s)
}

// ClampNonNegative floors negative elapsed values to zero. Clock skew between
// segments must never produce a negative duration.
func ClampNonNegative(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}
