package record

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoMatch means the date + pattern matched no record.
	ErrNoMatch = errors.New("no matching record")
	// ErrAmbiguousMatch means the pattern matched more than one record; the
	// caller must narrow it. Amend never applies to multiple rows.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrNoChanges means the amendment sets no field at all.
	ErrNoChanges = errors.New("no changes specified")
)

// AmbiguousMatchError carries the candidate records so the CLI can show them.
type AmbiguousMatchError struct {
	Matches []TimeRecord
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match: %d records match, narrow the task pattern", len(e.Matches))
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguousMatch }

// Amendment describes the fields an amend may set. Nil means leave unchanged.
// Project set to the empty string clears the project. DurationMin is whole
// minutes and is converted to the record's millisecond unit.
type Amendment struct {
	Task        *string
	DurationMin *int64
	Project     *string
}

func (a Amendment) empty() bool {
	return a.Task == nil && a.DurationMin == nil && a.Project == nil
}

// AmendResult reports the single matched record, its amended form, and a
// human summary of each change. Applied is false for dry runs.
type AmendResult struct {
	Original TimeRecord
	Amended  TimeRecord
	Changes  []string
	Applied  bool
}

// Amend finds the single record on date whose task contains pattern
// (case-sensitive) and applies the amendment. Dry runs compute the full
// result without touching the file.
func (s *Store) Amend(date time.Time, pattern string, a Amendment, dryRun bool) (AmendResult, error) {
	if a.empty() {
		return AmendResult{}, ErrNoChanges
	}
	if a.DurationMin != nil && *a.DurationMin <= 0 {
		return AmendResult{}, fmt.Errorf("duration must be positive, got %d minutes", *a.DurationMin)
	}

	recs, skipped, err := s.LoadAll()
	if err != nil {
		return AmendResult{}, err
	}
	if skipped > 0 {
		// Rewriting would drop rows we could not parse.
		return AmendResult{}, fmt.Errorf("record file has %d malformed rows; repair it before amending", skipped)
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	var idx []int
	for i, rec := range recs {
		if rec.Date.Equal(day) && strings.Contains(rec.Task, pattern) {
			idx = append(idx, i)
		}
	}
	switch {
	case len(idx) == 0:
		return AmendResult{}, fmt.Errorf("%w for date %s and task pattern %q",
			ErrNoMatch, day.Format(DateLayout), pattern)
	case len(idx) > 1:
		matches := make([]TimeRecord, 0, len(idx))
		for _, i := range idx {
			matches = append(matches, recs[i])
		}
		return AmendResult{}, &AmbiguousMatchError{Matches: matches}
	}

	original := recs[idx[0]]
	amended := original
	var changes []string
	if a.Task != nil {
		amended.Task = *a.Task
		changes = append(changes, fmt.Sprintf("task: %q -> %q", original.Task, amended.Task))
	}
	if a.DurationMin != nil {
		amended.DurationMS = *a.DurationMin * 60 * 1000
		changes = append(changes, fmt.Sprintf("duration: %s -> %s",
			FormatMS(original.DurationMS), FormatMS(amended.DurationMS)))
	}
	if a.Project != nil {
		amended.Project = *a.Project
		changes = append(changes, fmt.Sprintf("project: %s -> %s",
			orNone(original.Project), orNone(amended.Project)))
	}

	res := AmendResult{Original: original, Amended: amended, Changes: changes}
	if dryRun {
		return res, nil
	}
	recs[idx[0]] = amended
	if err := s.rewriteAll(recs); err != nil {
		return AmendResult{}, err
	}
	res.Applied = true
	return res, nil
}

func orNone(project string) string {
	if project == "" {
		return "(none)"
	}
	return project
}
