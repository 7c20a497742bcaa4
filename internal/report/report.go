// Package report composes the period calculator, the record store, and the
// plugin runner into the reporting and upload flows.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/loykin/timelog/internal/period"
	"github.com/loykin/timelog/internal/plugin"
	"github.com/loykin/timelog/internal/record"
)

// ErrNoRecordsInPeriod means the requested period matched nothing. Upload
// refuses to invoke a plugin at all in that case.
var ErrNoRecordsInPeriod = errors.New("no records in selected period")

// Loader is the read side of the record store.
type Loader interface {
	LoadAll() ([]record.TimeRecord, int, error)
}

// Orchestrator drives report and upload. Now is the clock; tests fix it.
type Orchestrator struct {
	Store     Loader
	Runner    plugin.Runner
	PluginDir string
	Now       func() time.Time
}

func NewOrchestrator(store Loader, runner plugin.Runner, pluginDir string) *Orchestrator {
	return &Orchestrator{Store: store, Runner: runner, PluginDir: pluginDir, Now: time.Now}
}

// Report is the computed view for one period.
type Report struct {
	Period  period.Period
	Range   period.Range
	Project string // filter, empty for all
	Records []record.TimeRecord
	TotalMS int64
	Skipped int // malformed store rows that were ignored
}

// Build resolves the period against the current clock, loads the store, and
// filters. Records are sorted by date then task for display; the store's own
// order is not disturbed. Fails with ErrNoRecordsInPeriod when nothing
// matches.
func (o *Orchestrator) Build(p period.Period, project string) (Report, error) {
	rng, err := period.Resolve(p, o.Now())
	if err != nil {
		return Report{}, err
	}
	recs, skipped, err := o.Store.LoadAll()
	if err != nil {
		return Report{}, err
	}
	matched := filter(recs, rng, project)
	if len(matched) == 0 {
		return Report{}, fmt.Errorf("%w: %s", ErrNoRecordsInPeriod, p)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].Task < matched[j].Task
	})
	rep := Report{Period: p, Range: rng, Project: project, Records: matched, Skipped: skipped}
	for _, rec := range matched {
		rep.TotalMS += rec.DurationMS
	}
	return rep, nil
}

func filter(recs []record.TimeRecord, rng period.Range, project string) []record.TimeRecord {
	var out []record.TimeRecord
	for _, rec := range recs {
		if !rng.Contains(rec.Date) {
			continue
		}
		if project != "" && rec.Project != project {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// UploadOutcome reports a completed plugin run.
type UploadOutcome struct {
	Plugin   plugin.Descriptor
	Records  []record.TimeRecord
	Result   plugin.Result
	Warnings []string // discovery warnings (malformed sidecar configs)
}

// Upload selects records for the period, then discovers, selects, and runs a
// plugin. The empty-period check happens before any plugin process is
// spawned. The period token (e.g. "this-week") is what the plugin receives.
func (o *Orchestrator) Upload(ctx context.Context, p period.Period, pluginName string, dryRun bool) (UploadOutcome, error) {
	rng, err := period.Resolve(p, o.Now())
	if err != nil {
		return UploadOutcome{}, err
	}
	recs, _, err := o.Store.LoadAll()
	if err != nil {
		return UploadOutcome{}, err
	}
	matched := filter(recs, rng, "")
	if len(matched) == 0 {
		return UploadOutcome{}, fmt.Errorf("%w: %s", ErrNoRecordsInPeriod, p)
	}

	available, warnings, err := plugin.Discover(o.PluginDir)
	if err != nil {
		return UploadOutcome{}, err
	}
	selected, err := plugin.Select(pluginName, available)
	if err != nil {
		return UploadOutcome{Warnings: warnings}, err
	}
	res, err := o.Runner.Run(ctx, selected, matched, string(p), dryRun)
	if err != nil {
		return UploadOutcome{Plugin: selected, Warnings: warnings}, err
	}
	return UploadOutcome{Plugin: selected, Records: matched, Result: res, Warnings: warnings}, nil
}
