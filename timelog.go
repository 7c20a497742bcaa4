package timelog

import (
	"context"

	"github.com/loykin/timelog/internal/config"
	"github.com/loykin/timelog/internal/period"
	"github.com/loykin/timelog/internal/plugin"
	"github.com/loykin/timelog/internal/record"
	"github.com/loykin/timelog/internal/report"
	"github.com/loykin/timelog/internal/timer"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type TimeRecord = record.TimeRecord

type Amendment = record.Amendment

type AmendResult = record.AmendResult

type Period = period.Period

type Range = period.Range

type State = timer.State

type Snapshot = timer.Snapshot

type Report = report.Report

type UploadOutcome = report.UploadOutcome

type PluginResult = plugin.Result

type Config = config.Config

// LoadConfig resolves configuration from the default file location and the
// environment.
func LoadConfig() (Config, error) { return config.Load() }

// ParsePeriod validates a period token such as "today" or "this-week".
func ParsePeriod(token string) (Period, error) { return period.Parse(token) }

// Tracker is a thin facade over the internal packages.
// It provides a stable public API for embedding.

type Tracker struct {
	store   *record.Store
	machine *timer.Machine
	orch    *report.Orchestrator
}

func New(cfg Config) *Tracker {
	store := record.NewStore(cfg.RecordPath)
	runner := &plugin.ProcessRunner{Timeout: cfg.PluginTimeout}
	return &Tracker{
		store:   store,
		machine: timer.New(timer.NewFileStorage(cfg.StatePath), store),
		orch:    report.NewOrchestrator(store, runner, cfg.PluginDir),
	}
}

func (t *Tracker) Start(task, project string) (State, error) { return t.machine.Start(task, project) }
func (t *Tracker) Pause() (State, error)                     { return t.machine.Pause() }
func (t *Tracker) Resume() (State, error)                    { return t.machine.Resume() }
func (t *Tracker) Stop() (TimeRecord, error)                 { return t.machine.Stop() }
func (t *Tracker) Status() (Snapshot, error)                 { return t.machine.Status() }

func (t *Tracker) Records() ([]TimeRecord, int, error) { return t.store.LoadAll() }

func (t *Tracker) Report(p Period, project string) (Report, error) {
	return t.orch.Build(p, project)
}

func (t *Tracker) Amend(date string, pattern string, a Amendment, dryRun bool) (AmendResult, error) {
	d, err := record.ParseDate(date)
	if err != nil {
		return AmendResult{}, err
	}
	return t.store.Amend(d, pattern, a, dryRun)
}

func (t *Tracker) Upload(ctx context.Context, p Period, pluginName string, dryRun bool) (UploadOutcome, error) {
	return t.orch.Upload(ctx, p, pluginName, dryRun)
}
