package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/loykin/timelog/internal/config"
	"github.com/loykin/timelog/internal/period"
	"github.com/loykin/timelog/internal/plugin"
	"github.com/loykin/timelog/internal/record"
	"github.com/loykin/timelog/internal/report"
	"github.com/loykin/timelog/internal/timer"
)

// command binds the handlers to resolved configuration and output streams.
type command struct {
	cfg  config.Config
	log  *slog.Logger
	out  io.Writer
	errW io.Writer
}

func (c *command) store() *record.Store {
	return record.NewStore(c.cfg.RecordPath)
}

func (c *command) machine() *timer.Machine {
	return timer.New(timer.NewFileStorage(c.cfg.StatePath), c.store())
}

func (c *command) orchestrator() *report.Orchestrator {
	runner := &plugin.ProcessRunner{Timeout: c.cfg.PluginTimeout}
	return report.NewOrchestrator(c.store(), runner, c.cfg.PluginDir)
}

func (c *command) Start(task string, f StartFlags) error {
	st, err := c.machine().Start(task, f.Project)
	if err != nil {
		if errors.Is(err, timer.ErrAlreadyRunning) {
			return fmt.Errorf("%w; run `timelog pause` or `timelog stop`", err)
		}
		return err
	}
	fmt.Fprintf(c.out, "started %s%s\n", emph(st.Task), projectSuffix(st.Project))
	return nil
}

func (c *command) Pause() error {
	st, err := c.machine().Pause()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "paused %s  (elapsed %s)\n", emph(st.Task), record.FormatMS(st.AccumulatedMS))
	return nil
}

func (c *command) Resume() error {
	st, err := c.machine().Resume()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "resumed %s\n", emph(st.Task))
	return nil
}

func (c *command) Stop() error {
	rec, err := c.machine().Stop()
	var cleanup *timer.CleanupError
	if err != nil && !errors.As(err, &cleanup) {
		return err
	}
	fmt.Fprintf(c.out, "recorded %s%s  %s on %s\n",
		emph(rec.Task), projectSuffix(rec.Project),
		record.FormatMS(rec.DurationMS), rec.Date.Format(record.DateLayout))
	// The record is durable but the state file survived; surface the
	// inconsistency instead of claiming success.
	return err
}

func (c *command) Status() error {
	snap, err := c.machine().Status()
	if err != nil {
		return err
	}
	if snap.Status == timer.StatusActive {
		fmt.Fprintf(c.out, "%s  %s  since %s  task: %s%s\n",
			emph("active"), record.FormatMS(snap.ElapsedMS), fmtTimestamp(snap.StartedAt),
			emph(snap.Task), projectSuffix(snap.Project))
		return nil
	}
	fmt.Fprintf(c.out, "%s  accumulated %s  task: %s%s\n",
		emph("paused"), record.FormatMS(snap.ElapsedMS),
		emph(snap.Task), projectSuffix(snap.Project))
	return nil
}

func (c *command) Report(periodToken string, f ReportFlags) error {
	p, err := period.Parse(periodToken)
	if err != nil {
		return err
	}
	rep, err := c.orchestrator().Build(p, f.Project)
	if err != nil {
		return err
	}
	if rep.Skipped > 0 {
		fmt.Fprintf(c.errW, "warning: skipped %d malformed record rows\n", rep.Skipped)
		c.log.Warn("malformed rows in record file", "skipped", rep.Skipped, "path", c.cfg.RecordPath)
	}
	report.Render(c.out, rep, emph)
	return nil
}

func (c *command) Amend(dateStr, pattern string, f AmendFlags) error {
	date, err := record.ParseDate(dateStr)
	if err != nil {
		return err
	}
	var a record.Amendment
	if f.NewTaskSet {
		a.Task = &f.NewTask
	}
	if f.NewDurationSet {
		a.DurationMin = &f.NewDurationMin
	}
	if f.NewProjectSet {
		a.Project = &f.NewProject
	}

	res, err := c.store().Amend(date, pattern, a, f.DryRun)
	if err != nil {
		var ambiguous *record.AmbiguousMatchError
		if errors.As(err, &ambiguous) {
			fmt.Fprintf(c.errW, "%d records match; narrow the task pattern:\n", len(ambiguous.Matches))
			for _, m := range ambiguous.Matches {
				fmt.Fprintf(c.errW, "  %s\n", amendCandidate(m))
			}
		}
		return err
	}

	fmt.Fprintln(c.out, "Found record to amend:")
	fmt.Fprintf(c.out, "  %s\n", amendCandidate(res.Original))
	fmt.Fprintln(c.out, "Changes to apply:")
	for _, change := range res.Changes {
		fmt.Fprintf(c.out, "  %s\n", change)
	}
	if !res.Applied {
		fmt.Fprintln(c.out, "Dry run mode - no changes were made")
		return nil
	}
	fmt.Fprintf(c.out, "amended record for %s - %s\n",
		res.Amended.Date.Format(record.DateLayout), res.Amended.Task)
	return nil
}

func amendCandidate(rec record.TimeRecord) string {
	s := fmt.Sprintf("%s - %s - %s", rec.Date.Format(record.DateLayout), rec.Task, record.FormatMS(rec.DurationMS))
	if rec.Project != "" {
		s += fmt.Sprintf(" (project: %s)", rec.Project)
	}
	return s
}

func (c *command) Upload(periodToken string, f UploadFlags) error {
	if f.ListPlugins {
		return c.listPlugins()
	}
	p, err := period.Parse(periodToken)
	if err != nil {
		return err
	}
	outcome, err := c.orchestrator().Upload(context.Background(), p, f.Plugin, f.DryRun)
	for _, warn := range outcome.Warnings {
		fmt.Fprintf(c.errW, "warning: %s\n", warn)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Executing plugin: %s\n", emph(outcome.Plugin.Name))
	if f.DryRun {
		fmt.Fprintln(c.out, "(dry run mode)")
		for _, rec := range outcome.Records {
			fmt.Fprintf(c.out, "%s\n", report.RecordLine(rec, p))
		}
	}
	res := outcome.Result
	if !res.Success {
		fmt.Fprintf(c.errW, "warning: plugin reported failure: %s\n", res.Message)
		for _, e := range res.Errors {
			fmt.Fprintf(c.errW, "warning:   %s\n", e)
		}
		return fmt.Errorf("plugin %s reported failure: %s", outcome.Plugin.Name, res.Message)
	}
	if res.Message != "" {
		fmt.Fprintln(c.out, res.Message)
	}
	fmt.Fprintf(c.out, "Processed %d records\n", res.UploadedCount)
	if len(res.Errors) > 0 {
		fmt.Fprintln(c.errW, "warning: some warnings occurred:")
		for _, e := range res.Errors {
			fmt.Fprintf(c.errW, "warning:   %s\n", e)
		}
	}
	return nil
}

func (c *command) listPlugins() error {
	plugins, warnings, err := plugin.Discover(c.cfg.PluginDir)
	if err != nil {
		return err
	}
	for _, warn := range warnings {
		fmt.Fprintf(c.errW, "warning: %s\n", warn)
	}
	if len(plugins) == 0 {
		fmt.Fprintln(c.out, "No plugins found")
		fmt.Fprintf(c.out, "Place plugin executables in: %s\n", c.cfg.PluginDir)
		fmt.Fprintf(c.out, "They must be named '%s<name>' and be executable\n", plugin.Prefix)
		return nil
	}
	fmt.Fprintln(c.out, "Available plugins:")
	for _, d := range plugins {
		fmt.Fprintf(c.out, "  • %s\n", d.Name)
	}
	return nil
}
