package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/loykin/timelog/internal/config"
	"github.com/loykin/timelog/internal/record"
	"github.com/loykin/timelog/internal/timer"
)

func newTestCommand(t *testing.T) (*command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	out := &bytes.Buffer{}
	errW := &bytes.Buffer{}
	c := &command{
		cfg: config.Config{
			RecordPath: filepath.Join(dir, "records.csv"),
			StatePath:  filepath.Join(dir, "state.json"),
			PluginDir:  filepath.Join(dir, "plugins"),
		},
		log:  slog.New(slog.NewTextHandler(errW, nil)),
		out:  out,
		errW: errW,
	}
	return c, out, errW
}

func TestStartStopReportFlow(t *testing.T) {
	c, out, _ := newTestCommand(t)

	if err := c.Start("writing tests", StartFlags{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(out.String(), "started writing tests") {
		t.Fatalf("unexpected start output %q", out.String())
	}
	if _, err := os.Stat(c.cfg.StatePath); err != nil {
		t.Fatalf("state file missing while running: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	out.Reset()
	if err := c.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !strings.Contains(out.String(), "recorded writing tests") {
		t.Fatalf("unexpected stop output %q", out.String())
	}
	if _, err := os.Stat(c.cfg.StatePath); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("state file should be gone after stop")
	}

	recs, _, err := record.NewStore(c.cfg.RecordPath).LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].DurationMS <= 0 {
		t.Fatalf("expected one record with non-zero duration, got %+v", recs)
	}

	out.Reset()
	if err := c.Report("today", ReportFlags{}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out.String(), "writing tests") || !strings.Contains(out.String(), "Today report") {
		t.Fatalf("unexpected report output:\n%s", out.String())
	}
}

func TestStartWhileRunning(t *testing.T) {
	c, _, _ := newTestCommand(t)
	if err := c.Start("one", StartFlags{}); err != nil {
		t.Fatal(err)
	}
	err := c.Start("two", StartFlags{})
	if !errors.Is(err, timer.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestPauseResumeStatus(t *testing.T) {
	c, out, _ := newTestCommand(t)
	if err := c.Start("deep work", StartFlags{Project: "acme"}); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := c.Status(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "active") || !strings.Contains(out.String(), "deep work") ||
		!strings.Contains(out.String(), "in project acme") {
		t.Fatalf("unexpected status output %q", out.String())
	}

	out.Reset()
	if err := c.Pause(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "paused deep work") {
		t.Fatalf("unexpected pause output %q", out.String())
	}

	out.Reset()
	if err := c.Status(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "paused") || !strings.Contains(out.String(), "accumulated") {
		t.Fatalf("unexpected paused status %q", out.String())
	}

	out.Reset()
	if err := c.Resume(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "resumed deep work") {
		t.Fatalf("unexpected resume output %q", out.String())
	}
}

func TestStatusWithNoTask(t *testing.T) {
	c, _, _ := newTestCommand(t)
	if err := c.Status(); !errors.Is(err, timer.ErrNoActiveTask) {
		t.Fatalf("expected ErrNoActiveTask, got %v", err)
	}
}

func TestReportInvalidPeriod(t *testing.T) {
	c, _, _ := newTestCommand(t)
	if err := c.Report("Tomorrow", ReportFlags{}); err == nil {
		t.Fatal("expected invalid period error")
	}
}

func seedRecords(t *testing.T, c *command, recs ...record.TimeRecord) {
	t.Helper()
	store := record.NewStore(c.cfg.RecordPath)
	for _, rec := range recs {
		if err := store.Append(rec); err != nil {
			t.Fatal(err)
		}
	}
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestAmendDryRunAndApply(t *testing.T) {
	c, out, _ := newTestCommand(t)
	seedRecords(t, c, record.TimeRecord{Task: "compile", DurationMS: 60000, Date: today()})
	dateStr := today().Format(record.DateLayout)

	err := c.Amend(dateStr, "compile", AmendFlags{
		NewDurationMin: 25, NewDurationSet: true, DryRun: true,
	})
	if err != nil {
		t.Fatalf("amend dry run: %v", err)
	}
	if !strings.Contains(out.String(), "Dry run mode") {
		t.Fatalf("missing dry run notice:\n%s", out.String())
	}

	out.Reset()
	err = c.Amend(dateStr, "compile", AmendFlags{
		NewTask: "compile v2", NewTaskSet: true,
	})
	if err != nil {
		t.Fatalf("amend: %v", err)
	}
	if !strings.Contains(out.String(), "amended record for") {
		t.Fatalf("missing success line:\n%s", out.String())
	}
	recs, _, _ := record.NewStore(c.cfg.RecordPath).LoadAll()
	if len(recs) != 1 || recs[0].Task != "compile v2" {
		t.Fatalf("amend not applied: %+v", recs)
	}
}

func TestAmendAmbiguousListsCandidates(t *testing.T) {
	c, _, errW := newTestCommand(t)
	seedRecords(t, c,
		record.TimeRecord{Task: "write tests", DurationMS: 1000, Date: today()},
		record.TimeRecord{Task: "write docs", DurationMS: 2000, Date: today()},
	)
	err := c.Amend(today().Format(record.DateLayout), "write", AmendFlags{NewTask: "x", NewTaskSet: true})
	if !errors.Is(err, record.ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
	if !strings.Contains(errW.String(), "write tests") || !strings.Contains(errW.String(), "write docs") {
		t.Fatalf("candidates not listed:\n%s", errW.String())
	}
}

func TestAmendInvalidDate(t *testing.T) {
	c, _, _ := newTestCommand(t)
	if err := c.Amend("15/01/2024", "x", AmendFlags{NewTask: "y", NewTaskSet: true}); err == nil {
		t.Fatal("expected invalid date error")
	}
}

func TestUploadListPluginsEmpty(t *testing.T) {
	c, out, _ := newTestCommand(t)
	if err := c.Upload("", UploadFlags{ListPlugins: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No plugins found") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if !strings.Contains(out.String(), c.cfg.PluginDir) {
		t.Fatal("setup instructions should name the plugin directory")
	}
}

func TestUploadEndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix shell")
	}
	c, out, _ := newTestCommand(t)
	seedRecords(t, c, record.TimeRecord{Task: "billable", DurationMS: 60000, Date: today(), Project: "acme"})

	if err := os.MkdirAll(c.cfg.PluginDir, 0o755); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat >/dev/null\necho '{\"success\": true, \"uploaded_count\": 1, \"message\": \"uploaded\", \"errors\": []}'\n"
	if err := os.WriteFile(filepath.Join(c.cfg.PluginDir, "timelog-fake"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := c.Upload("today", UploadFlags{}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "Executing plugin: fake") || !strings.Contains(s, "uploaded") ||
		!strings.Contains(s, "Processed 1 records") {
		t.Fatalf("unexpected upload output:\n%s", s)
	}
}

func TestUploadDryRunShowsRecords(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix shell")
	}
	c, out, _ := newTestCommand(t)
	seedRecords(t, c, record.TimeRecord{Task: "billable", DurationMS: 60000, Date: today()})

	if err := os.MkdirAll(c.cfg.PluginDir, 0o755); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat >/dev/null\nprintf '{\"success\": true, \"uploaded_count\": 0, \"message\": \"%s\", \"errors\": []}' \"$1\"\n"
	if err := os.WriteFile(filepath.Join(c.cfg.PluginDir, "timelog-fake"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := c.Upload("today", UploadFlags{DryRun: true}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "(dry run mode)") || !strings.Contains(s, "• billable") {
		t.Fatalf("dry run should list the records to send:\n%s", s)
	}
	// The plugin saw the --dry-run argument.
	if !strings.Contains(s, "--dry-run") {
		t.Fatalf("plugin did not receive --dry-run:\n%s", s)
	}
}

func TestUploadEmptyPeriod(t *testing.T) {
	c, _, _ := newTestCommand(t)
	seedRecords(t, c, record.TimeRecord{Task: "old", DurationMS: 1, Date: today().AddDate(0, 0, -30)})
	if err := c.Upload("today", UploadFlags{}); err == nil {
		t.Fatal("expected NoRecordsInPeriod error")
	}
}

func TestBuildRootWiring(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv(config.EnvRecordPath, filepath.Join(dir, "records.csv"))
	t.Setenv(config.EnvStatePath, filepath.Join(dir, "state.json"))
	t.Setenv(config.EnvPluginDir, filepath.Join(dir, "plugins"))

	root := buildRoot()
	root.SetArgs([]string{"status"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	if !errors.Is(err, timer.ErrNoActiveTask) {
		t.Fatalf("expected ErrNoActiveTask from bare status, got %v", err)
	}
}
