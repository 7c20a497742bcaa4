package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/loykin/timelog/internal/record"
)

// Input is the single JSON document written to the plugin's stdin.
type Input struct {
	Records []WireRecord    `json:"records"`
	Period  string          `json:"period"`
	Config  json.RawMessage `json:"config"`
}

// WireRecord is the stdin representation of a record. Project serializes as
// null when absent, matching what existing plugins expect.
type WireRecord struct {
	Task       string  `json:"task"`
	DurationMS int64   `json:"duration_ms"`
	Date       string  `json:"date"`
	Project    *string `json:"project"`
}

// Result is the single JSON document read from the plugin's stdout. The
// process exit code is authoritative: a non-zero exit is a failure no matter
// what the payload says.
type Result struct {
	Success       bool     `json:"success"`
	UploadedCount int      `json:"uploaded_count"`
	Message       string   `json:"message"`
	Errors        []string `json:"errors"`
}

// Runner executes a plugin against a record snapshot. The process-backed
// implementation is ProcessRunner; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, d Descriptor, records []record.TimeRecord, period string, dryRun bool) (Result, error)
}

// ProcessRunner spawns the plugin executable, writes the full input to its
// stdin, and reads stdout to completion before parsing. No streaming.
//
// Timeout is a defensive limit on plugin execution; zero (the default)
// disables it, which matches the historical behavior.
type ProcessRunner struct {
	Timeout time.Duration
}

func (r *ProcessRunner) Run(ctx context.Context, d Descriptor, records []record.TimeRecord, period string, dryRun bool) (Result, error) {
	input, err := json.Marshal(buildInput(d, records, period))
	if err != nil {
		return Result{}, fmt.Errorf("serialize plugin input: %w", err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var args []string
	if dryRun {
		args = append(args, "--dry-run")
	}
	cmd := exec.CommandContext(ctx, d.Path, args...)
	// After cancellation, don't wait forever on grandchildren holding the
	// stdout pipe open.
	cmd.WaitDelay = time.Second
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = "no stderr output"
			}
			return Result{}, fmt.Errorf("%w: %s exited with code %d: %s", ErrPluginFailed, d.Name, exit.ExitCode(), msg)
		}
		return Result{}, fmt.Errorf("launch plugin %s: %w", d.Name, err)
	}

	var res Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return Result{}, fmt.Errorf("%w: %s printed unparseable output: %v", ErrInvalidOutput, d.Name, err)
	}
	return res, nil
}

func buildInput(d Descriptor, records []record.TimeRecord, period string) Input {
	in := Input{
		Records: make([]WireRecord, 0, len(records)),
		Period:  period,
		Config:  d.Config,
	}
	if in.Config == nil {
		in.Config = json.RawMessage("{}")
	}
	for _, rec := range records {
		w := WireRecord{
			Task:       rec.Task,
			DurationMS: rec.DurationMS,
			Date:       rec.Date.Format(record.DateLayout),
		}
		if rec.Project != "" {
			project := rec.Project
			w.Project = &project
		}
		in.Records = append(in.Records, w)
	}
	return in
}
