package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/loykin/timelog/internal/record"
)

// The machine has three states: Absent (no persisted state), Active, Paused.
// Stop is valid only from Active; a paused task must be resumed first. The
// persisted file existing is exactly equivalent to a task being in progress.

var (
	ErrAlreadyRunning = errors.New("a task is already in progress")
	ErrNotActive      = errors.New("no active task")
	ErrNotPaused      = errors.New("no paused task")
	ErrNoActiveTask   = errors.New("no task in progress")
)

// Status of a persisted timer.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

// State is the single-slot persisted timer. AccumulatedMS holds time from
// completed run segments; StartedAt marks the current segment and is only
// meaningful while Active.
type State struct {
	Task          string    `json:"task"`
	Project       string    `json:"project,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	AccumulatedMS int64     `json:"accumulated_ms"`
	Status        Status    `json:"status"`
}

// Storage persists the single timer state. Implementations report existence
// explicitly so the machine can distinguish Absent from a read failure.
type Storage interface {
	Load() (State, bool, error)
	Save(State) error
	Delete() error
}

// Appender receives the finished record on stop. *record.Store satisfies it.
type Appender interface {
	Append(record.TimeRecord) error
}

// CleanupError reports a stop whose record was appended but whose state file
// could not be removed. The record is already durable; the machine is left
// inconsistent and the caller must say so rather than claim success.
type CleanupError struct {
	Record record.TimeRecord
	Err    error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("record saved but state file not removed: %v", e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// Machine drives the start/pause/resume/stop transitions over injected
// storage and record sinks. Now is the clock; tests fix it.
type Machine struct {
	storage  Storage
	appender Appender
	Now      func() time.Time
}

func New(storage Storage, appender Appender) *Machine {
	return &Machine{storage: storage, appender: appender, Now: time.Now}
}

// Start begins a new active task. It fails if any state exists, paused or not.
func (m *Machine) Start(task, project string) (State, error) {
	if task == "" {
		return State{}, fmt.Errorf("task name must not be empty")
	}
	if _, exists, err := m.storage.Load(); err != nil {
		return State{}, err
	} else if exists {
		return State{}, ErrAlreadyRunning
	}
	st := State{
		Task:      task,
		Project:   project,
		StartedAt: m.Now(),
		Status:    StatusActive,
	}
	if err := m.storage.Save(st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Pause folds the running segment into AccumulatedMS and parks the timer.
func (m *Machine) Pause() (State, error) {
	st, exists, err := m.storage.Load()
	if err != nil {
		return State{}, err
	}
	if !exists || st.Status != StatusActive {
		return State{}, ErrNotActive
	}
	st.AccumulatedMS += record.ClampNonNegative(m.Now().Sub(st.StartedAt).Milliseconds())
	st.StartedAt = time.Time{}
	st.Status = StatusPaused
	if err := m.storage.Save(st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Resume restarts a paused timer with a fresh segment.
func (m *Machine) Resume() (State, error) {
	st, exists, err := m.storage.Load()
	if err != nil {
		return State{}, err
	}
	if !exists || st.Status != StatusPaused {
		return State{}, ErrNotPaused
	}
	st.StartedAt = m.Now()
	st.Status = StatusActive
	if err := m.storage.Save(st); err != nil {
		return State{}, err
	}
	return st, nil
}

// Stop finishes the active task: the total duration is appended to the record
// sink, then the state file is deleted. Stopping a paused task is rejected;
// resume it first. If the append succeeds but the delete fails, the finished
// record is returned together with a *CleanupError.
func (m *Machine) Stop() (record.TimeRecord, error) {
	st, exists, err := m.storage.Load()
	if err != nil {
		return record.TimeRecord{}, err
	}
	if !exists {
		return record.TimeRecord{}, ErrNoActiveTask
	}
	if st.Status != StatusActive {
		return record.TimeRecord{}, fmt.Errorf("%w: task %q is paused, resume it before stopping", ErrNotActive, st.Task)
	}
	now := m.Now()
	total := st.AccumulatedMS + record.ClampNonNegative(now.Sub(st.StartedAt).Milliseconds())
	rec := record.TimeRecord{
		Task:       st.Task,
		DurationMS: total,
		Date:       dateOf(now),
		Project:    st.Project,
	}
	if err := m.appender.Append(rec); err != nil {
		return record.TimeRecord{}, err
	}
	if err := m.storage.Delete(); err != nil {
		return rec, &CleanupError{Record: rec, Err: err}
	}
	return rec, nil
}

// Snapshot is the read-only view returned by Status.
type Snapshot struct {
	State
	ElapsedMS int64 // accumulated plus the running segment when Active
}

// Status reports the current state without mutating anything.
func (m *Machine) Status() (Snapshot, error) {
	st, exists, err := m.storage.Load()
	if err != nil {
		return Snapshot{}, err
	}
	if !exists {
		return Snapshot{}, ErrNoActiveTask
	}
	elapsed := st.AccumulatedMS
	if st.Status == StatusActive {
		elapsed += record.ClampNonNegative(m.Now().Sub(st.StartedAt).Milliseconds())
	}
	return Snapshot{State: st, ElapsedMS: elapsed}, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
