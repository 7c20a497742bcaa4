package timer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// FileStorage keeps the timer state as one JSON file. File presence is the
// single source of truth for "a task is in progress".
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage { return &FileStorage{path: path} }

func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Load() (State, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("read state file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false, fmt.Errorf("parse state file %s: %w", f.path, err)
	}
	return st, true, nil
}

func (f *FileStorage) Save(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(f.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func (f *FileStorage) Delete() error {
	if err := os.Remove(f.path); err != nil {
		return fmt.Errorf("delete state file: %w", err)
	}
	return nil
}

// MemoryStorage is an in-process Storage for tests and embedding.
type MemoryStorage struct {
	state  State
	exists bool

	// Injectable failures for exercising error paths.
	SaveErr   error
	DeleteErr error
}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

func (m *MemoryStorage) Load() (State, bool, error) { return m.state, m.exists, nil }

func (m *MemoryStorage) Save(st State) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.state = st
	m.exists = true
	return nil
}

func (m *MemoryStorage) Delete() error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.state = State{}
	m.exists = false
	return nil
}
