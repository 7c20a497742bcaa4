package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Store is the append-only record file. Rows are CSV with columns
// task,duration_ms,date,project; legacy files predate the project column and
// are upgraded at read time without rewriting the file.
//
// The file is owned by a single process at a time; there is no locking.
type Store struct {
	path string
}

var header = []string{"task", "duration_ms", "date", "project"}

func NewStore(path string) *Store { return &Store{path: path} }

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Append durably writes one record to the end of the file. Prior rows are
// never touched. A header row is written when the file is new or empty.
func (s *Store) Append(rec TimeRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat record file: %w", err)
	}
	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write record header: %w", err)
		}
	}
	if err := w.Write(encodeRow(rec)); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync record file: %w", err)
	}
	return nil
}

// LoadAll reads every record in file order. Malformed rows are skipped, not
// fatal; the count of skipped rows is returned so callers can warn. A missing
// file yields no records and no error.
func (s *Store) LoadAll() ([]TimeRecord, int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open record file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readAll(f)
}

func readAll(r io.Reader) ([]TimeRecord, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // legacy rows have three columns

	var recs []TimeRecord
	skipped := 0
	first := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if first {
			first = false
			if isHeader(row) {
				continue
			}
		}
		rec, err := decodeRow(row)
		if err != nil {
			skipped++
			continue
		}
		recs = append(recs, rec)
	}
	return recs, skipped, nil
}

func isHeader(row []string) bool {
	return len(row) >= 3 && row[0] == header[0] && row[1] == header[1] && row[2] == header[2]
}

func encodeRow(rec TimeRecord) []string {
	return []string{
		rec.Task,
		strconv.FormatInt(rec.DurationMS, 10),
		rec.Date.Format(DateLayout),
		rec.Project,
	}
}

// decodeRow parses a row in the current four-column format, falling back to
// the legacy three-column layout where project defaults to empty.
func decodeRow(row []string) (TimeRecord, error) {
	if len(row) < 3 {
		return TimeRecord{}, fmt.Errorf("row has %d columns, want at least 3", len(row))
	}
	ms, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return TimeRecord{}, fmt.Errorf("invalid duration %q: %w", row[1], err)
	}
	if ms < 0 {
		return TimeRecord{}, fmt.Errorf("negative duration %d", ms)
	}
	date, err := time.ParseInLocation(DateLayout, row[2], time.Local)
	if err != nil {
		return TimeRecord{}, fmt.Errorf("invalid date %q: %w", row[2], err)
	}
	rec := TimeRecord{Task: row[0], DurationMS: ms, Date: date}
	if rec.Task == "" {
		return TimeRecord{}, fmt.Errorf("empty task")
	}
	if len(row) >= 4 {
		rec.Project = row[3]
	}
	return rec, nil
}

// rewriteAll replaces the file with the given records in the current format.
// Only Amend uses this; Append never rewrites.
func (s *Store) rewriteAll(recs []TimeRecord) error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create record file: %w", err)
	}
	w := csv.NewWriter(f)
	werr := w.Write(header)
	for _, rec := range recs {
		if werr != nil {
			break
		}
		werr = w.Write(encodeRow(rec))
	}
	w.Flush()
	if werr == nil {
		werr = w.Error()
	}
	if werr == nil {
		werr = f.Sync()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rewrite record file: %w", werr)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace record file: %w", err)
	}
	return nil
}
