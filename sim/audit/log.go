package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Log is the append-only audit log of a search run. Rows are never rewritten.
// Append is safe for concurrent use, but callers that need a reproducible row
// order should hand over whole batches from one goroutine.
type Log struct {
	mu      sync.Mutex
	w       *csv.Writer
	closer  io.Closer
	summary *Summary
}

// NewLog writes records to w.
func NewLog(w io.Writer) *Log {
	return &Log{w: csv.NewWriter(w), summary: NewSummary()}
}

// OpenLog opens path for appending, creating it and its directory if needed.
func OpenLog(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	l := NewLog(f)
	l.closer = f
	return l, nil
}

// Append writes the records in order and flushes them to the sink.
func (l *Log) Append(records ...Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range records {
		if err := l.w.Write(r.fields()); err != nil {
			return fmt.Errorf("writing audit record: %w", err)
		}
		l.summary.Add(r)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flushing audit log: %w", err)
	}
	return nil
}

// Summary returns a copy of the running aggregate of appended records.
func (l *Log) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := *l.summary
	s.Best = append([]float64(nil), l.summary.Best...)
	return s
}

// Close flushes and closes the underlying file, if the log owns one.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if l.closer == nil {
		return l.w.Error()
	}
	return l.closer.Close()
}
