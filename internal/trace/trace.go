// Package trace persists solver iterate histories as JSONL files. The
// numerical core never does I/O; the CLI writes traces so convergence
// behavior can be inspected after a run.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cwbudde/optikit/internal/solver"
)

// Entry is one line of a trace file: a solver iterate plus a timestamp.
type Entry struct {
	// Iteration is the iterate index within the solve.
	Iteration int `json:"iteration"`

	// Value is the objective value at this iterate.
	Value float64 `json:"value"`

	// GradNorm is the gradient (or criterion) norm at this iterate.
	GradNorm float64 `json:"grad_norm"`

	// Step is the step size used to reach this iterate.
	Step float64 `json:"step,omitempty"`

	// Timestamp records when the entry was written.
	Timestamp time.Time `json:"timestamp"`

	// Point is the iterate itself (optional, omitted to save space for
	// high-dimensional problems).
	Point []float64 `json:"point,omitempty"`
}

// Writer appends trace entries to a JSONL file. Buffered, safe for
// concurrent use.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewWriter creates a trace writer at <baseDir>/runs/<runID>/trace.jsonl,
// creating the run directory as needed.
func NewWriter(baseDir, runID string) (*Writer, error) {
	runDir := filepath.Join(baseDir, "runs", runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	path := filepath.Join(runDir, "trace.jsonl")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	return &Writer{
		file:   file,
		writer: bufio.NewWriterSize(file, 64*1024),
		path:   path,
	}, nil
}

// Write appends one entry. The entry is buffered until Flush or Close.
func (w *Writer) Write(entry Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

// WriteHistory appends a whole solve history, including points.
func (w *Writer) WriteHistory(hist solver.History) error {
	now := time.Now()
	for _, it := range hist {
		entry := Entry{
			Iteration: it.K,
			Value:     it.F,
			GradNorm:  it.GradNorm,
			Step:      it.Step,
			Timestamp: now,
			Point:     it.X,
		}
		if err := w.Write(entry); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered data and syncs the file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace writer: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync trace file: %w", err)
	}
	return nil
}

// Close flushes buffered data and closes the trace file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the trace file.
func (w *Writer) Path() string { return w.path }

// Reader reads trace entries back from a JSONL file.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// NewReader opens the trace of the given run.
func NewReader(baseDir, runID string) (*Reader, error) {
	path := filepath.Join(baseDir, "runs", runID, "trace.jsonl")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{file: file, scanner: scanner}, nil
}

// Read returns the next entry, or io.EOF when the trace is exhausted.
func (r *Reader) Read() (*Entry, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan trace line: %w", err)
		}
		return nil, io.EOF
	}

	var entry Entry
	if err := json.Unmarshal(r.scanner.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trace entry: %w", err)
	}
	return &entry, nil
}

// ReadAll reads every remaining entry.
func (r *Reader) ReadAll() ([]Entry, error) {
	var entries []Entry
	for {
		entry, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.file.Close() }
