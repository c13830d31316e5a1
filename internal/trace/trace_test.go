package trace

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/optikit/internal/solver"
)

func TestWriterWriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-123"

	writer, err := NewWriter(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	entries := []Entry{
		{Iteration: 0, Value: 10, GradNorm: 4, Timestamp: time.Now()},
		{Iteration: 1, Value: 5, GradNorm: 2, Step: 0.5, Timestamp: time.Now()},
		{Iteration: 2, Value: 1, GradNorm: 0.1, Step: 0.25, Timestamp: time.Now(), Point: []float64{1, 2}},
	}
	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(got))
	}
	for i, entry := range got {
		if entry.Iteration != entries[i].Iteration {
			t.Errorf("Entry %d: expected iteration %d, got %d", i, entries[i].Iteration, entry.Iteration)
		}
		if entry.Value != entries[i].Value {
			t.Errorf("Entry %d: expected value %g, got %g", i, entries[i].Value, entry.Value)
		}
	}
	if got[2].Point == nil {
		t.Error("Expected point on third entry")
	}
	if got[0].Point != nil {
		t.Error("Expected omitted point on first entry")
	}
}

func TestReaderSequentialRead(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "seq-run"

	writer, err := NewWriter(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	for i := 0; i < 3; i++ {
		entry := Entry{Iteration: i, Value: float64(3 - i), Timestamp: time.Now()}
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	for i := 0; i < 3; i++ {
		entry, err := reader.Read()
		if err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		if entry.Iteration != i {
			t.Errorf("Expected iteration %d, got %d", i, entry.Iteration)
		}
	}
	if _, err := reader.Read(); err != io.EOF {
		t.Errorf("Expected EOF after last entry, got %v", err)
	}
}

func TestWriteHistory(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "hist-run"

	hist := solver.History{
		{X: []float64{2, 2}, F: 8, GradNorm: 5.6, K: 0},
		{X: []float64{1, 1}, F: 2, GradNorm: 2.8, K: 1, Step: 0.5},
		{X: []float64{0, 0}, F: 0, GradNorm: 0, K: 2, Step: 0.5},
	}

	writer, err := NewWriter(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	if err := writer.WriteHistory(hist); err != nil {
		t.Fatalf("Failed to write history: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(got) != len(hist) {
		t.Fatalf("Expected %d entries, got %d", len(hist), len(got))
	}
	for i, entry := range got {
		if entry.Value != hist[i].F {
			t.Errorf("Entry %d: expected value %g, got %g", i, hist[i].F, entry.Value)
		}
		if len(entry.Point) != len(hist[i].X) {
			t.Errorf("Entry %d: expected point of length %d", i, len(hist[i].X))
		}
	}
}

func TestFlushMakesDataVisible(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "flush-run"

	writer, err := NewWriter(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	if err := writer.Write(Entry{Iteration: 0, Value: 1, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "runs", runID, "trace.jsonl"))
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected flushed data on disk")
	}
}
