package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/V4T54L/grabbag/internal/domain"
)

func setupTestSink(t *testing.T, format Format, maxSize int64) *Sink {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "general_log.log")
	sink, err := Open(path, format, domain.SeverityInfo, maxSize)
	if err != nil {
		t.Fatalf("failed to open file sink: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func record(msg string, sev domain.Severity) domain.Record {
	return domain.Record{
		EventID:    uuid.NewString(),
		Time:       time.Date(2024, 1, 31, 10, 0, 0, 0, time.Local),
		Severity:   sev,
		Message:    msg,
		LoggerName: "general_log",
		ProcessID:  1,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan %s: %v", path, err)
	}
	return lines
}

func TestFileSink_TextAppendAcrossReopen(t *testing.T) {
	sink := setupTestSink(t, FormatText, 0)

	for _, msg := range []string{"event 1", "event 2"} {
		if err := sink.Write(context.Background(), record(msg, domain.SeverityInfo)); err != nil {
			t.Fatalf("failed to write record: %v", err)
		}
	}
	sink.Close()

	// Re-open to simulate a restart; the file must be appended to, not truncated.
	reopened, err := Open(sink.Path(), FormatText, domain.SeverityInfo, 0)
	if err != nil {
		t.Fatalf("failed to re-open file sink: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Write(context.Background(), record("event 3", domain.SeverityError)); err != nil {
		t.Fatalf("failed to write record: %v", err)
	}

	lines := readLines(t, sink.Path())
	want := []string{
		"2024-01-31 10:00:00 - general_log - INFO - event 1",
		"2024-01-31 10:00:00 - general_log - INFO - event 2",
		"2024-01-31 10:00:00 - general_log - ERROR - event 3",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFileSink_JSONLines(t *testing.T) {
	sink := setupTestSink(t, FormatJSON, 0)

	records := []domain.Record{record("event 1", domain.SeverityInfo), record("event 2", domain.SeverityCritical)}
	for _, rec := range records {
		if err := sink.Write(context.Background(), rec); err != nil {
			t.Fatalf("failed to write record: %v", err)
		}
	}

	lines := readLines(t, sink.Path())
	if len(lines) != len(records) {
		t.Fatalf("expected %d lines, got %d", len(records), len(lines))
	}
	for i, line := range lines {
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Fatalf("line %d is not a standalone JSON object: %v", i, err)
		}
		if obj["eventID"] != records[i].EventID || obj["message"] != records[i].Message {
			t.Errorf("line %d mismatch: got %v", i, obj)
		}
	}
}

func TestFileSink_Enabled(t *testing.T) {
	sink := setupTestSink(t, FormatText, 0)
	if sink.Enabled(domain.SeverityDebug) {
		t.Error("debug records should be below the file threshold")
	}
	if !sink.Enabled(domain.SeverityInfo) || !sink.Enabled(domain.SeverityCritical) {
		t.Error("info and above should be enabled")
	}
}

func TestFileSink_Rotation(t *testing.T) {
	// Set a very small size to force rotation
	sink := setupTestSink(t, FormatText, 100)

	rec := record("a message long enough to cause rotation of the file", domain.SeverityInfo)
	for i := 0; i < 4; i++ {
		if err := sink.Write(context.Background(), rec); err != nil {
			t.Fatalf("failed to write record: %v", err)
		}
	}

	rotated, err := sink.Rotated()
	if err != nil {
		t.Fatalf("failed to list rotated files: %v", err)
	}
	if len(rotated) < 2 {
		t.Errorf("expected at least 2 rotated files, got %d", len(rotated))
	}
	if lines := readLines(t, sink.Path()); len(lines) != 1 {
		t.Errorf("expected the live file to hold 1 line, got %d", len(lines))
	}
}

func TestFileSink_WriteAfterClose(t *testing.T) {
	sink := setupTestSink(t, FormatText, 0)
	if err := sink.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}

	err := sink.Write(context.Background(), record("late", domain.SeverityInfo))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
