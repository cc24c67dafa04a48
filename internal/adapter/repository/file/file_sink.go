package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/grabbag/internal/domain"
)

const (
	filePerm    = 0644
	rotatedStem = ".rotated-"
)

// ErrClosed is returned when writing to a closed sink.
var ErrClosed = errors.New("file sink is closed")

// Format selects the on-disk encoding of records.
type Format int

const (
	// FormatText writes one human readable line per record.
	FormatText Format = iota
	// FormatJSON writes one compact JSON object per line (JSON lines).
	FormatJSON
)

// Sink appends records to a single file that stays open until Close.
type Sink struct {
	path    string
	format  Format
	min     domain.Severity
	maxSize int64

	mu          sync.Mutex
	file        *os.File
	currentSize int64
}

// Open creates (or reopens for append) the file at path. Parent directories
// are created. When maxSize is positive the file is rotated aside once a
// write would grow it past maxSize.
func Open(path string, format Format, min domain.Severity, maxSize int64) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}

	s := &Sink{
		path:    path,
		format:  format,
		min:     min,
		maxSize: maxSize,
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Name implements domain.Sink.
func (s *Sink) Name() string { return "file" }

// Path returns the file being written.
func (s *Sink) Path() string { return s.path }

// Enabled implements domain.Sink.
func (s *Sink) Enabled(sev domain.Severity) bool { return sev >= s.min }

// Write appends rec as a single line.
func (s *Sink) Write(ctx context.Context, rec domain.Record) error {
	data, err := s.encode(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return ErrClosed
	}

	if s.maxSize > 0 && s.currentSize > 0 && s.currentSize+int64(len(data)) > s.maxSize {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	n, err := s.file.Write(data)
	s.currentSize += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write to log file %s: %w", s.path, err)
	}
	return nil
}

func (s *Sink) encode(rec domain.Record) ([]byte, error) {
	switch s.format {
	case FormatJSON:
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal log record: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return []byte(rec.PlainText() + "\n"), nil
	}
}

// Close syncs and closes the file. Closing twice is a no-op.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	syncErr := s.file.Sync()
	closeErr := s.file.Close()
	s.file = nil
	return errors.Join(syncErr, closeErr)
}

// Rotated lists the files previously rotated aside, oldest first.
func (s *Sink) Rotated() ([]string, error) {
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	var rotated []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), base+rotatedStem) {
			rotated = append(rotated, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(rotated)
	return rotated, nil
}

func (s *Sink) open() error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", s.path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file %s: %w", s.path, err)
	}
	s.file = f
	s.currentSize = stat.Size()
	return nil
}

func (s *Sink) rotate() error {
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file before rotating: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file before rotating: %w", err)
	}
	s.file = nil

	target := fmt.Sprintf("%s%s%d", s.path, rotatedStem, time.Now().UnixNano())
	if err := os.Rename(s.path, target); err != nil {
		return errors.Join(fmt.Errorf("failed to rotate log file %s: %w", s.path, err), s.open())
	}
	return s.open()
}
