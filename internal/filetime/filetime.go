// Package filetime reports the calendar date a file was created or last
// modified.
package filetime

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/djherbis/times"
)

// DateLayout is the ISO-8601 calendar date layout returned by Date.
const DateLayout = "2006-01-02"

var (
	// ErrPathNotFound is returned when a path does not exist or cannot be
	// stat'ed.
	ErrPathNotFound = errors.New("path not found")

	// ErrUnknownMode is returned by ParseMode for anything but created/modified.
	ErrUnknownMode = errors.New("unknown timestamp mode")
)

// Mode selects which file timestamp is read.
type Mode int

const (
	Created Mode = iota
	Modified
)

func (m Mode) String() string {
	switch m {
	case Created:
		return "created"
	case Modified:
		return "modified"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "created" or "modified" (also "ctime"/"mtime").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "created", "ctime":
		return Created, nil
	case "modified", "mtime":
		return Modified, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Time returns the raw timestamp for path. Created uses the birth time when
// the filesystem records one and falls back to the inode change time.
func Time(path string, mode Mode) (time.Time, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrPathNotFound, path, err)
	}
	switch mode {
	case Created:
		if ts.HasBirthTime() {
			return ts.BirthTime(), nil
		}
		if ts.HasChangeTime() {
			return ts.ChangeTime(), nil
		}
		return ts.ModTime(), nil
	case Modified:
		return ts.ModTime(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}

// Date returns the local calendar date (YYYY-MM-DD) of the selected
// timestamp. The time of day is discarded.
func Date(path string, mode Mode) (string, error) {
	t, err := Time(path, mode)
	if err != nil {
		return "", err
	}
	return t.Local().Format(DateLayout), nil
}
