package domain

import (
	"fmt"
	"log/slog"
	"strings"
)

// Severity is the urgency of a log record, ordered from Debug to Critical.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical

	// SeverityCount is the number of defined severities.
	SeverityCount
)

// LevelCritical extends slog's levels with a step above LevelError.
const LevelCritical = slog.LevelError + 4

var severityNames = [SeverityCount]string{
	SeverityDebug:    "DEBUG",
	SeverityInfo:     "INFO",
	SeverityWarning:  "WARNING",
	SeverityError:    "ERROR",
	SeverityCritical: "CRITICAL",
}

func (s Severity) String() string {
	if s < 0 || s >= SeverityCount {
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
	return severityNames[s]
}

// Valid reports whether s is one of the defined severities.
func (s Severity) Valid() bool {
	return s >= SeverityDebug && s < SeverityCount
}

// Level returns the slog level used to emit records of this severity.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return LevelCritical
	}
}

// SeverityFromLevel buckets an arbitrary slog level into a severity.
// Levels between the named ones round down.
func SeverityFromLevel(l slog.Level) Severity {
	switch {
	case l < slog.LevelInfo:
		return SeverityDebug
	case l < slog.LevelWarn:
		return SeverityInfo
	case l < slog.LevelError:
		return SeverityWarning
	case l < LevelCritical:
		return SeverityError
	default:
		return SeverityCritical
	}
}

// ParseSeverity parses a severity name, case-insensitively. "warn" is accepted
// as an alias for WARNING.
func ParseSeverity(s string) (Severity, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARN" {
		return SeverityWarning, nil
	}
	for i, n := range severityNames {
		if n == name {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}
