package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/V4T54L/grabbag/internal/domain"
)

const ansiReset = "\x1b[0m"

// ColorMode controls ANSI styling on the console sink.
type ColorMode int

const (
	// ColorAuto styles output only when the writer is a terminal.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses "auto", "always" or "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always", "on", "true":
		return ColorAlways, nil
	case "never", "off", "false":
		return ColorNever, nil
	default:
		return 0, fmt.Errorf("unknown color mode %q", s)
	}
}

// consoleStyle holds the SGR sequence for each field of a console line. An
// empty sequence leaves the field unstyled.
type consoleStyle struct {
	level   string
	time    string
	name    string
	message string
}

var consoleStyles = [domain.SeverityCount]consoleStyle{
	domain.SeverityDebug:    {level: "\x1b[1;37m", name: "\x1b[32;1m"},
	domain.SeverityInfo:     {level: "\x1b[34;1m", name: "\x1b[32;1m"},
	domain.SeverityWarning:  {level: "\x1b[33;1m", name: "\x1b[32;1m", message: "\x1b[33;21m"},
	domain.SeverityError:    {level: "\x1b[31;1m", name: "\x1b[32;1m", message: "\x1b[31;21m"},
	domain.SeverityCritical: {level: "\x1b[37;1;41m", time: "\x1b[37;1;41m", name: "\x1b[37;1;41m", message: "\x1b[37;1;41m"},
}

func init() {
	for s := domain.SeverityDebug; s < domain.SeverityCount; s++ {
		if consoleStyles[s].level == "" {
			panic(fmt.Sprintf("logging: no console style for severity %s", s))
		}
	}
}

func paint(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + ansiReset
}

// formatConsole renders "LEVEL|time|name| message k=v".
func formatConsole(rec domain.Record, color bool) string {
	style := consoleStyle{}
	if color && rec.Severity.Valid() {
		style = consoleStyles[rec.Severity]
	}
	var b strings.Builder
	b.WriteString(paint(style.level, rec.Severity.String()))
	b.WriteByte('|')
	b.WriteString(paint(style.time, rec.Time.Format(domain.TimeLayout)))
	b.WriteByte('|')
	b.WriteString(paint(style.name, rec.LoggerName))
	b.WriteByte('|')
	b.WriteString(paint(style.message, " "+rec.Message+rec.AttrText()))
	return b.String()
}

// ConsoleSink writes one styled line per record to a terminal stream.
type ConsoleSink struct {
	mu    sync.Mutex
	w     io.Writer
	min   domain.Severity
	color bool
}

// NewConsoleSink creates a console sink writing to w.
func NewConsoleSink(w io.Writer, min domain.Severity, mode ColorMode) *ConsoleSink {
	color := mode == ColorAlways
	if mode == ColorAuto {
		if f, ok := w.(*os.File); ok {
			color = term.IsTerminal(int(f.Fd()))
		}
	}
	return &ConsoleSink{w: w, min: min, color: color}
}

func (s *ConsoleSink) Name() string { return "console" }

func (s *ConsoleSink) Enabled(sev domain.Severity) bool { return sev >= s.min }

func (s *ConsoleSink) Write(ctx context.Context, rec domain.Record) error {
	line := formatConsole(rec, s.color) + "\n"
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, line)
	return err
}
