// Package logging builds loggers that fan every record out to a console
// sink, an optional file sink, a critical-only email sink and any extra
// sinks the caller supplies.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/grabbag/internal/adapter/metrics"
	"github.com/V4T54L/grabbag/internal/adapter/pii"
	"github.com/V4T54L/grabbag/internal/adapter/repository/file"
	"github.com/V4T54L/grabbag/internal/domain"
)

// DefaultName is the logger name used when Config.Name is empty.
const DefaultName = "general_log"

// FileMode selects the file sink format.
type FileMode string

const (
	FileModeText FileMode = "log"
	FileModeJSON FileMode = "json"
	FileModeNone FileMode = "none"
)

// ParseFileMode parses a file mode. "text" and "jsonl" are accepted as
// aliases; an empty string means no file.
func ParseFileMode(s string) (FileMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "log", "text":
		return FileModeText, nil
	case "json", "jsonl":
		return FileModeJSON, nil
	case "", "none":
		return FileModeNone, nil
	default:
		return "", fmt.Errorf("unknown log file mode %q", s)
	}
}

// DefaultFilePath returns "<dir>/YYYY_MM_DD_general_log" for now.
func DefaultFilePath(dir string, now time.Time) string {
	return filepath.Join(dir, now.Format("2006_01_02")+"_"+DefaultName)
}

// Config describes a logger. The zero value yields a DEBUG console logger
// named general_log writing to stderr.
type Config struct {
	Name string

	Console      io.Writer // defaults to os.Stderr
	ConsoleLevel domain.Severity
	Color        ColorMode

	FileMode FileMode
	FilePath string // without extension; defaults to DefaultFilePath(cwd, now)
	// FileLevel is the file threshold; nil means INFO.
	FileLevel   *domain.Severity
	FileMaxSize int64

	Email  EmailConfig
	Mailer domain.Mailer // nil selects SMTP through Email.Host

	RedactFields []string
	Extra        []domain.Sink

	ErrorOutput io.Writer // sink failures; defaults to os.Stderr
	Metrics     *metrics.SinkMetrics
	Now         func() time.Time
}

// Logger is a slog.Logger bound to one set of sinks.
type Logger struct {
	*slog.Logger

	name      string
	sinks     []domain.Sink
	closeOnce sync.Once
	closeErr  error
}

// New builds a logger from cfg. Each call opens its own sinks; callers that
// want one instance per name should use a Registry.
func New(cfg Config) (*Logger, error) {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Console == nil {
		cfg.Console = os.Stderr
	}
	if cfg.ErrorOutput == nil {
		cfg.ErrorOutput = os.Stderr
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if !cfg.ConsoleLevel.Valid() {
		return nil, fmt.Errorf("invalid console level %d", cfg.ConsoleLevel)
	}

	sinks := []domain.Sink{NewConsoleSink(cfg.Console, cfg.ConsoleLevel, cfg.Color)}

	fileSink, err := openFileSink(cfg)
	if err != nil {
		return nil, err
	}
	if fileSink != nil {
		sinks = append(sinks, fileSink)
	}

	if cfg.Email.Enabled() {
		sinks = append(sinks, NewEmailSink(cfg.Email, cfg.Mailer, cfg.Metrics))
	}
	sinks = append(sinks, cfg.Extra...)

	h := &Handler{
		name:    cfg.Name,
		sinks:   sinks,
		process: processInfo{name: filepath.Base(os.Args[0]), pid: os.Getpid()},
		errOut:  cfg.ErrorOutput,
		metrics: cfg.Metrics,
	}
	if len(cfg.RedactFields) > 0 {
		h.redactor = pii.NewRedactor(cfg.RedactFields)
	}

	return &Logger{
		Logger: slog.New(h),
		name:   cfg.Name,
		sinks:  sinks,
	}, nil
}

func openFileSink(cfg Config) (*file.Sink, error) {
	mode := cfg.FileMode
	if mode == "" || mode == FileModeNone {
		return nil, nil
	}

	var format file.Format
	switch mode {
	case FileModeText:
		format = file.FormatText
	case FileModeJSON:
		format = file.FormatJSON
	default:
		return nil, fmt.Errorf("unknown log file mode %q", mode)
	}

	base := cfg.FilePath
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default log directory: %w", err)
		}
		base = DefaultFilePath(wd, cfg.Now())
	}

	level := domain.SeverityInfo
	if cfg.FileLevel != nil {
		level = *cfg.FileLevel
	}
	return file.Open(base+"."+string(mode), format, level, cfg.FileMaxSize)
}

// Name returns the logger name.
func (l *Logger) Name() string { return l.name }

// SinkNames lists the attached sinks in delivery order.
func (l *Logger) SinkNames() []string {
	names := make([]string, len(l.sinks))
	for i, s := range l.sinks {
		names[i] = s.Name()
	}
	return names
}

// Critical logs at the CRITICAL level.
func (l *Logger) Critical(msg string, args ...any) {
	l.Log(context.Background(), domain.LevelCritical, msg, args...)
}

// CriticalContext logs at the CRITICAL level with ctx.
func (l *Logger) CriticalContext(ctx context.Context, msg string, args ...any) {
	l.Log(ctx, domain.LevelCritical, msg, args...)
}

// Close releases sinks that hold resources, such as the log file handle.
// It is safe to call more than once.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		var errs []error
		for _, s := range l.sinks {
			if c, ok := s.(io.Closer); ok {
				errs = append(errs, c.Close())
			}
		}
		l.closeErr = errors.Join(errs...)
	})
	return l.closeErr
}
