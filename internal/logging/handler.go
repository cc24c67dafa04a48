package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/V4T54L/grabbag/internal/adapter/metrics"
	"github.com/V4T54L/grabbag/internal/adapter/pii"
	"github.com/V4T54L/grabbag/internal/domain"
)

// processInfo identifies the emitting process on every record.
type processInfo struct {
	name string
	pid  int
}

// Handler is a slog.Handler that fans each record out to a fixed set of
// sinks. Every enabled sink receives the record even when another one fails.
type Handler struct {
	name     string
	sinks    []domain.Sink
	process  processInfo
	redactor *pii.Redactor
	errOut   io.Writer
	metrics  *metrics.SinkMetrics

	attrs  []domain.Attr
	prefix string // open groups, each followed by "."
}

var _ slog.Handler = (*Handler)(nil)

// Enabled reports whether any sink accepts the level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	sev := domain.SeverityFromLevel(level)
	for _, s := range h.sinks {
		if s.Enabled(sev) {
			return true
		}
	}
	return false
}

// Handle delivers r to every enabled sink. Failures are reported to the
// error output and returned joined.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	rec := domain.Record{
		EventID:     uuid.NewString(),
		Time:        r.Time,
		Severity:    domain.SeverityFromLevel(r.Level),
		Message:     r.Message,
		LoggerName:  h.name,
		ProcessName: h.process.name,
		ProcessID:   h.process.pid,
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	rec.Attrs = make([]domain.Attr, len(h.attrs), len(h.attrs)+r.NumAttrs())
	copy(rec.Attrs, h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs = appendAttr(rec.Attrs, h.prefix, a)
		return true
	})
	h.redactor.Redact(&rec)

	var errs []error
	for _, s := range h.sinks {
		if !s.Enabled(rec.Severity) {
			continue
		}
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
			h.reportFailure(s.Name(), err)
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordsTotal.WithLabelValues(s.Name(), rec.Severity.String()).Inc()
		}
	}
	return errors.Join(errs...)
}

func (h *Handler) reportFailure(sink string, err error) {
	if h.metrics != nil {
		h.metrics.SinkErrorsTotal.WithLabelValues(sink).Inc()
	}
	if h.errOut != nil {
		fmt.Fprintf(h.errOut, "logging: sink %s: %v\n", sink, err)
	}
}

// WithAttrs returns a handler whose records carry attrs.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = append([]domain.Attr(nil), h.attrs...)
	for _, a := range attrs {
		h2.attrs = appendAttr(h2.attrs, h.prefix, a)
	}
	return &h2
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// appendAttr flattens a into dst, joining group keys with dots.
func appendAttr(dst []domain.Attr, prefix string, a slog.Attr) []domain.Attr {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return dst
		}
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range group {
			dst = appendAttr(dst, p, ga)
		}
		return dst
	}
	return append(dst, domain.Attr{Key: prefix + a.Key, Value: a.Value})
}
