package logging

import (
	"context"
	"errors"
	"math"
	"strings"

	"golang.org/x/time/rate"

	"github.com/V4T54L/grabbag/internal/adapter/mail"
	"github.com/V4T54L/grabbag/internal/adapter/metrics"
	"github.com/V4T54L/grabbag/internal/domain"
)

// DefaultEmailSubject is used when EmailConfig.Subject is empty.
const DefaultEmailSubject = "CRITICAL level triggered"

// ErrEmailRateLimited is reported when a critical email is dropped by the
// rate limit.
var ErrEmailRateLimited = errors.New("critical email suppressed by rate limit")

// EmailConfig describes the critical-event email sink.
type EmailConfig struct {
	From     string
	To       []string
	Subject  string
	Host     string // relay, "host" or "host:port"
	Username string
	Password string
	StartTLS mail.StartTLSPolicy

	// PerMinute caps the number of emails sent per minute. Zero means no cap.
	PerMinute float64
}

// Enabled reports whether a sender and at least one recipient are set.
func (c EmailConfig) Enabled() bool {
	if strings.TrimSpace(c.From) == "" {
		return false
	}
	for _, to := range c.To {
		if strings.TrimSpace(to) != "" {
			return true
		}
	}
	return false
}

// EmailSink mails CRITICAL records.
type EmailSink struct {
	mailer  domain.Mailer
	cfg     EmailConfig
	limiter *rate.Limiter
	metrics *metrics.SinkMetrics
}

// NewEmailSink creates an email sink. A nil mailer selects SMTP delivery
// through cfg.Host.
func NewEmailSink(cfg EmailConfig, mailer domain.Mailer, m *metrics.SinkMetrics) *EmailSink {
	if cfg.Subject == "" {
		cfg.Subject = DefaultEmailSubject
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	var to []string
	for _, addr := range cfg.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	cfg.To = to

	if mailer == nil {
		mailer = mail.NewSMTPMailer(cfg.Host, cfg.Username, cfg.Password, mail.WithStartTLS(cfg.StartTLS))
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.PerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.PerMinute/60), int(math.Ceil(cfg.PerMinute)))
	}

	return &EmailSink{mailer: mailer, cfg: cfg, limiter: limiter, metrics: m}
}

func (s *EmailSink) Name() string { return "email" }

// Enabled is true for CRITICAL only.
func (s *EmailSink) Enabled(sev domain.Severity) bool { return sev >= domain.SeverityCritical }

func (s *EmailSink) Write(ctx context.Context, rec domain.Record) error {
	if !s.limiter.Allow() {
		if s.metrics != nil {
			s.metrics.EmailsSuppressed.Inc()
		}
		return ErrEmailRateLimited
	}

	msg, err := mail.Compose(mail.Envelope{
		From:    s.cfg.From,
		To:      s.cfg.To,
		Subject: s.cfg.Subject,
		Date:    rec.Time,
	}, rec.PlainText())
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, s.cfg.From, s.cfg.To, msg)
}
