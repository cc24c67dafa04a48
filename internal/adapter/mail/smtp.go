// Package mail sends plain-text notification emails over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

const defaultPort = "25"

var (
	// ErrHeaderInjection is returned by Compose when a header value holds a
	// CR or LF.
	ErrHeaderInjection = errors.New("mail header contains a line break")

	// ErrAuthUnsupported is returned when credentials are configured but the
	// relay does not advertise AUTH.
	ErrAuthUnsupported = errors.New("smtp server does not support AUTH")

	// ErrStartTLSUnsupported is returned under StartTLSAlways when the relay
	// does not advertise STARTTLS.
	ErrStartTLSUnsupported = errors.New("smtp server does not support STARTTLS")
)

// StartTLSPolicy controls whether the session is upgraded to TLS.
type StartTLSPolicy int

const (
	// StartTLSAuto upgrades when the relay advertises STARTTLS.
	StartTLSAuto StartTLSPolicy = iota
	// StartTLSAlways fails unless the relay advertises STARTTLS.
	StartTLSAlways
	// StartTLSOff never upgrades.
	StartTLSOff
)

// ParseStartTLSPolicy parses "auto", "always" or "off".
func ParseStartTLSPolicy(s string) (StartTLSPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return StartTLSAuto, nil
	case "always", "required":
		return StartTLSAlways, nil
	case "off", "never", "none":
		return StartTLSOff, nil
	default:
		return 0, fmt.Errorf("unknown STARTTLS policy %q", s)
	}
}

// Envelope carries the headers of a composed message.
type Envelope struct {
	From    string
	To      []string
	Subject string
	Date    time.Time
}

// Compose builds an RFC 5322 message with a plain-text body. The subject is
// RFC 2047 encoded when it is not plain ASCII. Bare LF line endings in the
// body are normalised to CRLF.
func Compose(env Envelope, body string) ([]byte, error) {
	headers := append([]string{env.From, env.Subject}, env.To...)
	for _, h := range headers {
		if strings.ContainsAny(h, "\r\n") {
			return nil, fmt.Errorf("%w: %q", ErrHeaderInjection, h)
		}
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", env.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(env.To, ","))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", env.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", env.Date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	body = strings.ReplaceAll(body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes(), nil
}

// SMTPMailer delivers messages through a single SMTP relay.
type SMTPMailer struct {
	addr     string
	host     string
	username string
	password string
	startTLS StartTLSPolicy
	timeout  time.Duration
}

// Option configures an SMTPMailer.
type Option func(*SMTPMailer)

// WithStartTLS sets the STARTTLS policy. The default is StartTLSAuto.
func WithStartTLS(p StartTLSPolicy) Option {
	return func(m *SMTPMailer) { m.startTLS = p }
}

// NewSMTPMailer creates a mailer for the relay at host ("host" or
// "host:port", port 25 by default). Credentials are optional; when a
// username is given PLAIN auth is required.
func NewSMTPMailer(host, username, password string, opts ...Option) *SMTPMailer {
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, defaultPort)
	}
	h, _, _ := net.SplitHostPort(addr)
	m := &SMTPMailer{
		addr:     addr,
		host:     h,
		username: username,
		password: password,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Addr returns the relay address including the port.
func (m *SMTPMailer) Addr() string { return m.addr }

// Send implements domain.Mailer.
func (m *SMTPMailer) Send(ctx context.Context, from string, to []string, msg []byte) error {
	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to mail host %s: %w", m.addr, err)
	}
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer c.Close()

	if m.startTLS != StartTLSOff {
		ok, _ := c.Extension("STARTTLS")
		switch {
		case ok:
			if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
				return fmt.Errorf("smtp STARTTLS failed: %w", err)
			}
		case m.startTLS == StartTLSAlways:
			return fmt.Errorf("%w: %s", ErrStartTLSUnsupported, m.addr)
		}
	}
	if m.username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return fmt.Errorf("%w: %s", ErrAuthUnsupported, m.addr)
		}
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM failed: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s failed: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp message rejected: %w", err)
	}
	return c.Quit()
}
