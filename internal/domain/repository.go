package domain

import "context"

// Sink is a destination for formatted log records (terminal, file, mail
// relay, stream, table). Sinks decide their own severity threshold.
type Sink interface {
	// Name identifies the sink in error reports and metrics.
	Name() string

	// Enabled reports whether records of the given severity should be written.
	Enabled(s Severity) bool

	// Write delivers a single record.
	Write(ctx context.Context, rec Record) error
}

// Mailer delivers an already composed RFC 5322 message.
type Mailer interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}
