package mocks

import (
	"context"
	"sync"

	"github.com/V4T54L/grabbag/internal/domain"
)

// MockSink is a mock implementation of domain.Sink for testing.
type MockSink struct {
	mu       sync.Mutex
	SinkName string
	Min      domain.Severity
	Records  []domain.Record
	WriteErr error
}

func (m *MockSink) Name() string {
	if m.SinkName == "" {
		return "mock"
	}
	return m.SinkName
}

func (m *MockSink) Enabled(s domain.Severity) bool {
	return s >= m.Min
}

func (m *MockSink) Write(ctx context.Context, rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Records = append(m.Records, rec)
	return nil
}

// Written returns a copy of the records written so far.
func (m *MockSink) Written() []domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Record(nil), m.Records...)
}

// SentMail is one message captured by MockMailer.
type SentMail struct {
	From string
	To   []string
	Body []byte
}

// MockMailer is a mock implementation of domain.Mailer for testing.
type MockMailer struct {
	mu      sync.Mutex
	Sent    []SentMail
	SendErr error
}

func (m *MockMailer) Send(ctx context.Context, from string, to []string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, SentMail{From: from, To: append([]string(nil), to...), Body: append([]byte(nil), msg...)})
	return nil
}

// Count returns the number of messages sent.
func (m *MockMailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
