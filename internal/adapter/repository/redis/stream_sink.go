package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/grabbag/internal/domain"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "log_records"

// StreamSink forwards records to a Redis Stream, one entry per record.
type StreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
	min    domain.Severity
	logger *slog.Logger
}

// NewStreamSink creates a Redis-backed sink. maxLen caps the stream length
// approximately; zero leaves it unbounded.
func NewStreamSink(client *redis.Client, stream string, maxLen int64, min domain.Severity, logger *slog.Logger) *StreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
		min:    min,
		logger: logger.With("component", "redis_stream_sink"),
	}
}

// Connect parses a redis:// URL, pings the server and returns the client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Name implements domain.Sink.
func (s *StreamSink) Name() string { return "redis" }

// Enabled implements domain.Sink.
func (s *StreamSink) Enabled(sev domain.Severity) bool { return sev >= s.min }

// Write adds the record to the stream as a JSON payload.
func (s *StreamSink) Write(ctx context.Context, rec domain.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal log record: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"payload": payload,
			"level":   rec.Severity.String(),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD to redis stream %s: %w", s.stream, err)
	}
	s.logger.Debug("forwarded record", "event_id", rec.EventID, "stream", s.stream)
	return nil
}
