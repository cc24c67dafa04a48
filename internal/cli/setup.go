package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/V4T54L/grabbag/internal/adapter/mail"
	"github.com/V4T54L/grabbag/internal/adapter/metrics"
	"github.com/V4T54L/grabbag/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/grabbag/internal/adapter/repository/redis"
	"github.com/V4T54L/grabbag/internal/domain"
	"github.com/V4T54L/grabbag/internal/logging"
	"github.com/V4T54L/grabbag/internal/pkg/config"
)

// openDB is swapped out in tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

// loggerOptions carry the outputs a command wires into a logger.
type loggerOptions struct {
	console  io.Writer
	errOut   io.Writer
	registry prometheus.Registerer
}

// buildLogger turns configuration into a logging.Config, attaching the
// Redis and PostgreSQL forwarding sinks when their URLs are set. A
// forwarding backend that cannot be reached is skipped with a warning. The
// returned cleanup closes the logger and any backend connections.
func buildLogger(ctx context.Context, cfg *config.Config, opts loggerOptions) (*logging.Logger, func(), error) {
	consoleLevel, err := domain.ParseSeverity(cfg.ConsoleLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("CONSOLE_LOG_LEVEL: %w", err)
	}
	fileLevel, err := domain.ParseSeverity(cfg.FileLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("FILE_LOG_LEVEL: %w", err)
	}
	color, err := logging.ParseColorMode(cfg.ConsoleColor)
	if err != nil {
		return nil, nil, fmt.Errorf("CONSOLE_COLOR: %w", err)
	}
	fileMode, err := logging.ParseFileMode(cfg.FileMode)
	if err != nil {
		return nil, nil, fmt.Errorf("LOG_FILE_MODE: %w", err)
	}
	startTLS, err := mail.ParseStartTLSPolicy(cfg.MailStartTLS)
	if err != nil {
		return nil, nil, fmt.Errorf("MAIL_STARTTLS: %w", err)
	}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	extra, err := forwardingSinks(ctx, cfg, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var sinkMetrics *metrics.SinkMetrics
	if opts.registry != nil {
		sinkMetrics = metrics.NewSinkMetrics(opts.registry)
	}

	lg, err := logging.New(logging.Config{
		Name:         cfg.LoggerName,
		Console:      opts.console,
		ConsoleLevel: consoleLevel,
		Color:        color,
		FileMode:     fileMode,
		FilePath:     cfg.FilePath,
		FileLevel:    &fileLevel,
		FileMaxSize:  cfg.FileMaxBytes,
		Email: logging.EmailConfig{
			From:      cfg.EmailFrom,
			To:        cfg.EmailTo,
			Subject:   cfg.EmailSubject,
			Host:      cfg.MailHost,
			Username:  cfg.MailUsername,
			Password:  cfg.MailPassword,
			StartTLS:  startTLS,
			PerMinute: cfg.EmailPerMinute,
		},
		RedactFields: cfg.RedactFields,
		Extra:        extra,
		ErrorOutput:  opts.errOut,
		Metrics:      sinkMetrics,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, lg.Close)
	return lg, cleanup, nil
}

func forwardingSinks(ctx context.Context, cfg *config.Config, closers *[]func() error) ([]domain.Sink, error) {
	if cfg.RedisURL == "" && cfg.PostgresURL == "" {
		return nil, nil
	}
	level, err := domain.ParseSeverity(cfg.ForwardLevel)
	if err != nil {
		return nil, fmt.Errorf("FORWARD_LOG_LEVEL: %w", err)
	}

	logger := slog.Default()
	var sinks []domain.Sink

	if cfg.RedisURL != "" {
		client, err := redisrepo.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis forwarding disabled", "error", err)
		} else {
			*closers = append(*closers, client.Close)
			sinks = append(sinks, redisrepo.NewStreamSink(client, cfg.RedisStream, cfg.RedisMaxLen, level, logger))
		}
	}

	if cfg.PostgresURL != "" {
		db, err := openDB(cfg.PostgresURL)
		if err == nil {
			sink := postgres.NewTableSink(db, cfg.PostgresTable, level, logger)
			if err = sink.EnsureSchema(ctx); err == nil {
				*closers = append(*closers, db.Close)
				sinks = append(sinks, sink)
			} else {
				err = errors.Join(err, db.Close())
			}
		}
		if err != nil {
			logger.Warn("postgres forwarding disabled", "error", err)
		}
	}

	return sinks, nil
}
