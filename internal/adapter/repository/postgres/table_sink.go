package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/V4T54L/grabbag/internal/domain"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "log_records"

// TableSink writes each record as a row in a PostgreSQL table.
type TableSink struct {
	db     *sql.DB
	table  string
	min    domain.Severity
	logger *slog.Logger
}

// NewTableSink creates a PostgreSQL sink writing to table.
func NewTableSink(db *sql.DB, table string, min domain.Severity, logger *slog.Logger) *TableSink {
	if table == "" {
		table = DefaultTable
	}
	return &TableSink{
		db:     db,
		table:  table,
		min:    min,
		logger: logger.With("component", "postgres_table_sink"),
	}
}

// EnsureSchema creates the log table if it does not exist yet.
func (s *TableSink) EnsureSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + pq.QuoteIdentifier(s.table) + ` (
		event_id     UUID PRIMARY KEY,
		logged_at    TIMESTAMPTZ NOT NULL,
		level        TEXT NOT NULL,
		logger_name  TEXT NOT NULL,
		message      TEXT NOT NULL,
		process_name TEXT,
		process_id   INTEGER,
		attrs        JSONB
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Name implements domain.Sink.
func (s *TableSink) Name() string { return "postgres" }

// Enabled implements domain.Sink.
func (s *TableSink) Enabled(sev domain.Severity) bool { return sev >= s.min }

// Write inserts rec. Re-delivery of the same event id is ignored.
func (s *TableSink) Write(ctx context.Context, rec domain.Record) error {
	// JSONB is sent as text; a []byte would be encoded as bytea.
	var attrs sql.NullString
	if m := rec.AttrMap(); m != nil {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal record attributes: %w", err)
		}
		attrs = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO ` + pq.QuoteIdentifier(s.table) + `
		(event_id, logged_at, level, logger_name, message, process_name, process_id, attrs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		rec.EventID, rec.Time, rec.Severity.String(), rec.LoggerName,
		rec.Message, rec.ProcessName, rec.ProcessID, attrs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert log record %s: %w", rec.EventID, err)
	}
	s.logger.Debug("stored record", "event_id", rec.EventID, "table", s.table)
	return nil
}
