package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/V4T54L/grabbag/internal/sqlclause"
)

// DefaultColumns are selected when a query names none.
var DefaultColumns = []string{"logged_at", "level", "logger_name", "message"}

// Reader runs ad-hoc SELECT ... WHERE ... queries against the log table.
type Reader struct {
	db    *sql.DB
	table string
}

// NewReader creates a Reader for table.
func NewReader(db *sql.DB, table string) *Reader {
	if table == "" {
		table = DefaultTable
	}
	return &Reader{db: db, table: table}
}

// Query builds the statement from trusted column and predicate fragments
// and returns each row keyed by column name.
func (r *Reader) Query(ctx context.Context, columns []string, base string, preds ...sqlclause.Predicate) ([]map[string]any, error) {
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	query, err := sqlclause.Statement{
		Columns:    columns,
		From:       pq.QuoteIdentifier(r.table),
		Base:       base,
		Predicates: preds,
	}.SQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query log records: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan log record: %w", err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
				continue
			}
			row[name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
