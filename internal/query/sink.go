// Package query executes validated read-only report queries and returns
// their tabular results.
package query

import (
	"context"
	"database/sql"
	"fmt"
)

// Result is the materialized output of one query: ordered column names plus
// rows rendered as strings, ready for the exporter.
type Result struct {
	Columns []string
	Rows    [][]string
}

// Sink executes a read-only query. Implementations report data-access
// failures as errors; they never mutate the data source.
type Sink interface {
	Execute(ctx context.Context, sqlText string) (*Result, error)
}

// DBSink runs report queries against a database/sql handle. In the default
// deployment this is the application's own SQLite database.
type DBSink struct {
	db *sql.DB
}

// NewDBSink creates a sink over the given handle.
func NewDBSink(db *sql.DB) *DBSink {
	return &DBSink{db: db}
}

// Execute runs the query and materializes every row. All values are rendered
// as strings; SQL NULL becomes the empty string.
func (s *DBSink) Execute(ctx context.Context, sqlText string) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query: execute: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query: columns: %w", err)
	}

	result := &Result{Columns: columns}

	values := make([]sql.NullString, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("query: scan row: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: rows: %w", err)
	}

	return result, nil
}
