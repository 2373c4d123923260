package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/reportd/reportd/internal/report"
)

// CreateRun inserts a new run record (normally in QUEUED state).
func (s *Store) CreateRun(ctx context.Context, run *report.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_runs (id, report_id, started_at, finished_at, status, row_count, output_path, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ReportID,
		run.StartedAt.Format(time.RFC3339Nano), nullableTime(run.FinishedAt),
		string(run.Status), nullableInt(run.RowCount), run.OutputPath, run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("sqlite: create run: %w", err)
	}
	return nil
}

// UpdateRun persists the run's current state. Writing an identical terminal
// state twice is a no-op with the same outcome, so the operation is
// idempotent. Returns report.ErrRunNotFound for unknown IDs.
func (s *Store) UpdateRun(ctx context.Context, run *report.Run) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE report_runs
		SET finished_at = ?, status = ?, row_count = ?, output_path = ?, error_message = ?
		WHERE id = ?`,
		nullableTime(run.FinishedAt), string(run.Status),
		nullableInt(run.RowCount), run.OutputPath, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return report.ErrRunNotFound
	}
	return nil
}

// GetRun fetches a run by ID. Returns report.ErrRunNotFound for unknown IDs.
func (s *Store) GetRun(ctx context.Context, id string) (*report.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, report_id, started_at, finished_at, status, row_count, output_path, error_message
		FROM report_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the run history for one report, newest first, paged.
func (s *Store) ListRuns(ctx context.Context, reportID string, offset, limit int) ([]report.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report_id, started_at, finished_at, status, row_count, output_path, error_message
		FROM report_runs
		WHERE report_id = ?
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?`,
		reportID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []report.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: run rows: %w", err)
	}
	return runs, nil
}

func scanRun(row rowScanner) (*report.Run, error) {
	var (
		run        report.Run
		status     string
		startedAt  string
		finishedAt sql.NullString
		rowCount   sql.NullInt64
	)
	if err := row.Scan(&run.ID, &run.ReportID, &startedAt, &finishedAt, &status, &rowCount, &run.OutputPath, &run.ErrorMessage); err != nil {
		return nil, err
	}
	run.Status = report.RunStatus(status)

	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	run.StartedAt = t

	if finishedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at %q: %w", finishedAt.String, err)
		}
		run.FinishedAt = &t
	}

	if rowCount.Valid {
		n := int(rowCount.Int64)
		run.RowCount = &n
	}

	return &run, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
