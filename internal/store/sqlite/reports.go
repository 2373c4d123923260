package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/reportd/reportd/internal/report"
)

// CreateReport inserts a new report definition.
func (s *Store) CreateReport(ctx context.Context, r *report.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, name, description, sql_query, schedule_cron, output_format, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Description, r.SQLQuery, r.ScheduleCron, r.OutputFormat,
		boolToInt(r.IsActive), r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create report: %w", err)
	}
	return nil
}

// GetReport fetches a report by ID. Returns report.ErrNotFound for unknown IDs.
func (s *Store) GetReport(ctx context.Context, id string) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, sql_query, schedule_cron, output_format, is_active, created_at
		FROM reports WHERE id = ?`, id)

	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get report: %w", err)
	}
	return r, nil
}

// ListReports returns all reports ordered by creation time, paged.
func (s *Store) ListReports(ctx context.Context, offset, limit int) ([]report.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, sql_query, schedule_cron, output_format, is_active, created_at
		FROM reports ORDER BY created_at LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectReports(rows)
}

// ListActiveReports returns every report with is_active set; the scheduler
// rebuilds its calendar from this set.
func (s *Store) ListActiveReports(ctx context.Context) ([]report.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, sql_query, schedule_cron, output_format, is_active, created_at
		FROM reports WHERE is_active = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list active reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectReports(rows)
}

// UpdateReport overwrites a report definition. Returns report.ErrNotFound if
// the ID does not exist.
func (s *Store) UpdateReport(ctx context.Context, r *report.Report) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reports
		SET name = ?, description = ?, sql_query = ?, schedule_cron = ?, output_format = ?, is_active = ?
		WHERE id = ?`,
		r.Name, r.Description, r.SQLQuery, r.ScheduleCron, r.OutputFormat,
		boolToInt(r.IsActive), r.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update report: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return report.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*report.Report, error) {
	var (
		r         report.Report
		active    int
		createdAt string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.SQLQuery, &r.ScheduleCron, &r.OutputFormat, &active, &createdAt); err != nil {
		return nil, err
	}
	r.IsActive = active != 0

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	r.CreatedAt = t
	return &r, nil
}

func collectReports(rows *sql.Rows) ([]report.Report, error) {
	var reports []report.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan report: %w", err)
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: report rows: %w", err)
	}
	return reports, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
