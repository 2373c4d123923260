package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		id            TEXT    PRIMARY KEY,
		name          TEXT    NOT NULL,
		description   TEXT    NOT NULL DEFAULT '',
		sql_query     TEXT    NOT NULL,
		schedule_cron TEXT    NOT NULL,
		output_format TEXT    NOT NULL DEFAULT 'CSV',
		is_active     INTEGER NOT NULL DEFAULT 1,
		created_at    TEXT    NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS report_runs (
		id            TEXT    PRIMARY KEY,
		report_id     TEXT    NOT NULL REFERENCES reports(id),
		started_at    TEXT    NOT NULL,
		finished_at   TEXT,
		status        TEXT    NOT NULL DEFAULT 'QUEUED',
		row_count     INTEGER,
		output_path   TEXT    NOT NULL DEFAULT '',
		error_message TEXT    NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_report ON report_runs(report_id, started_at DESC)`,

	`CREATE TABLE IF NOT EXISTS notification_log (
		id            TEXT NOT NULL PRIMARY KEY,
		report_run_id TEXT NOT NULL REFERENCES report_runs(id),
		channel       TEXT NOT NULL,
		status        TEXT NOT NULL,
		message       TEXT NOT NULL DEFAULT '',
		sent_at       TEXT NOT NULL
	)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	// Ensure schema_version table exists first.
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
