// Package store defines the durable record of report definitions, run
// history, and notification log entries.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/reportd/reportd/internal/report"
)

// Notification channels and delivery statuses.
const (
	ChannelLog   = "LOG"
	ChannelEmail = "EMAIL"

	NotificationSent   = "SENT"
	NotificationFailed = "FAILED"
)

// Notification is one append-only notification_log row, recorded per
// terminal run.
type Notification struct {
	ID      string
	RunID   string
	Channel string
	Status  string
	Message string
	SentAt  time.Time
}

// NewNotification creates a notification record with a fresh ID and
// timestamp.
func NewNotification(runID, channel, status, message string) Notification {
	return Notification{
		ID:      uuid.NewString(),
		RunID:   runID,
		Channel: channel,
		Status:  status,
		Message: message,
		SentAt:  time.Now().UTC(),
	}
}

// Store is the durable job store consumed by the scheduler, the runner, and
// the gateway. Implementations must return report.ErrNotFound and
// report.ErrRunNotFound for unknown identifiers.
type Store interface {
	CreateReport(ctx context.Context, r *report.Report) error
	GetReport(ctx context.Context, id string) (*report.Report, error)
	ListReports(ctx context.Context, offset, limit int) ([]report.Report, error)
	ListActiveReports(ctx context.Context) ([]report.Report, error)
	UpdateReport(ctx context.Context, r *report.Report) error

	CreateRun(ctx context.Context, run *report.Run) error
	// UpdateRun persists the run's current state. Re-persisting an identical
	// terminal state is idempotent.
	UpdateRun(ctx context.Context, run *report.Run) error
	GetRun(ctx context.Context, id string) (*report.Run, error)
	// ListRuns returns runs for one report ordered by started_at descending.
	ListRuns(ctx context.Context, reportID string, offset, limit int) ([]report.Run, error)

	AppendNotification(ctx context.Context, n Notification) error
}
