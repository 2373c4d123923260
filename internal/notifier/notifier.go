// Package notifier records terminal-run notifications. The LOG channel
// writes a structured log line and an append-only notification_log row.
// Notification failures are reported to the caller but must never alter the
// run's already-decided terminal state; the runner logs and swallows them.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reportd/reportd/internal/report"
	"github.com/reportd/reportd/internal/store"
)

// Notifier forwards a terminal run to a delivery channel.
type Notifier interface {
	NotifyRunFinished(ctx context.Context, rep *report.Report, run *report.Run) error
}

// LogNotifier is the default channel: slog plus the notification log table.
type LogNotifier struct {
	store  store.Store
	logger *slog.Logger
}

// NewLogNotifier creates a LOG-channel notifier.
func NewLogNotifier(st store.Store, logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{store: st, logger: logger}
}

// Compile-time interface check.
var _ Notifier = (*LogNotifier)(nil)

// NotifyRunFinished records one notification for a terminal run.
func (n *LogNotifier) NotifyRunFinished(ctx context.Context, rep *report.Report, run *report.Run) error {
	var message string
	switch run.Status {
	case report.StatusSuccess:
		rows := 0
		if run.RowCount != nil {
			rows = *run.RowCount
		}
		message = fmt.Sprintf("Report %q completed successfully. Rows exported: %d. Output: %s",
			rep.Name, rows, run.OutputPath)
	case report.StatusFailed:
		message = fmt.Sprintf("Report %q failed. Error: %s", rep.Name, run.ErrorMessage)
	default:
		message = fmt.Sprintf("Report %q status: %s", rep.Name, run.Status)
	}

	n.logger.Info("notifier: run finished",
		"report", rep.Name,
		"run_id", run.ID,
		"status", string(run.Status),
	)

	record := store.NewNotification(run.ID, store.ChannelLog, store.NotificationSent, message)
	if err := n.store.AppendNotification(ctx, record); err != nil {
		return fmt.Errorf("notifier: append notification: %w", err)
	}
	return nil
}
