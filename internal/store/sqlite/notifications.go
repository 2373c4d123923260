package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/reportd/reportd/internal/store"
)

// AppendNotification records a notification_log row. The log is append-only;
// rows are never updated or deleted independently of their run.
func (s *Store) AppendNotification(ctx context.Context, n store.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_log (id, report_run_id, channel, status, message, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.RunID, n.Channel, n.Status, n.Message, n.SentAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append notification: %w", err)
	}
	return nil
}
