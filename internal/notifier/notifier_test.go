package notifier

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/reportd/reportd/internal/report"
	"github.com/reportd/reportd/internal/store"
)

// appendOnlyStore records AppendNotification calls; other Store methods are
// never reached from the notifier.
type appendOnlyStore struct {
	store.Store

	appended []store.Notification
	err      error
}

func (s *appendOnlyStore) AppendNotification(_ context.Context, n store.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, n)
	return nil
}

func TestNotifyRunFinished_Success(t *testing.T) {
	t.Parallel()

	st := &appendOnlyStore{}
	n := NewLogNotifier(st, slog.Default())

	rep := &report.Report{ID: "rep-1", Name: "daily-users"}
	run := report.NewRun(rep.ID)
	_ = run.Start()
	_ = run.Succeed("/tmp/out.csv", 12)

	if err := n.NotifyRunFinished(context.Background(), rep, run); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(st.appended) != 1 {
		t.Fatalf("appended %d notifications, want 1", len(st.appended))
	}
	rec := st.appended[0]
	if rec.RunID != run.ID || rec.Channel != store.ChannelLog || rec.Status != store.NotificationSent {
		t.Fatalf("record = %+v", rec)
	}
	if !strings.Contains(rec.Message, "completed successfully") ||
		!strings.Contains(rec.Message, "12") ||
		!strings.Contains(rec.Message, "/tmp/out.csv") {
		t.Fatalf("message = %q", rec.Message)
	}
}

func TestNotifyRunFinished_Failure(t *testing.T) {
	t.Parallel()

	st := &appendOnlyStore{}
	n := NewLogNotifier(st, slog.Default())

	rep := &report.Report{ID: "rep-1", Name: "daily-users"}
	run := report.NewRun(rep.ID)
	_ = run.Start()
	_ = run.Fail("syntax error near SELECT")

	if err := n.NotifyRunFinished(context.Background(), rep, run); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !strings.Contains(st.appended[0].Message, "syntax error near SELECT") {
		t.Fatalf("message = %q", st.appended[0].Message)
	}
}

func TestNotifyRunFinished_StoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	n := NewLogNotifier(&appendOnlyStore{err: boom}, slog.Default())

	rep := &report.Report{ID: "rep-1", Name: "daily-users"}
	run := report.NewRun(rep.ID)
	_ = run.Start()
	_ = run.Succeed("/tmp/out.csv", 1)

	if err := n.NotifyRunFinished(context.Background(), rep, run); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}
