package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/reportd/reportd/internal/report"
	"github.com/reportd/reportd/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleReport() *report.Report {
	return report.NewReport(
		"daily-users",
		"active users per day",
		"SELECT 1",
		"0 9 * * *",
		report.OutputFormatCSV,
		true,
	)
}

func TestReportRoundTrip(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	rep := sampleReport()
	if err := st.CreateReport(ctx, rep); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := st.GetReport(ctx, rep.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != rep.Name || got.SQLQuery != rep.SQLQuery || got.ScheduleCron != rep.ScheduleCron {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.IsActive {
		t.Fatal("IsActive lost")
	}
	if !got.CreatedAt.Equal(rep.CreatedAt) {
		t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, rep.CreatedAt)
	}
}

func TestGetReport_Unknown(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	if _, err := st.GetReport(context.Background(), "missing"); !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateReport(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	rep := sampleReport()
	if err := st.CreateReport(ctx, rep); err != nil {
		t.Fatalf("create: %v", err)
	}

	rep.Name = "weekly-users"
	rep.IsActive = false
	if err := st.UpdateReport(ctx, rep); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := st.GetReport(ctx, rep.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "weekly-users" || got.IsActive {
		t.Fatalf("update not persisted: %+v", got)
	}

	missing := sampleReport()
	if err := st.UpdateReport(ctx, missing); !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("updating unknown report: err = %v, want ErrNotFound", err)
	}
}

func TestListReports_Paging(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	for range 5 {
		if err := st.CreateReport(ctx, sampleReport()); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := st.ListReports(ctx, 0, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("first page size = %d, want 3", len(page))
	}

	rest, err := st.ListReports(ctx, 3, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("second page size = %d, want 2", len(rest))
	}
}

func TestListActiveReports(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	active := sampleReport()
	inactive := sampleReport()
	inactive.IsActive = false
	if err := st.CreateReport(ctx, active); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.CreateReport(ctx, inactive); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := st.ListActiveReports(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Fatalf("active set = %+v, want only %s", got, active.ID)
	}
}

func TestRunLifecyclePersistence(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	rep := sampleReport()
	if err := st.CreateReport(ctx, rep); err != nil {
		t.Fatalf("create report: %v", err)
	}

	run := report.NewRun(rep.ID)
	if err := st.CreateRun(ctx, run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	_ = run.Start()
	if err := st.UpdateRun(ctx, run); err != nil {
		t.Fatalf("persist running: %v", err)
	}

	_ = run.Succeed("/tmp/out.csv", 7)
	if err := st.UpdateRun(ctx, run); err != nil {
		t.Fatalf("persist terminal: %v", err)
	}
	// Re-persisting the same terminal state is a no-op.
	if err := st.UpdateRun(ctx, run); err != nil {
		t.Fatalf("idempotent terminal update: %v", err)
	}

	got, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != report.StatusSuccess {
		t.Fatalf("status = %s", got.Status)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(*run.FinishedAt) {
		t.Fatalf("FinishedAt = %v, want %v", got.FinishedAt, run.FinishedAt)
	}
	if got.RowCount == nil || *got.RowCount != 7 {
		t.Fatalf("RowCount = %v, want 7", got.RowCount)
	}
	if got.OutputPath != "/tmp/out.csv" {
		t.Fatalf("OutputPath = %q", got.OutputPath)
	}
}

func TestUpdateRun_Unknown(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	run := report.NewRun("rep-x")
	if err := st.UpdateRun(context.Background(), run); !errors.Is(err, report.ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	ctx := context.Background()

	rep := sampleReport()
	if err := st.CreateReport(ctx, rep); err != nil {
		t.Fatalf("create report: %v", err)
	}

	var last string
	for i := range 3 {
		run := report.NewRun(rep.ID)
		run.StartedAt = run.StartedAt.Add(-time.Duration(2-i) * time.Hour)
		if err := st.CreateRun(ctx, run); err != nil {
			t.Fatalf("create run: %v", err)
		}
		last = run.ID
	}

	runs, err := st.ListRuns(ctx, rep.ID, 0, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len = %d, want 3", len(runs))
	}
	if runs[0].ID != last {
		t.Fatalf("first run = %s, want newest %s", runs[0].ID, last)
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].StartedAt.After(runs[i-1].StartedAt) {
			t.Fatal("runs not ordered newest first")
		}
	}
}

func TestAppendNotification(t *testing.T) {
	t.Parallel()

	st := openTestStore(t)
	n := store.NewNotification("run-1", store.ChannelLog, store.NotificationSent, "Report done")
	if err := st.AppendNotification(context.Background(), n); err != nil {
		t.Fatalf("append notification: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reopen.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rep := sampleReport()
	if err := st.CreateReport(context.Background(), rep); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening runs migrations against an existing schema without error.
	st2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = st2.Close() }()
	if _, err := st2.GetReport(context.Background(), rep.ID); err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
}
