// Package runner drives one report execution end to end: exclusive lock,
// query, export, state transitions, notification.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reportd/reportd/internal/exporter"
	"github.com/reportd/reportd/internal/metrics"
	"github.com/reportd/reportd/internal/notifier"
	"github.com/reportd/reportd/internal/query"
	"github.com/reportd/reportd/internal/report"
	"github.com/reportd/reportd/internal/store"
	"github.com/reportd/reportd/internal/validate"
)

// Runner executes reports. Safe for concurrent use; a per-report TryLock
// guarantees at most one in-flight run per report (second callers get
// report.ErrBusy, never queued).
type Runner struct {
	store    store.Store
	sink     query.Sink
	writer   exporter.Writer
	notifier notifier.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	// runTimeout bounds the query-sink call. Zero means no timeout; a hung
	// query then holds the report's lock indefinitely.
	runTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithRunTimeout bounds each query-sink call; expiry fails the run.
func WithRunTimeout(d time.Duration) Option {
	return func(r *Runner) { r.runTimeout = d }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// New creates a Runner.
func New(st store.Store, sink query.Sink, writer exporter.Writer, n notifier.Notifier, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		store:    st,
		sink:     sink,
		writer:   writer,
		notifier: n,
		logger:   logger,
		tracer:   otel.Tracer("reportd/runner"),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs one report to a terminal state and returns the completed run
// record. It blocks until the attempt finishes; callers never poll.
//
// Query and export failures are captured into a persisted FAILED run and
// returned with a nil error. The returned error is non-nil only for
// ErrNotFound, ErrBusy, or a failure to persist run state, which is fatal
// for the attempt.
func (r *Runner) Execute(ctx context.Context, reportID string) (*report.Run, error) {
	rep, err := r.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	// TryLock is atomic: no race between check and acquire. A second
	// invocation while one is in flight is rejected, not queued.
	lock := r.lockFor(rep.ID)
	if !lock.TryLock() {
		if r.metrics != nil {
			r.metrics.BusyRejections.Inc()
		}
		return nil, fmt.Errorf("runner: report %s: %w", rep.ID, report.ErrBusy)
	}
	defer lock.Unlock()

	ctx, span := r.tracer.Start(ctx, "report.execute",
		trace.WithAttributes(
			attribute.String("report.id", rep.ID),
			attribute.String("report.name", rep.Name),
		))
	defer span.End()

	run := report.NewRun(rep.ID)
	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("runner: create run: %w", err)
	}

	_ = run.Start()
	if err := r.store.UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("runner: persist running state: %w", err)
	}

	r.logger.Info("runner: run started", "report", rep.Name, "run_id", run.ID)

	// Guards are re-checked here even though the request layer validates on
	// create/update; the sink must never see a mutating statement.
	if err := validate.Query(rep.SQLQuery); err != nil {
		return r.fail(ctx, span, rep, run, err)
	}

	execCtx := ctx
	if r.runTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, r.runTimeout)
		defer cancel()
	}

	result, err := r.sink.Execute(execCtx, rep.SQLQuery)
	if err != nil {
		return r.fail(ctx, span, rep, run, err)
	}

	path, rowCount, err := r.writer.Write(result, rep.Name, run.ID)
	if err != nil {
		return r.fail(ctx, span, rep, run, err)
	}

	_ = run.Succeed(path, rowCount)
	if err := r.persistTerminal(ctx, run); err != nil {
		return nil, err
	}

	r.observe(run)
	r.logger.Info("runner: run succeeded",
		"report", rep.Name,
		"run_id", run.ID,
		"rows", rowCount,
		"output", path,
	)
	r.notify(ctx, rep, run)
	return run, nil
}

// fail transitions the run to FAILED with the error's description verbatim,
// persists it, and notifies. Only a persistence failure propagates.
func (r *Runner) fail(ctx context.Context, span trace.Span, rep *report.Report, run *report.Run, cause error) (*report.Run, error) {
	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())

	_ = run.Fail(cause.Error())
	if err := r.persistTerminal(ctx, run); err != nil {
		return nil, err
	}

	r.observe(run)
	r.logger.Error("runner: run failed",
		"report", rep.Name,
		"run_id", run.ID,
		"error", cause,
	)
	r.notify(ctx, rep, run)
	return run, nil
}

// persistTerminal writes a terminal run state. Failing to persist a terminal
// state is fatal for the attempt and is surfaced to the caller; silent loss
// of an outcome is never acceptable. Detached from the caller's cancellation
// so an expired run timeout cannot block the write.
func (r *Runner) persistTerminal(ctx context.Context, run *report.Run) error {
	if err := r.store.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		return fmt.Errorf("runner: persist terminal state for run %s: %w", run.ID, err)
	}
	return nil
}

// notify forwards the terminal run to the notification sink. Notifier errors
// are logged and swallowed; they never invalidate the persisted run.
func (r *Runner) notify(ctx context.Context, rep *report.Report, run *report.Run) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.NotifyRunFinished(context.WithoutCancel(ctx), rep, run); err != nil {
		r.logger.Error("runner: notification failed", "run_id", run.ID, "error", err)
	}
}

func (r *Runner) observe(run *report.Run) {
	if r.metrics == nil {
		return
	}
	r.metrics.RunsTotal.WithLabelValues(string(run.Status)).Inc()
	if run.FinishedAt != nil {
		r.metrics.RunDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	}
}

func (r *Runner) lockFor(reportID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[reportID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[reportID] = lock
	}
	return lock
}
