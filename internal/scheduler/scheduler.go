// Package scheduler owns the fire-time calendar for all active reports. A
// single timing loop sleeps until the earliest due entry (or an explicit
// wake), dispatches due reports to the runner without awaiting completion,
// and recomputes each fired entry's next time. Reconcile rebuilds the whole
// calendar on the side and swaps it in atomically, so there is never a
// window with zero scheduled reports.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/reportd/reportd/internal/metrics"
	"github.com/reportd/reportd/internal/report"
	"github.com/reportd/reportd/internal/schedule"
)

// parkInterval is how long the loop sleeps when the calendar is empty.
const parkInterval = time.Minute

// Executor runs one report to a terminal state. Implemented by the runner;
// returns report.ErrBusy when a run for the same report is in flight.
type Executor interface {
	Execute(ctx context.Context, reportID string) (*report.Run, error)
}

// Warning reports a definition that was dropped from the calendar during
// reconciliation. Not fatal to the reconciliation as a whole.
type Warning struct {
	ReportID string
	Name     string
	Err      error
}

// entry is one calendar slot: a report and its precomputed next fire time.
type entry struct {
	reportID string
	name     string
	sched    *schedule.Schedule
	next     time.Time
}

// Scheduler drives automatic report execution.
type Scheduler struct {
	exec    Executor
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	running bool
	stopCh  chan struct{}

	// wakeCh interrupts the timing loop after a reconcile so the new
	// calendar's earliest entry is picked up immediately.
	wakeCh chan struct{}

	wg sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithClock overrides the time source. Only for testing.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// New creates a Scheduler. Reconcile must be called (directly or via
// startup) for anything to fire.
func New(exec Executor, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		exec:    exec,
		logger:  logger,
		clock:   time.Now,
		entries: make(map[string]*entry),
		wakeCh:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the timing loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler: already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.wg.Add(1)
	go s.loop(s.stopCh)

	s.logger.Info("scheduler: started", "entries", len(s.entries))
	return nil
}

// Stop halts the timing loop. Executions already dispatched run to
// completion; no new dispatches occur after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler: stopped")
}

// Reconcile atomically replaces the calendar from the given report set.
// Inactive reports are skipped; reports whose schedule fails to parse are
// dropped from the calendar and returned as warnings. Safe to call
// concurrently with the timing loop.
func (s *Scheduler) Reconcile(reports []report.Report) []Warning {
	now := s.clock()
	fresh := make(map[string]*entry, len(reports))
	var warnings []Warning

	for i := range reports {
		rep := &reports[i]
		if !rep.IsActive {
			continue
		}
		sched, err := schedule.Parse(rep.ScheduleCron)
		if err != nil {
			s.logger.Warn("scheduler: dropping report with invalid schedule",
				"report", rep.Name,
				"schedule", rep.ScheduleCron,
				"error", err,
			)
			warnings = append(warnings, Warning{ReportID: rep.ID, Name: rep.Name, Err: err})
			continue
		}
		fresh[rep.ID] = &entry{
			reportID: rep.ID,
			name:     rep.Name,
			sched:    sched,
			next:     sched.Next(now),
		}
	}

	s.mu.Lock()
	s.entries = fresh
	s.mu.Unlock()

	s.wake()
	s.logger.Info("scheduler: calendar reconciled", "entries", len(fresh), "dropped", len(warnings))
	return warnings
}

// Entries returns the number of calendar slots. Used by the health endpoint.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Running reports whether the timing loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default: // a wake is already pending
	}
}

// loop is the single timing loop: sleep until the earliest fire time, fire
// everything due, repeat. A reconcile wakes it early so calendar changes
// take effect without waiting out the old timer.
func (s *Scheduler) loop(stopCh <-chan struct{}) {
	defer s.wg.Done()

	for {
		timer := time.NewTimer(s.untilNext())
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-s.wakeCh:
			timer.Stop()
		case <-timer.C:
			s.fire()
		}
	}
}

// untilNext returns the sleep until the earliest calendar entry, or
// parkInterval when the calendar is empty.
func (s *Scheduler) untilNext() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return parkInterval
	}

	now := s.clock()
	wait := parkInterval
	for _, e := range s.entries {
		if d := e.next.Sub(now); d < wait {
			wait = d
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// fire dispatches every due entry and advances its next fire time. Dispatch
// is fire-and-continue: a slow report never delays the next due report.
func (s *Scheduler) fire() {
	now := s.clock()

	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if !e.next.After(now) {
			due = append(due, e)
			e.next = e.sched.Next(now)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		if s.metrics != nil {
			s.metrics.SchedulerFires.Inc()
		}
		s.logger.Debug("scheduler: dispatching report", "report", e.name)
		go s.dispatch(e.reportID, e.name)
	}
}

// dispatch hands one report to the executor. Uses a background context so
// Stop never cancels an in-flight run.
func (s *Scheduler) dispatch(reportID, name string) {
	_, err := s.exec.Execute(context.Background(), reportID)
	switch {
	case errors.Is(err, report.ErrBusy):
		s.logger.Warn("scheduler: report still running, skipping fire", "report", name)
	case errors.Is(err, report.ErrNotFound):
		// Deleted between reconciles; the next reconcile removes the entry.
		s.logger.Warn("scheduler: report vanished from store", "report", name)
	case err != nil:
		s.logger.Error("scheduler: report execution error", "report", name, "error", err)
	}
}
