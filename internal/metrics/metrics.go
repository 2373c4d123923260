// Package metrics defines the Prometheus instruments shared by the runner
// and the scheduler, exposed by the gateway at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the process-wide collectors.
type Metrics struct {
	// RunsTotal counts finished runs by terminal status (SUCCESS, FAILED).
	RunsTotal *prometheus.CounterVec

	// SchedulerFires counts automatic dispatches from the timing loop.
	SchedulerFires prometheus.Counter

	// BusyRejections counts executions rejected because a run for the same
	// report was already in flight.
	BusyRejections prometheus.Counter

	// RunDuration observes wall-clock run duration in seconds.
	RunDuration prometheus.Histogram
}

// New registers and returns the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reportd_runs_total",
			Help: "Finished report runs by terminal status.",
		}, []string{"status"}),
		SchedulerFires: factory.NewCounter(prometheus.CounterOpts{
			Name: "reportd_scheduler_fires_total",
			Help: "Report executions dispatched by the scheduler timing loop.",
		}),
		BusyRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "reportd_busy_rejections_total",
			Help: "Executions rejected because the report was already running.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reportd_run_duration_seconds",
			Help:    "Wall-clock duration of report runs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}
