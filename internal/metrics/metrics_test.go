package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_RegistersAndCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RunsTotal.WithLabelValues("SUCCESS").Inc()
	m.RunsTotal.WithLabelValues("FAILED").Add(2)
	m.SchedulerFires.Inc()
	m.BusyRejections.Inc()
	m.RunDuration.Observe(0.25)

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("SUCCESS")); got != 1 {
		t.Errorf("runs_total{SUCCESS} = %v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("FAILED")); got != 2 {
		t.Errorf("runs_total{FAILED} = %v", got)
	}
	if got := testutil.ToFloat64(m.SchedulerFires); got != 1 {
		t.Errorf("scheduler_fires_total = %v", got)
	}
	if got := testutil.ToFloat64(m.BusyRejections); got != 1 {
		t.Errorf("busy_rejections_total = %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("no metric families registered")
	}
}
