// Package app provides the shared entry point for the reportd daemon.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reportd/reportd/internal/config"
	"github.com/reportd/reportd/internal/exporter"
	"github.com/reportd/reportd/internal/gateway"
	"github.com/reportd/reportd/internal/metrics"
	"github.com/reportd/reportd/internal/notifier"
	"github.com/reportd/reportd/internal/query"
	"github.com/reportd/reportd/internal/runner"
	"github.com/reportd/reportd/internal/scheduler"
	"github.com/reportd/reportd/internal/store/sqlite"
	"github.com/reportd/reportd/internal/telemetry"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string
}

// Run loads configuration, wires the store, runner, scheduler, and gateway,
// and blocks until a shutdown signal is received. SIGHUP reconciles the
// scheduling calendar from the store without restarting the process.
func Run(params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting reportd",
		"version", params.Version,
		"config", cfgPath,
		"database", cfg.Database.Path,
		"output_dir", cfg.Output.Dir)

	if cfg.Tracing.Endpoint != "" {
		shutdown, err := telemetry.Setup(context.Background(), cfg.Tracing.Endpoint, params.Version)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Warn("tracer shutdown", "error", err)
			}
		}()
		logger.Info("tracing enabled", "endpoint", cfg.Tracing.Endpoint)
	}

	st, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("store close", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	run := runner.New(
		st,
		query.NewDBSink(st.DB()),
		exporter.NewCSVWriter(cfg.Output.Dir),
		notifier.NewLogNotifier(st, logger.With("component", "notifier")),
		logger.With("component", "runner"),
		runner.WithRunTimeout(cfg.Scheduler.RunTimeout),
		runner.WithMetrics(m),
	)

	sched := scheduler.New(run, logger.With("component", "scheduler"), scheduler.WithMetrics(m))

	startCtx := context.Background()
	reports, err := st.ListActiveReports(startCtx)
	if err != nil {
		return err
	}
	for _, warning := range sched.Reconcile(reports) {
		logger.Warn("report skipped by calendar",
			"report_id", warning.ReportID,
			"name", warning.Name,
			"error", warning.Err)
	}
	if err := sched.Start(); err != nil {
		return err
	}

	gw := gateway.New(cfg.Server, st, run, sched, registry, logger.With("component", "gateway"))
	if err := gw.Start(); err != nil {
		sched.Stop()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		sig := <-sigCh
		if sig == syscall.SIGHUP {
			logger.Info("SIGHUP received, reconciling calendar from store")
			reports, err := st.ListActiveReports(context.Background())
			if err != nil {
				logger.Error("reconcile failed", "error", err)
				continue
			}
			for _, warning := range sched.Reconcile(reports) {
				logger.Warn("report skipped by calendar",
					"report_id", warning.ReportID,
					"name", warning.Name,
					"error", warning.Err)
			}
			continue
		}

		logger.Info("shutdown signal received", "signal", sig.String())
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		if err := gw.Stop(stopCtx); err != nil {
			logger.Warn("gateway stop", "error", err)
		}
		cancel()
		sched.Stop()
		logger.Info("shutdown complete")
		return nil
	}
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/reportd/reportd.yaml → ~/.config/reportd/reportd.yaml → ./reportd.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "reportd", "reportd.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "reportd", "reportd.yaml"))
	}

	candidates = append(candidates, "reportd.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
