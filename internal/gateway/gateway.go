// Package gateway exposes the HTTP surface: report management, manual
// triggers, run history, artifact download, health, and metrics. It binds to
// loopback by default.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reportd/reportd/internal/config"
	"github.com/reportd/reportd/internal/report"
	"github.com/reportd/reportd/internal/scheduler"
	"github.com/reportd/reportd/internal/store"
)

// Calendar is the scheduler surface the gateway needs: full calendar
// replacement after definition changes, plus health introspection.
type Calendar interface {
	Reconcile(reports []report.Report) []scheduler.Warning
	Running() bool
	Entries() int
}

// Gateway is the HTTP server. Construct with New, then Start.
type Gateway struct {
	cfg      config.ServerConfig
	store    store.Store
	exec     scheduler.Executor
	calendar Calendar
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	server   *http.Server
}

// New creates a Gateway. gatherer may be nil to disable /metrics.
func New(cfg config.ServerConfig, st store.Store, exec scheduler.Executor, cal Calendar, gatherer prometheus.Gatherer, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		cfg:      cfg,
		store:    st,
		exec:     exec,
		calendar: cal,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start() error {
	g.server = &http.Server{
		Addr:         g.cfg.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.cfg.ReadTimeout,
		WriteTimeout: g.cfg.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.cfg.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.cfg.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully with the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.cfg.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}

// reconcile rebuilds the scheduler calendar from the current active-report
// set. Called after every definition change; per-report schedule problems
// are warnings, not failures.
func (g *Gateway) reconcile(ctx context.Context) {
	reports, err := g.store.ListActiveReports(ctx)
	if err != nil {
		g.logger.Error("gateway: list active reports for reconcile", "error", err)
		return
	}
	g.calendar.Reconcile(reports)
}

// timeFormat is used for all timestamps in API responses.
const timeFormat = time.RFC3339
