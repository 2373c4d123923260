package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public: no auth required.
	r.Get("/health", g.handleHealth())
	if g.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if g.cfg.Auth.IsConfigured() {
			r.Use(authMiddleware(g.cfg.Auth))
		}
		r.Route("/api", func(r chi.Router) {
			r.Post("/reports", g.handleCreateReport())
			r.Get("/reports", g.handleListReports())
			r.Get("/reports/{id}", g.handleGetReport())
			r.Put("/reports/{id}", g.handleUpdateReport())
			r.Post("/reports/{id}/run", g.handleManualRun())
			r.Get("/reports/{id}/runs", g.handleListRuns())
			r.Get("/runs/{id}", g.handleGetRun())
			r.Get("/runs/{id}/download", g.handleDownloadArtifact())
		})
	})

	return r
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
