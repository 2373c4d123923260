package gateway

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/reportd/reportd/internal/report"
)

// runJSON is the serialized run record.
type runJSON struct {
	ID           string `json:"id"`
	ReportID     string `json:"report_id"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at,omitempty"`
	Status       string `json:"status"`
	RowCount     *int   `json:"row_count,omitempty"`
	OutputPath   string `json:"output_path,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func toRunJSON(run *report.Run) runJSON {
	out := runJSON{
		ID:           run.ID,
		ReportID:     run.ReportID,
		StartedAt:    run.StartedAt.Format(timeFormat),
		Status:       string(run.Status),
		RowCount:     run.RowCount,
		OutputPath:   run.OutputPath,
		ErrorMessage: run.ErrorMessage,
	}
	if run.FinishedAt != nil {
		out.FinishedAt = run.FinishedAt.Format(timeFormat)
	}
	return out
}

// handleManualRun triggers a report execution from the calling context and
// blocks until the run reaches a terminal state. A run already in flight for
// the same report yields 409.
func (g *Gateway) handleManualRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := g.exec.Execute(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, report.ErrNotFound):
			writeError(w, http.StatusNotFound, "report not found")
		case errors.Is(err, report.ErrBusy):
			writeError(w, http.StatusConflict, "report is already running")
		case err != nil:
			g.logger.Error("gateway: manual run", "error", err)
			writeError(w, http.StatusInternalServerError, "run execution error: "+err.Error())
		default:
			writeJSON(w, http.StatusCreated, toRunJSON(run))
		}
	}
}

// handleListRuns returns a report's run history, newest first.
func (g *Gateway) handleListRuns() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if _, err := g.store.GetReport(r.Context(), id); err != nil {
			if errors.Is(err, report.ErrNotFound) {
				writeError(w, http.StatusNotFound, "report not found")
				return
			}
			g.logger.Error("gateway: get report", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load report")
			return
		}

		skip, limit := paging(r, 50)
		runs, err := g.store.ListRuns(r.Context(), id, skip, limit)
		if err != nil {
			g.logger.Error("gateway: list runs", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list runs")
			return
		}

		out := make([]runJSON, 0, len(runs))
		for i := range runs {
			out = append(out, toRunJSON(&runs[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleGetRun fetches one run record.
func (g *Gateway) handleGetRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := g.store.GetRun(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, report.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		if err != nil {
			g.logger.Error("gateway: get run", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load run")
			return
		}
		writeJSON(w, http.StatusOK, toRunJSON(run))
	}
}

// handleDownloadArtifact streams the CSV artifact of a successful run.
func (g *Gateway) handleDownloadArtifact() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := g.store.GetRun(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, report.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		if err != nil {
			g.logger.Error("gateway: get run", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load run")
			return
		}

		if run.Status != report.StatusSuccess {
			writeError(w, http.StatusConflict, "run did not complete successfully: status "+string(run.Status))
			return
		}

		if run.OutputPath == "" {
			writeError(w, http.StatusNotFound, "run has no output artifact")
			return
		}
		if _, err := os.Stat(run.OutputPath); err != nil {
			writeError(w, http.StatusNotFound, "output file not found")
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(run.OutputPath)+`"`)
		http.ServeFile(w, r, run.OutputPath)
	}
}
