package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/reportd/reportd/internal/report"
	"github.com/reportd/reportd/internal/schedule"
	"github.com/reportd/reportd/internal/validate"
)

// reportJSON is the serialized report definition.
type reportJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	SQLQuery     string `json:"sql_query"`
	ScheduleCron string `json:"schedule_cron"`
	OutputFormat string `json:"output_format"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}

func toReportJSON(r *report.Report) reportJSON {
	return reportJSON{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		SQLQuery:     r.SQLQuery,
		ScheduleCron: r.ScheduleCron,
		OutputFormat: r.OutputFormat,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt.Format(timeFormat),
	}
}

// createReportRequest is the POST /api/reports body.
type createReportRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SQLQuery     string `json:"sql_query"`
	ScheduleCron string `json:"schedule_cron"`
	OutputFormat string `json:"output_format"`
	IsActive     *bool  `json:"is_active"`
}

// updateReportRequest is the PUT /api/reports/{id} body; absent fields keep
// their current value.
type updateReportRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	SQLQuery     *string `json:"sql_query"`
	ScheduleCron *string `json:"schedule_cron"`
	OutputFormat *string `json:"output_format"`
	IsActive     *bool   `json:"is_active"`
}

// validateDefinition applies the guards shared by create and update.
func validateDefinition(name, sqlQuery, scheduleCron, outputFormat string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	if _, err := schedule.Parse(scheduleCron); err != nil {
		return err
	}
	if err := validate.Query(sqlQuery); err != nil {
		return err
	}
	if !strings.EqualFold(outputFormat, report.OutputFormatCSV) {
		return errors.New("output_format must be CSV: no other format is implemented")
	}
	return nil
}

// handleCreateReport creates a report definition and reconciles the
// calendar. Invalid schedules or non-read-only queries are rejected here:
// they never reach the calendar or the query sink.
func (g *Gateway) handleCreateReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}

		if req.OutputFormat == "" {
			req.OutputFormat = report.OutputFormatCSV
		}
		if err := validateDefinition(req.Name, req.SQLQuery, req.ScheduleCron, req.OutputFormat); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		active := true
		if req.IsActive != nil {
			active = *req.IsActive
		}

		rep := report.NewReport(req.Name, req.Description, req.SQLQuery, req.ScheduleCron, strings.ToUpper(req.OutputFormat), active)
		if err := g.store.CreateReport(r.Context(), rep); err != nil {
			g.logger.Error("gateway: create report", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to store report")
			return
		}

		if rep.IsActive {
			g.reconcile(r.Context())
		}

		writeJSON(w, http.StatusCreated, toReportJSON(rep))
	}
}

// handleUpdateReport updates a report definition (including activating or
// deactivating it) and reconciles the calendar.
func (g *Gateway) handleUpdateReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rep, err := g.store.GetReport(r.Context(), id)
		if errors.Is(err, report.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		if err != nil {
			g.logger.Error("gateway: get report", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load report")
			return
		}

		var req updateReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}

		if req.Name != nil {
			rep.Name = *req.Name
		}
		if req.Description != nil {
			rep.Description = *req.Description
		}
		if req.SQLQuery != nil {
			rep.SQLQuery = *req.SQLQuery
		}
		if req.ScheduleCron != nil {
			rep.ScheduleCron = *req.ScheduleCron
		}
		if req.OutputFormat != nil {
			rep.OutputFormat = strings.ToUpper(*req.OutputFormat)
		}
		if req.IsActive != nil {
			rep.IsActive = *req.IsActive
		}

		if err := validateDefinition(rep.Name, rep.SQLQuery, rep.ScheduleCron, rep.OutputFormat); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := g.store.UpdateReport(r.Context(), rep); err != nil {
			g.logger.Error("gateway: update report", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to store report")
			return
		}

		g.reconcile(r.Context())
		writeJSON(w, http.StatusOK, toReportJSON(rep))
	}
}

// handleListReports lists report definitions with skip/limit paging.
func (g *Gateway) handleListReports() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit := paging(r, 100)

		reports, err := g.store.ListReports(r.Context(), skip, limit)
		if err != nil {
			g.logger.Error("gateway: list reports", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list reports")
			return
		}

		out := make([]reportJSON, 0, len(reports))
		for i := range reports {
			out = append(out, toReportJSON(&reports[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleGetReport fetches one report definition.
func (g *Gateway) handleGetReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := g.store.GetReport(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, report.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		if err != nil {
			g.logger.Error("gateway: get report", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load report")
			return
		}
		writeJSON(w, http.StatusOK, toReportJSON(rep))
	}
}

// paging reads skip/limit query parameters with a default page size.
func paging(r *http.Request, defaultLimit int) (skip, limit int) {
	limit = defaultLimit
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return skip, limit
}
