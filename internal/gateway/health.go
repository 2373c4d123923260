package gateway

import "net/http"

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status           string `json:"status"` // "ok" or "degraded"
	SchedulerRunning bool   `json:"scheduler_running"`
	ScheduledReports int    `json:"scheduled_reports"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 while the scheduler loop is running, 503 otherwise.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if g.calendar != nil {
			resp.SchedulerRunning = g.calendar.Running()
			resp.ScheduledReports = g.calendar.Entries()
			if !resp.SchedulerRunning {
				resp.Status = "degraded"
			}
		}

		code := http.StatusOK
		if resp.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
