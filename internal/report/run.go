package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of one execution attempt.
type RunStatus string

// Run lifecycle states. QUEUED → RUNNING → SUCCESS | FAILED; no transition
// skips a state, no transition leaves a terminal state.
const (
	StatusQueued  RunStatus = "QUEUED"
	StatusRunning RunStatus = "RUNNING"
	StatusSuccess RunStatus = "SUCCESS"
	StatusFailed  RunStatus = "FAILED"
)

// Terminal reports whether the status permits no further transitions.
func (s RunStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Run is one execution attempt of a report. FinishedAt is set exactly when
// the run is terminal; RowCount and OutputPath only on SUCCESS; ErrorMessage
// only on FAILED.
type Run struct {
	ID           string
	ReportID     string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Status       RunStatus
	RowCount     *int
	OutputPath   string
	ErrorMessage string
}

// NewRun creates a run record in QUEUED state with StartedAt set to now.
func NewRun(reportID string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		ReportID:  reportID,
		StartedAt: time.Now().UTC(),
		Status:    StatusQueued,
	}
}

// Start transitions QUEUED → RUNNING.
func (r *Run) Start() error {
	if r.Status != StatusQueued {
		return fmt.Errorf("report: %w: %s → %s", ErrInvalidTransition, r.Status, StatusRunning)
	}
	r.Status = StatusRunning
	return nil
}

// Succeed transitions RUNNING → SUCCESS, recording the artifact path, the
// exported row count, and the finish time.
func (r *Run) Succeed(outputPath string, rowCount int) error {
	if r.Status != StatusRunning {
		return fmt.Errorf("report: %w: %s → %s", ErrInvalidTransition, r.Status, StatusSuccess)
	}
	now := time.Now().UTC()
	r.Status = StatusSuccess
	r.FinishedAt = &now
	r.OutputPath = outputPath
	r.RowCount = &rowCount
	return nil
}

// Fail transitions RUNNING → FAILED, capturing the error description verbatim
// and the finish time.
func (r *Run) Fail(message string) error {
	if r.Status != StatusRunning {
		return fmt.Errorf("report: %w: %s → %s", ErrInvalidTransition, r.Status, StatusFailed)
	}
	now := time.Now().UTC()
	r.Status = StatusFailed
	r.FinishedAt = &now
	r.ErrorMessage = message
	return nil
}
