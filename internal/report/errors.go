package report

import "errors"

// Sentinel errors shared across the core.
var (
	// ErrNotFound indicates the report ID resolves to no stored report.
	ErrNotFound = errors.New("report: not found")

	// ErrRunNotFound indicates the run ID resolves to no stored run.
	ErrRunNotFound = errors.New("report: run not found")

	// ErrBusy indicates an execution for the same report is already in
	// flight. Callers treat it as "already running", not as a failure.
	ErrBusy = errors.New("report: run already in flight")

	// ErrInvalidTransition indicates an illegal run state transition.
	ErrInvalidTransition = errors.New("illegal run transition")
)
