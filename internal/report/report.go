// Package report defines the core domain types: report definitions, run
// records, and the run lifecycle state machine.
package report

import (
	"time"

	"github.com/google/uuid"
)

// OutputFormatCSV is the only output format currently implemented.
const OutputFormatCSV = "CSV"

// Report is a persisted definition of a recurring read-only query, its
// schedule, and its output format. The scheduler holds a read-only snapshot
// per cycle; the store owns the durable record.
type Report struct {
	ID           string
	Name         string
	Description  string
	SQLQuery     string
	ScheduleCron string
	OutputFormat string
	IsActive     bool
	CreatedAt    time.Time
}

// NewReport creates a report definition with a fresh ID and creation time.
// Validation (schedule, query, format) is the caller's responsibility.
func NewReport(name, description, sqlQuery, scheduleCron, outputFormat string, active bool) *Report {
	if outputFormat == "" {
		outputFormat = OutputFormatCSV
	}
	return &Report{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  description,
		SQLQuery:     sqlQuery,
		ScheduleCron: scheduleCron,
		OutputFormat: outputFormat,
		IsActive:     active,
		CreatedAt:    time.Now().UTC(),
	}
}
