// Package exporter serializes query results to durable output artifacts.
// Delimited text (CSV) is the only implemented format.
package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reportd/reportd/internal/query"
)

// Writer serializes a tabular result to a named artifact and reports its
// location and row count.
type Writer interface {
	Write(result *query.Result, reportName, runID string) (path string, rowCount int, err error)
}

// CSVWriter writes results as CSV files under a fixed output directory.
type CSVWriter struct {
	outputDir string
}

// NewCSVWriter creates a writer rooted at outputDir. The directory is
// created lazily on first write.
func NewCSVWriter(outputDir string) *CSVWriter {
	return &CSVWriter{outputDir: outputDir}
}

// Compile-time interface check.
var _ Writer = (*CSVWriter)(nil)

// Write serializes the result to <name>_<timestamp>_<run>.csv. The file name
// embeds a second-resolution timestamp plus a run-ID prefix so concurrent
// runs can never collide.
func (w *CSVWriter) Write(result *query.Result, reportName, runID string) (string, int, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("exporter: create output dir %s: %w", w.outputDir, err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s_%s.csv", safeName(reportName), timestamp, shortID(runID))
	path := filepath.Join(w.outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("exporter: create %s: %w", path, err)
	}

	cw := csv.NewWriter(f)

	if err := cw.Write(result.Columns); err != nil {
		_ = f.Close()
		return "", 0, fmt.Errorf("exporter: write header: %w", err)
	}

	rowCount := 0
	for _, row := range result.Rows {
		if err := cw.Write(row); err != nil {
			_ = f.Close()
			return "", 0, fmt.Errorf("exporter: write row %d: %w", rowCount, err)
		}
		rowCount++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return "", 0, fmt.Errorf("exporter: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("exporter: close %s: %w", path, err)
	}

	return path, rowCount, nil
}

// safeName keeps letters, digits, dashes and underscores; spaces become
// underscores, everything else is dropped.
func safeName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "report"
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
