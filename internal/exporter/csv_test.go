package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reportd/reportd/internal/query"
)

func TestWrite_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewCSVWriter(dir)

	result := &query.Result{
		Columns: []string{"id", "name"},
		Rows: [][]string{
			{"1", "alice"},
			{"2", "bob, the builder"},
			{"3", `quote "me"`},
		},
	}

	path, rowCount, err := w.Write(result, "Daily Users", "0f8fad5b-d9cb-469f-a165-70867728950e")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if rowCount != 3 {
		t.Fatalf("rowCount = %d, want 3", rowCount)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "Daily_Users_") {
		t.Fatalf("filename %q should start with the sanitized report name", base)
	}
	if !strings.Contains(base, "0f8fad5b") || strings.Contains(base, "d9cb") {
		t.Fatalf("filename %q should embed only the 8-char run prefix", base)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want header + 3 rows", len(records))
	}
	if records[0][0] != "id" || records[0][1] != "name" {
		t.Fatalf("header = %v", records[0])
	}
	if records[2][1] != "bob, the builder" {
		t.Fatalf("comma not preserved: %q", records[2][1])
	}
	if records[3][1] != `quote "me"` {
		t.Fatalf("quote not preserved: %q", records[3][1])
	}
}

func TestWrite_EmptyResult(t *testing.T) {
	t.Parallel()

	w := NewCSVWriter(t.TempDir())
	result := &query.Result{Columns: []string{"a", "b"}}

	path, rowCount, err := w.Write(result, "empty", "run-1")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if rowCount != 0 {
		t.Fatalf("rowCount = %d, want 0", rowCount)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if strings.TrimSpace(string(data)) != "a,b" {
		t.Fatalf("empty result should contain only the header, got %q", data)
	}
}

func TestWrite_CreatesOutputDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "outputs")
	w := NewCSVWriter(dir)

	if _, _, err := w.Write(&query.Result{Columns: []string{"x"}}, "r", "run-1"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("output dir not created: %v", err)
	}
}

func TestSafeName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Daily Users":     "Daily_Users",
		"weird/../path":   "weirdpath",
		"metrics-2024_v2": "metrics-2024_v2",
		"  trimmed  ":     "trimmed",
		"!!!":             "report",
		"":                "report",
	}
	for in, want := range cases {
		if got := safeName(in); got != want {
			t.Errorf("safeName(%q) = %q, want %q", in, got, want)
		}
	}
}
