package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/flowtime/internal/store"
)

func sampleData() []store.Entry {
	now := time.Now()
	planned := int64(1_500_000)

	return []store.Entry{
		{
			ID:            "a1",
			TaskName:      "Write report",
			Mode:          store.ModeCountdown,
			TrackedMs:     1_500_000,
			PlannedMs:     &planned,
			CompletedAtMs: now.UnixMilli(),
		},
		{
			ID:            "b2",
			TaskName:      "Inbox zero",
			Mode:          store.ModeStopwatch,
			TrackedMs:     3_661_000,
			CompletedAtMs: now.Add(-time.Hour).UnixMilli(),
		},
		{
			ID:            "c3",
			TaskName:      "Review",
			Mode:          store.ModeCountdown,
			TrackedMs:     60_000,
			CompletedAtMs: now.Add(-2 * time.Hour).UnixMilli(),
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(sampleData(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	records := readCSV(t, path)

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	header := records[0]
	for i, h := range csvHeader {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	row := records[1]
	if row[0] != "a1" || row[1] != "Write report" || row[2] != "countdown" {
		t.Fatalf("unexpected first row %v", row)
	}
	if row[4] != "1500000" {
		t.Fatalf("Tracked (ms) = %q, want 1500000", row[4])
	}
	if row[5] != "00:25:00" {
		t.Fatalf("Tracked = %q, want 00:25:00", row[5])
	}
	if row[6] != "1500000" {
		t.Fatalf("Planned = %q, want 1500000", row[6])
	}
	if _, err := time.Parse(time.RFC3339, row[3]); err != nil {
		t.Fatalf("completed at is not RFC3339: %q", row[3])
	}

	// Stopwatch entries have no plan.
	if records[2][6] != "" {
		t.Fatalf("stopwatch entry should have empty plan, got %q", records[2][6])
	}
	if records[2][5] != "01:01:01" {
		t.Fatalf("Tracked = %q, want 01:01:01", records[2][5])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	err := ToCSV(nil, "/nonexistent/dir/file.csv")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	entries := []store.Entry{
		{ID: "x", TaskName: `Task "Special", with commas`, Mode: store.ModeCountdown, TrackedMs: 1000},
	}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(entries, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][1] != `Task "Special", with commas` {
		t.Fatalf("task name mangled: %q", records[1][1])
	}
}

func TestExportLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := ToCSV(sampleData(), filepath.Join(dir, "out.csv")); err != nil {
		t.Fatal(err)
	}
	if err := ToJSON(sampleData(), filepath.Join(dir, "out.json")); err != nil {
		t.Fatal(err)
	}
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		var names []string
		for _, f := range files {
			names = append(names, f.Name())
		}
		t.Fatalf("expected only the two exports, got %v", names)
	}
}

func TestExportOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "old") {
		t.Fatal("expected the previous file to be replaced")
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(sampleData(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 3 || len(result.Entries) != 3 {
		t.Fatalf("count = %d, entries = %d, want 3", result.Count, len(result.Entries))
	}
	if result.TotalTrackedMs != 1_500_000+3_661_000+60_000 {
		t.Fatalf("total = %d", result.TotalTrackedMs)
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}

	e := result.Entries[0]
	if e.ID != "a1" || e.Task != "Write report" || e.Tracked != "00:25:00" {
		t.Fatalf("unexpected first entry %+v", e)
	}
	if e.PlannedMs == nil || *e.PlannedMs != 1_500_000 {
		t.Fatalf("planned = %v", e.PlannedMs)
	}
	if result.Entries[1].PlannedMs != nil {
		t.Fatal("stopwatch entry should omit planned_ms")
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ToJSON(nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Entries != nil {
		t.Fatal("entries should be nil/null for empty export")
	}
}

func TestToJSONBadPath(t *testing.T) {
	err := ToJSON(nil, "/nonexistent/dir/file.json")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ToJSON(nil, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(string(data), "  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestDefaultPath(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 5, 7, 0, time.UTC)
	got := DefaultPath("/tmp", "csv", now)
	if got != filepath.Join("/tmp", "flowtime-2025-03-10-090507.csv") {
		t.Fatalf("unexpected path %q", got)
	}
}
