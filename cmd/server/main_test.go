package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRunReturnsConfigErrors(t *testing.T) {
	t.Setenv("FLOWTIME_LOG_LEVEL", "loud")

	err := run()
	if err == nil || !strings.Contains(err.Error(), "configure logging") {
		t.Fatalf("expected a logging error, got %v", err)
	}
}

func TestRunReturnsListenErrors(t *testing.T) {
	t.Setenv("FLOWTIME_LOG_LEVEL", "error")
	t.Setenv("FLOWTIME_LOG_FILE", filepath.Join(t.TempDir(), "server.log"))
	t.Setenv("FLOWTIME_DB_PATH", filepath.Join(t.TempDir(), "time-tracker.db"))
	t.Setenv("PORT", "-1")

	err := run()
	if err == nil || !strings.Contains(err.Error(), "run server") {
		t.Fatalf("expected a listen error, got %v", err)
	}
}
