package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sadopc/flowtime/internal/duration"
	"github.com/sadopc/flowtime/internal/store"
)

var csvHeader = []string{"ID", "Task", "Mode", "Completed At", "Tracked (ms)", "Tracked", "Planned (ms)"}

// ToCSV writes one row per journal entry, newest first as given.
func ToCSV(entries []store.Entry, path string) error {
	return writeAtomic(path, func(out io.Writer) error {
		w := csv.NewWriter(out)

		if err := w.Write(csvHeader); err != nil {
			return err
		}

		for _, e := range entries {
			planned := ""
			if e.PlannedMs != nil {
				planned = strconv.FormatInt(*e.PlannedMs, 10)
			}
			row := []string{
				e.ID,
				e.TaskName,
				e.Mode,
				completedAt(e).Format(time.RFC3339),
				strconv.FormatInt(e.TrackedMs, 10),
				duration.Format(e.TrackedMs),
				planned,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}

		w.Flush()
		return w.Error()
	})
}

func completedAt(e store.Entry) time.Time {
	return time.UnixMilli(e.CompletedAtMs).Local()
}

// writeAtomic writes through a temp file in the target directory and
// renames it into place, so a failed export never leaves a partial file.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".flowtime-export-*")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("chmod export file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}
	return nil
}

// DefaultPath names an export file in dir, e.g.
// flowtime-2025-03-10-090000.csv.
func DefaultPath(dir, ext string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("flowtime-%s.%s", now.Format("2006-01-02-150405"), ext))
}
