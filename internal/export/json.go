package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sadopc/flowtime/internal/duration"
	"github.com/sadopc/flowtime/internal/store"
)

type jsonExport struct {
	ExportedAt     string      `json:"exported_at"`
	Count          int         `json:"count"`
	TotalTrackedMs int64       `json:"total_tracked_ms"`
	Entries        []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string `json:"id"`
	Task        string `json:"task"`
	Mode        string `json:"mode"`
	CompletedAt string `json:"completed_at"`
	TrackedMs   int64  `json:"tracked_ms"`
	Tracked     string `json:"tracked"`
	PlannedMs   *int64 `json:"planned_ms,omitempty"`
}

func ToJSON(entries []store.Entry, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		export.TotalTrackedMs += e.TrackedMs
		export.Entries = append(export.Entries, jsonEntry{
			ID:          e.ID,
			Task:        e.TaskName,
			Mode:        e.Mode,
			CompletedAt: completedAt(e).Format(time.RFC3339),
			TrackedMs:   e.TrackedMs,
			Tracked:     duration.Format(e.TrackedMs),
			PlannedMs:   e.PlannedMs,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
