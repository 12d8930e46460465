package store

const (
	ModeCountdown = "countdown"
	ModeStopwatch = "stopwatch"
)

// Entry is one completed focus session as stored. Entries are never updated
// in place.
type Entry struct {
	ID            string `json:"id"`
	TaskName      string `json:"taskName"`
	Mode          string `json:"mode"`
	TrackedMs     int64  `json:"trackedMs"`
	PlannedMs     *int64 `json:"plannedMs"`
	CompletedAt   string `json:"completedAt"`
	CompletedAtMs int64  `json:"completedAtMs"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
}

// NewEntry is the caller-supplied shape for Add. Numbers are floats because
// they usually arrive from JSON; they are validated and rounded before use.
// Either CompletedAt or CompletedAtMs may be omitted and is derived from the
// other (or from the current time when both are missing).
type NewEntry struct {
	ID            string   `json:"id,omitempty"`
	TaskName      string   `json:"taskName"`
	Mode          string   `json:"mode"`
	TrackedMs     float64  `json:"trackedMs"`
	PlannedMs     *float64 `json:"plannedMs,omitempty"`
	CompletedAt   string   `json:"completedAt,omitempty"`
	CompletedAtMs *int64   `json:"completedAtMs,omitempty"`
}

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
