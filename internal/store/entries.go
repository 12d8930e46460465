package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const isoMillis = "2006-01-02T15:04:05.000Z"

// preparedEntry is a NewEntry after validation and coercion. Only prepared
// entries are sent to the worker.
type preparedEntry struct {
	ID            string
	TaskName      string
	Mode          string
	TrackedMs     int64
	PlannedMs     *int64
	CompletedAt   string
	CompletedAtMs int64
}

// Add validates e, persists it and returns the stored row including the
// assigned id and timestamps.
func (s *Store) Add(ctx context.Context, e NewEntry) (*Entry, error) {
	p, err := prepareEntry(e, s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.call(ctx, typeInsertEntry, p)
	if err != nil {
		return nil, fmt.Errorf("add entry: %w", err)
	}
	return out.(*Entry), nil
}

// List returns every entry, newest completion first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	out, err := s.call(ctx, typeListEntries, nil)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return out.([]Entry), nil
}

// Delete removes the entry with the given id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	out, err := s.call(ctx, typeDeleteEntry, id)
	if err != nil {
		return false, fmt.Errorf("delete entry %q: %w", id, err)
	}
	return out.(bool), nil
}

func (s *Store) Clear(ctx context.Context) (bool, error) {
	out, err := s.call(ctx, typeClearEntries, nil)
	if err != nil {
		return false, fmt.Errorf("clear entries: %w", err)
	}
	return out.(bool), nil
}

func prepareEntry(e NewEntry, now time.Time) (preparedEntry, error) {
	var p preparedEntry

	p.TaskName = strings.TrimSpace(e.TaskName)
	if p.TaskName == "" {
		return p, &ValidationError{Field: "taskName", Message: "task name is required"}
	}

	// Only sessions with tracked time are recorded.
	if !(e.TrackedMs > 0) || math.IsInf(e.TrackedMs, 0) {
		return p, &ValidationError{Field: "trackedMs", Message: "must be a positive number"}
	}
	p.TrackedMs = int64(math.Round(e.TrackedMs))

	p.Mode = ModeCountdown
	if e.Mode == ModeStopwatch {
		p.Mode = ModeStopwatch
	}

	if e.PlannedMs != nil && p.Mode == ModeCountdown {
		v := *e.PlannedMs
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return p, &ValidationError{Field: "plannedMs", Message: "must be a number"}
		}
		planned := int64(math.Round(math.Max(0, v)))
		p.PlannedMs = &planned
	}

	switch {
	case e.CompletedAtMs != nil:
		p.CompletedAtMs = *e.CompletedAtMs
	case e.CompletedAt != "":
		t, err := time.Parse(time.RFC3339Nano, e.CompletedAt)
		if err != nil {
			return p, &ValidationError{Field: "completedAt", Message: "must be an ISO-8601 timestamp"}
		}
		p.CompletedAtMs = t.UnixMilli()
	default:
		p.CompletedAtMs = now.UnixMilli()
	}
	p.CompletedAt = e.CompletedAt
	if p.CompletedAt == "" {
		p.CompletedAt = time.UnixMilli(p.CompletedAtMs).UTC().Format(isoMillis)
	}

	p.ID = strings.TrimSpace(e.ID)
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p, nil
}

// ==== worker side ====

const selectEntry = `SELECT id, task_name, mode, tracked_ms, planned_ms, completed_at, completed_at_ms, created_at, updated_at
	FROM history_entries`

func (s *Store) insertEntry(db *sql.DB, p preparedEntry) (*Entry, error) {
	stamp := s.now().UnixMilli()
	var planned any
	if p.PlannedMs != nil {
		planned = *p.PlannedMs
	}
	_, err := db.Exec(
		`INSERT INTO history_entries
			(id, task_name, mode, tracked_ms, planned_ms, completed_at, completed_at_ms, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TaskName, p.Mode, p.TrackedMs, planned, p.CompletedAt, p.CompletedAtMs, stamp, stamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return getEntry(db, p.ID)
}

func getEntry(db *sql.DB, id string) (*Entry, error) {
	row := db.QueryRow(selectEntry+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("get entry %q: %w", id, err)
	}
	return e, nil
}

func listEntries(db *sql.DB) ([]Entry, error) {
	rows, err := db.Query(selectEntry + ` ORDER BY completed_at_ms DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	e := &Entry{}
	var planned sql.NullInt64
	err := sc.Scan(&e.ID, &e.TaskName, &e.Mode, &e.TrackedMs, &planned,
		&e.CompletedAt, &e.CompletedAtMs, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if planned.Valid {
		e.PlannedMs = &planned.Int64
	}
	return e, nil
}

func deleteEntry(db *sql.DB, id string) (bool, error) {
	res, err := db.Exec(`DELETE FROM history_entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func clearEntries(db *sql.DB) (bool, error) {
	if _, err := db.Exec(`DELETE FROM history_entries`); err != nil {
		return false, fmt.Errorf("clear entries: %w", err)
	}
	return true, nil
}
