package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := newTestClock()
	s, err := New(filepath.Join(t.TempDir(), "history.db"), Options{Now: clock.Now})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s, clock
}

func ptr[T any](v T) *T { return &v }

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(context.Background())

	entries, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty journal, got %d entries", len(entries))
	}
}

func TestNewRejectsEmptyPath(t *testing.T) {
	if _, err := New("", Options{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "time-tracker.db")

	s, err := New(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, NewEntry{TaskName: "Deep work", TrackedMs: 60_000}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}

	// Reopen: the schema must not be re-created.
	s2, err := New(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close(ctx)
	entries, err := s2.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].TaskName != "Deep work" {
		t.Fatalf("unexpected entries after reopen: %+v", entries)
	}
}

func TestDefaultDBPath(t *testing.T) {
	t.Setenv("FLOWTIME_DB_PATH", "")
	t.Setenv("FLOWTIME_DB_DIR", "")
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "time-tracker.db" {
		t.Fatalf("expected time-tracker.db, got %q", path)
	}
}

func TestDefaultDBPathEnv(t *testing.T) {
	t.Setenv("FLOWTIME_DB_PATH", "")
	t.Setenv("FLOWTIME_DB_DIR", "/data/flowtime")
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/data/flowtime", "time-tracker.db") {
		t.Fatalf("unexpected path %q", path)
	}

	t.Setenv("FLOWTIME_DB_PATH", "/tmp/custom.db")
	path, err = DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/tmp/custom.db" {
		t.Fatalf("expected explicit path, got %q", path)
	}
}

// ============================================================
// Entries
// ============================================================

func TestAddAndList(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	got, err := s.Add(ctx, NewEntry{
		TaskName:  "Write report",
		Mode:      ModeCountdown,
		TrackedMs: 1_500_000,
		PlannedMs: ptr(1_500_000.0),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if got.TaskName != "Write report" || got.Mode != ModeCountdown || got.TrackedMs != 1_500_000 {
		t.Fatalf("unexpected stored entry: %+v", got)
	}
	if got.PlannedMs == nil || *got.PlannedMs != 1_500_000 {
		t.Fatalf("expected plannedMs 1500000, got %v", got.PlannedMs)
	}
	wantMs := clock.Now().UnixMilli()
	if got.CompletedAtMs != wantMs || got.CreatedAt != wantMs || got.UpdatedAt != wantMs {
		t.Fatalf("expected timestamps %d, got %+v", wantMs, got)
	}
	if got.CompletedAt != "2025-03-10T09:00:00.000Z" {
		t.Fatalf("unexpected completedAt %q", got.CompletedAt)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != got.ID || entries[0].TrackedMs != got.TrackedMs {
		t.Fatalf("expected the stored entry back, got %+v", entries)
	}
}

func TestListOrdering(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	base := clock.Now().UnixMilli()
	add := func(name string, completedAtMs int64) {
		t.Helper()
		if _, err := s.Add(ctx, NewEntry{TaskName: name, TrackedMs: 1000, CompletedAtMs: ptr(completedAtMs)}); err != nil {
			t.Fatal(err)
		}
		clock.Advance(time.Second)
	}
	add("oldest", base-60_000)
	add("tie-first", base)
	add("newest", base+60_000)
	add("tie-second", base)

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"newest", "tie-second", "tie-first", "oldest"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, name := range want {
		if entries[i].TaskName != name {
			t.Errorf("position %d: expected %q, got %q", i, name, entries[i].TaskName)
		}
	}
}

func TestAddValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry NewEntry
		field string
	}{
		{"empty task", NewEntry{TaskName: "   ", TrackedMs: 10}, "taskName"},
		{"negative tracked", NewEntry{TaskName: "x", TrackedMs: -1}, "trackedMs"},
		{"zero tracked", NewEntry{TaskName: "x", TrackedMs: 0}, "trackedMs"},
		{"NaN tracked", NewEntry{TaskName: "x", TrackedMs: math.NaN()}, "trackedMs"},
		{"bad completedAt", NewEntry{TaskName: "x", TrackedMs: 1, CompletedAt: "yesterday"}, "completedAt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(ctx, tt.entry)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, ve.Field)
			}
		})
	}

	entries, _ := s.List(ctx)
	if len(entries) != 0 {
		t.Fatalf("invalid entries must not be stored, got %d", len(entries))
	}
}

func TestAddCoercion(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	e, err := s.Add(ctx, NewEntry{TaskName: "  Review  ", Mode: "weird", TrackedMs: 1234.6, PlannedMs: ptr(-50.0)})
	if err != nil {
		t.Fatal(err)
	}
	if e.TaskName != "Review" {
		t.Errorf("expected trimmed task name, got %q", e.TaskName)
	}
	if e.Mode != ModeCountdown {
		t.Errorf("expected unknown mode coerced to countdown, got %q", e.Mode)
	}
	if e.TrackedMs != 1235 {
		t.Errorf("expected rounded trackedMs 1235, got %d", e.TrackedMs)
	}
	if e.PlannedMs == nil || *e.PlannedMs != 0 {
		t.Errorf("expected negative plannedMs clamped to 0, got %v", e.PlannedMs)
	}

	sw, err := s.Add(ctx, NewEntry{TaskName: "Open", Mode: ModeStopwatch, TrackedMs: 5000, PlannedMs: ptr(9000.0)})
	if err != nil {
		t.Fatal(err)
	}
	if sw.PlannedMs != nil {
		t.Errorf("stopwatch entries carry no plan, got %v", *sw.PlannedMs)
	}
	if sw.Mode != ModeStopwatch {
		t.Errorf("expected stopwatch, got %q", sw.Mode)
	}
}

func TestAddCompletedAtDerivation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	fromISO, err := s.Add(ctx, NewEntry{TaskName: "a", TrackedMs: 1, CompletedAt: "2024-12-31T23:00:00.000Z"})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC).UnixMilli()
	if fromISO.CompletedAtMs != want {
		t.Errorf("expected completedAtMs %d, got %d", want, fromISO.CompletedAtMs)
	}

	fromMs, err := s.Add(ctx, NewEntry{TaskName: "b", TrackedMs: 1, CompletedAtMs: ptr(want)})
	if err != nil {
		t.Fatal(err)
	}
	if fromMs.CompletedAt != "2024-12-31T23:00:00.000Z" {
		t.Errorf("unexpected derived completedAt %q", fromMs.CompletedAt)
	}
}

func TestAddKeepsCallerID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	e, err := s.Add(ctx, NewEntry{ID: "entry-1", TaskName: "x", TrackedMs: 1})
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != "entry-1" {
		t.Fatalf("expected caller id, got %q", e.ID)
	}
	if _, err := s.Add(ctx, NewEntry{ID: "entry-1", TaskName: "y", TrackedMs: 1}); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	e, err := s.Add(ctx, NewEntry{TaskName: "x", TrackedMs: 1})
	if err != nil {
		t.Fatal(err)
	}
	ok, err := s.Delete(ctx, e.ID)
	if err != nil || !ok {
		t.Fatalf("expected delete to report true, got %v, %v", ok, err)
	}
	ok, err = s.Delete(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("second delete must report false")
	}
}

func TestClear(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := s.Add(ctx, NewEntry{TaskName: name, TrackedMs: 1}); err != nil {
			t.Fatal(err)
		}
	}
	ok, err := s.Clear(ctx)
	if err != nil || !ok {
		t.Fatalf("clear: %v, %v", ok, err)
	}
	entries, _ := s.List(ctx)
	if len(entries) != 0 {
		t.Fatalf("expected empty journal, got %d", len(entries))
	}
	// Clearing an empty journal still succeeds.
	if ok, err := s.Clear(ctx); err != nil || !ok {
		t.Fatalf("clear empty: %v, %v", ok, err)
	}
}

func TestConcurrentAdds(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Add(ctx, NewEntry{TaskName: "parallel", TrackedMs: 10}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 20 {
		t.Fatalf("expected 20 entries, got %d", len(entries))
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettings(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSetting(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.SetSetting(ctx, "language", "de"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(ctx, "language", "en"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting(ctx, "language")
	if err != nil {
		t.Fatal(err)
	}
	if v != "en" {
		t.Fatalf("expected overwritten value en, got %q", v)
	}

	if err := s.SetSetting(ctx, "other", "1"); err != nil {
		t.Fatal(err)
	}
	all, err := s.Settings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all["language"] != "en" || all["other"] != "1" {
		t.Fatalf("unexpected settings %v", all)
	}

	var ve *ValidationError
	if err := s.SetSetting(ctx, "", "x"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty key, got %v", err)
	}
}

// ============================================================
// Supervision
// ============================================================

func TestWorkerCrashRejectsAndRespawns(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Add(ctx, NewEntry{TaskName: "before", TrackedMs: 1}); err != nil {
		t.Fatal(err)
	}

	var crashed atomic.Bool
	s.beforeHandle = func(req request) {
		if req.Type == typeDeleteEntry && crashed.CompareAndSwap(false, true) {
			panic("boom")
		}
	}

	_, err := s.Delete(ctx, "anything")
	if !IsUnavailable(err) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if !errors.Is(err, ErrWorkerCrashed) {
		t.Fatalf("expected ErrWorkerCrashed in chain, got %v", err)
	}

	// A fresh worker serves the next request against the same file.
	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list after crash: %v", err)
	}
	if len(entries) != 1 || entries[0].TaskName != "before" {
		t.Fatalf("expected data to survive the crash, got %+v", entries)
	}
}

func TestContextCancelWhileWorkerBusy(t *testing.T) {
	s, _ := newTestStore(t)

	gate := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	s.beforeHandle = func(req request) {
		if req.Type == typeListEntries {
			once.Do(func() {
				close(entered)
				<-gate
			})
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.List(context.Background())
		done <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.Clear(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("blocked list: %v", err)
	}
}

// ============================================================
// Close
// ============================================================

func TestCloseIsIdempotentAndFailsFast(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}

	_, err := s.List(ctx)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if !IsUnavailable(err) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
}

func TestCloseWithCancelledContextStopsWorker(t *testing.T) {
	for i := 0; i < 20; i++ {
		s, _ := newTestStore(t)
		ctx := context.Background()
		if _, err := s.List(ctx); err != nil {
			t.Fatal(err)
		}

		s.mu.Lock()
		w := s.w
		s.mu.Unlock()
		if w == nil {
			t.Fatal("expected a live worker")
		}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		s.Close(cancelled)

		select {
		case <-w.done:
		case <-time.After(5 * time.Second):
			t.Fatalf("run %d: worker still holds the database after close", i)
		}
		if _, err := s.List(ctx); !errors.Is(err, ErrClosed) {
			t.Fatalf("run %d: expected ErrClosed, got %v", i, err)
		}
	}
}

func TestCloseDrainsQueuedRequests(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drain.db")
	s, err := New(path, Options{})
	if err != nil {
		t.Fatal(err)
	}

	var (
		wg      sync.WaitGroup
		stored  atomic.Int64
		refused atomic.Int64
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(ctx, NewEntry{TaskName: "queued", TrackedMs: 1})
			switch {
			case err == nil:
				stored.Add(1)
			case IsUnavailable(err):
				refused.Add(1)
			default:
				t.Error(err)
			}
		}()
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	wg.Wait()

	if stored.Load()+refused.Load() != 10 {
		t.Fatalf("every call must resolve: stored %d refused %d", stored.Load(), refused.Load())
	}

	s2, err := New(path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close(ctx)
	entries, err := s2.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(entries)) != stored.Load() {
		t.Fatalf("expected %d persisted entries, got %d", stored.Load(), len(entries))
	}
}
