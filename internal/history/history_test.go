package history

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/flowtime/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "history.db"), store.Options{})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

// flakyBackend fails List until fail is cleared, counting calls.
type flakyBackend struct {
	Backend
	mu    sync.Mutex
	fail  bool
	lists int
}

func (b *flakyBackend) List(ctx context.Context) ([]store.Entry, error) {
	b.mu.Lock()
	b.lists++
	fail := b.fail
	b.mu.Unlock()
	if fail {
		return nil, errors.New("disk on fire")
	}
	return b.Backend.List(ctx)
}

// stuckBackend blocks List until the caller's context ends.
type stuckBackend struct {
	Backend
}

func (stuckBackend) List(ctx context.Context) ([]store.Entry, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func ms(v int64) *int64 { return &v }

// ============================================================
// Journal
// ============================================================

func TestJournalReadyLoadsPersistedEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Add(ctx, store.NewEntry{TaskName: "earlier", TrackedMs: 1000}); err != nil {
		t.Fatal(err)
	}

	j := NewJournal(s, nil)
	if j.IsReady() {
		t.Fatal("journal must not be ready before Ready")
	}
	if err := j.Ready(ctx); err != nil {
		t.Fatal(err)
	}
	if got := j.Entries(); len(got) != 1 || got[0].TaskName != "earlier" {
		t.Fatalf("unexpected mirror %+v", got)
	}
}

func TestJournalReadySharedAndRetried(t *testing.T) {
	b := &flakyBackend{Backend: newTestStore(t), fail: true}
	j := NewJournal(b, nil)
	ctx := context.Background()

	if err := j.Ready(ctx); err == nil {
		t.Fatal("expected load failure")
	}
	if j.IsReady() {
		t.Fatal("failed load must not mark ready")
	}

	b.mu.Lock()
	b.fail = false
	b.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := j.Ready(ctx); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	b.mu.Lock()
	lists := b.lists
	b.mu.Unlock()
	if lists > 6 {
		t.Fatalf("expected loads to be shared, got %d List calls", lists)
	}
	if err := j.Ready(ctx); err != nil {
		t.Fatal(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lists != lists {
		t.Fatal("Ready after a successful load must not reload")
	}
}

func TestJournalLoadGivesUpOnStuckBackend(t *testing.T) {
	j := NewJournal(stuckBackend{}, nil)
	j.loadTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := j.Ready(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the load to time out, got %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("load outlived its own timeout")
	}
	if j.IsReady() {
		t.Fatal("journal must not be ready after a failed load")
	}

	j.mu.Lock()
	loading := j.loading
	j.mu.Unlock()
	if loading != nil {
		t.Fatal("a timed out load must allow a retry")
	}
}

func TestJournalAddPersistsThenMirrors(t *testing.T) {
	s := newTestStore(t)
	j := NewJournal(s, nil)
	ctx := context.Background()

	e, err := j.Add(ctx, store.NewEntry{TaskName: "Write report", Mode: store.ModeCountdown, TrackedMs: 1_500_000})
	if err != nil {
		t.Fatal(err)
	}
	persisted, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 1 || persisted[0].ID != e.ID {
		t.Fatalf("entry not persisted: %+v", persisted)
	}
	if got := j.Entries(); len(got) != 1 || got[0].ID != e.ID {
		t.Fatalf("entry not mirrored: %+v", got)
	}
}

func TestJournalAddRefusesEmptySessions(t *testing.T) {
	j := NewJournal(newTestStore(t), nil)
	ctx := context.Background()

	var ve *store.ValidationError
	if _, err := j.Add(ctx, store.NewEntry{TaskName: "x", TrackedMs: 0}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for zero tracked time, got %v", err)
	}
	if _, err := j.Add(ctx, store.NewEntry{TaskName: " ", TrackedMs: 10}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty task, got %v", err)
	}
	if len(j.Entries()) != 0 {
		t.Fatal("refused sessions must not be mirrored")
	}
}

func TestJournalAddFailureLeavesMirror(t *testing.T) {
	s := newTestStore(t)
	j := NewJournal(s, nil)
	ctx := context.Background()
	if err := j.Ready(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}

	_, err := j.Add(ctx, store.NewEntry{TaskName: "x", TrackedMs: 10})
	if !store.IsUnavailable(err) {
		t.Fatalf("expected unavailable store, got %v", err)
	}
	if len(j.Entries()) != 0 {
		t.Fatal("failed add must not be mirrored")
	}
}

func TestJournalOrderingAndDelete(t *testing.T) {
	j := NewJournal(newTestStore(t), nil)
	ctx := context.Background()

	add := func(name string, completed int64) *store.Entry {
		t.Helper()
		e, err := j.Add(ctx, store.NewEntry{TaskName: name, TrackedMs: 1000, CompletedAtMs: ms(completed)})
		if err != nil {
			t.Fatal(err)
		}
		return e
	}
	add("middle", 2000)
	add("oldest", 1000)
	newest := add("newest", 3000)

	got := j.Entries()
	want := []string{"newest", "middle", "oldest"}
	for i, name := range want {
		if got[i].TaskName != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, got[i].TaskName)
		}
	}

	ok, err := j.Delete(ctx, newest.ID)
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, _ := j.Delete(ctx, newest.ID); ok {
		t.Fatal("deleting twice must report false")
	}
	if got := j.Entries(); len(got) != 2 || got[0].TaskName != "middle" {
		t.Fatalf("unexpected mirror after delete: %+v", got)
	}

	if err := j.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if len(j.Entries()) != 0 {
		t.Fatal("expected empty mirror after clear")
	}
}

// ============================================================
// Filters
// ============================================================

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func entryAt(name string, t time.Time, tracked int64) store.Entry {
	return store.Entry{ID: name, TaskName: name, TrackedMs: tracked, CompletedAtMs: t.UnixMilli()}
}

func TestApplyFilters(t *testing.T) {
	// Wednesday 12 March 2025.
	now := at(2025, 3, 12, 15)
	entries := []store.Entry{
		entryAt("today", at(2025, 3, 12, 9), 100),
		entryAt("monday", at(2025, 3, 10, 9), 200),
		entryAt("sunday", at(2025, 3, 9, 9), 400),
		entryAt("last-month", at(2025, 2, 1, 9), 800),
	}

	tests := []struct {
		filter    Filter
		weekStart time.Weekday
		want      []string
		total     int64
	}{
		{FilterToday, time.Monday, []string{"today"}, 100},
		{FilterWeek, time.Monday, []string{"today", "monday"}, 300},
		{FilterWeek, time.Sunday, []string{"today", "monday", "sunday"}, 700},
		{FilterAll, time.Monday, []string{"today", "monday", "sunday", "last-month"}, 1500},
	}
	for _, tt := range tests {
		got := Apply(entries, tt.filter, now, tt.weekStart)
		if len(got) != len(tt.want) {
			t.Errorf("%s/%s: expected %v, got %d entries", tt.filter, tt.weekStart, tt.want, len(got))
			continue
		}
		for i, name := range tt.want {
			if got[i].TaskName != name {
				t.Errorf("%s/%s: position %d expected %q, got %q", tt.filter, tt.weekStart, i, name, got[i].TaskName)
			}
		}
		if total := TotalTracked(got); total != tt.total {
			t.Errorf("%s/%s: expected total %d, got %d", tt.filter, tt.weekStart, tt.total, total)
		}
	}
}

func TestTodayExcludesTomorrowMidnight(t *testing.T) {
	now := at(2025, 3, 12, 23)
	entries := []store.Entry{
		entryAt("midnight", at(2025, 3, 13, 0), 1),
		entryAt("start", at(2025, 3, 12, 0), 1),
	}
	got := Apply(entries, FilterToday, now, time.Monday)
	if len(got) != 1 || got[0].TaskName != "start" {
		t.Fatalf("expected only the entry at the start of today, got %+v", got)
	}
}

func TestParseFilter(t *testing.T) {
	tests := map[string]Filter{
		"today": FilterToday,
		"WEEK":  FilterWeek,
		" all ": FilterAll,
		"":      FilterToday,
		"month": FilterToday,
	}
	for in, want := range tests {
		if got := ParseFilter(in); got != want {
			t.Errorf("ParseFilter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStartOfWeek(t *testing.T) {
	sunday := at(2025, 3, 16, 10)
	if got := StartOfWeek(sunday, time.Monday); !got.Equal(at(2025, 3, 10, 0)) {
		t.Errorf("monday-first week of a sunday: got %v", got)
	}
	if got := StartOfWeek(sunday, time.Sunday); !got.Equal(at(2025, 3, 16, 0)) {
		t.Errorf("sunday-first week of a sunday: got %v", got)
	}
	if got := EndOfWeek(sunday, time.Monday); !got.Equal(at(2025, 3, 17, 0)) {
		t.Errorf("end of week: got %v", got)
	}
}

func TestWeekStart(t *testing.T) {
	tests := map[string]time.Weekday{
		"de":    time.Monday,
		"de-DE": time.Monday,
		"en":    time.Sunday,
		"en-US": time.Sunday,
		"en-GB": time.Monday,
		"":      time.Sunday,
		"ar-EG": time.Saturday,
		"pt-BR": time.Sunday,
		"fr":    time.Monday,
	}
	for locale, want := range tests {
		if got := WeekStart(locale); got != want {
			t.Errorf("WeekStart(%q) = %s, want %s", locale, got, want)
		}
	}
}

// ============================================================
// Stats
// ============================================================

func TestDailyTotals(t *testing.T) {
	entries := []store.Entry{
		entryAt("a", at(2025, 3, 10, 9), 1000),
		entryAt("b", at(2025, 3, 10, 18), 2000),
		entryAt("c", at(2025, 3, 12, 9), 500),
		entryAt("outside", at(2025, 3, 20, 9), 9999),
	}
	days := DailyTotals(entries, at(2025, 3, 10, 12), at(2025, 3, 12, 1), time.UTC)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	want := []struct {
		tracked  int64
		sessions int
	}{{3000, 2}, {0, 0}, {500, 1}}
	for i, w := range want {
		if days[i].TrackedMs != w.tracked || days[i].Sessions != w.sessions {
			t.Errorf("day %d: expected %d/%d, got %d/%d", i, w.tracked, w.sessions, days[i].TrackedMs, days[i].Sessions)
		}
	}
	if !days[0].Day.Equal(at(2025, 3, 10, 0)) {
		t.Errorf("unexpected first day %v", days[0].Day)
	}

	if got := DailyTotals(entries, at(2025, 3, 12, 0), at(2025, 3, 10, 0), time.UTC); got != nil {
		t.Fatalf("expected nil for inverted range, got %v", got)
	}
}
