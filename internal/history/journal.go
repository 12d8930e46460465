// Package history keeps an in-memory mirror of the persisted focus journal
// and provides the today/week/all views over it.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/flowtime/internal/store"
)

// Backend is the durable side of the journal. *store.Store implements it.
type Backend interface {
	Add(ctx context.Context, e store.NewEntry) (*store.Entry, error)
	List(ctx context.Context) ([]store.Entry, error)
	Delete(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) (bool, error)
}

// LoadTimeout bounds the shared initial load.
const LoadTimeout = 5 * time.Second

type loadCall struct {
	done chan struct{}
	err  error
}

// Journal mirrors the backend's entries, newest first. Every mutation is
// persisted before the mirror changes.
type Journal struct {
	backend Backend
	logger  *slog.Logger

	mu      sync.Mutex
	entries []store.Entry
	loaded  bool
	loading *loadCall

	loadTimeout time.Duration
}

func NewJournal(backend Backend, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Journal{backend: backend, logger: logger, loadTimeout: LoadTimeout}
}

// Ready loads the persisted entries once. Concurrent callers share the same
// load; a failed load is retried by the next call.
func (j *Journal) Ready(ctx context.Context) error {
	j.mu.Lock()
	if j.loaded {
		j.mu.Unlock()
		return nil
	}
	call := j.loading
	if call == nil {
		call = &loadCall{done: make(chan struct{})}
		j.loading = call
		go j.load(call)
	}
	j.mu.Unlock()

	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Journal) load(call *loadCall) {
	ctx, cancel := context.WithTimeout(context.Background(), j.loadTimeout)
	entries, err := j.backend.List(ctx)
	cancel()

	j.mu.Lock()
	if err != nil {
		call.err = fmt.Errorf("load history: %w", err)
		j.logger.Warn("load history failed", "err", err)
	} else {
		j.entries = entries
		j.loaded = true
	}
	j.loading = nil
	j.mu.Unlock()
	close(call.done)
}

// Add records a finished session. Sessions without tracked time or without
// a task name are refused.
func (j *Journal) Add(ctx context.Context, e store.NewEntry) (*store.Entry, error) {
	if err := j.Ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(e.TaskName) == "" {
		return nil, &store.ValidationError{Field: "taskName", Message: "task name is required"}
	}
	if !(e.TrackedMs > 0) {
		return nil, &store.ValidationError{Field: "trackedMs", Message: "nothing tracked yet"}
	}

	stored, err := j.backend.Add(ctx, e)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	j.insertLocked(*stored)
	j.mu.Unlock()
	j.logger.Debug("history entry added", "id", stored.ID, "trackedMs", stored.TrackedMs)
	return stored, nil
}

func (j *Journal) insertLocked(e store.Entry) {
	i := slices.IndexFunc(j.entries, func(cur store.Entry) bool {
		return cur.CompletedAtMs <= e.CompletedAtMs
	})
	if i < 0 {
		j.entries = append(j.entries, e)
		return
	}
	j.entries = slices.Insert(j.entries, i, e)
}

func (j *Journal) Delete(ctx context.Context, id string) (bool, error) {
	if err := j.Ready(ctx); err != nil {
		return false, err
	}
	ok, err := j.backend.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		j.mu.Lock()
		j.entries = slices.DeleteFunc(j.entries, func(e store.Entry) bool { return e.ID == id })
		j.mu.Unlock()
	}
	return ok, nil
}

func (j *Journal) Clear(ctx context.Context) error {
	if err := j.Ready(ctx); err != nil {
		return err
	}
	if _, err := j.backend.Clear(ctx); err != nil {
		return err
	}
	j.mu.Lock()
	j.entries = nil
	j.mu.Unlock()
	return nil
}

// Entries returns a copy of the mirror, newest first.
func (j *Journal) Entries() []store.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

func (j *Journal) IsReady() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.loaded
}
