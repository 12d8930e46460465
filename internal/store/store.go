// Package store persists the focus journal in a single-table SQLite file.
//
// All database access happens on one worker goroutine that owns the *sql.DB.
// Callers talk to it through request/response messages correlated by an
// incrementing id. If the worker crashes, every outstanding request is
// rejected and a fresh worker is spawned, unless the store is being closed.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

const (
	typeInsertEntry   = "insertEntry"
	typeListEntries   = "listEntries"
	typeDeleteEntry   = "deleteEntry"
	typeClearEntries  = "clearEntries"
	typeCloseDatabase = "closeDatabase"
	typeGetSetting    = "getSetting"
	typeSetSetting    = "setSetting"
	typeListSettings  = "listSettings"
)

type Options struct {
	// Driver is the database/sql driver name: "sqlite" (modernc, default) or
	// "sqlite3" (mattn, must be registered by the binary).
	Driver string
	Logger *slog.Logger
	Now    func() time.Time
}

type request struct {
	ID      int64
	Type    string
	Payload any
}

type response struct {
	ID     int64
	Result any
	Error  *WorkerError
}

type result struct {
	value any
	err   error
}

type worker struct {
	inbox chan request
	quit  chan struct{}
	done  chan struct{}
}

type Store struct {
	path   string
	driver string
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	w       *worker
	pending map[int64]chan result
	nextID  int64
	closing bool
	closed  bool

	// beforeHandle runs on the worker goroutine ahead of every request.
	beforeHandle func(request)
}

// New prepares a store backed by the database at dbPath and starts its
// worker. Schema problems surface on the first request.
func New(dbPath string, opts Options) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("open store: empty database path")
	}
	s := &Store{
		path:    dbPath,
		driver:  opts.Driver,
		logger:  opts.Logger,
		now:     opts.Now,
		pending: make(map[int64]chan result),
	}
	if s.driver == "" {
		s.driver = "sqlite"
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.mu.Lock()
	s.w = s.spawnLocked()
	s.mu.Unlock()
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:", Options{})
}

// Path is the database file the store writes to.
func (s *Store) Path() string { return s.path }

func (s *Store) call(ctx context.Context, op string, payload any) (any, error) {
	s.mu.Lock()
	if s.closed && op != typeCloseDatabase {
		s.mu.Unlock()
		return nil, &UnavailableError{Op: op, Err: ErrClosed}
	}
	if s.closing && op != typeCloseDatabase {
		s.mu.Unlock()
		return nil, &UnavailableError{Op: op, Err: ErrClosing}
	}
	if s.w == nil {
		if op == typeCloseDatabase {
			s.mu.Unlock()
			return true, nil
		}
		s.w = s.spawnLocked()
	}
	w := s.w
	s.nextID++
	id := s.nextID
	ch := make(chan result, 1)
	s.pending[id] = ch
	s.mu.Unlock()

	select {
	case w.inbox <- request{ID: id, Type: op, Payload: payload}:
	case <-w.done:
		// The exit handler rejects everything pending, including id.
	case <-ctx.Done():
		s.forget(id)
		return nil, ctx.Err()
	}

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		s.forget(id)
		return nil, ctx.Err()
	}
}

func (s *Store) forget(id int64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// deliver hands a worker response to its caller. Responses for requests the
// caller gave up on are dropped.
func (s *Store) deliver(resp response) {
	s.mu.Lock()
	ch, ok := s.pending[resp.ID]
	delete(s.pending, resp.ID)
	s.mu.Unlock()
	if !ok {
		return
	}
	if resp.Error != nil {
		ch <- result{err: resp.Error}
		return
	}
	ch <- result{value: resp.Result}
}

func (s *Store) rejectAllLocked(err error) {
	for id, ch := range s.pending {
		ch <- result{err: err}
		delete(s.pending, id)
	}
}

func (s *Store) spawnLocked() *worker {
	w := &worker{
		inbox: make(chan request),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go s.runWorker(w)
	return w
}

// handleExit runs once per worker after it stopped. opened reports whether
// the worker got as far as opening the database; a worker that cannot open
// it is replaced lazily by the next request instead of in a tight loop.
func (s *Store) handleExit(w *worker, opened bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == w {
		s.w = nil
	}
	if err != nil {
		s.logger.Warn("history worker stopped", "err", err, "pending", len(s.pending))
		s.rejectAllLocked(&UnavailableError{Op: "history worker", Err: err})
	}
	if s.closing || s.closed || !opened {
		return
	}
	if s.w == nil {
		s.w = s.spawnLocked()
		s.logger.Info("history worker restarted")
	}
}

// Close lets queued requests finish, closes the database and stops the
// worker. Later calls fail with ErrClosed. Close is idempotent.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.closing {
		s.mu.Unlock()
		return nil
	}
	if s.w == nil {
		s.closed = true
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	_, err := s.call(ctx, typeCloseDatabase, nil)
	if err != nil {
		s.logger.Warn("close database", "err", err)
	}

	s.mu.Lock()
	s.closed = true
	s.closing = false
	s.rejectAllLocked(&UnavailableError{Op: "close", Err: ErrClosed})
	w := s.w
	s.w = nil
	s.mu.Unlock()

	if w != nil {
		// Stops a worker that never saw closeDatabase, e.g. when ctx was
		// already done. It closes the database on its way out.
		close(w.quit)

		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// DefaultDBPath resolves the database file: FLOWTIME_DB_PATH, then
// FLOWTIME_DB_DIR/time-tracker.db, then the per-OS application directory.
func DefaultDBPath() (string, error) {
	if p := os.Getenv("FLOWTIME_DB_PATH"); p != "" {
		return p, nil
	}
	dir, err := storageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "time-tracker.db"), nil
}

func storageDir() (string, error) {
	if d := os.Getenv("FLOWTIME_DB_DIR"); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Flowtime"), nil
	case "windows":
		roaming := os.Getenv("APPDATA")
		if roaming == "" {
			roaming = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(roaming, "Flowtime"), nil
	}
	return filepath.Join(home, ".config", "flowtime"), nil
}
