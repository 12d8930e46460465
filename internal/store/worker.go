package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// runWorker owns the database for the lifetime of one worker. Requests are
// handled strictly in arrival order.
func (s *Store) runWorker(w *worker) {
	var (
		db     *sql.DB
		opened bool
		exit   error
	)
	defer func() {
		if r := recover(); r != nil {
			exit = fmt.Errorf("%w: %v", ErrWorkerCrashed, r)
			s.logger.Error("history worker panic", "panic", r, "stack", string(debug.Stack()))
		}
		if db != nil {
			db.Close()
		}
		close(w.done)
		s.handleExit(w, opened, exit)
	}()

	db, err := s.openDatabase()
	if err != nil {
		exit = fmt.Errorf("%w: %v", ErrWorkerCrashed, err)
		return
	}
	opened = true

	for {
		var req request
		select {
		case req = <-w.inbox:
		case <-w.quit:
			return
		}
		if s.beforeHandle != nil {
			s.beforeHandle(req)
		}
		if req.Type == typeCloseDatabase {
			err := db.Close()
			db = nil
			resp := response{ID: req.ID, Result: err == nil}
			if err != nil {
				resp.Error = serializeError(fmt.Errorf("close database: %w", err))
			}
			s.deliver(resp)
			return
		}
		s.deliver(s.handle(db, req))
	}
}

func (s *Store) handle(db *sql.DB, req request) response {
	var (
		out any
		err error
	)
	switch req.Type {
	case typeInsertEntry:
		out, err = s.insertEntry(db, req.Payload.(preparedEntry))
	case typeListEntries:
		out, err = listEntries(db)
	case typeDeleteEntry:
		out, err = deleteEntry(db, req.Payload.(string))
	case typeClearEntries:
		out, err = clearEntries(db)
	case typeGetSetting:
		out, err = getSetting(db, req.Payload.(string))
	case typeSetSetting:
		out, err = setSetting(db, req.Payload.(Setting))
	case typeListSettings:
		out, err = listSettings(db)
	default:
		err = fmt.Errorf("unknown request type %q", req.Type)
	}
	if err != nil {
		return response{ID: req.ID, Error: serializeError(err)}
	}
	return response{ID: req.ID, Result: out}
}

func (s *Store) openDatabase() (*sql.DB, error) {
	if s.path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(s.driver, s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	var version int
	err := db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := migrateV1(db); err != nil {
			return err
		}
	}

	_, err = db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func migrateV1(db *sql.DB) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS history_entries (
		id TEXT PRIMARY KEY,
		task_name TEXT NOT NULL,
		mode TEXT CHECK(mode IN ('countdown','stopwatch')) NOT NULL,
		tracked_ms INTEGER NOT NULL,
		planned_ms INTEGER,
		completed_at TEXT NOT NULL,
		completed_at_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_entries_completed_at_ms
		ON history_entries (completed_at_ms DESC, created_at DESC);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(ddl)
	return err
}

// asWorkerError converts an error that crossed the worker boundary back into
// the caller's typed error where one exists.
func asWorkerError(err error) error {
	var we *WorkerError
	if !errors.As(err, &we) {
		return err
	}
	switch we.Code {
	case codeNotFound:
		return ErrNotFound
	}
	return err
}
