package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetSetting returns the stored value for key, or an error wrapping
// ErrNotFound when the key was never written.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	out, err := s.call(ctx, typeGetSetting, key)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, asWorkerError(err))
	}
	return out.(string), nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return &ValidationError{Field: "key", Message: "setting key is required"}
	}
	if _, err := s.call(ctx, typeSetSetting, Setting{Key: key, Value: value}); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// Settings returns all stored settings as a map.
func (s *Store) Settings(ctx context.Context) (map[string]string, error) {
	out, err := s.call(ctx, typeListSettings, nil)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return out.(map[string]string), nil
}

func getSetting(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func setSetting(db *sql.DB, st Setting) (bool, error) {
	_, err := db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		st.Key, st.Value,
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

func listSettings(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, rows.Err()
}
