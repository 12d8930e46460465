package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port         string
	DBPath       string
	DBDriver     string
	Language     string
	LogLevel     string
	LogFile      string
	CORSOrigins  []string
	TickInterval time.Duration
}

// Load reads the environment. DBPath is left empty when neither
// FLOWTIME_DB_PATH nor FLOWTIME_DB_DIR is set; callers fall back to the
// store's default location.
func Load() Config {
	cfg := Config{
		Port:         getEnv("PORT", "4000"),
		DBPath:       getEnv("FLOWTIME_DB_PATH", ""),
		DBDriver:     getEnv("FLOWTIME_DB_DRIVER", "sqlite"),
		Language:     getEnv("FLOWTIME_LANG", "de"),
		LogLevel:     getEnv("FLOWTIME_LOG_LEVEL", "info"),
		LogFile:      getEnv("FLOWTIME_LOG_FILE", ""),
		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		TickInterval: time.Duration(getEnvInt("FLOWTIME_TICK_MS", 250)) * time.Millisecond,
	}
	if cfg.DBPath == "" {
		if dir := getEnv("FLOWTIME_DB_DIR", ""); dir != "" {
			cfg.DBPath = filepath.Join(dir, "time-tracker.db")
		}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 250 * time.Millisecond
	}
	return cfg
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

// NewLogger builds a text logger. With a LogFile the log goes there;
// otherwise it goes to fallback, which may be nil to discard. The returned
// closer must be closed when done.
func (c Config) NewLogger(fallback io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", c.LogFile, err)
		}
		return slog.New(slog.NewTextHandler(f, opts)), f, nil
	}
	if fallback == nil {
		return slog.New(slog.DiscardHandler), nopCloser{}, nil
	}
	return slog.New(slog.NewTextHandler(fallback, opts)), nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
