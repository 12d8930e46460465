// Package reminder nudges the user to take a break after every interval of
// continuous focus time.
package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/sadopc/flowtime/internal/store"
)

const (
	StorageKey             = "flowtime-break-reminder"
	DefaultIntervalMinutes = 50
	MinIntervalMinutes     = 5
	MaxIntervalMinutes     = 240
)

type Settings struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"intervalMinutes"`
}

func DefaultSettings() Settings {
	return Settings{Enabled: false, IntervalMinutes: DefaultIntervalMinutes}
}

// ClampInterval rounds v to whole minutes inside [MinIntervalMinutes,
// MaxIntervalMinutes]. Non-finite input yields the default.
func ClampInterval(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultIntervalMinutes
	}
	r := math.Max(1, math.Round(v))
	return int(math.Min(MaxIntervalMinutes, math.Max(MinIntervalMinutes, r)))
}

func (s Settings) Normalized() Settings {
	s.IntervalMinutes = ClampInterval(float64(s.IntervalMinutes))
	return s
}

// SettingsStore is the key/value part of the history store.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// LoadSettings reads the persisted settings. Missing or unreadable values
// yield the defaults; only a failing store is reported.
func LoadSettings(ctx context.Context, st SettingsStore) (Settings, error) {
	raw, err := st.GetSetting(ctx, StorageKey)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return DefaultSettings(), fmt.Errorf("load break reminder settings: %w", err)
	}

	var parsed struct {
		Enabled         bool     `json:"enabled"`
		IntervalMinutes *float64 `json:"intervalMinutes"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return DefaultSettings(), nil
	}
	s := Settings{Enabled: parsed.Enabled, IntervalMinutes: DefaultIntervalMinutes}
	if parsed.IntervalMinutes != nil {
		s.IntervalMinutes = ClampInterval(*parsed.IntervalMinutes)
	}
	return s, nil
}

// SaveSettings normalizes s, persists it and returns what was stored.
func SaveSettings(ctx context.Context, st SettingsStore, s Settings) (Settings, error) {
	s = s.Normalized()
	b, err := json.Marshal(s)
	if err != nil {
		return s, err
	}
	if err := st.SetSetting(ctx, StorageKey, string(b)); err != nil {
		return s, fmt.Errorf("save break reminder settings: %w", err)
	}
	return s, nil
}
