package reminder

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sadopc/flowtime/internal/i18n"
)

const (
	SnoozeDuration    = 5 * time.Minute
	IdleCheckInterval = 15 * time.Second
	MinCheckInterval  = 500 * time.Millisecond
	MaxCheckInterval  = 60 * time.Second
)

// TimerSource is the part of the timer controller the monitor polls.
type TimerSource interface {
	IsRunning() bool
	TrackedMs() int64
}

type Translator interface {
	T(key string, args ...any) string
}

type ActionKind int

const (
	ActionSnooze ActionKind = iota
	ActionDismiss
)

type Action struct {
	Label string
	Kind  ActionKind
}

type Notification struct {
	Title     string
	Message   string
	TrackedMs int64
	Actions   []Action
	At        time.Time
}

type Notifier interface {
	Show(Notification)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Show(n Notification) { f(n) }

type Options struct {
	Timer      TimerSource
	Notifier   Notifier
	Translator Translator
	Settings   Settings
	Now        func() time.Time
	Logger     *slog.Logger
}

// Monitor polls the timer and raises a notification each time another
// interval of focus time has been tracked. Evaluate may be called at any
// cadence; a boundary never fires twice.
type Monitor struct {
	mu       sync.Mutex
	timer    TimerSource
	notifier Notifier
	tr       Translator
	now      func() time.Time
	logger   *slog.Logger
	settings Settings

	previousTrackedMs    int64
	lastIntervalNotified int64
	snoozedUntil         time.Time

	wake chan struct{}
}

func NewMonitor(opts Options) *Monitor {
	m := &Monitor{
		timer:    opts.Timer,
		notifier: opts.Notifier,
		tr:       opts.Translator,
		now:      opts.Now,
		logger:   opts.Logger,
		settings: opts.Settings.Normalized(),
		wake:     make(chan struct{}, 1),
	}
	if m.tr == nil {
		m.tr = i18n.New(i18n.DefaultLanguage)
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	if m.notifier == nil {
		m.notifier = NotifierFunc(func(Notification) {})
	}
	m.alignLocked()
	return m
}

func (m *Monitor) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// SnoozedUntil is the zero time when no snooze is active.
func (m *Monitor) SnoozedUntil() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snoozedUntil
}

// Evaluate runs one poll and returns how long the caller may wait before
// the next one without missing a boundary.
func (m *Monitor) Evaluate() time.Duration {
	m.mu.Lock()
	delay, n := m.evaluateLocked()
	m.mu.Unlock()

	if n != nil {
		m.logger.Info("break reminder", "trackedMs", n.TrackedMs)
		m.notifier.Show(*n)
	}
	return delay
}

func (m *Monitor) evaluateLocked() (time.Duration, *Notification) {
	tracked := m.timer.TrackedMs()
	if tracked < m.previousTrackedMs {
		m.resetLocked()
	}
	m.previousTrackedMs = tracked

	if !m.settings.Enabled || !m.timer.IsRunning() {
		return IdleCheckInterval, nil
	}

	intervalMs := m.intervalMsLocked()
	if tracked < intervalMs {
		return clampDelay(time.Duration(intervalMs-tracked) * time.Millisecond), nil
	}

	now := m.now()
	if !m.snoozedUntil.IsZero() && now.Before(m.snoozedUntil) {
		return clampDelay(m.snoozedUntil.Sub(now)), nil
	}

	var n *Notification
	passed := tracked / intervalMs
	if passed > m.lastIntervalNotified {
		n = m.notificationLocked(tracked, now)
		m.lastIntervalNotified = passed
		m.snoozedUntil = time.Time{}
	}

	next := (m.lastIntervalNotified+1)*intervalMs - tracked
	return clampDelay(time.Duration(next) * time.Millisecond), n
}

func (m *Monitor) notificationLocked(tracked int64, now time.Time) *Notification {
	minutes := max(1, int(math.Round(float64(tracked)/float64(time.Minute.Milliseconds()))))
	return &Notification{
		Title:     m.tr.T("breakReminder.notification.title"),
		Message:   m.tr.T("breakReminder.notification.message", minutes),
		TrackedMs: tracked,
		At:        now,
		Actions: []Action{
			{Label: m.tr.T("breakReminder.notification.snooze"), Kind: ActionSnooze},
			{Label: m.tr.T("breakReminder.notification.dismiss"), Kind: ActionDismiss},
		},
	}
}

// Snooze postpones reminders by SnoozeDuration. The next natural boundary
// after the snooze still fires on schedule.
func (m *Monitor) Snooze() {
	m.mu.Lock()
	m.snoozedUntil = m.now().Add(SnoozeDuration)
	m.mu.Unlock()
	m.Wake()
}

func (m *Monitor) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.settings.Enabled = enabled
	if enabled {
		m.alignLocked()
		m.snoozedUntil = time.Time{}
	} else {
		m.resetLocked()
	}
	m.mu.Unlock()
	m.Wake()
}

// SetIntervalMinutes changes the interval and treats the progress made so
// far as already notified.
func (m *Monitor) SetIntervalMinutes(minutes float64) {
	m.mu.Lock()
	m.settings.IntervalMinutes = ClampInterval(minutes)
	m.alignLocked()
	m.snoozedUntil = time.Time{}
	m.mu.Unlock()
	m.Wake()
}

// Apply installs new settings, as after the settings form was saved.
func (m *Monitor) Apply(s Settings) {
	s = s.Normalized()
	m.mu.Lock()
	changed := s != m.settings
	m.settings = s
	if changed {
		if s.Enabled {
			m.alignLocked()
		} else {
			m.resetLocked()
		}
		m.snoozedUntil = time.Time{}
	}
	m.mu.Unlock()
	m.Wake()
}

// Wake makes a running Run loop evaluate immediately.
func (m *Monitor) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run evaluates on the adaptive schedule until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	t := time.NewTimer(m.Evaluate())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		case <-m.wake:
		}
		t.Reset(m.Evaluate())
	}
}

func (m *Monitor) resetLocked() {
	m.previousTrackedMs = 0
	m.lastIntervalNotified = 0
	m.snoozedUntil = time.Time{}
}

func (m *Monitor) alignLocked() {
	tracked := m.timer.TrackedMs()
	m.previousTrackedMs = tracked
	m.lastIntervalNotified = tracked / m.intervalMsLocked()
	if tracked == 0 {
		m.snoozedUntil = time.Time{}
	}
}

func (m *Monitor) intervalMsLocked() int64 {
	return int64(ClampInterval(float64(m.settings.IntervalMinutes))) * time.Minute.Milliseconds()
}

func clampDelay(d time.Duration) time.Duration {
	return min(max(d, MinCheckInterval), MaxCheckInterval)
}
