// Package timer implements the countdown/stopwatch state machine. Tracked
// time is always derived from an absolute anchor (deadline or origin) and the
// current wall clock, never accumulated from ticks, so missed samples and
// system sleep do not skew it.
package timer

import (
	"sync"
	"time"

	"github.com/sadopc/flowtime/internal/duration"
)

type Mode string

const (
	ModeCountdown Mode = "countdown"
	ModeStopwatch Mode = "stopwatch"
)

// ParseMode maps anything other than "stopwatch" to countdown.
func ParseMode(s string) Mode {
	if s == string(ModeStopwatch) {
		return ModeStopwatch
	}
	return ModeCountdown
}

const DefaultTickInterval = 250 * time.Millisecond

type EventKind int

const (
	EventStarted EventKind = iota
	EventPaused
	EventReset
	EventCompleted
	EventLimit
)

// Event is published to subscribers on state changes. EventCompleted fires
// exactly once per countdown run; EventLimit fires when the stopwatch hits
// its safety maximum.
type Event struct {
	Kind      EventKind
	Mode      Mode
	TrackedMs int64
	At        time.Time
}

// State is a consistent view of the controller at one instant.
type State struct {
	Mode        Mode
	DurationMs  int64
	RemainingMs int64
	ElapsedMs   int64
	Running     bool
	Deadline    *time.Time
	Origin      *time.Time
}

// TrackedMs is the focus time credited so far.
func (s State) TrackedMs() int64 {
	if s.Mode == ModeCountdown {
		t := s.DurationMs - s.RemainingMs
		if t < 0 {
			return 0
		}
		return t
	}
	return s.ElapsedMs
}

// DisplayMs is what the clock face shows: remaining or elapsed.
func (s State) DisplayMs() int64 {
	if s.Mode == ModeCountdown {
		return s.RemainingMs
	}
	return s.ElapsedMs
}

type Options struct {
	Now               func() time.Time
	Sampler           Sampler
	TickInterval      time.Duration
	MaxStopwatchMs    int64
	Mode              Mode
	InitialDurationMs int64
}

type Controller struct {
	mu sync.Mutex

	now          func() time.Time
	sampler      Sampler
	tickInterval time.Duration
	maxStopwatch int64

	mode        Mode
	durationMs  int64
	remainingMs int64
	elapsedMs   int64
	running     bool
	completed   bool
	deadline    time.Time
	origin      time.Time
	stopSampler func()

	subs map[int]chan Event
	next int
}

func New(opts Options) *Controller {
	c := &Controller{
		now:          opts.Now,
		sampler:      opts.Sampler,
		tickInterval: opts.TickInterval,
		maxStopwatch: opts.MaxStopwatchMs,
		mode:         opts.Mode,
		subs:         make(map[int]chan Event),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.sampler == nil {
		c.sampler = TickerSampler()
	}
	if c.tickInterval <= 0 {
		c.tickInterval = DefaultTickInterval
	}
	if c.maxStopwatch <= 0 {
		c.maxStopwatch = duration.MaxTimerMs
	}
	if c.mode != ModeStopwatch {
		c.mode = ModeCountdown
	}
	d := opts.InitialDurationMs
	if d == 0 {
		d = duration.MinutesToMs(duration.DefaultTimerMinutes)
	}
	c.durationMs = duration.ClampMs(d, duration.MinTimerMs, duration.MaxTimerMs)
	c.remainingMs = c.durationMs
	return c
}

// clock strips the monotonic reading: it stops while the machine sleeps and
// a countdown must keep running through a suspend.
func (c *Controller) clock() time.Time {
	return c.now().Round(0)
}

// Subscribe returns a buffered event channel and a cancel func. Slow
// subscribers miss events rather than blocking the timer.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) publishLocked(kind EventKind, now time.Time) {
	ev := Event{Kind: kind, Mode: c.mode, TrackedMs: c.trackedLocked(now), At: now}
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Start begins or resumes the timer. It reports false when already running
// or when there is nothing to run (zero-length countdown, stopwatch at its
// maximum).
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return false
	}
	now := c.clock()

	switch c.mode {
	case ModeCountdown:
		if c.remainingMs <= 0 {
			c.remainingMs = c.durationMs
		}
		if c.remainingMs <= 0 {
			return false
		}
		c.deadline = now.Add(time.Duration(c.remainingMs) * time.Millisecond)
	case ModeStopwatch:
		if c.elapsedMs >= c.maxStopwatch {
			return false
		}
		c.origin = now.Add(-time.Duration(c.elapsedMs) * time.Millisecond)
	}

	c.running = true
	c.completed = false
	c.stopSampler = c.sampler.Start(c.tickInterval, c.Tick)
	c.publishLocked(EventStarted, now)
	return true
}

func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	now := c.clock()
	switch c.mode {
	case ModeCountdown:
		c.remainingMs = c.remainingAt(now)
	case ModeStopwatch:
		c.elapsedMs = c.elapsedAt(now)
	}
	c.haltLocked()
	c.publishLocked(EventPaused, now)
}

// Toggle is the primary action: pause when running, start otherwise.
func (c *Controller) Toggle() bool {
	if c.IsRunning() {
		c.Pause()
		return false
	}
	return c.Start()
}

// Tick recomputes the snapshot fields from the anchor. It is driven by the
// sampler but is safe to call at any time.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	now := c.clock()

	switch c.mode {
	case ModeCountdown:
		c.remainingMs = c.remainingAt(now)
		if c.remainingMs <= 0 && !c.completed {
			c.completed = true
			c.remainingMs = 0
			c.haltLocked()
			c.publishLocked(EventCompleted, now)
		}
	case ModeStopwatch:
		c.elapsedMs = c.elapsedAt(now)
		if c.elapsedMs >= c.maxStopwatch {
			c.elapsedMs = c.maxStopwatch
			c.haltLocked()
			c.publishLocked(EventLimit, now)
		}
	}
}

func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.haltLocked()
	c.completed = false
	c.remainingMs = c.durationMs
	c.elapsedMs = 0
	c.publishLocked(EventReset, c.clock())
}

// SetMode switches between countdown and stopwatch. It is refused while
// running; a switch discards tracked progress.
func (c *Controller) SetMode(m Mode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m != ModeStopwatch {
		m = ModeCountdown
	}
	if c.running {
		return false
	}
	if m == c.mode {
		return true
	}
	c.mode = m
	c.deadline = time.Time{}
	c.origin = time.Time{}
	c.completed = false
	c.remainingMs = c.durationMs
	c.elapsedMs = 0
	return true
}

// SetDurationMs clamps ms into [MinTimerMs, MaxTimerMs]. A running countdown
// keeps running but never has more remaining than the new duration.
func (c *Controller) SetDurationMs(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setDurationLocked(ms)
}

func (c *Controller) setDurationLocked(ms int64) {
	clamped := duration.ClampMs(ms, duration.MinTimerMs, duration.MaxTimerMs)
	c.durationMs = clamped
	if c.mode != ModeCountdown {
		return
	}
	if !c.running {
		c.remainingMs = clamped
		c.elapsedMs = 0
		return
	}
	now := c.clock()
	if c.deadline.Sub(now).Milliseconds() > clamped {
		c.deadline = now.Add(time.Duration(clamped) * time.Millisecond)
	}
	c.remainingMs = c.remainingAt(now)
}

// AdjustDurationBy is SetDurationMs(duration + delta); the terminal client
// uses it for hour/minute/second stepping.
func (c *Controller) AdjustDurationBy(deltaMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if deltaMs == 0 {
		return
	}
	c.setDurationLocked(c.durationMs + deltaMs)
}

// SetDurationFromInput parses free-form text. On error nothing changes.
func (c *Controller) SetDurationFromInput(text string) error {
	ms, err := duration.ParseTimerInput(text)
	if err != nil {
		return err
	}
	c.SetDurationMs(ms)
	return nil
}

func (c *Controller) SetDurationFromPreset(minutes float64) {
	c.SetDurationMs(duration.MinutesToMs(minutes))
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	s := State{
		Mode:        c.mode,
		DurationMs:  c.durationMs,
		RemainingMs: c.remainingMs,
		ElapsedMs:   c.elapsedMs,
		Running:     c.running,
	}
	if c.running {
		switch c.mode {
		case ModeCountdown:
			s.RemainingMs = c.remainingAt(now)
			d := c.deadline
			s.Deadline = &d
		case ModeStopwatch:
			s.ElapsedMs = c.elapsedAt(now)
			o := c.origin
			s.Origin = &o
		}
	}
	return s
}

func (c *Controller) TrackedMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trackedLocked(c.clock())
}

func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) DurationMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.durationMs
}

// CanStart reports whether Start would do anything from a stopped state.
func (c *Controller) CanStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeCountdown {
		return c.durationMs > 0
	}
	return c.elapsedMs < c.maxStopwatch
}

// HasProgress is true for a stopped timer with tracked time, i.e. the
// primary action reads "resume" rather than "start".
func (c *Controller) HasProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.running && c.trackedLocked(c.clock()) > 0
}

func (c *Controller) trackedLocked(now time.Time) int64 {
	if c.mode == ModeCountdown {
		remaining := c.remainingMs
		if c.running {
			remaining = c.remainingAt(now)
		}
		t := c.durationMs - remaining
		if t < 0 {
			return 0
		}
		return t
	}
	if c.running {
		return c.elapsedAt(now)
	}
	return c.elapsedMs
}

func (c *Controller) remainingAt(now time.Time) int64 {
	rem := c.deadline.Sub(now).Milliseconds()
	if rem < 0 {
		return 0
	}
	if rem > c.durationMs {
		return c.durationMs
	}
	return rem
}

func (c *Controller) elapsedAt(now time.Time) int64 {
	el := now.Sub(c.origin).Milliseconds()
	if el < 0 {
		return 0
	}
	if el > c.maxStopwatch {
		return c.maxStopwatch
	}
	return el
}

func (c *Controller) haltLocked() {
	if c.stopSampler != nil {
		c.stopSampler()
		c.stopSampler = nil
	}
	c.deadline = time.Time{}
	c.origin = time.Time{}
	c.running = false
}
