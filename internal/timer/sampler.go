package timer

import (
	"sync"
	"time"
)

// Sampler invokes fn repeatedly while a timer runs. The returned stop func
// must not block: the controller calls it while holding its own lock.
type Sampler interface {
	Start(interval time.Duration, fn func()) (stop func())
}

type tickerSampler struct{}

// TickerSampler samples on a dedicated goroutine driven by a time.Ticker.
func TickerSampler() Sampler { return tickerSampler{} }

func (tickerSampler) Start(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// ManualSampler hands the cadence to its owner: nothing happens until Fire
// is called. The terminal client fires it from its own tick message and
// tests fire it after moving a fake clock.
type ManualSampler struct {
	mu  sync.Mutex
	fn  func()
	gen uint64
}

func (m *ManualSampler) Start(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.fn = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		if m.gen == gen {
			m.fn = nil
		}
		m.mu.Unlock()
	}
}

// Active reports whether a timer is currently sampling through m.
func (m *ManualSampler) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fn != nil
}

// Fire runs one sample if a timer is running.
func (m *ManualSampler) Fire() {
	m.mu.Lock()
	fn := m.fn
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
