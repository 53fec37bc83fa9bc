package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/smegmarip/live-recognition/internal/clock"
)

// FakeClock is a manually advanced clock.Clock that records every ticker
// and timer it arms
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*FakeTicker
	timers  []*FakeTimer
}

// NewFakeClock creates a fake clock starting at t
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) NewTicker(d time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &FakeTicker{interval: d, next: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &FakeTimer{when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

type pendingEvent struct {
	at   time.Time
	fire func()
}

// Advance moves the clock forward by d, delivering ticks and firing timers
// that fall due in time order. Ticks are dropped when the ticker channel is
// full, as with time.Ticker.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	var events []pendingEvent
	for _, t := range c.tickers {
		t := t
		for !t.Stopped() && !t.next.After(target) {
			at := t.next
			events = append(events, pendingEvent{at: at, fire: func() { t.deliver(at) }})
			t.next = t.next.Add(t.interval)
		}
	}
	for _, t := range c.timers {
		t := t
		if t.due(target) {
			events = append(events, pendingEvent{at: t.when, fire: t.fire})
		}
	}
	c.mu.Unlock()

	sort.SliceStable(events, func(i, j int) bool { return events[i].at.Before(events[j].at) })
	for _, e := range events {
		c.mu.Lock()
		c.now = e.at
		c.mu.Unlock()
		e.fire()
	}

	c.mu.Lock()
	c.now = target
	c.mu.Unlock()
}

// Tickers returns every ticker created so far
func (c *FakeClock) Tickers() []*FakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*FakeTicker(nil), c.tickers...)
}

// ActiveTickers returns the tickers that have not been stopped
func (c *FakeClock) ActiveTickers() []*FakeTicker {
	var out []*FakeTicker
	for _, t := range c.Tickers() {
		if !t.Stopped() {
			out = append(out, t)
		}
	}
	return out
}

// Timers returns every timer created so far
func (c *FakeClock) Timers() []*FakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*FakeTimer(nil), c.timers...)
}

// FakeTicker is a ticker driven by FakeClock.Advance or Fire
type FakeTicker struct {
	interval time.Duration
	next     time.Time
	ch       chan time.Time
	mu       sync.Mutex
	stopped  bool
}

func (t *FakeTicker) C() <-chan time.Time { return t.ch }

func (t *FakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

// Stopped reports whether Stop was called
func (t *FakeTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Interval returns the ticker period
func (t *FakeTicker) Interval() time.Duration { return t.interval }

// Fire delivers one tick immediately unless the ticker is stopped
func (t *FakeTicker) Fire(at time.Time) bool {
	return t.deliver(at)
}

func (t *FakeTicker) deliver(at time.Time) bool {
	if t.Stopped() {
		return false
	}
	select {
	case t.ch <- at:
		return true
	default:
		return false
	}
}

// FakeTimer is a one-shot timer driven by FakeClock.Advance
type FakeTimer struct {
	mu      sync.Mutex
	when    time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *FakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Fired reports whether the timer ran its function
func (t *FakeTimer) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

func (t *FakeTimer) due(at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped && !t.fired && !t.when.After(at)
}

func (t *FakeTimer) fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()
	t.f()
}
