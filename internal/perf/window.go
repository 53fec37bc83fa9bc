package perf

import "time"

// WindowSize is the number of processing-time samples averaged
const WindowSize = 10

// Window is a fixed-capacity FIFO of durations
type Window struct {
	data  [WindowSize]time.Duration
	head  int
	count int
}

// Push records a sample, evicting the oldest when full
func (w *Window) Push(d time.Duration) {
	w.data[w.head] = d
	w.head = (w.head + 1) % WindowSize
	if w.count < WindowSize {
		w.count++
	}
}

// Values returns samples oldest-first
func (w *Window) Values() []time.Duration {
	out := make([]time.Duration, w.count)
	start := (w.head - w.count + WindowSize) % WindowSize
	for i := 0; i < w.count; i++ {
		out[i] = w.data[(start+i)%WindowSize]
	}
	return out
}

// Mean returns the arithmetic mean; ok is false when empty
func (w *Window) Mean() (time.Duration, bool) {
	if w.count == 0 {
		return 0, false
	}
	var sum time.Duration
	for _, v := range w.Values() {
		sum += v
	}
	return sum / time.Duration(w.count), true
}

// Len returns the number of samples held
func (w *Window) Len() int { return w.count }

// Reset drops every sample
func (w *Window) Reset() {
	w.head = 0
	w.count = 0
}
