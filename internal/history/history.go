package history

import (
	"sync"
	"time"

	"github.com/smegmarip/live-recognition/internal/recognition"
)

// Entry is one recorded recognition outcome
type Entry struct {
	Seq       uint64             `json:"seq"`
	Result    recognition.Result `json:"result"`
	Timestamp time.Time          `json:"timestamp"`
}

// History is a bounded, most-recent-first log of recognition results.
// Clearing the display hides entries from Display without dropping them
// from the log.
type History struct {
	mu           sync.RWMutex
	entries      []Entry
	max          int
	seq          uint64
	displayAfter uint64
}

// New creates a history capped at max entries (at least 1)
func New(max int) *History {
	return &History{max: clampMax(max)}
}

func clampMax(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Add inserts result as the newest entry and truncates to the cap
func (h *History) Add(result recognition.Result, t time.Time) Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	e := Entry{Seq: h.seq, Result: result, Timestamp: t}
	h.entries = append([]Entry{e}, h.entries...)
	h.truncate()
	return e
}

// SetMax changes the cap, truncating immediately when it shrinks
func (h *History) SetMax(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.max = clampMax(n)
	h.truncate()
}

func (h *History) truncate() {
	if len(h.entries) > h.max {
		h.entries = h.entries[:h.max]
	}
}

// Max returns the current cap
func (h *History) Max() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.max
}

// Entries returns a copy of the log, newest first
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Entry(nil), h.entries...)
}

// Latest returns the newest entry
func (h *History) Latest() (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[0], true
}

// Len returns the number of logged entries
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Display returns the entries added since the display was last cleared,
// newest first
func (h *History) Display() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := []Entry{}
	for _, e := range h.entries {
		if e.Seq <= h.displayAfter {
			break
		}
		out = append(out, e)
	}
	return out
}

// ClearDisplay hides every current entry from Display
func (h *History) ClearDisplay() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.displayAfter = h.seq
}
