package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/smegmarip/live-recognition/internal/clock"
)

// DefaultDuration is how long a toast stays up unless told otherwise
const DefaultDuration = 5 * time.Second

// Severity selects a toast's icon and styling only
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Icon returns the glyph shown beside a toast of this severity
func (s Severity) Icon() string {
	switch s {
	case SeveritySuccess:
		return "✔"
	case SeverityWarning:
		return "⚠"
	case SeverityError:
		return "✖"
	}
	return "ℹ"
}

// Toast is one on-screen message. A zero Duration means it stays until
// dismissed.
type Toast struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Severity  Severity      `json:"severity"`
	Icon      string        `json:"icon"`
	Duration  time.Duration `json:"durationNs"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Sticky reports whether the toast waits for explicit dismissal
func (t Toast) Sticky() bool { return t.Duration == 0 }

// EventType distinguishes toast additions from removals
type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// Event is sent to listeners when the toast stack changes
type Event struct {
	Type  EventType `json:"type"`
	Toast Toast     `json:"toast"`
}

// Center holds the stack of active toasts. Each toast is timed
// independently.
type Center struct {
	mu        sync.Mutex
	clock     clock.Clock
	toasts    []Toast
	timers    map[string]clock.Timer
	listeners map[chan Event]struct{}
}

// NewCenter creates an empty notification center
func NewCenter(c clock.Clock) *Center {
	return &Center{
		clock:     c,
		timers:    make(map[string]clock.Timer),
		listeners: make(map[chan Event]struct{}),
	}
}

// Notify pushes a toast. Negative durations are treated as sticky.
func (c *Center) Notify(message string, severity Severity, duration time.Duration) Toast {
	if duration < 0 {
		duration = 0
	}
	switch severity {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
	default:
		severity = SeverityInfo
	}
	toast := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		Icon:      severity.Icon(),
		Duration:  duration,
		CreatedAt: c.clock.Now(),
	}

	c.mu.Lock()
	c.toasts = append(c.toasts, toast)
	if duration > 0 {
		id := toast.ID
		c.timers[id] = c.clock.AfterFunc(duration, func() { c.Dismiss(id) })
	}
	c.mu.Unlock()

	log.Debugf("Toast [%s] %s", severity, message)
	c.broadcast(Event{Type: EventAdded, Toast: toast})
	return toast
}

// Info, Success, Warning and Error push a toast with DefaultDuration
func (c *Center) Info(message string) Toast    { return c.Notify(message, SeverityInfo, DefaultDuration) }
func (c *Center) Success(message string) Toast { return c.Notify(message, SeveritySuccess, DefaultDuration) }
func (c *Center) Warning(message string) Toast { return c.Notify(message, SeverityWarning, DefaultDuration) }
func (c *Center) Error(message string) Toast   { return c.Notify(message, SeverityError, DefaultDuration) }

// Dismiss removes a toast; it reports whether the toast was still active
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	idx := -1
	for i, t := range c.toasts {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	toast := c.toasts[idx]
	c.toasts = append(c.toasts[:idx], c.toasts[idx+1:]...)
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	c.mu.Unlock()

	c.broadcast(Event{Type: EventRemoved, Toast: toast})
	return true
}

// Active returns the visible toasts, oldest first
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Toast(nil), c.toasts...)
}

// Clear dismisses every toast
func (c *Center) Clear() {
	for _, t := range c.Active() {
		c.Dismiss(t.ID)
	}
}

// AddListener registers a new event listener
func (c *Center) AddListener() chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Event, 32)
	c.listeners[ch] = struct{}{}
	return ch
}

// RemoveListener unregisters and closes a listener
func (c *Center) RemoveListener(ch chan Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.listeners[ch]; ok {
		delete(c.listeners, ch)
		close(ch)
	}
}

func (c *Center) broadcast(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.listeners {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}
