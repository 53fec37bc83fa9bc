package tui

import "time"

// TickMsg triggers a snapshot refresh
type TickMsg time.Time

// ActionMsg reports the outcome of a toggle or capture issued from the
// keyboard
type ActionMsg struct {
	Action string
	Path   string
	Err    error
}
