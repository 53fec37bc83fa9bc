package session

import (
	"context"
	"errors"
	"time"

	"github.com/smegmarip/live-recognition/internal/history"
	"github.com/smegmarip/live-recognition/internal/notify"
	"github.com/smegmarip/live-recognition/internal/perf"
	"github.com/smegmarip/live-recognition/internal/recognition"
	"github.com/smegmarip/live-recognition/pkg/utils"
)

// Status is the session lifecycle state
type Status string

const (
	StatusIdle     Status = "idle"
	StatusStarting Status = "starting"
	StatusActive   Status = "active"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Label returns the short connection text shown next to the status light
func (s Status) Label() string {
	switch s {
	case StatusIdle:
		return "Ready"
	case StatusStarting:
		return "Connecting..."
	case StatusActive:
		return "Live"
	case StatusStopping:
		return "Disconnected"
	case StatusError:
		return "Error"
	}
	return "Unknown"
}

var (
	// ErrNotActive is returned by CaptureFrame outside an active session
	ErrNotActive = errors.New("recognition is not active")
	// ErrStartAborted is returned by Start when Stop wins the race
	ErrStartAborted = errors.New("session start aborted")
	// ErrStreamNotReady is the cause of a camera error when no frame became
	// decodable in time
	ErrStreamNotReady = errors.New("camera stream never became ready")
)

// Recognizer sends one encoded frame to the recognition service
type Recognizer interface {
	Recognize(ctx context.Context, imageData string, opts recognition.Options) (recognition.Result, error)
}

// Publisher receives every applied tick outcome
type Publisher interface {
	Publish(rec ResultRecord) error
}

// ResultRecord is one applied tick outcome
type ResultRecord struct {
	Session     string             `json:"session"`
	Result      recognition.Result `json:"result"`
	Timestamp   time.Time          `json:"timestamp"`
	Elapsed     time.Duration      `json:"elapsedNs"`
	SoftFailure bool               `json:"softFailure"`
	FrameSize   utils.Size         `json:"frameSize"`
}

// EventType distinguishes controller events
type EventType string

const (
	EventStatus   EventType = "status"
	EventResult   EventType = "result"
	EventCapture  EventType = "capture"
	EventSettings EventType = "settings"
)

// Event is sent to listeners whenever observable controller state changes
type Event struct {
	Type    EventType     `json:"type"`
	Time    time.Time     `json:"time"`
	Status  Status        `json:"status"`
	Result  *ResultRecord `json:"result,omitempty"`
	Capture string        `json:"capture,omitempty"`
	Display *DisplayState `json:"display,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Snapshot is a point-in-time view of the controller for monitors
type Snapshot struct {
	Status         Status          `json:"status"`
	StatusLabel    string          `json:"statusLabel"`
	Session        string          `json:"session,omitempty"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	Error          string          `json:"error,omitempty"`
	CaptureEnabled bool            `json:"captureEnabled"`
	VideoSize      utils.Size      `json:"videoSize"`
	LastResult     *ResultRecord   `json:"lastResult,omitempty"`
	History        []history.Entry `json:"history"`
	Perf           perf.Snapshot   `json:"perf"`
	Display        DisplayState    `json:"display"`
	Toasts         []notify.Toast  `json:"toasts"`
}
