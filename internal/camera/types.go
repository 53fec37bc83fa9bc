package camera

import (
	"context"
	"errors"
	"image"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/smegmarip/live-recognition/internal/settings"
	"github.com/smegmarip/live-recognition/pkg/utils"
)

// ReadyState reports how much frame data a stream can provide
type ReadyState int

const (
	HaveNothing ReadyState = iota
	HaveMetadata
	HaveCurrentData
	HaveFutureData
	HaveEnoughData
)

// Ready reports whether at least the current frame is decodable
func (r ReadyState) Ready() bool {
	return r >= HaveCurrentData
}

func (r ReadyState) String() string {
	switch r {
	case HaveNothing:
		return "nothing"
	case HaveMetadata:
		return "metadata"
	case HaveCurrentData:
		return "current"
	case HaveFutureData:
		return "future"
	case HaveEnoughData:
		return "enough"
	}
	return "unknown"
}

// ErrStreamEnded is returned by Frame once every track has been stopped
var ErrStreamEnded = errors.New("camera stream ended")

// Constraints are the acquisition parameters requested from a source
type Constraints struct {
	Width      int
	Height     int
	FrameRate  int
	FacingMode string
}

// ConstraintsFrom builds acquisition constraints from camera settings
func ConstraintsFrom(c settings.CameraSettings) Constraints {
	return Constraints{
		Width:      c.Resolution.Width,
		Height:     c.Resolution.Height,
		FrameRate:  c.FrameRate,
		FacingMode: c.FacingMode,
	}
}

// Track is one media track of a stream. Stop is idempotent.
type Track interface {
	ID() string
	Label() string
	Stop()
	Stopped() bool
}

// Stream is an acquired camera stream
type Stream interface {
	ID() string
	Tracks() []Track
	ReadyState() ReadyState
	// Size is the native frame size
	Size() utils.Size
	// Frame returns the current frame
	Frame() (image.Image, error)
}

// Acquirer opens camera streams
type Acquirer interface {
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// StopAll stops every track of s and returns how many were still live.
// It is safe to call on nil or already stopped streams.
func StopAll(s Stream) int {
	if s == nil {
		return 0
	}
	stopped := 0
	for _, t := range s.Tracks() {
		if !t.Stopped() {
			stopped++
		}
		t.Stop()
	}
	return stopped
}

// BasicTrack is a Track that runs an optional callback on first Stop
type BasicTrack struct {
	id      string
	label   string
	stopped atomic.Bool
	onStop  func()
}

// NewTrack creates a live track
func NewTrack(label string, onStop func()) *BasicTrack {
	return &BasicTrack{id: uuid.NewString(), label: label, onStop: onStop}
}

func (t *BasicTrack) ID() string    { return t.id }
func (t *BasicTrack) Label() string { return t.label }
func (t *BasicTrack) Stopped() bool { return t.stopped.Load() }

func (t *BasicTrack) Stop() {
	if t.stopped.CompareAndSwap(false, true) && t.onStop != nil {
		t.onStop()
	}
}
