package testutil

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/smegmarip/live-recognition/internal/camera"
	"github.com/smegmarip/live-recognition/pkg/utils"
)

// FakeAcquirer hands out FakeStreams and records every acquisition
type FakeAcquirer struct {
	mu          sync.Mutex
	Err         error
	Ready       camera.ReadyState
	FrameSize   utils.Size
	TrackCount  int
	streams     []*FakeStream
	constraints []camera.Constraints
}

// NewFakeAcquirer creates an acquirer whose streams are immediately ready
func NewFakeAcquirer() *FakeAcquirer {
	return &FakeAcquirer{
		Ready:      camera.HaveEnoughData,
		FrameSize:  utils.Size{Width: 64, Height: 48},
		TrackCount: 1,
	}
}

func (a *FakeAcquirer) Acquire(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.constraints = append(a.constraints, c)
	if a.Err != nil {
		return nil, a.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &FakeStream{id: "stream", size: a.FrameSize}
	s.ready.Store(int32(a.Ready))
	for i := 0; i < a.TrackCount; i++ {
		s.tracks = append(s.tracks, camera.NewTrack("fake-camera", nil))
	}
	a.streams = append(a.streams, s)
	return s, nil
}

// Streams returns every stream acquired so far
func (a *FakeAcquirer) Streams() []*FakeStream {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*FakeStream(nil), a.streams...)
}

// Constraints returns the constraints of every Acquire call
func (a *FakeAcquirer) Constraints() []camera.Constraints {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]camera.Constraints(nil), a.constraints...)
}

// AcquireCount returns the number of Acquire calls
func (a *FakeAcquirer) AcquireCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.constraints)
}

// LiveTracks counts tracks that are still running across all streams
func (a *FakeAcquirer) LiveTracks() int {
	n := 0
	for _, s := range a.Streams() {
		for _, t := range s.Tracks() {
			if !t.Stopped() {
				n++
			}
		}
	}
	return n
}

// FakeStream produces solid grey frames of a fixed size
type FakeStream struct {
	id     string
	size   utils.Size
	tracks []camera.Track
	ready  atomic.Int32
	frames atomic.Int64
}

func (s *FakeStream) ID() string              { return s.id }
func (s *FakeStream) Tracks() []camera.Track  { return s.tracks }
func (s *FakeStream) Size() utils.Size        { return s.size }
func (s *FakeStream) ReadyState() camera.ReadyState {
	return camera.ReadyState(s.ready.Load())
}

// SetReadyState changes what ReadyState reports
func (s *FakeStream) SetReadyState(r camera.ReadyState) {
	s.ready.Store(int32(r))
}

// FrameCount returns how many frames have been read
func (s *FakeStream) FrameCount() int64 {
	return s.frames.Load()
}

func (s *FakeStream) Frame() (image.Image, error) {
	for _, t := range s.tracks {
		if t.Stopped() {
			return nil, camera.ErrStreamEnded
		}
	}
	s.frames.Add(1)
	img := image.NewRGBA(image.Rect(0, 0, s.size.Width, s.size.Height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 128, 128, 128, 255
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img, nil
}
