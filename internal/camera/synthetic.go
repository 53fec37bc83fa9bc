package camera

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/smegmarip/live-recognition/pkg/utils"
)

// SyntheticSource produces a moving test pattern. It is always available
// and is the default source when no camera hardware is configured.
type SyntheticSource struct {
	now func() time.Time
}

// NewSyntheticSource creates a synthetic frame source
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{now: time.Now}
}

func (s *SyntheticSource) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Device: "synthetic", Err: err}
	}
	w, h := c.Width, c.Height
	if w <= 0 || h <= 0 {
		w, h = 640, 480
	}
	stream := &syntheticStream{
		id:    uuid.NewString(),
		size:  utils.Size{Width: w, Height: h},
		start: s.now(),
		now:   s.now,
	}
	stream.track = NewTrack("synthetic pattern", nil)
	return stream, nil
}

type syntheticStream struct {
	id    string
	size  utils.Size
	start time.Time
	now   func() time.Time
	track *BasicTrack
}

func (s *syntheticStream) ID() string       { return s.id }
func (s *syntheticStream) Tracks() []Track  { return []Track{s.track} }
func (s *syntheticStream) Size() utils.Size { return s.size }

func (s *syntheticStream) ReadyState() ReadyState {
	if s.track.Stopped() {
		return HaveNothing
	}
	return HaveEnoughData
}

func (s *syntheticStream) Frame() (image.Image, error) {
	if s.track.Stopped() {
		return nil, ErrStreamEnded
	}
	frame := image.NewRGBA(image.Rect(0, 0, s.size.Width, s.size.Height))
	bg := color.RGBA{R: 24, G: 28, B: 36, A: 255}
	draw.Draw(frame, frame.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	// a square sweeping left to right once every four seconds
	side := s.size.Height / 4
	travel := s.size.Width - side
	if side < 1 || travel < 1 {
		return frame, nil
	}
	elapsed := s.now().Sub(s.start)
	x := int(elapsed.Milliseconds()%4000) * travel / 4000
	y := (s.size.Height - side) / 2
	fg := color.RGBA{R: 230, G: 190, B: 150, A: 255}
	draw.Draw(frame, image.Rect(x, y, x+side, y+side), &image.Uniform{C: fg}, image.Point{}, draw.Src)
	return frame, nil
}
