//go:build !gst

package camera

import (
	"context"
	"errors"
)

// GStreamerSupported reports whether this binary was built with GStreamer
const GStreamerSupported = false

// GStreamerSource is unavailable without the gst build tag; Acquire always
// reports that no camera exists.
type GStreamerSource struct {
	Device     string
	RearDevice string
}

func NewGStreamerSource(device, rearDevice string) *GStreamerSource {
	return &GStreamerSource{Device: device, RearDevice: rearDevice}
}

func (g *GStreamerSource) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	return nil, &NotFoundError{Device: g.Device, Err: errors.New("built without GStreamer support (rebuild with -tags gst)")}
}
