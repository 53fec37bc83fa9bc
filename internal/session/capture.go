package session

import (
	"fmt"
	"image"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/smegmarip/live-recognition/internal/camera"
	"github.com/smegmarip/live-recognition/internal/frame"
)

// autoCaptureDelay separates a recognition from its automatic capture
const autoCaptureDelay = 500 * time.Millisecond

// CaptureFrame saves the current frame as a JPEG artifact and returns its
// path. Outside an active session it shows a warning and returns
// ErrNotActive.
func (c *Controller) CaptureFrame() (string, error) {
	c.mu.Lock()
	if c.status != StatusActive || c.stream == nil {
		c.mu.Unlock()
		c.toasts.Warning("Start recognition first")
		return "", ErrNotActive
	}
	stream := c.stream
	c.mu.Unlock()

	return c.capture(stream)
}

func (c *Controller) capture(stream camera.Stream) (string, error) {
	src, err := stream.Frame()
	if err != nil {
		c.toasts.Error("Failed to capture frame")
		return "", fmt.Errorf("failed to read frame: %w", err)
	}
	path, err := c.writer.Save(frame.Capture(src, false), frame.PrefixCapture)
	if err != nil {
		c.toasts.Error("Failed to save captured frame")
		return "", err
	}

	c.emit(Event{Type: EventCapture, Capture: path})
	c.toasts.Success("Frame captured and downloaded")
	return path, nil
}

// scheduleCaptureLocked arms an automatic capture for session gen. Caller
// holds mu.
func (c *Controller) scheduleCaptureLocked(gen string) {
	c.captures = append(c.captures, c.clock.AfterFunc(autoCaptureDelay, func() {
		c.mu.Lock()
		if c.status != StatusActive || c.generation != gen || c.stream == nil {
			c.mu.Unlock()
			return
		}
		stream := c.stream
		c.inflight.Add(1)
		c.mu.Unlock()
		defer c.inflight.Done()

		if _, err := c.capture(stream); err != nil {
			log.Warnf("Auto capture failed: %v", err)
		}
	}))
}

// Preview returns a thumbnail of the current frame, mirrored when the
// camera settings ask for it. ok is false outside an active session.
func (c *Controller) Preview(width, height int) (image.Image, bool) {
	c.mu.Lock()
	stream := c.stream
	active := c.status == StatusActive
	c.mu.Unlock()
	if !active || stream == nil {
		return nil, false
	}

	src, err := stream.Frame()
	if err != nil {
		log.Debugf("Preview unavailable: %v", err)
		return nil, false
	}
	mirrored := frame.Capture(src, c.store.Current().Camera.Mirror)
	return frame.Thumbnail(mirrored, width, height), true
}
