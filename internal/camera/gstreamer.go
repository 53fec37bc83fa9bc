//go:build gst

package camera

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/smegmarip/live-recognition/internal/settings"
	"github.com/smegmarip/live-recognition/pkg/utils"
)

// GStreamerSupported reports whether this binary was built with GStreamer
const GStreamerSupported = true

// GStreamerSource captures from a V4L2 device through a GStreamer pipeline:
//
//	v4l2src → videoconvert → videoscale → videorate → capsfilter(RGBA) → appsink
type GStreamerSource struct {
	Device     string
	RearDevice string
}

// NewGStreamerSource creates a V4L2 source. rearDevice is used when the
// environment-facing camera is requested and may be empty.
func NewGStreamerSource(device, rearDevice string) *GStreamerSource {
	return &GStreamerSource{Device: device, RearDevice: rearDevice}
}

func (g *GStreamerSource) device(facing string) string {
	if facing == settings.FacingEnvironment && g.RearDevice != "" {
		return g.RearDevice
	}
	return g.Device
}

func (g *GStreamerSource) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	device := g.device(c.FacingMode)
	if err := probeDevice(device); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Device: device, Err: err}
	}

	gst.Init(nil)

	stream := &gstStream{
		id:     uuid.NewString(),
		device: device,
		size:   utils.Size{Width: c.Width, Height: c.Height},
		done:   make(chan struct{}),
	}
	if err := stream.build(c); err != nil {
		return nil, &Error{Device: device, Err: err}
	}

	stream.sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: stream.onNewSample,
	})

	if err := stream.pipeline.SetState(gst.StatePlaying); err != nil {
		_ = stream.pipeline.SetState(gst.StateNull)
		return nil, Classify(device, fmt.Errorf("failed to start pipeline: %w", err))
	}
	stream.state.Store(int32(HaveMetadata))
	stream.track = NewTrack("v4l2 "+device, stream.teardown)

	go stream.monitor()

	log.Infof("GStreamer source started on %s (%dx%d@%d)", device, c.Width, c.Height, c.FrameRate)
	return stream, nil
}

// probeDevice classifies a missing or inaccessible device node before any
// pipeline is built
func probeDevice(device string) error {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return Classify(device, err)
	}
	return f.Close()
}

type gstStream struct {
	id       string
	device   string
	size     utils.Size
	pipeline *gst.Pipeline
	sink     *app.Sink
	track    *BasicTrack
	state    atomic.Int32
	done     chan struct{}
	once     sync.Once

	mu     sync.RWMutex
	latest *image.RGBA
}

func (s *gstStream) build(c Constraints) error {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return fmt.Errorf("failed to create v4l2src: %w", err)
	}
	src.SetProperty("device", s.device)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return fmt.Errorf("failed to create videoconvert: %w", err)
	}
	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return fmt.Errorf("failed to create videoscale: %w", err)
	}
	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return fmt.Errorf("failed to create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true)

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return fmt.Errorf("failed to create capsfilter: %w", err)
	}
	caps := fmt.Sprintf("video/x-raw,format=RGBA,width=%d,height=%d", c.Width, c.Height)
	if c.FrameRate > 0 {
		caps += fmt.Sprintf(",framerate=%d/1", c.FrameRate)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(caps))

	sink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("failed to create appsink: %w", err)
	}
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)

	if err := pipeline.AddMany(src, converter, scaler, videorate, capsfilter, sink.Element); err != nil {
		return fmt.Errorf("failed to add pipeline elements: %w", err)
	}
	if err := gst.ElementLinkMany(src, converter, scaler, videorate, capsfilter, sink.Element); err != nil {
		return fmt.Errorf("failed to link pipeline elements: %w", err)
	}

	s.pipeline = pipeline
	s.sink = sink
	return nil
}

// onNewSample copies the newest RGBA frame out of the appsink buffer
func (s *gstStream) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	want := s.size.Width * s.size.Height * 4
	if len(data) < want {
		buffer.Unmap()
		log.Debugf("GStreamer: short buffer (%d < %d bytes), skipping frame", len(data), want)
		return gst.FlowOK
	}

	frame := image.NewRGBA(image.Rect(0, 0, s.size.Width, s.size.Height))
	copy(frame.Pix, data[:want])
	buffer.Unmap()

	s.mu.Lock()
	s.latest = frame
	s.mu.Unlock()
	s.state.Store(int32(HaveEnoughData))
	return gst.FlowOK
}

// monitor watches the bus for errors until the track is stopped
func (s *gstStream) monitor() {
	bus := s.pipeline.GetPipelineBus()
	for {
		select {
		case <-s.done:
			return
		default:
		}
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			log.Warnf("GStreamer: end of stream on %s", s.device)
			s.state.Store(int32(HaveNothing))
			return
		case gst.MessageError:
			gerr := msg.ParseError()
			log.Errorf("GStreamer: pipeline error on %s: %s", s.device, gerr.Error())
			s.state.Store(int32(HaveNothing))
			return
		}
	}
}

func (s *gstStream) teardown() {
	s.once.Do(func() {
		close(s.done)
		s.state.Store(int32(HaveNothing))
		if err := s.pipeline.SetState(gst.StateNull); err != nil {
			log.Warnf("GStreamer: failed to stop pipeline on %s: %v", s.device, err)
		}
		log.Infof("GStreamer source stopped on %s", s.device)
	})
}

func (s *gstStream) ID() string             { return s.id }
func (s *gstStream) Tracks() []Track        { return []Track{s.track} }
func (s *gstStream) Size() utils.Size       { return s.size }
func (s *gstStream) ReadyState() ReadyState { return ReadyState(s.state.Load()) }

func (s *gstStream) Frame() (image.Image, error) {
	if s.track.Stopped() {
		return nil, ErrStreamEnded
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, fmt.Errorf("no frame decoded yet")
	}
	return s.latest, nil
}
