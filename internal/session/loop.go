package session

import (
	"context"
	"image"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/smegmarip/live-recognition/internal/alert"
	"github.com/smegmarip/live-recognition/internal/frame"
	"github.com/smegmarip/live-recognition/internal/recognition"
	"github.com/smegmarip/live-recognition/pkg/utils"
)

// ============================================================================
// Polling Loop
// ============================================================================

// startLoopLocked arms a ticker for the current generation. Caller holds mu.
func (c *Controller) startLoopLocked(interval time.Duration) {
	l := &loop{
		ticker:   c.clock.NewTicker(interval),
		interval: interval,
		done:     make(chan struct{}),
	}
	c.loop = l
	go c.run(c.generation, l)
	log.Debugf("Polling loop armed every %s", interval)
}

// stopLoopLocked cancels the pending ticker. Caller holds mu.
func (c *Controller) stopLoopLocked() {
	if c.loop == nil {
		return
	}
	c.loop.ticker.Stop()
	close(c.loop.done)
	c.loop = nil
}

// restartLoopLocked replaces the ticker in place without changing status.
// Caller holds mu.
func (c *Controller) restartLoopLocked(interval time.Duration) {
	if c.status != StatusActive {
		return
	}
	if c.loop != nil && c.loop.interval == interval {
		return
	}
	c.stopLoopLocked()
	c.startLoopLocked(interval)
	log.Infof("Polling interval changed to %s", interval)
}

// LoopInterval returns the interval of the armed ticker, or zero when the
// loop is not running
func (c *Controller) LoopInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loop == nil {
		return 0
	}
	return c.loop.interval
}

func (c *Controller) run(gen string, l *loop) {
	for {
		select {
		case <-l.done:
			return
		case <-l.ticker.C():
			c.mu.Lock()
			if c.status != StatusActive || c.generation != gen || c.loop != l {
				c.mu.Unlock()
				continue
			}
			c.inflight.Add(1)
			c.mu.Unlock()

			go func() {
				defer c.inflight.Done()
				c.tick(gen)
			}()
		}
	}
}

// tick runs one iteration of the polling loop for session gen. Every
// failure is absorbed here.
func (c *Controller) tick(gen string) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recognition tick panicked: %v", r)
		}
	}()

	c.mu.Lock()
	if c.status != StatusActive || c.generation != gen || c.stream == nil {
		c.mu.Unlock()
		return
	}
	stream := c.stream
	c.mu.Unlock()

	if state := stream.ReadyState(); !state.Ready() {
		log.Tracef("Skipping tick, stream readiness is %s", state)
		return
	}

	start := c.clock.Now()
	s := c.store.Current()

	src, err := stream.Frame()
	if err != nil {
		log.Debugf("Skipping tick, frame unavailable: %v", err)
		return
	}
	raster := frame.Capture(src, false)
	native := utils.Size{Width: raster.Bounds().Dx(), Height: raster.Bounds().Dy()}
	scaled := frame.Scale(raster, s.Advanced.ProcessingMode)
	sent := utils.Size{Width: scaled.Bounds().Dx(), Height: scaled.Bounds().Dy()}

	var result recognition.Result
	imageData, err := frame.EncodeDataURI(scaled, frame.TickQuality)
	if err != nil {
		result = recognition.SoftFailure("failed to encode frame")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), s.Advanced.APITimeout())
		result, err = c.recognizer.Recognize(ctx, imageData, recognition.Options{
			MaxFaces: s.Recognition.MaxFaces,
			Retry:    s.Advanced.AutoRetry,
		})
		cancel()
	}
	rescaleMatches(&result, sent, native)

	rec := ResultRecord{
		Session:     gen,
		Result:      result,
		Timestamp:   c.clock.Now(),
		Elapsed:     c.clock.Now().Sub(start),
		SoftFailure: err != nil,
		FrameSize:   native,
	}
	if rec.SoftFailure {
		logSoftFailure(s.Advanced.DebugMode, err)
	}
	c.apply(gen, rec, raster)
}

// rescaleMatches maps match boxes from the encoded frame back to native
// stream coordinates
func rescaleMatches(result *recognition.Result, from, to utils.Size) {
	if from == to {
		return
	}
	for i, m := range result.Matches {
		if m.Box != nil {
			box := utils.ScaleBox(*m.Box, from, to)
			result.Matches[i].Box = &box
		}
	}
}

func logSoftFailure(debug bool, err error) {
	if debug {
		log.Warnf("Recognition soft failure: %v", err)
		return
	}
	log.Debugf("Recognition soft failure: %v", err)
}

// ============================================================================
// Result Policy
// ============================================================================

// apply feeds a completed tick to the monitor, history, alerts and
// publisher. Results from a session that is no longer active are dropped.
func (c *Controller) apply(gen string, rec ResultRecord, raster image.Image) {
	var (
		saveUnknown bool
		stopAfter   bool
		recognized  []string
		unknown     int
	)

	c.mu.Lock()
	if c.status != StatusActive || c.generation != gen {
		c.mu.Unlock()
		log.Debugf("Discarding stale result from session %s", gen)
		return
	}

	s := c.store.Current()
	result := rec.Result
	c.monitor.Record(rec.Elapsed, result.FacesDetected, result.Recognized, rec.SoftFailure)
	c.lastResult = &rec

	if !rec.SoftFailure {
		if s.Display.ShowHistory {
			c.history.Add(result, rec.Timestamp)
		}

		switch {
		case result.Recognized && len(result.Matches) > 0:
			names := utils.DeduplicateNames(result.Names())
			log.Infof("Recognized: %v (%d face(s))", names, result.FacesDetected)
			recognized = names
			if s.Alerts.AutoCaptureOnRecognition {
				c.scheduleCaptureLocked(gen)
			}
		case result.FacesDetected > 0:
			log.Infof("%d unknown face(s) detected", result.FacesDetected)
			unknown = result.FacesDetected
			saveUnknown = s.Recognition.SaveUnknownFaces
		}

		stopAfter = !s.Recognition.ContinuousRecognition && result.FacesDetected > 0
	}
	c.mu.Unlock()

	switch {
	case len(recognized) > 0:
		c.alerts.Play(alert.KindRecognition, s.Alerts)
		c.alerts.NotifyRecognized(recognized, s.Alerts)
	case unknown > 0:
		c.alerts.Play(alert.KindUnknown, s.Alerts)
		c.alerts.NotifyUnknown(unknown, s.Alerts)
	}

	c.emit(Event{Type: EventResult, Result: &rec})

	if c.publisher != nil {
		if err := c.publisher.Publish(rec); err != nil {
			log.Debugf("Failed to publish result: %v", err)
		}
	}
	if saveUnknown {
		if path, err := c.writer.Save(raster, frame.PrefixUnknown); err != nil {
			log.Warnf("Failed to save unknown face frame: %v", err)
		} else {
			c.emit(Event{Type: EventCapture, Capture: path})
		}
	}
	if stopAfter {
		log.Info("Single-shot recognition complete, stopping session")
		c.Stop()
	}
}
