package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/smegmarip/live-recognition/internal/alert"
	"github.com/smegmarip/live-recognition/internal/camera"
	"github.com/smegmarip/live-recognition/internal/clock"
	"github.com/smegmarip/live-recognition/internal/frame"
	"github.com/smegmarip/live-recognition/internal/history"
	"github.com/smegmarip/live-recognition/internal/notify"
	"github.com/smegmarip/live-recognition/internal/perf"
	"github.com/smegmarip/live-recognition/internal/settings"
	"github.com/smegmarip/live-recognition/pkg/utils"
)

const (
	// readyTimeout bounds the wait for the first decodable frame
	readyTimeout = 10 * time.Second
	readyPoll    = 20 * time.Millisecond
	// fpsInterval is the cadence of the frame-rate estimator
	fpsInterval = time.Second
)

// Deps are the collaborators a Controller drives. Store, Acquirer and
// Recognizer are required; the rest fall back to inert defaults.
type Deps struct {
	Store      *settings.Store
	Acquirer   camera.Acquirer
	Recognizer Recognizer
	Monitor    *perf.Monitor
	History    *history.History
	Alerts     *alert.Sink
	Toasts     *notify.Center
	Captures   *frame.Writer
	Clock      clock.Clock
	Publisher  Publisher
	// DarkBackground resolves the "auto" theme preference
	DarkBackground func() bool
}

// Controller owns the camera stream and the polling loop of one live
// recognition session at a time
type Controller struct {
	mu         sync.Mutex
	status     Status
	generation string
	startedAt  time.Time
	lastErr    error
	stream     camera.Stream
	videoSize  utils.Size
	loop       *loop
	captures   []clock.Timer
	lastResult *ResultRecord
	display    DisplayState

	// inflight counts tick and capture goroutines; Add only happens under mu
	// while Active
	inflight sync.WaitGroup

	store      *settings.Store
	acquirer   camera.Acquirer
	recognizer Recognizer
	monitor    *perf.Monitor
	history    *history.History
	alerts     *alert.Sink
	toasts     *notify.Center
	writer     *frame.Writer
	clock      clock.Clock
	publisher  Publisher
	dark       func() bool
	baseLevel  log.Level

	listenerMu sync.Mutex
	listeners  map[chan Event]struct{}
}

// loop is one armed polling ticker and the goroutine draining it
type loop struct {
	ticker   clock.Ticker
	interval time.Duration
	done     chan struct{}
}

// New creates an idle controller and subscribes it to settings changes
func New(d Deps) *Controller {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Monitor == nil {
		d.Monitor = perf.NewMonitor(nil)
	}
	current := d.Store.Current()
	if d.History == nil {
		d.History = history.New(current.Display.HistoryMaxCount)
	}
	if d.Alerts == nil {
		d.Alerts = alert.NewSink(nil, nil)
	}
	if d.Toasts == nil {
		d.Toasts = notify.NewCenter(d.Clock)
	}
	if d.Captures == nil {
		d.Captures = frame.NewWriter("captures")
	}
	if d.DarkBackground == nil {
		d.DarkBackground = func() bool { return false }
	}

	c := &Controller{
		status:     StatusIdle,
		store:      d.Store,
		acquirer:   d.Acquirer,
		recognizer: d.Recognizer,
		monitor:    d.Monitor,
		history:    d.History,
		alerts:     d.Alerts,
		toasts:     d.Toasts,
		writer:     d.Captures,
		clock:      d.Clock,
		publisher:  d.Publisher,
		dark:       d.DarkBackground,
		baseLevel:  log.GetLevel(),
		listeners:  make(map[chan Event]struct{}),
	}
	c.display = c.displayFrom(current)
	d.Store.OnChange(c.applySettings)
	return c
}

// ============================================================================
// Lifecycle
// ============================================================================

// Start acquires the camera and starts the polling loop. It is a no-op
// when a session is already starting or active. Camera failures move the
// controller to StatusError and are returned classified.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.status {
	case StatusStarting, StatusActive, StatusStopping:
		status := c.status
		c.mu.Unlock()
		log.Debugf("Start ignored while %s", status)
		return nil
	}
	gen := uuid.NewString()
	c.status = StatusStarting
	c.generation = gen
	c.lastErr = nil
	c.mu.Unlock()

	c.emit(Event{Type: EventStatus})
	c.toasts.Info("Starting camera...")

	s := c.store.Current()
	constraints := camera.ConstraintsFrom(s.Camera)
	log.Infof("Starting live recognition session %s (%s @ %dfps, %s)", gen, s.Camera.Resolution, constraints.FrameRate, constraints.FacingMode)

	stream, err := c.acquirer.Acquire(ctx, constraints)
	if err == nil {
		err = waitReady(ctx, stream)
	}

	c.mu.Lock()
	if c.generation != gen || c.status != StatusStarting {
		c.mu.Unlock()
		released := camera.StopAll(stream)
		log.Infof("Session %s stopped while starting, released %d track(s)", gen, released)
		return ErrStartAborted
	}
	if err != nil {
		device := "camera"
		if stream != nil {
			device = stream.ID()
		}
		err = camera.Classify(device, err)
		c.status = StatusError
		c.generation = ""
		c.lastErr = err
		c.mu.Unlock()

		released := camera.StopAll(stream)
		log.Errorf("Failed to start camera: %v (released %d track(s))", err, released)
		c.emit(Event{Type: EventStatus, Error: err.Error()})
		c.toasts.Error(camera.UserMessage(err))
		return err
	}

	c.status = StatusActive
	c.stream = stream
	c.videoSize = stream.Size()
	c.startedAt = c.clock.Now()
	c.startLoopLocked(s.Recognition.PollInterval())
	c.mu.Unlock()

	log.Infof("Live recognition active: stream %s, %dx%d, polling every %s",
		stream.ID(), c.videoSize.Width, c.videoSize.Height, s.Recognition.PollInterval())
	c.emit(Event{Type: EventStatus})
	c.toasts.Success("Live recognition started")
	return nil
}

// waitReady blocks until the stream can provide at least its current frame
func waitReady(ctx context.Context, stream camera.Stream) error {
	if stream.ReadyState().Ready() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	ticker := time.NewTicker(readyPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return ErrStreamNotReady
			}
			return ctx.Err()
		case <-ticker.C:
			if stream.ReadyState().Ready() {
				return nil
			}
		}
	}
}

// Stop ends the session. Status flips before resources are released so
// in-flight ticks discard their results. Stopping an idle controller is a
// no-op; stopping from StatusError clears the error.
func (c *Controller) Stop() {
	c.mu.Lock()
	switch c.status {
	case StatusIdle, StatusStopping:
		c.mu.Unlock()
		return
	case StatusError:
		c.status = StatusIdle
		c.lastErr = nil
		c.mu.Unlock()
		c.emit(Event{Type: EventStatus})
		return
	}

	gen := c.generation
	c.status = StatusStopping
	c.generation = ""
	c.stopLoopLocked()
	for _, t := range c.captures {
		t.Stop()
	}
	c.captures = nil
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()
	c.emit(Event{Type: EventStatus})

	released := camera.StopAll(stream)
	c.history.ClearDisplay()

	c.mu.Lock()
	c.status = StatusIdle
	c.videoSize = utils.Size{}
	c.mu.Unlock()

	log.Infof("Live recognition session %s stopped, released %d track(s)", gen, released)
	c.emit(Event{Type: EventStatus})
	c.toasts.Info("Live recognition stopped")
}

// Toggle starts an idle or failed session and stops a running one
func (c *Controller) Toggle(ctx context.Context) error {
	switch c.Status() {
	case StatusIdle, StatusError:
		return c.Start(ctx)
	case StatusStarting, StatusActive:
		c.Stop()
	}
	return nil
}

// Close stops the session and waits for outstanding ticks, captures and
// alerts to finish
func (c *Controller) Close() {
	c.Stop()
	c.inflight.Wait()
	c.alerts.Wait()
}

// Wait blocks until every dispatched tick and capture has finished
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Status returns the current lifecycle state
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the camera error that put the controller in StatusError
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Snapshot returns the controller state for monitors
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		Status:         c.status,
		StatusLabel:    c.status.Label(),
		Session:        c.generation,
		CaptureEnabled: c.status == StatusActive,
		VideoSize:      c.videoSize,
		Display:        c.display,
	}
	if !c.startedAt.IsZero() && c.status == StatusActive {
		started := c.startedAt
		snap.StartedAt = &started
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
	}
	if c.lastResult != nil {
		last := *c.lastResult
		snap.LastResult = &last
	}
	c.mu.Unlock()

	snap.History = c.history.Display()
	snap.Perf = c.monitor.Snapshot()
	snap.Toasts = c.toasts.Active()
	return snap
}

// History returns the full result log, newest first
func (c *Controller) History() []history.Entry {
	return c.history.Entries()
}

// Toasts returns the notification center
func (c *Controller) Toasts() *notify.Center {
	return c.toasts
}

// Settings returns the settings store
func (c *Controller) Settings() *settings.Store {
	return c.store
}

// RunMonitor drives the frame-rate estimator on its own one-second clock
// until ctx is done
func (c *Controller) RunMonitor(ctx context.Context) {
	ticker := c.clock.NewTicker(fpsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			if fps, ok := c.monitor.Tick(now); ok {
				log.Tracef("Monitor: %.1f fps", fps)
			}
		}
	}
}

// ============================================================================
// Listeners
// ============================================================================

// AddListener registers a new event listener
func (c *Controller) AddListener() chan Event {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	ch := make(chan Event, 64)
	c.listeners[ch] = struct{}{}
	return ch
}

// RemoveListener unregisters and closes a listener
func (c *Controller) RemoveListener(ch chan Event) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	if _, ok := c.listeners[ch]; ok {
		delete(c.listeners, ch)
		close(ch)
	}
}

// emit stamps the event with the current time and status and broadcasts
// it. It must not be called with mu held.
func (c *Controller) emit(event Event) {
	event.Time = c.clock.Now()
	if event.Status == "" {
		event.Status = c.Status()
	}

	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	for ch := range c.listeners {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}
