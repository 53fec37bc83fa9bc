package perf

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Snapshot is a point-in-time view of the monitor
type Snapshot struct {
	AverageProcessing time.Duration `json:"averageProcessingNs"`
	HasAverage        bool          `json:"hasAverage"`
	FPS               float64       `json:"fps"`
	HasFPS            bool          `json:"hasFps"`
	Samples           int           `json:"samples"`
	Ticks             uint64        `json:"ticks"`
	SoftFailures      uint64        `json:"softFailures"`
	LastFaces         int           `json:"lastFaces"`
}

type metrics struct {
	processingAvg prometheus.Gauge
	processing    prometheus.Histogram
	fps           prometheus.Gauge
	ticks         prometheus.Counter
	softFailures  prometheus.Counter
	faces         prometheus.Gauge
	recognized    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		processingAvg: factory.NewGauge(prometheus.GaugeOpts{
			Name: "livrec_processing_time_avg_seconds",
			Help: "Mean recognition tick time over the last 10 ticks",
		}),
		processing: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "livrec_processing_time_seconds",
			Help:    "Recognition tick time",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		fps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "livrec_fps",
			Help: "Estimated frame rate of the monitor clock",
		}),
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "livrec_ticks_total",
			Help: "Total number of completed recognition ticks",
		}),
		softFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "livrec_soft_failures_total",
			Help: "Total number of ticks that ended in a network or API failure",
		}),
		faces: factory.NewGauge(prometheus.GaugeOpts{
			Name: "livrec_faces_detected",
			Help: "Faces detected in the most recent tick",
		}),
		recognized: factory.NewCounter(prometheus.CounterOpts{
			Name: "livrec_recognitions_total",
			Help: "Total number of ticks with at least one recognized face",
		}),
	}
}

// Monitor keeps the rolling processing-time window and the frame-rate
// estimate. It is safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	window    Window
	lastTick  time.Time
	fps       float64
	hasFPS    bool
	ticks     uint64
	failures  uint64
	lastFaces int
	metrics   *metrics
}

// NewMonitor creates a monitor. When reg is nil metrics are not exported.
func NewMonitor(reg prometheus.Registerer) *Monitor {
	m := &Monitor{}
	if reg != nil {
		m.metrics = newMetrics(reg)
	}
	return m
}

// Record adds one tick's processing time. Negative durations count as zero.
func (m *Monitor) Record(d time.Duration, facesDetected int, recognized bool, softFailure bool) {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	m.window.Push(d)
	avg, _ := m.window.Mean()
	m.ticks++
	if softFailure {
		m.failures++
	} else {
		m.lastFaces = facesDetected
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.processingAvg.Set(avg.Seconds())
		m.metrics.processing.Observe(d.Seconds())
		m.metrics.ticks.Inc()
		if softFailure {
			m.metrics.softFailures.Inc()
		} else {
			m.metrics.faces.Set(float64(facesDetected))
			if recognized {
				m.metrics.recognized.Inc()
			}
		}
	}
}

// Average returns the mean of the last WindowSize samples
func (m *Monitor) Average() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.Mean()
}

// Tick feeds the frame-rate estimator with an external clock timestamp.
// The first tick after construction or Reset yields no estimate.
func (m *Monitor) Tick(now time.Time) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.lastTick
	m.lastTick = now
	if prev.IsZero() {
		return 0, false
	}
	delta := now.Sub(prev)
	if delta <= 0 {
		return m.fps, m.hasFPS
	}
	m.fps = float64(time.Second) / float64(delta)
	m.hasFPS = true
	if m.metrics != nil {
		m.metrics.fps.Set(m.fps)
	}
	return m.fps, true
}

// FPS returns the latest frame-rate estimate
func (m *Monitor) FPS() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fps, m.hasFPS
}

// Reset clears the FPS guard so the next Tick starts a fresh estimate.
// The processing-time window is kept.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTick = time.Time{}
	m.fps = 0
	m.hasFPS = false
}

// Snapshot returns the current values
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	avg, hasAvg := m.window.Mean()
	return Snapshot{
		AverageProcessing: avg,
		HasAverage:        hasAvg,
		FPS:               m.fps,
		HasFPS:            m.hasFPS,
		Samples:           m.window.Len(),
		Ticks:             m.ticks,
		SoftFailures:      m.failures,
		LastFaces:         m.lastFaces,
	}
}
