package perf_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/live-recognition/internal/perf"
)

func TestWindow_KeepsLastTen(t *testing.T) {
	var w perf.Window
	_, ok := w.Mean()
	assert.False(t, ok)

	for i := 1; i <= 15; i++ {
		w.Push(time.Duration(i) * time.Millisecond)
	}

	assert.Equal(t, perf.WindowSize, w.Len())
	values := w.Values()
	assert.Equal(t, 6*time.Millisecond, values[0])
	assert.Equal(t, 15*time.Millisecond, values[9])
	mean, ok := w.Mean()
	assert.True(t, ok)
	assert.Equal(t, 10500*time.Microsecond, mean)

	w.Reset()
	assert.Equal(t, 0, w.Len())
}

func TestMonitor_Average(t *testing.T) {
	m := perf.NewMonitor(nil)
	m.Record(100*time.Millisecond, 1, true, false)
	m.Record(300*time.Millisecond, 0, false, false)
	m.Record(-5*time.Millisecond, 0, false, true)

	avg, ok := m.Average()
	assert.True(t, ok)
	assert.Equal(t, time.Duration(400*time.Millisecond/3), avg)

	snap := m.Snapshot()
	assert.Equal(t, uint64(3), snap.Ticks)
	assert.Equal(t, uint64(1), snap.SoftFailures)
	assert.Equal(t, 0, snap.LastFaces)
	assert.Equal(t, 3, snap.Samples)
}

func TestMonitor_FPSGuardsFirstSample(t *testing.T) {
	m := perf.NewMonitor(nil)
	t0 := time.Unix(1000, 0)

	_, ok := m.Tick(t0)
	assert.False(t, ok, "no previous timestamp")
	_, ok = m.FPS()
	assert.False(t, ok)

	fps, ok := m.Tick(t0.Add(500 * time.Millisecond))
	assert.True(t, ok)
	assert.InDelta(t, 2.0, fps, 1e-9)

	fps, ok = m.Tick(t0.Add(500 * time.Millisecond))
	assert.True(t, ok, "a zero delta keeps the previous estimate")
	assert.InDelta(t, 2.0, fps, 1e-9)

	m.Reset()
	_, ok = m.Tick(t0.Add(2 * time.Second))
	assert.False(t, ok)
}

func TestMonitor_ExportsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := perf.NewMonitor(reg)

	m.Record(200*time.Millisecond, 2, true, false)
	m.Record(400*time.Millisecond, 0, false, true)
	m.Tick(time.Unix(0, 0))
	m.Tick(time.Unix(1, 0))

	assert.InDelta(t, 0.3, gathered(t, reg, "livrec_processing_time_avg_seconds"), 1e-9)
	assert.Equal(t, 2.0, gathered(t, reg, "livrec_ticks_total"))
	assert.Equal(t, 1.0, gathered(t, reg, "livrec_soft_failures_total"))
	assert.Equal(t, 2.0, gathered(t, reg, "livrec_faces_detected"))
	assert.Equal(t, 1.0, gathered(t, reg, "livrec_recognitions_total"))
	assert.InDelta(t, 1.0, gathered(t, reg, "livrec_fps"), 1e-9)

	count, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 7, count)
}

func gathered(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		metric := mf.GetMetric()[0]
		if g := metric.GetGauge(); g != nil {
			return g.GetValue()
		}
		if c := metric.GetCounter(); c != nil {
			return c.GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
