package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/live-recognition/internal/notify"
	"github.com/smegmarip/live-recognition/internal/testutil"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCenter_Notify(t *testing.T) {
	tests := []struct {
		name         string
		severity     notify.Severity
		duration     time.Duration
		wantSeverity notify.Severity
		wantIcon     string
		sticky       bool
	}{
		{name: "success", severity: notify.SeveritySuccess, duration: time.Second, wantSeverity: notify.SeveritySuccess, wantIcon: "✔"},
		{name: "warning", severity: notify.SeverityWarning, duration: time.Second, wantSeverity: notify.SeverityWarning, wantIcon: "⚠"},
		{name: "error", severity: notify.SeverityError, duration: time.Second, wantSeverity: notify.SeverityError, wantIcon: "✖"},
		{name: "unknown severity becomes info", severity: "fatal", duration: time.Second, wantSeverity: notify.SeverityInfo, wantIcon: "ℹ"},
		{name: "zero duration is sticky", severity: notify.SeverityInfo, duration: 0, wantSeverity: notify.SeverityInfo, wantIcon: "ℹ", sticky: true},
		{name: "negative duration is sticky", severity: notify.SeverityInfo, duration: -time.Second, wantSeverity: notify.SeverityInfo, wantIcon: "ℹ", sticky: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			center := notify.NewCenter(testutil.NewFakeClock(epoch))
			toast := center.Notify("hello", tt.severity, tt.duration)

			assert.NotEmpty(t, toast.ID)
			assert.Equal(t, "hello", toast.Message)
			assert.Equal(t, tt.wantSeverity, toast.Severity)
			assert.Equal(t, tt.wantIcon, toast.Icon)
			assert.Equal(t, tt.sticky, toast.Sticky())
			assert.Equal(t, epoch, toast.CreatedAt)
			assert.Equal(t, []notify.Toast{toast}, center.Active())
		})
	}
}

func TestCenter_AutoDismiss(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	center := notify.NewCenter(clk)

	short := center.Notify("short", notify.SeverityInfo, time.Second)
	long := center.Success("long")
	sticky := center.Notify("sticky", notify.SeverityError, 0)
	require.Len(t, center.Active(), 3)

	clk.Advance(time.Second)
	assert.Equal(t, []notify.Toast{long, sticky}, center.Active())

	clk.Advance(notify.DefaultDuration)
	assert.Equal(t, []notify.Toast{sticky}, center.Active())

	clk.Advance(time.Hour)
	assert.Equal(t, []notify.Toast{sticky}, center.Active())
	assert.False(t, center.Dismiss(short.ID))
	assert.True(t, center.Dismiss(sticky.ID))
	assert.Empty(t, center.Active())
}

func TestCenter_IndependentTimers(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	center := notify.NewCenter(clk)

	first := center.Info("first")
	clk.Advance(3 * time.Second)
	second := center.Info("second")

	clk.Advance(2 * time.Second)
	assert.Equal(t, []notify.Toast{second}, center.Active())
	assert.False(t, center.Dismiss(first.ID))

	clk.Advance(3 * time.Second)
	assert.Empty(t, center.Active())
}

func TestCenter_DismissStopsTimer(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	center := notify.NewCenter(clk)

	toast := center.Warning("Start recognition first")
	require.True(t, center.Dismiss(toast.ID))

	timers := clk.Timers()
	require.Len(t, timers, 1)
	clk.Advance(notify.DefaultDuration)
	assert.False(t, timers[0].Fired())
}

func TestCenter_Listeners(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	center := notify.NewCenter(clk)
	ch := center.AddListener()

	toast := center.Info("Live recognition stopped")
	ev := <-ch
	assert.Equal(t, notify.EventAdded, ev.Type)
	assert.Equal(t, toast, ev.Toast)

	clk.Advance(notify.DefaultDuration)
	ev = <-ch
	assert.Equal(t, notify.EventRemoved, ev.Type)
	assert.Equal(t, toast.ID, ev.Toast.ID)

	center.RemoveListener(ch)
	_, open := <-ch
	assert.False(t, open)

	// Removing twice is harmless and later toasts do not panic
	center.RemoveListener(ch)
	center.Info("after removal")
}

func TestCenter_SlowListenerDoesNotBlock(t *testing.T) {
	center := notify.NewCenter(testutil.NewFakeClock(epoch))
	ch := center.AddListener()
	defer center.RemoveListener(ch)

	for i := 0; i < 100; i++ {
		center.Notify("spam", notify.SeverityInfo, 0)
	}
	assert.Len(t, center.Active(), 100)
	assert.Len(t, ch, cap(ch))
}

func TestCenter_Clear(t *testing.T) {
	center := notify.NewCenter(testutil.NewFakeClock(epoch))
	center.Info("a")
	center.Error("b")
	center.Clear()
	assert.Empty(t, center.Active())
}
