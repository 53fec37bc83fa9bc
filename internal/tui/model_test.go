package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/live-recognition/internal/history"
	"github.com/smegmarip/live-recognition/internal/notify"
	"github.com/smegmarip/live-recognition/internal/perf"
	"github.com/smegmarip/live-recognition/internal/recognition"
	"github.com/smegmarip/live-recognition/internal/session"
	"github.com/smegmarip/live-recognition/pkg/utils"
)

type fakeController struct {
	snap        session.Snapshot
	toggles     int
	captures    int
	toggleErr   error
	capturePath string
}

func (f *fakeController) Snapshot() session.Snapshot { return f.snap }

func (f *fakeController) Toggle(ctx context.Context) error {
	f.toggles++
	return f.toggleErr
}

func (f *fakeController) CaptureFrame() (string, error) {
	f.captures++
	if f.capturePath == "" {
		return "", session.ErrNotActive
	}
	return f.capturePath, nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestKeys(t *testing.T) {
	tests := []struct {
		name         string
		key          tea.KeyMsg
		wantToggles  int
		wantCaptures int
		wantLast     string
	}{
		{
			name:        "space toggles",
			key:         tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}},
			wantToggles: 1,
		},
		{
			name:         "c captures",
			key:          runes("c"),
			wantCaptures: 1,
			wantLast:     "capture failed: recognition is not active",
		},
		{
			name:         "ctrl+s captures",
			key:          tea.KeyMsg{Type: tea.KeyCtrlS},
			wantCaptures: 1,
			wantLast:     "capture failed: recognition is not active",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			m, cmd := update(t, New(ctrl), tt.key)
			require.NotNil(t, cmd)

			m, _ = update(t, m, cmd())
			assert.Equal(t, tt.wantToggles, ctrl.toggles)
			assert.Equal(t, tt.wantCaptures, ctrl.captures)
			assert.Equal(t, tt.wantLast, m.last)
		})
	}
}

func TestCaptureSuccessShowsPath(t *testing.T) {
	ctrl := &fakeController{capturePath: "captures/live-capture-1.jpg"}
	m, cmd := update(t, New(ctrl), runes("c"))
	m, _ = update(t, m, cmd())
	assert.Equal(t, "Captured captures/live-capture-1.jpg", m.last)
}

func TestToggleError(t *testing.T) {
	ctrl := &fakeController{toggleErr: errors.New("camera busy")}
	m, cmd := update(t, New(ctrl), tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, _ = update(t, m, cmd())
	assert.Equal(t, "toggle failed: camera busy", m.last)
}

func TestQuit(t *testing.T) {
	m, cmd := update(t, New(&fakeController{}), runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestTickRefreshesSnapshot(t *testing.T) {
	ctrl := &fakeController{}
	m := New(ctrl)
	assert.Equal(t, session.Status(""), m.snap.Status)

	ctrl.snap = session.Snapshot{Status: session.StatusActive, StatusLabel: "Live"}
	m, cmd := update(t, m, TickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, session.StatusActive, m.snap.Status)
	assert.Contains(t, m.View(), "Live")
}

func TestPerformanceToggle(t *testing.T) {
	ctrl := &fakeController{snap: session.Snapshot{
		Display: session.DisplayState{ShowFPS: true},
		Perf:    perf.Snapshot{AverageProcessing: 120 * time.Millisecond, HasAverage: true, FPS: 0.5, HasFPS: true},
	}}
	m := New(ctrl)
	view := m.View()
	assert.Contains(t, view, "120ms")
	assert.Contains(t, view, "0.5")

	m, _ = update(t, m, runes("p"))
	assert.NotContains(t, m.View(), "120ms")
}

func TestViewGating(t *testing.T) {
	result := recognition.Result{
		FacesDetected: 1,
		Recognized:    true,
		Matches:       []recognition.Match{{Name: "Alice", Confidence: 0.92}},
	}
	base := session.Snapshot{
		Status:      session.StatusActive,
		StatusLabel: "Live",
		VideoSize:   utils.Size{Width: 1280, Height: 720},
		LastResult:  &session.ResultRecord{Result: result},
		History:     []history.Entry{{Seq: 1, Result: recognition.Result{FacesDetected: 2, Matches: []recognition.Match{}}}},
		Toasts:      []notify.Toast{{ID: "1", Message: "Live recognition started", Severity: notify.SeveritySuccess}},
	}

	tests := []struct {
		name        string
		display     session.DisplayState
		contains    []string
		notContains []string
	}{
		{
			name:        "everything on",
			display:     session.DisplayState{ShowFPS: true, ShowConfidence: true, ShowHistory: true},
			contains:    []string{"Alice (92%)", "2 unknown face(s)", "FPS", "1280x720", "Live recognition started"},
			notContains: []string{},
		},
		{
			name:        "confidence hidden",
			display:     session.DisplayState{ShowHistory: true},
			contains:    []string{"Alice", "2 unknown face(s)"},
			notContains: []string{"92%", "FPS"},
		},
		{
			name:        "history hidden",
			display:     session.DisplayState{},
			contains:    []string{"Alice"},
			notContains: []string{"unknown face(s)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := base
			snap.Display = tt.display
			view := New(&fakeController{snap: snap}).View()
			for _, s := range tt.contains {
				assert.Contains(t, view, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, view, s)
			}
		})
	}
}

func TestViewErrorAndEmpty(t *testing.T) {
	view := New(&fakeController{snap: session.Snapshot{
		Status:      session.StatusError,
		StatusLabel: "Error",
		Error:       "no camera found at camera",
	}}).View()
	assert.Contains(t, view, "Error")
	assert.Contains(t, view, "no camera found at camera")
	assert.Contains(t, view, "No results yet")
}
