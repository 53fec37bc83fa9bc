package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smegmarip/live-recognition/internal/session"
)

// RefreshInterval is how often the model polls the controller
const RefreshInterval = 250 * time.Millisecond

// Controller is the session surface the monitor drives
type Controller interface {
	Snapshot() session.Snapshot
	Toggle(ctx context.Context) error
	CaptureFrame() (string, error)
}

// Model is the root Bubble Tea model of the terminal monitor
type Model struct {
	width  int
	height int

	ctrl     Controller
	snap     session.Snapshot
	showPerf bool
	last     string
	quitting bool
}

// New creates a monitor over ctrl
func New(ctrl Controller) Model {
	return Model{
		ctrl:     ctrl,
		snap:     ctrl.Snapshot(),
		showPerf: true,
	}
}

// Run blocks until the user quits or ctx is done
func Run(ctx context.Context, ctrl Controller) error {
	p := tea.NewProgram(New(ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.snap = m.ctrl.Snapshot()
		return m, tickCmd()

	case ActionMsg:
		switch {
		case msg.Err != nil:
			m.last = msg.Action + " failed: " + msg.Err.Error()
		case msg.Path != "":
			m.last = "Captured " + msg.Path
		default:
			m.last = ""
		}
		m.snap = m.ctrl.Snapshot()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case " ":
		ctrl := m.ctrl
		return m, func() tea.Msg {
			return ActionMsg{Action: "toggle", Err: ctrl.Toggle(context.Background())}
		}

	case "c", "C", "ctrl+s":
		ctrl := m.ctrl
		return m, func() tea.Msg {
			path, err := ctrl.CaptureFrame()
			return ActionMsg{Action: "capture", Path: path, Err: err}
		}

	case "p", "P":
		m.showPerf = !m.showPerf
	}

	return m, nil
}
