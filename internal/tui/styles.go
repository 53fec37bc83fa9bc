package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/smegmarip/live-recognition/internal/notify"
	"github.com/smegmarip/live-recognition/internal/session"
)

// Palette
var (
	ColorLive    = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	ColorPending = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
	ColorIdle    = lipgloss.AdaptiveColor{Light: "#57606A", Dark: "#8B949E"}
	ColorAccent  = lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#58A6FF"}
	ColorBorder  = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#30363D"}
)

var (
	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	StylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorIdle)

	StyleValue = lipgloss.NewStyle().
			Bold(true)

	StyleKnown = lipgloss.NewStyle().
			Foreground(ColorLive).
			Bold(true)

	StyleUnknown = lipgloss.NewStyle().
			Foreground(ColorPending)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorIdle)
)

// statusStyle colors the status light
func statusStyle(s session.Status) lipgloss.Style {
	switch s {
	case session.StatusActive:
		return lipgloss.NewStyle().Foreground(ColorLive).Bold(true)
	case session.StatusStarting, session.StatusStopping:
		return lipgloss.NewStyle().Foreground(ColorPending).Bold(true)
	case session.StatusError:
		return lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(ColorIdle)
}

func toastStyle(s notify.Severity) lipgloss.Style {
	switch s {
	case notify.SeveritySuccess:
		return lipgloss.NewStyle().Foreground(ColorLive)
	case notify.SeverityWarning:
		return lipgloss.NewStyle().Foreground(ColorPending)
	case notify.SeverityError:
		return lipgloss.NewStyle().Foreground(ColorError)
	}
	return lipgloss.NewStyle().Foreground(ColorAccent)
}

// DarkBackground reports whether the terminal has a dark background. It
// resolves the "auto" theme preference.
func DarkBackground() bool {
	return lipgloss.HasDarkBackground()
}
