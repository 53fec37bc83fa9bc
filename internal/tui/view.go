package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smegmarip/live-recognition/internal/history"
	"github.com/smegmarip/live-recognition/internal/recognition"
)

const historyRows = 8

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}
	if m.showPerf {
		sections = append(sections, m.renderPerf())
	}
	sections = append(sections, m.renderResult())
	if m.snap.Display.ShowHistory {
		sections = append(sections, m.renderHistory())
	}
	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}
	if m.last != "" {
		sections = append(sections, StyleLabel.Render(m.last))
	}
	sections = append(sections, StyleHelp.Render("space start/stop • c capture • p performance • q quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	light := statusStyle(m.snap.Status).Render("● " + m.snap.StatusLabel)
	title := StyleTitle.Render("Live Recognition")
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, light)
	if m.snap.Error != "" {
		header += "\n" + lipgloss.NewStyle().Foreground(ColorError).Render(m.snap.Error)
	}
	return header
}

func (m Model) renderPerf() string {
	p := m.snap.Perf
	avg := "--"
	if p.HasAverage {
		avg = fmt.Sprintf("%dms", p.AverageProcessing.Milliseconds())
	}
	rows := []string{
		row("Processing", avg),
		row("Faces", fmt.Sprintf("%d", p.LastFaces)),
	}
	if m.snap.Display.ShowFPS {
		fps := "--"
		if p.HasFPS {
			fps = fmt.Sprintf("%.1f", p.FPS)
		}
		rows = append(rows, row("FPS", fps))
	}
	if v := m.snap.VideoSize; v.Width > 0 {
		rows = append(rows, row("Video", fmt.Sprintf("%dx%d", v.Width, v.Height)))
	}
	return StylePanel.Render(strings.Join(rows, "\n"))
}

func (m Model) renderResult() string {
	if m.snap.LastResult == nil {
		return StylePanel.Render(StyleLabel.Render("No results yet"))
	}
	return StylePanel.Render(m.describe(m.snap.LastResult.Result))
}

func (m Model) renderHistory() string {
	if len(m.snap.History) == 0 {
		return StylePanel.Render(StyleLabel.Render("No recognition history"))
	}
	var lines []string
	for i, e := range m.snap.History {
		if i == historyRows {
			break
		}
		lines = append(lines, m.historyLine(e))
	}
	return StylePanel.Render(strings.Join(lines, "\n"))
}

func (m Model) historyLine(e history.Entry) string {
	return StyleLabel.Render(e.Timestamp.Local().Format("15:04:05")) + "  " + m.describe(e.Result)
}

func (m Model) describe(r recognition.Result) string {
	switch {
	case r.Error != "":
		return StyleUnknown.Render(r.Error)
	case r.Recognized && len(r.Matches) > 0:
		parts := make([]string, 0, len(r.Matches))
		for _, match := range r.Matches {
			name := match.Name
			if m.snap.Display.ShowConfidence {
				name = fmt.Sprintf("%s (%.0f%%)", match.Name, match.Confidence*100)
			}
			parts = append(parts, StyleKnown.Render(name))
		}
		return strings.Join(parts, ", ")
	case r.FacesDetected > 0:
		return StyleUnknown.Render(fmt.Sprintf("%d unknown face(s)", r.FacesDetected))
	}
	return StyleLabel.Render("No faces")
}

func (m Model) renderToasts() string {
	var lines []string
	for _, t := range m.snap.Toasts {
		lines = append(lines, toastStyle(t.Severity).Render(t.Message))
	}
	return strings.Join(lines, "\n")
}

func row(label, value string) string {
	return StyleLabel.Render(fmt.Sprintf("%-11s", label)) + StyleValue.Render(value)
}
