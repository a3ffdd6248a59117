package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View composes the transcript (or the error-log panel), the prompt bar,
// and the status bar.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready || m.feed == nil {
		return "Initializing..."
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.feed.View(),
		m.renderPromptBar(),
		m.renderStatusBar(),
	)
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return welcomeStyle.Render("Connected to " + m.settings.BaseURL + ". Type a command, or exit to quit.")
	}
	lines := make([]string, 0, len(m.transcript))
	for _, entry := range m.transcript {
		text := entry.Text
		if entry.Kind == KindInput {
			text = "> " + text
		}
		lines = append(lines, entryStyle(entry.Kind).Render(text))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderErrorLog() string {
	if len(m.errorLog) == 0 {
		return welcomeStyle.Render("Error log is empty.")
	}
	lines := make([]string, 0, len(m.errorLog))
	for _, entry := range m.errorLog {
		stamp := logTimeStyle.Render(entry.Time.Format(time.RFC3339))
		lines = append(lines, stamp+" "+errorEntryStyle.Render(entry.Message))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPromptBar() string {
	if m.mode == modeConfirm && m.confirm != nil {
		return promptBarStyle.Width(m.width).Render(
			confirmEntryStyle.Render(m.confirm.prompt),
		)
	}
	hint := infoEntryStyle.Render(" ctrl+o log | ctrl+c quit")
	return promptBarStyle.Width(m.width).Render("> " + m.input.View() + hint)
}

func (m Model) renderStatusBar() string {
	parts := []string{m.cwd, m.settings.BaseURL}
	if active := m.activeJobs(); active > 0 {
		parts = append(parts, fmt.Sprintf("%s %d job(s) running", m.spinner.View(), active))
	}
	if m.showLog {
		parts = append(parts, fmt.Sprintf("error log (%d)", len(m.errorLog)))
	}
	return statusStyle.Width(m.width).Render(strings.Join(parts, " | "))
}
