package session

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Init fulfills the Bubble Tea Model interface.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update applies incoming messages. This is the single logical thread of
// the session: keystrokes, poll ticks, and network completions are all
// serialized here.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "ctrl+d" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.mode == modeConfirm {
			return m.handleConfirmKey(msg)
		}
		if msg.String() == "ctrl+o" {
			m.showLog = !m.showLog
			return m.refreshFeed(), nil
		}
		return m.handleNormalKey(msg)
	case execResultMsg:
		return m.handleExecResult(msg)
	case modelDetailsMsg:
		return m.handleModelDetails(msg)
	case jobTickMsg:
		return m.handleJobTick(msg)
	case jobStatusMsg:
		return m.handleJobStatus(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	statusBarHeight := 1
	promptBarHeight := 1
	feedHeight := maxInt(1, msg.Height-statusBarHeight-promptBarHeight)

	if !m.ready {
		v := viewport.New(msg.Width, feedHeight)
		m.feed = &v
		m.ready = true
	} else {
		m.feed.Width = msg.Width
		m.feed.Height = feedHeight
	}
	m.input.Width = maxInt(10, msg.Width-4)
	return m.refreshFeed(), nil
}

// handleConfirmKey consumes exactly one keystroke to resolve the pending
// confirmation: y/Y approves, anything else declines.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	approved := msg.String() == "y" || msg.String() == "Y"
	return m.resolveConfirm(approved)
}

// handleNormalKey implements normal-mode line editing. Enter submits the
// buffer; a buffer of exactly "exit" quits before anything can reach the
// dispatcher. Navigation keys scroll the transcript and never touch the
// buffer.
func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		line := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		if line == "" {
			return m, nil
		}
		if line == "exit" {
			m.quitting = true
			return m, tea.Quit
		}
		return m.dispatch(line)
	case "up", "down", "pgup", "pgdown", "home", "end":
		if m.feed == nil {
			return m, nil
		}
		feed, cmd := m.feed.Update(msg)
		m.feed = &feed
		return m, cmd
	case "tab", "left", "right":
		// Accepted, no state change.
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
