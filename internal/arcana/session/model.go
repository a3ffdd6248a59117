package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cognisys/arcana-cli/internal/arcana/config"
	"github.com/cognisys/arcana-cli/internal/arcana/gateway"
)

// Backend is the slice of the gateway the session needs. Declared here so
// tests can substitute a fake.
type Backend interface {
	Execute(ctx context.Context, command string, args []string) (*gateway.Result, error)
	JobStatus(ctx context.Context, jobID string) (*gateway.JobStatus, error)
	ModelDetails(ctx context.Context) (json.RawMessage, error)
}

// Recorder receives every dispatched command for persistent history. A nil
// recorder disables recording.
type Recorder interface {
	Record(ctx context.Context, command, kind, result string) error
}

// EntryKind classifies transcript entries for rendering.
type EntryKind string

const (
	KindInput   EntryKind = "input"
	KindOutput  EntryKind = "output"
	KindSuccess EntryKind = "success"
	KindError   EntryKind = "error"
	KindInfo    EntryKind = "info"
	KindConfirm EntryKind = "confirmation"
)

// TranscriptEntry is one line of session activity. The transcript is
// append-only for the lifetime of the session.
type TranscriptEntry struct {
	Kind EntryKind
	Text string
}

// Job states reported by the backend.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// JobRecord tracks one asynchronous backend job. The generation number is
// the record's poll handle: tick and status messages carry the generation
// they were scheduled under, and messages from a retired generation are
// dropped, which is how a cancelled schedule stops.
type JobRecord struct {
	ID       string
	Status   string
	Progress *int
	Output   string

	polling    bool
	generation int
}

// Terminal reports whether the job reached a final state.
func (j *JobRecord) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// ErrorLogEntry is one line of the operator-facing error log, hidden from
// the main view until toggled.
type ErrorLogEntry struct {
	Time    time.Time
	Message string
}

// pendingConfirm is the continuation for an outstanding destructive-command
// confirmation. Consumed exactly once; at most one exists at a time.
type pendingConfirm struct {
	prompt  string
	command string
	args    []string
	line    string
}

type sessionMode int

const (
	modeNormal sessionMode = iota
	modeConfirm
)

const defaultPollInterval = 3 * time.Second

// Model is the Bubble Tea model for the interactive session. The update
// loop is the single logical thread: keystrokes, poll ticks, and network
// completions all arrive as messages and are applied serially.
type Model struct {
	backend  Backend
	recorder Recorder
	settings config.Settings

	transcript []TranscriptEntry
	errorLog   []ErrorLogEntry
	jobs       map[string]*JobRecord
	generation int

	mode    sessionMode
	confirm *pendingConfirm

	feed    *viewport.Model
	input   textinput.Model
	spinner spinner.Model

	cwd      string
	showLog  bool
	quitting bool

	pollInterval time.Duration

	width  int
	height int
	ready  bool
}

// Run starts the interactive session and blocks until it exits.
func Run(ctx context.Context, backend Backend, recorder Recorder, settings config.Settings) error {
	model := NewModel(backend, recorder, settings)
	program := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

// NewModel initializes the session with an empty transcript and no jobs.
func NewModel(backend Backend, recorder Recorder, settings config.Settings) Model {
	input := textinput.New()
	input.Placeholder = "Type a command (exit to quit)"
	input.Focus()

	v := viewport.New(0, 0)
	feed := &v

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorWarning)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return Model{
		backend:      backend,
		recorder:     recorder,
		settings:     settings,
		transcript:   []TranscriptEntry{},
		errorLog:     []ErrorLogEntry{},
		jobs:         map[string]*JobRecord{},
		mode:         modeNormal,
		feed:         feed,
		input:        input,
		spinner:      sp,
		cwd:          cwd,
		pollInterval: defaultPollInterval,
	}
}

// Transcript returns the session transcript.
func (m Model) Transcript() []TranscriptEntry {
	return m.transcript
}

// ErrorLog returns the operator error log.
func (m Model) ErrorLog() []ErrorLogEntry {
	return m.errorLog
}

// Jobs returns the in-flight job table.
func (m Model) Jobs() map[string]*JobRecord {
	return m.jobs
}

// Buffer returns the current input buffer contents.
func (m Model) Buffer() string {
	return m.input.Value()
}

func (m Model) appendEntry(kind EntryKind, text string) Model {
	m.transcript = append(m.transcript, TranscriptEntry{Kind: kind, Text: text})
	return m.refreshFeed()
}

// appendError writes both the transcript entry and the timestamped log
// entry required for every failure.
func (m Model) appendError(text string) Model {
	m = m.appendEntry(KindError, text)
	return m.logError(text)
}

func (m Model) logError(text string) Model {
	m.errorLog = append(m.errorLog, ErrorLogEntry{Time: time.Now().UTC(), Message: text})
	return m
}

// record writes a history row. Store failures land in the error log and
// never interrupt dispatch.
func (m Model) record(command string, kind EntryKind, result string) Model {
	if m.recorder == nil {
		return m
	}
	if err := m.recorder.Record(context.Background(), command, string(kind), result); err != nil {
		return m.logError(fmt.Sprintf("history: %v", err))
	}
	return m
}

func (m Model) activeJobs() int {
	count := 0
	for _, job := range m.jobs {
		if job.polling {
			count++
		}
	}
	return count
}

func (m Model) refreshFeed() Model {
	if !m.ready || m.feed == nil {
		return m
	}
	if m.showLog {
		m.feed.SetContent(m.renderErrorLog())
	} else {
		m.feed.SetContent(m.renderTranscript())
	}
	m.feed.GotoBottom()
	return m
}
