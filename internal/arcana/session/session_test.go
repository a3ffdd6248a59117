package session

import (
	"context"
	"encoding/json"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cognisys/arcana-cli/internal/arcana/config"
	"github.com/cognisys/arcana-cli/internal/arcana/gateway"
)

type execCall struct {
	command string
	args    []string
}

// fakeBackend records every call and replies with canned values.
type fakeBackend struct {
	executeCalls  []execCall
	executeResult *gateway.Result
	executeErr    error

	statusCalls  int
	statusResult *gateway.JobStatus
	statusErr    error

	modelCalls int
	modelJSON  json.RawMessage
	modelErr   error
}

func (f *fakeBackend) Execute(_ context.Context, command string, args []string) (*gateway.Result, error) {
	f.executeCalls = append(f.executeCalls, execCall{command: command, args: args})
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	if f.executeResult != nil {
		return f.executeResult, nil
	}
	return &gateway.Result{Status: "success", Message: "ok"}, nil
}

func (f *fakeBackend) JobStatus(_ context.Context, _ string) (*gateway.JobStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.statusResult, nil
}

func (f *fakeBackend) ModelDetails(_ context.Context) (json.RawMessage, error) {
	f.modelCalls++
	if f.modelErr != nil {
		return nil, f.modelErr
	}
	return f.modelJSON, nil
}

func newTestModel(backend Backend) Model {
	return NewModel(backend, nil, config.Settings{BaseURL: "http://backend.test"})
}

// submitLine types a line into the buffer and presses Enter.
func submitLine(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func keyRune(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func countKind(m Model, kind EntryKind) int {
	n := 0
	for _, e := range m.Transcript() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func lastEntry(t *testing.T, m Model) TranscriptEntry {
	t.Helper()
	entries := m.Transcript()
	if len(entries) == 0 {
		t.Fatalf("transcript is empty")
	}
	return entries[len(entries)-1]
}
