package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cognisys/arcana-cli/internal/arcana/gateway"
)

// execResultMsg carries the outcome of a remote command submission back
// into the update loop.
type execResultMsg struct {
	line    string
	command string
	result  *gateway.Result
	err     error
}

// modelDetailsMsg carries the /model fetch outcome.
type modelDetailsMsg struct {
	details json.RawMessage
	err     error
}

const submitTimeout = 60 * time.Second

// dispatch routes a trimmed input line. It appends the input entry itself,
// then either mutates local state, starts a confirmation, submits to the
// backend, or rejects the line. Routing priority follows the interactive
// command vocabulary: exit, cd, /model, delete, then the remapped remote
// forms.
func (m Model) dispatch(line string) (Model, tea.Cmd) {
	m = m.appendEntry(KindInput, line)

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return m, nil
	}

	switch fields[0] {
	case "exit":
		m.quitting = true
		return m, tea.Quit
	case "cd":
		return m.handleChdir(line, fields), nil
	case "/model":
		return m, m.fetchModelDetails()
	case "delete":
		return m.handleDelete(line, fields)
	case "code":
		if len(fields) < 3 || fields[1] != "generate" {
			return m.usageError(line, "Usage: code generate <prompt>"), nil
		}
		return m.submit(line, "generate-code", []string{strings.Join(fields[2:], " ")})
	case "shell":
		if len(fields) < 3 || fields[1] != "translate" {
			return m.usageError(line, "Usage: shell translate <instruction>"), nil
		}
		return m.submit(line, "translate-shell", []string{strings.Join(fields[2:], " ")})
	case "agent":
		if len(fields) < 4 || fields[1] != "run" {
			return m.usageError(line, "Usage: agent run <id> <prompt>"), nil
		}
		return m.submit(line, "agent-execute", []string{fields[2], strings.Join(fields[3:], " ")})
	case "reason":
		if len(fields) < 2 {
			return m.usageError(line, "Usage: reason <prompt>"), nil
		}
		return m.submit(line, "reason", []string{strings.Join(fields[1:], " ")})
	case "file-operation":
		if len(fields) < 3 {
			return m.usageError(line, "Usage: file-operation <op> <path> [content]"), nil
		}
		args := []string{fields[1], fields[2]}
		if len(fields) > 3 {
			args = append(args, strings.Join(fields[3:], " "))
		}
		return m.submit(line, "file-operation", args)
	default:
		text := fmt.Sprintf("Unknown command: %s", line)
		m = m.appendEntry(KindError, text)
		return m.record(line, KindError, text), nil
	}
}

func (m Model) usageError(line, usage string) Model {
	m = m.appendEntry(KindError, usage)
	return m.record(line, KindError, usage)
}

// handleChdir changes the process working directory. Local only; the
// gateway is never involved.
func (m Model) handleChdir(line string, fields []string) Model {
	if len(fields) < 2 {
		return m.usageError(line, "Usage: cd <path>")
	}
	path := fields[1]
	if err := os.Chdir(path); err != nil {
		text := fmt.Sprintf("cd: %v", err)
		m = m.appendError(text)
		return m.record(line, KindError, text)
	}
	resolved, err := os.Getwd()
	if err != nil {
		resolved = filepath.Clean(path)
	}
	m.cwd = resolved
	text := fmt.Sprintf("Changed directory to %s", resolved)
	m = m.appendEntry(KindSuccess, text)
	return m.record(line, KindSuccess, text)
}

// handleDelete starts the confirmation sub-protocol. Nothing reaches the
// backend until the pending confirmation resolves with yes.
func (m Model) handleDelete(line string, fields []string) (Model, tea.Cmd) {
	if len(fields) < 2 {
		return m.usageError(line, "Usage: delete <filename>"), nil
	}
	if m.confirm != nil {
		return m.appendEntry(KindInfo, "Another confirmation is pending; answer it first."), nil
	}
	filename := fields[1]
	prompt := fmt.Sprintf("Are you sure you want to delete %s? (y/n)", filename)
	m.confirm = &pendingConfirm{
		prompt:  prompt,
		command: "file-operation",
		args:    []string{"delete", filename},
		line:    line,
	}
	m.mode = modeConfirm
	return m.appendEntry(KindConfirm, prompt), nil
}

// resolveConfirm consumes the pending confirmation with the user's answer.
func (m Model) resolveConfirm(approved bool) (Model, tea.Cmd) {
	pc := m.confirm
	m.confirm = nil
	m.mode = modeNormal
	if pc == nil {
		return m, nil
	}
	if !approved {
		text := "File deletion cancelled."
		m = m.appendEntry(KindInfo, text)
		return m.record(pc.line, KindInfo, text), nil
	}
	return m.submit(pc.line, pc.command, pc.args)
}

// submit issues a remote command as an asynchronous tea.Cmd. The result is
// applied as a delta against whatever the model looks like when the
// message lands.
func (m Model) submit(line, command string, args []string) (Model, tea.Cmd) {
	backend := m.backend
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		result, err := backend.Execute(ctx, command, args)
		return execResultMsg{line: line, command: command, result: result, err: err}
	}
}

func (m Model) fetchModelDetails() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		details, err := backend.ModelDetails(ctx)
		return modelDetailsMsg{details: details, err: err}
	}
}

// handleExecResult applies a completed submission. agent-execute results
// that carry a job identifier register a poller instead of printing the
// raw result.
func (m Model) handleExecResult(msg execResultMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		m = m.appendError(msg.err.Error())
		return m.record(msg.line, KindError, msg.err.Error()), nil
	}
	result := msg.result
	if result == nil {
		m = m.appendError("empty response from backend")
		return m.record(msg.line, KindError, "empty response from backend"), nil
	}
	if result.Status == "error" {
		text := result.Message
		if text == "" {
			text = result.Err
		}
		m = m.appendError(text)
		return m.record(msg.line, KindError, text), nil
	}
	if msg.command == "agent-execute" && result.JobID != "" {
		return m.registerJob(msg.line, result.JobID)
	}
	kind := KindOutput
	if result.Status == "success" {
		kind = KindSuccess
	}
	text := result.Output
	if text == "" {
		text = result.Message
	}
	m = m.appendEntry(kind, text)
	return m.record(msg.line, kind, text), nil
}

func (m Model) handleModelDetails(msg modelDetailsMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		m = m.appendError(msg.err.Error())
		return m.record("/model", KindError, msg.err.Error()), nil
	}
	var pretty strings.Builder
	if err := prettyJSON(&pretty, msg.details); err != nil {
		m = m.appendError(fmt.Sprintf("model details: %v", err))
		return m.record("/model", KindError, err.Error()), nil
	}
	m = m.appendEntry(KindOutput, pretty.String())
	return m.record("/model", KindOutput, pretty.String()), nil
}

func prettyJSON(out *strings.Builder, raw json.RawMessage) error {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return err
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	out.Write(data)
	return nil
}
