package session

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cognisys/arcana-cli/internal/arcana/gateway"
)

// jobTickMsg fires on the polling cadence for one job. The generation pins
// the message to the schedule that produced it; a retired generation means
// the schedule was cancelled and the tick is dropped.
type jobTickMsg struct {
	jobID      string
	generation int
}

// jobStatusMsg carries one completed status fetch.
type jobStatusMsg struct {
	jobID      string
	generation int
	status     *gateway.JobStatus
	err        error
}

// registerJob creates the JobRecord for a freshly submitted agent job and
// starts its polling schedule. Re-registration of an ID that is already
// polling must not start a second schedule.
func (m Model) registerJob(line, jobID string) (Model, tea.Cmd) {
	if existing, ok := m.jobs[jobID]; ok && existing.polling {
		m = m.appendEntry(KindInfo, fmt.Sprintf("Job %s is already being tracked.", jobID))
		return m, nil
	}
	m.generation++
	m.jobs[jobID] = &JobRecord{
		ID:         jobID,
		Status:     JobPending,
		polling:    true,
		generation: m.generation,
	}
	text := fmt.Sprintf("Agent job %s started. Polling for status.", jobID)
	m = m.appendEntry(KindInfo, text)
	m = m.record(line, KindInfo, text)
	return m, pollTick(jobID, m.generation, m.pollInterval)
}

func pollTick(jobID string, generation int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return jobTickMsg{jobID: jobID, generation: generation}
	})
}

// handleJobTick issues the status fetch for a live schedule.
func (m Model) handleJobTick(msg jobTickMsg) (Model, tea.Cmd) {
	job, ok := m.jobs[msg.jobID]
	if !ok || !job.polling || job.generation != msg.generation {
		return m, nil
	}
	backend := m.backend
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		status, err := backend.JobStatus(ctx, msg.jobID)
		return jobStatusMsg{jobID: msg.jobID, generation: msg.generation, status: status, err: err}
	}
}

// handleJobStatus merges a fetched status into the record. New fields
// overwrite, absent fields persist. A terminal status freezes the record,
// retires the schedule, and appends the status entry followed by the
// output entry.
func (m Model) handleJobStatus(msg jobStatusMsg) (Model, tea.Cmd) {
	job, ok := m.jobs[msg.jobID]
	if !ok || !job.polling || job.generation != msg.generation {
		return m, nil
	}

	if msg.err != nil {
		// A failed poll retires the schedule and marks the job failed so
		// the UI never shows a stale in-progress job.
		job.polling = false
		job.Status = JobFailed
		text := fmt.Sprintf("Job %s polling failed: %v", msg.jobID, msg.err)
		m = m.appendError(text)
		return m.record("job "+msg.jobID, KindError, text), nil
	}

	status := msg.status
	if status.Status != "" {
		job.Status = status.Status
	}
	if status.Progress != nil {
		job.Progress = status.Progress
	}
	if status.FinalResult != "" {
		job.Output = status.FinalResult
	}

	if !job.Terminal() {
		m = m.refreshFeed()
		return m, pollTick(msg.jobID, msg.generation, m.pollInterval)
	}

	job.polling = false
	statusKind := KindSuccess
	if job.Status == JobFailed {
		statusKind = KindError
	}
	statusText := fmt.Sprintf("Job %s %s.", job.ID, job.Status)
	m = m.appendEntry(statusKind, statusText)

	output := status.FinalResult
	if output == "" {
		output = status.Err
	}
	if output == "" {
		output = "No output."
	}
	m = m.appendEntry(KindOutput, output)
	if statusKind == KindError {
		m = m.logError(statusText)
	}
	return m.record("job "+job.ID, statusKind, output), nil
}
