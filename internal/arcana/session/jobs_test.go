package session

import (
	"errors"
	"testing"

	"github.com/cognisys/arcana-cli/internal/arcana/gateway"
)

// startJob submits `agent run a1 do x` against a backend that returns the
// given job ID and applies the execution result, leaving a registered job
// with a live schedule.
func startJob(t *testing.T, backend *fakeBackend, jobID string) Model {
	t.Helper()
	backend.executeResult = &gateway.Result{Status: "success", Message: "job started", JobID: jobID}
	m, cmd := submitLine(t, newTestModel(backend), "agent run a1 do x")
	if cmd == nil {
		t.Fatalf("expected submission command")
	}
	updated, tick := m.Update(cmd())
	m = updated.(Model)
	if tick == nil {
		t.Fatalf("expected polling schedule to start")
	}
	return m
}

func TestAgentRunRegistersJobNotOutput(t *testing.T) {
	backend := &fakeBackend{}
	m := startJob(t, backend, "J1")

	if len(m.Jobs()) != 1 {
		t.Fatalf("expected exactly one job record, got %d", len(m.Jobs()))
	}
	job, ok := m.Jobs()["J1"]
	if !ok {
		t.Fatalf("expected job J1 to be registered")
	}
	if !job.polling {
		t.Fatalf("expected a live polling schedule")
	}
	if got := countKind(m, KindInfo); got != 1 {
		t.Fatalf("expected exactly one info entry, got %d", got)
	}
	if got := countKind(m, KindOutput); got != 0 {
		t.Fatalf("raw result must not be appended as output, got %d output entries", got)
	}
}

func TestDuplicateRegistrationKeepsOneSchedule(t *testing.T) {
	backend := &fakeBackend{}
	m := startJob(t, backend, "J1")
	gen := m.Jobs()["J1"].generation

	m2, cmd := m.registerJob("agent run a1 do x", "J1")
	if cmd != nil {
		t.Fatalf("re-registration must not start a second schedule")
	}
	if m2.Jobs()["J1"].generation != gen {
		t.Fatalf("existing schedule was replaced")
	}
}

func TestTerminalTickAppendsTwoEntriesAndStops(t *testing.T) {
	backend := &fakeBackend{}
	m := startJob(t, backend, "J1")
	gen := m.Jobs()["J1"].generation
	before := len(m.Transcript())

	backend.statusResult = &gateway.JobStatus{Status: JobCompleted, FinalResult: "done"}
	updated, fetch := m.Update(jobTickMsg{jobID: "J1", generation: gen})
	m = updated.(Model)
	if fetch == nil {
		t.Fatalf("expected status fetch")
	}
	updated, next := m.Update(fetch())
	m = updated.(Model)
	if next != nil {
		t.Fatalf("terminal status must not reschedule")
	}
	if backend.statusCalls != 1 {
		t.Fatalf("expected one status fetch, got %d", backend.statusCalls)
	}

	entries := m.Transcript()[before:]
	if len(entries) != 2 {
		t.Fatalf("expected exactly two appended entries, got %d", len(entries))
	}
	if entries[0].Kind != KindSuccess || entries[0].Text != "Job J1 completed." {
		t.Fatalf("unexpected status entry %+v", entries[0])
	}
	if entries[1].Kind != KindOutput || entries[1].Text != "done" {
		t.Fatalf("unexpected output entry %+v", entries[1])
	}
	if m.Jobs()["J1"].polling {
		t.Fatalf("schedule must be cancelled at terminal status")
	}

	// A subsequent tick must not fetch again.
	_, again := m.Update(jobTickMsg{jobID: "J1", generation: gen})
	if again != nil {
		t.Fatalf("retired schedule produced a command")
	}
	if backend.statusCalls != 1 {
		t.Fatalf("tick after terminal status fetched again (%d calls)", backend.statusCalls)
	}
}

func TestFailedJobUsesErrorEntryAndErrorText(t *testing.T) {
	backend := &fakeBackend{}
	m := startJob(t, backend, "J2")
	gen := m.Jobs()["J2"].generation
	before := len(m.Transcript())

	backend.statusResult = &gateway.JobStatus{Status: JobFailed, Err: "agent crashed"}
	updated, fetch := m.Update(jobTickMsg{jobID: "J2", generation: gen})
	m = updated.(Model)
	updated, _ = m.Update(fetch())
	m = updated.(Model)

	entries := m.Transcript()[before:]
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if entries[0].Kind != KindError || entries[0].Text != "Job J2 failed." {
		t.Fatalf("unexpected status entry %+v", entries[0])
	}
	if entries[1].Text != "agent crashed" {
		t.Fatalf("unexpected output entry %+v", entries[1])
	}
}

func TestTerminalStatusWithoutOutputFallsBack(t *testing.T) {
	backend := &fakeBackend{}
	m := startJob(t, backend, "J3")
	gen := m.Jobs()["J3"].generation

	backend.statusResult = &gateway.JobStatus{Status: JobCompleted}
	updated, fetch := m.Update(jobTickMsg{jobID: "J3", generation: gen})
	m = updated.(Model)
	updated, _ = m.Update(fetch())
	m = updated.(Model)
	if got := lastEntry(t, m).Text; got != "No output." {
		t.Fatalf("expected fallback output, got %q", got)
	}
}

func TestNonTerminalStatusKeepsPolling(t *testing.T) {
	backend := &fakeBackend{}
	m := startJob(t, backend, "J4")
	gen := m.Jobs()["J4"].generation

	progress := 40
	backend.statusResult = &gateway.JobStatus{Status: JobRunning, Progress: &progress}
	updated, fetch := m.Update(jobTickMsg{jobID: "J4", generation: gen})
	m = updated.(Model)
	updated, next := m.Update(fetch())
	m = updated.(Model)
	if next == nil {
		t.Fatalf("non-terminal status must reschedule")
	}
	job := m.Jobs()["J4"]
	if job.Status != JobRunning || job.Progress == nil || *job.Progress != 40 {
		t.Fatalf("merge lost fields: %+v", job)
	}
	if !job.polling {
		t.Fatalf("schedule must stay live")
	}
}

func TestStatusMergeKeepsUnspecifiedFields(t *testing.T) {
	backend := &fakeBackend{}
	m := startJob(t, backend, "J5")
	gen := m.Jobs()["J5"].generation

	progress := 80
	backend.statusResult = &gateway.JobStatus{Status: JobRunning, Progress: &progress}
	updated, fetch := m.Update(jobTickMsg{jobID: "J5", generation: gen})
	m = updated.(Model)
	updated, _ = m.Update(fetch())
	m = updated.(Model)

	// Second poll omits progress; the merged record keeps the old value.
	backend.statusResult = &gateway.JobStatus{Status: JobRunning}
	updated, fetch = m.Update(jobTickMsg{jobID: "J5", generation: gen})
	m = updated.(Model)
	updated, _ = m.Update(fetch())
	m = updated.(Model)
	job := m.Jobs()["J5"]
	if job.Progress == nil || *job.Progress != 80 {
		t.Fatalf("shallow merge dropped progress: %+v", job)
	}
}

func TestPollFailureMarksJobFailedAndStops(t *testing.T) {
	backend := &fakeBackend{}
	m := startJob(t, backend, "J6")
	gen := m.Jobs()["J6"].generation

	backend.statusErr = errors.New("connection refused")
	updated, fetch := m.Update(jobTickMsg{jobID: "J6", generation: gen})
	m = updated.(Model)
	updated, next := m.Update(fetch())
	m = updated.(Model)
	if next != nil {
		t.Fatalf("failed poll must not reschedule")
	}
	job := m.Jobs()["J6"]
	if job.polling {
		t.Fatalf("schedule must be released on poll failure")
	}
	if job.Status != JobFailed {
		t.Fatalf("job left in stale status %q", job.Status)
	}
	if len(m.ErrorLog()) == 0 {
		t.Fatalf("expected an error log entry")
	}

	_, again := m.Update(jobTickMsg{jobID: "J6", generation: gen})
	if again != nil {
		t.Fatalf("released schedule produced a command")
	}
	if backend.statusCalls != 1 {
		t.Fatalf("expected one status fetch, got %d", backend.statusCalls)
	}
}

func TestStaleGenerationIgnored(t *testing.T) {
	backend := &fakeBackend{}
	m := startJob(t, backend, "J7")
	gen := m.Jobs()["J7"].generation

	_, cmd := m.Update(jobTickMsg{jobID: "J7", generation: gen + 1})
	if cmd != nil {
		t.Fatalf("tick from a foreign generation must be dropped")
	}
	if backend.statusCalls != 0 {
		t.Fatalf("stale tick fetched status")
	}
}
