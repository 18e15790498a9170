package detect

import (
	"testing"
	"time"

	"medassist/internal/models"
)

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func program(id string, status models.ProgramStatus) models.Program {
	return models.Program{ID: id, Name: "Program " + id, Status: status}
}

func TestProgramReopeningsTransitionMatrix(t *testing.T) {
	statuses := []models.ProgramStatus{
		models.ProgramOpen, models.ProgramClosed, models.ProgramWaitlisted, models.ProgramIdentified,
	}

	for _, prev := range statuses {
		for _, curr := range statuses {
			wantEvent := (prev == models.ProgramClosed || prev == models.ProgramWaitlisted) &&
				curr == models.ProgramOpen

			snapshot := map[string]models.ProgramStatus{"p1": prev}
			events := ProgramReopenings(snapshot, []models.Program{program("p1", curr)}, testNow)

			if got := len(events) == 1; got != wantEvent {
				t.Errorf("prev=%s curr=%s: fired=%v, want %v", prev, curr, got, wantEvent)
			}
		}
	}
}

func TestProgramReopeningsUnknownBaseline(t *testing.T) {
	// First-ever observation establishes the baseline silently.
	events := ProgramReopenings(map[string]models.ProgramStatus{}, []models.Program{program("p1", models.ProgramOpen)}, testNow)
	if len(events) != 0 {
		t.Fatalf("expected no events for unknown previous status, got %d", len(events))
	}
}

func TestProgramReopeningsIdempotentAfterSnapshotOverwrite(t *testing.T) {
	current := []models.Program{program("p1", models.ProgramOpen)}
	snapshot := map[string]models.ProgramStatus{"p1": models.ProgramClosed}

	first := ProgramReopenings(snapshot, current, testNow)
	if len(first) != 1 {
		t.Fatalf("expected one event on first pass, got %d", len(first))
	}

	// The caller overwrites the baseline after each pass; a second pass with
	// unchanged statuses must be silent.
	snapshot = Snapshot(current)
	second := ProgramReopenings(snapshot, current, testNow.Add(time.Minute))
	if len(second) != 0 {
		t.Fatalf("expected no events on second pass, got %d", len(second))
	}
}

func TestProgramReopeningsEventPayload(t *testing.T) {
	snapshot := map[string]models.ProgramStatus{"p1": models.ProgramWaitlisted}
	p := program("p1", models.ProgramOpen)
	p.EnrollmentLink = "https://portal.example.org/enroll"

	events := ProgramReopenings(snapshot, []models.Program{p}, testNow)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	e := events[0]
	if e.ProgramID != "p1" || e.Type != models.EventProgramOpen {
		t.Errorf("unexpected event %+v", e)
	}
	if e.EnrollmentLink != p.EnrollmentLink {
		t.Errorf("enrollment link not carried: %q", e.EnrollmentLink)
	}
	if e.ID == "" {
		t.Error("event id must be set")
	}

	// Same transition fired at a later instant gets a distinct id.
	later := ProgramReopenings(snapshot, []models.Program{p}, testNow.Add(time.Second))
	if later[0].ID == e.ID {
		t.Error("event ids must be unique per firing")
	}
}

func TestSnapshot(t *testing.T) {
	programs := []models.Program{
		program("p1", models.ProgramOpen),
		program("p2", models.ProgramClosed),
	}
	snap := Snapshot(programs)
	if len(snap) != 2 || snap["p1"] != models.ProgramOpen || snap["p2"] != models.ProgramClosed {
		t.Errorf("unexpected snapshot %v", snap)
	}
}
