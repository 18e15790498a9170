// Package detect holds the two client-side detectors: program status
// re-openings and approaching refill dates. Both are pure comparisons of
// current state against a stored baseline; persistence of the baseline and
// deduplication of the resulting events belong to the caller.
package detect

import (
	"fmt"
	"time"

	"medassist/internal/models"
)

// ProgramReopenings compares the previous per-program status snapshot with
// the current program list and emits one event per program that moved from
// closed or waitlisted back to open. Other transitions are not surfaced;
// this is a one-directional watch for re-opening. Programs absent from the
// snapshot establish their baseline silently.
//
// The caller must overwrite the snapshot with Snapshot(current) after the
// pass, so a transition is detected once per actual status change rather
// than once per reconciliation call.
func ProgramReopenings(previous map[string]models.ProgramStatus, current []models.Program, now time.Time) []models.NotificationEvent {
	var events []models.NotificationEvent
	for _, p := range current {
		prev, seen := previous[p.ID]
		if !seen {
			continue
		}
		if p.Status != models.ProgramOpen {
			continue
		}
		if prev != models.ProgramClosed && prev != models.ProgramWaitlisted {
			continue
		}
		events = append(events, models.NotificationEvent{
			// Unique per firing so repeated transitions stay distinguishable.
			ID:             fmt.Sprintf("%s-%d", p.ID, now.UnixNano()),
			Type:           models.EventProgramOpen,
			Title:          "Program Update",
			Message:        fmt.Sprintf("%s is now open for enrollment", p.Name),
			ProgramID:      p.ID,
			EnrollmentLink: p.EnrollmentLink,
			CreatedAt:      now,
		})
	}
	return events
}

// Snapshot builds the full status map for a program list, used to overwrite
// the stored baseline after each pass.
func Snapshot(programs []models.Program) map[string]models.ProgramStatus {
	m := make(map[string]models.ProgramStatus, len(programs))
	for _, p := range programs {
		m[p.ID] = p.Status
	}
	return m
}
