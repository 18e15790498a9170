package models

import "time"

// ProgramNotification records a detected program status transition for one
// (user, program) pair. Rows are only ever mutated to mark them read; they
// are kept for audit, never deleted.
type ProgramNotification struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	ProgramID      string        `json:"program_id"`
	OldStatus      string        `json:"old_status,omitempty"` // empty when no prior status was known
	NewStatus      ProgramStatus `json:"new_status"`
	Message        string        `json:"message"`
	EnrollmentLink string        `json:"enrollment_link,omitempty"`
	IsRead         bool          `json:"is_read"`
	CreatedAt      time.Time     `json:"created_at"`
}

// RefillNotification records a due-soon or due-today state for one
// (user, drug) pair. DaysRemaining is recomputed from RefillDate at read
// time; the stored value is only a display snapshot of the pass that
// created the row.
type RefillNotification struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	DrugID        string    `json:"drug_id"`
	DrugName      string    `json:"drug_name,omitempty"` // resolved on read, not stored
	RefillDate    time.Time `json:"refill_date"`
	DaysRemaining int       `json:"days_remaining"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}
