package models

import "time"

// EventType discriminates the two kinds of user-facing notification events.
type EventType string

const (
	EventProgramOpen       EventType = "program_open"
	EventRefillApproaching EventType = "refill_approaching"
)

// NotificationEvent is the unit that flows through the dispatch queue to the
// in-app presentation and push delivery. Detectors, fetched server rows and
// the realtime insert feed all produce these; the coordinator is the sole
// consumer.
type NotificationEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	ProgramID      string    `json:"program_id,omitempty"`
	EnrollmentLink string    `json:"enrollment_link,omitempty"`
	DrugID         string    `json:"drug_id,omitempty"`
	DrugName       string    `json:"drug_name,omitempty"`
	RefillDate     time.Time `json:"refill_date,omitempty"`
	DaysRemaining  int       `json:"days_remaining,omitempty"`
	Overdue        bool      `json:"overdue,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
