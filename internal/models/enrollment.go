package models

import "time"

// EnrollmentStatus is a patient's participation state in a program.
// Rejected is terminal: once a (user, program) pair is rejected it cannot
// move to any other state. In storage a NULL status column means rejected.
type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentOngoing   EnrollmentStatus = "ongoing"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentRejected  EnrollmentStatus = "rejected"
)

// Valid reports whether s is one of the four known states.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentEnrolled, EnrollmentOngoing, EnrollmentCompleted, EnrollmentRejected:
		return true
	}
	return false
}

// Enrollment records a patient's relationship to a program. There is exactly
// one row per (user, program) pair; status changes update it in place.
type Enrollment struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	ProgramID        string           `json:"program_id"`
	Status           EnrollmentStatus `json:"status"`
	EnrolledAt       time.Time        `json:"enrolled_at"`
	CompletionDate   *time.Time       `json:"completion_date,omitempty"`
	ReEnrollmentDate *time.Time       `json:"re_enrollment_date,omitempty"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
