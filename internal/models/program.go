package models

import "time"

// ProgramStatus is the live availability state of an assistance program.
type ProgramStatus string

const (
	ProgramOpen       ProgramStatus = "open"
	ProgramClosed     ProgramStatus = "closed"
	ProgramWaitlisted ProgramStatus = "waitlisted"
	ProgramIdentified ProgramStatus = "identified"
)

// Program is a drug-assistance offering a patient can enroll in.
type Program struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Sponsor        string        `json:"sponsor"`
	Status         ProgramStatus `json:"program_status"`
	RenewalPeriod  string        `json:"renewal_period"`
	MonetaryCap    string        `json:"monetary_cap"`
	Description    string        `json:"description"`
	EnrollmentLink string        `json:"enrollment_link"`
	CreatedAt      time.Time     `json:"created_at"`
}
