package models

import "time"

// PatientDrug is the medication a patient tracks, with its next refill date
// and pricing used by the cost summary screens.
type PatientDrug struct {
	UserID       string     `json:"user_id"`
	DrugID       string     `json:"drug_id"`
	DrugName     string     `json:"drug_name,omitempty"`
	RefillDate   *time.Time `json:"refill_date,omitempty"`
	WeeklyPrice  float64    `json:"weekly_price"`
	MonthlyPrice float64    `json:"monthly_price"`
	YearlyPrice  float64    `json:"yearly_price"`
}
