package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"medassist/internal/models"
)

var ErrDrugNotFound = errors.New("drug not found")

// PatientDrugs returns the medications a patient tracks, with drug names
// resolved.
func (d *DB) PatientDrugs(ctx context.Context, userID string) ([]models.PatientDrug, error) {
	rows, err := d.Pool.Query(ctx, `
        SELECT pd.user_id, pd.drug_id, COALESCE(dr.name, ''), pd.refill_date,
               pd.weekly_price, pd.monthly_price, pd.yearly_price
        FROM patient_drugs pd
        LEFT JOIN drugs dr ON dr.id = pd.drug_id
        WHERE pd.user_id = $1
        ORDER BY dr.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient drugs for user %s: %w", userID, err)
	}
	defer rows.Close()

	var drugs []models.PatientDrug
	for rows.Next() {
		var pd models.PatientDrug
		if err := rows.Scan(&pd.UserID, &pd.DrugID, &pd.DrugName, &pd.RefillDate,
			&pd.WeeklyPrice, &pd.MonthlyPrice, &pd.YearlyPrice); err != nil {
			return nil, fmt.Errorf("failed to scan patient drug: %w", err)
		}
		drugs = append(drugs, pd)
	}
	return drugs, rows.Err()
}

// DrugName resolves a drug id to its display name.
func (d *DB) DrugName(ctx context.Context, drugID string) (string, error) {
	var name string
	err := d.Pool.QueryRow(ctx, `SELECT name FROM drugs WHERE id = $1`, drugID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrDrugNotFound
		}
		return "", fmt.Errorf("failed to get drug name %s: %w", drugID, err)
	}
	return name, nil
}

// AdvanceRefillDates moves the refill date of the given drugs to newDate in
// one statement. Called only from the mark-completed flow; direct user edits
// go through the patient_drugs screen, outside this service.
func (d *DB) AdvanceRefillDates(ctx context.Context, userID string, drugIDs []string, newDate time.Time) error {
	if len(drugIDs) == 0 {
		return nil
	}
	_, err := d.Pool.Exec(ctx, `
        UPDATE patient_drugs
        SET refill_date = $3
        WHERE user_id = $1 AND drug_id = ANY($2::uuid[])`, userID, drugIDs, newDate)
	if err != nil {
		return fmt.Errorf("failed to advance refill dates for user %s: %w", userID, err)
	}
	return nil
}

// UpcomingRefill is one (user, drug) pair whose refill date falls inside the
// scheduler's scan window.
type UpcomingRefill struct {
	UserID     string
	DrugID     string
	DrugName   string
	RefillDate time.Time
}

// UpcomingRefills returns all tracked drugs with a refill date between from
// and to inclusive, across all users. Used by the daily refill scan.
func (d *DB) UpcomingRefills(ctx context.Context, from, to time.Time) ([]UpcomingRefill, error) {
	rows, err := d.Pool.Query(ctx, `
        SELECT pd.user_id, pd.drug_id, COALESCE(dr.name, ''), pd.refill_date
        FROM patient_drugs pd
        LEFT JOIN drugs dr ON dr.id = pd.drug_id
        WHERE pd.refill_date >= $1 AND pd.refill_date <= $2`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming refills: %w", err)
	}
	defer rows.Close()

	var refills []UpcomingRefill
	for rows.Next() {
		var r UpcomingRefill
		if err := rows.Scan(&r.UserID, &r.DrugID, &r.DrugName, &r.RefillDate); err != nil {
			return nil, fmt.Errorf("failed to scan upcoming refill: %w", err)
		}
		refills = append(refills, r)
	}
	return refills, rows.Err()
}
