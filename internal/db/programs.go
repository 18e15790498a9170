package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"medassist/internal/models"
)

var ErrProgramNotFound = errors.New("program not found")

// ProgramsForUser returns the programs assigned to a patient through
// patient_programs, ordered by name. A patient with no assignments sees no
// programs.
func (d *DB) ProgramsForUser(ctx context.Context, userID string) ([]models.Program, error) {
	rows, err := d.Pool.Query(ctx, `
        SELECT p.id, p.name, p.sponsor, p.program_status, p.renewal_period,
               p.monetary_cap, p.description, p.enrollment_link, p.created_at
        FROM programs p
        JOIN patient_programs pp ON pp.program_id = p.id
        WHERE pp.user_id = $1
        ORDER BY p.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get programs for user %s: %w", userID, err)
	}
	defer rows.Close()

	var programs []models.Program
	for rows.Next() {
		var p models.Program
		if err := rows.Scan(&p.ID, &p.Name, &p.Sponsor, &p.Status, &p.RenewalPeriod,
			&p.MonetaryCap, &p.Description, &p.EnrollmentLink, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

func (d *DB) GetProgram(ctx context.Context, id string) (models.Program, error) {
	var p models.Program
	err := d.Pool.QueryRow(ctx, `
        SELECT id, name, sponsor, program_status, renewal_period,
               monetary_cap, description, enrollment_link, created_at
        FROM programs
        WHERE id = $1`, id).Scan(&p.ID, &p.Name, &p.Sponsor, &p.Status, &p.RenewalPeriod,
		&p.MonetaryCap, &p.Description, &p.EnrollmentLink, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Program{}, ErrProgramNotFound
		}
		return models.Program{}, fmt.Errorf("failed to get program %s: %w", id, err)
	}
	return p, nil
}
