package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"medassist/internal/models"
)

var ErrEnrollmentNotFound = errors.New("enrollment not found")

// statusToColumn maps the tagged status to its storage form: a NULL status
// column marks a rejected enrollment.
func statusToColumn(s models.EnrollmentStatus) *string {
	if s == models.EnrollmentRejected {
		return nil
	}
	v := string(s)
	return &v
}

func statusFromColumn(v *string) models.EnrollmentStatus {
	if v == nil {
		return models.EnrollmentRejected
	}
	return models.EnrollmentStatus(*v)
}

// UpsertEnrollment creates or updates the single enrollment row for a
// (user, program) pair. A uniqueness constraint on (user_id, program_id)
// guarantees one row per pair; the update is guarded so a rejected
// enrollment stays rejected. Rejection is terminal.
func (d *DB) UpsertEnrollment(ctx context.Context, e models.Enrollment) error {
	query := `
        INSERT INTO enrollments (
            id, user_id, program_id, status, enrolled_at, completion_date,
            re_enrollment_date, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (user_id, program_id) DO UPDATE
        SET status = EXCLUDED.status,
            completion_date = EXCLUDED.completion_date,
            re_enrollment_date = EXCLUDED.re_enrollment_date,
            updated_at = EXCLUDED.updated_at
        WHERE enrollments.status IS NOT NULL`
	_, err := d.Pool.Exec(ctx, query,
		e.ID, e.UserID, e.ProgramID, statusToColumn(e.Status), e.EnrolledAt,
		e.CompletionDate, e.ReEnrollmentDate, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert enrollment for user %s program %s: %w", e.UserID, e.ProgramID, err)
	}
	return nil
}

func (d *DB) GetEnrollment(ctx context.Context, userID, programID string) (models.Enrollment, error) {
	var e models.Enrollment
	var status *string
	err := d.Pool.QueryRow(ctx, `
        SELECT id, user_id, program_id, status, enrolled_at, completion_date,
               re_enrollment_date, updated_at
        FROM enrollments
        WHERE user_id = $1 AND program_id = $2`, userID, programID).Scan(
		&e.ID, &e.UserID, &e.ProgramID, &status, &e.EnrolledAt,
		&e.CompletionDate, &e.ReEnrollmentDate, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Enrollment{}, ErrEnrollmentNotFound
		}
		return models.Enrollment{}, fmt.Errorf("failed to get enrollment for user %s program %s: %w", userID, programID, err)
	}
	e.Status = statusFromColumn(status)
	return e, nil
}

func (d *DB) EnrollmentsByUserID(ctx context.Context, userID string) ([]models.Enrollment, error) {
	rows, err := d.Pool.Query(ctx, `
        SELECT id, user_id, program_id, status, enrolled_at, completion_date,
               re_enrollment_date, updated_at
        FROM enrollments
        WHERE user_id = $1
        ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollments for user %s: %w", userID, err)
	}
	defer rows.Close()

	var enrollments []models.Enrollment
	for rows.Next() {
		var e models.Enrollment
		var status *string
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProgramID, &status, &e.EnrolledAt,
			&e.CompletionDate, &e.ReEnrollmentDate, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		e.Status = statusFromColumn(status)
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// TouchEnrollment bumps updated_at without changing status, used when a
// re-enrollment pass refreshes the re-enrollment date.
func (d *DB) TouchEnrollment(ctx context.Context, userID, programID string, reEnrollmentDate *time.Time) error {
	_, err := d.Pool.Exec(ctx, `
        UPDATE enrollments
        SET re_enrollment_date = $3, updated_at = now()
        WHERE user_id = $1 AND program_id = $2 AND status IS NOT NULL`,
		userID, programID, reEnrollmentDate)
	if err != nil {
		return fmt.Errorf("failed to touch enrollment for user %s program %s: %w", userID, programID, err)
	}
	return nil
}
