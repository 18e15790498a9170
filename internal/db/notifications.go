package db

import (
	"context"
	"fmt"

	"medassist/internal/models"
)

// UnreadProgramNotifications returns the user's unread program status
// notifications, newest first.
func (d *DB) UnreadProgramNotifications(ctx context.Context, userID string) ([]models.ProgramNotification, error) {
	rows, err := d.Pool.Query(ctx, `
        SELECT id, user_id, program_id, COALESCE(old_status, ''), new_status,
               message, COALESCE(enrollment_link, ''), is_read, created_at
        FROM program_notifications
        WHERE user_id = $1 AND is_read = false
        ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get program notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var notifications []models.ProgramNotification
	for rows.Next() {
		var n models.ProgramNotification
		if err := rows.Scan(&n.ID, &n.UserID, &n.ProgramID, &n.OldStatus, &n.NewStatus,
			&n.Message, &n.EnrollmentLink, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan program notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// UnreadRefillNotifications returns the user's unread refill notifications
// with the drug name resolved, newest first. days_remaining is recomputed
// from refill_date by the caller; the stored column is only the display
// snapshot from the pass that created the row.
func (d *DB) UnreadRefillNotifications(ctx context.Context, userID string) ([]models.RefillNotification, error) {
	rows, err := d.Pool.Query(ctx, `
        SELECT rn.id, rn.user_id, rn.drug_id, COALESCE(dr.name, ''), rn.refill_date,
               rn.days_remaining, rn.is_read, rn.created_at
        FROM refill_notifications rn
        LEFT JOIN drugs dr ON dr.id = rn.drug_id
        WHERE rn.user_id = $1 AND rn.is_read = false
        ORDER BY rn.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get refill notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var notifications []models.RefillNotification
	for rows.Next() {
		var n models.RefillNotification
		if err := rows.Scan(&n.ID, &n.UserID, &n.DrugID, &n.DrugName, &n.RefillDate,
			&n.DaysRemaining, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan refill notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkProgramNotificationsRead flips is_read in one batched update. is_read
// only ever moves false to true, so already-read rows are untouched.
func (d *DB) MarkProgramNotificationsRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := d.Pool.Exec(ctx, `
        UPDATE program_notifications
        SET is_read = true
        WHERE id = ANY($1::uuid[]) AND is_read = false`, ids)
	if err != nil {
		return fmt.Errorf("failed to mark program notifications read: %w", err)
	}
	return nil
}

func (d *DB) MarkRefillNotificationsRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := d.Pool.Exec(ctx, `
        UPDATE refill_notifications
        SET is_read = true
        WHERE id = ANY($1::uuid[]) AND is_read = false`, ids)
	if err != nil {
		return fmt.Errorf("failed to mark refill notifications read: %w", err)
	}
	return nil
}

// MarkRefillNotificationsReadByDrug clears pending refill alerts for the
// given drugs, used when the patient marks refills completed.
func (d *DB) MarkRefillNotificationsReadByDrug(ctx context.Context, userID string, drugIDs []string) error {
	if len(drugIDs) == 0 {
		return nil
	}
	_, err := d.Pool.Exec(ctx, `
        UPDATE refill_notifications
        SET is_read = true
        WHERE user_id = $1 AND drug_id = ANY($2::uuid[]) AND is_read = false`, userID, drugIDs)
	if err != nil {
		return fmt.Errorf("failed to clear refill notifications for user %s: %w", userID, err)
	}
	return nil
}
