package db

import (
	"context"
	"fmt"
	"time"

	"medassist/internal/models"
)

// UpsertPushSubscription registers a browser push endpoint for a user. A
// user holds one row per device endpoint.
func (d *DB) UpsertPushSubscription(ctx context.Context, sub models.PushSubscription) error {
	_, err := d.Pool.Exec(ctx, `
        INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, endpoint) DO UPDATE
        SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth`,
		sub.UserID, sub.Endpoint, sub.P256DH, sub.Auth, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert push subscription for user %s: %w", sub.UserID, err)
	}
	return nil
}

func (d *DB) PushSubscriptionsByUserID(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	rows, err := d.Pool.Query(ctx, `
        SELECT user_id, endpoint, p256dh, auth, created_at
        FROM push_subscriptions
        WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get push subscriptions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		var s models.PushSubscription
		if err := rows.Scan(&s.UserID, &s.Endpoint, &s.P256DH, &s.Auth, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan push subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// DeletePushSubscriptions removes every endpoint registered for a user,
// used on opt-out.
func (d *DB) DeletePushSubscriptions(ctx context.Context, userID string) error {
	_, err := d.Pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete push subscriptions for user %s: %w", userID, err)
	}
	return nil
}
