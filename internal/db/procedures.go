package db

import (
	"context"
	"fmt"
)

// The two server-side reconciliation procedures scan their tables and insert
// fresh notification rows as a side effect. Both are idempotent; the service
// treats them as opaque triggers with no return contract beyond
// success/failure.

func (d *DB) CheckAndNotifyReEnrollments(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, `SELECT check_and_notify_re_enrollment_dates()`); err != nil {
		return fmt.Errorf("check_and_notify_re_enrollment_dates failed: %w", err)
	}
	return nil
}

func (d *DB) CheckAndNotifyRefills(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, `SELECT check_and_notify_refill_dates()`); err != nil {
		return fmt.Errorf("check_and_notify_refill_dates failed: %w", err)
	}
	return nil
}
