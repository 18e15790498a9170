package state

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DedupStore tracks which notification keys have already been surfaced to a
// user, so the same alert is not shown again for the same observed value
// across poll passes, realtime duplicates, and session restarts. Keys are
// durable (no TTL): eligibility resets only when the observed value changes
// (a new refill date makes a new key) or when the caller clears a key after
// the baseline moves on.
type DedupStore struct {
	client *Client
}

func NewDedupStore(client *Client) *DedupStore {
	return &DedupStore{client: client}
}

func (s *DedupStore) buildKey(userID, namespace, key string) string {
	return fmt.Sprintf("dedup:%s:%s:%s", namespace, userID, key)
}

// ShouldShow reports whether the key has not yet produced a visible
// notification for this user.
func (s *DedupStore) ShouldShow(ctx context.Context, userID, namespace, key string) (bool, error) {
	_, err := s.client.rdb.Get(ctx, s.buildKey(userID, namespace, key)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedup lookup failed: %w", err)
	}
	return false, nil
}

// MarkShown records that the key produced a visible notification.
func (s *DedupStore) MarkShown(ctx context.Context, userID, namespace, key string) error {
	if err := s.client.rdb.Set(ctx, s.buildKey(userID, namespace, key), "1", 0).Err(); err != nil {
		return fmt.Errorf("dedup mark failed: %w", err)
	}
	return nil
}

// Clear removes a key, restoring its eligibility. The coordinator clears a
// program's key once the program leaves the open state, so the next
// re-opening alerts again under the new baseline.
func (s *DedupStore) Clear(ctx context.Context, userID, namespace, key string) error {
	if err := s.client.rdb.Del(ctx, s.buildKey(userID, namespace, key)).Err(); err != nil {
		return fmt.Errorf("dedup clear failed: %w", err)
	}
	return nil
}
