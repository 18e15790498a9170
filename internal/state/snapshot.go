package state

import (
	"context"
	"fmt"

	"medassist/internal/models"
)

// SnapshotStore persists the per-user program-status baseline the
// status-change detector compares against. The snapshot is overwritten
// unconditionally after every pass.
type SnapshotStore struct {
	client *Client
}

func NewSnapshotStore(client *Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

func (s *SnapshotStore) buildKey(userID string) string {
	return fmt.Sprintf("snapshot:programs:%s", userID)
}

// Get returns the last-known program status map for the user. A missing
// snapshot is an empty map, not an error.
func (s *SnapshotStore) Get(ctx context.Context, userID string) (map[string]models.ProgramStatus, error) {
	raw, err := s.client.rdb.HGetAll(ctx, s.buildKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("snapshot read failed: %w", err)
	}
	snapshot := make(map[string]models.ProgramStatus, len(raw))
	for id, status := range raw {
		snapshot[id] = models.ProgramStatus(status)
	}
	return snapshot, nil
}

// Put replaces the user's snapshot with the given map.
func (s *SnapshotStore) Put(ctx context.Context, userID string, snapshot map[string]models.ProgramStatus) error {
	key := s.buildKey(userID)
	pipe := s.client.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(snapshot) > 0 {
		fields := make(map[string]interface{}, len(snapshot))
		for id, status := range snapshot {
			fields[id] = string(status)
		}
		pipe.HSet(ctx, key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("snapshot write failed: %w", err)
	}
	return nil
}
