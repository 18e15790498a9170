// Package state holds the per-user session state that survives across
// reconciliation passes: the program-status snapshot baseline and the
// notification dedup keys. Both are Redis-backed and single-writer (the
// active session); last write wins on the baseline, which is acceptable:
// no cross-device coordination is attempted.
package state

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Client wraps the shared Redis connection for the state stores.
type Client struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

func NewClient(addr string, logger *logrus.Logger) *Client {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &Client{rdb: rdb, logger: logger}
}

// Ping verifies connectivity at startup.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
