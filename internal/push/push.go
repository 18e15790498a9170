// Package push forwards notifications to a user's registered browser push
// endpoints. Delivery is fire-and-forget: failures are logged and never
// surfaced to the user, and a failed push has no effect on in-app
// notification state.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"medassist/internal/models"
	"medassist/internal/utils"
)

// SubscriptionSource resolves a user's registered push endpoints.
type SubscriptionSource interface {
	PushSubscriptionsByUserID(ctx context.Context, userID string) ([]models.PushSubscription, error)
}

type Sender struct {
	subs   SubscriptionSource
	client *http.Client
	logger *logrus.Logger
	ttl    int
}

func NewSender(subs SubscriptionSource, logger *logrus.Logger, ttlSeconds int) *Sender {
	return &Sender{
		subs:   subs,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		ttl:    ttlSeconds,
	}
}

// Deliver posts the payload to every endpoint the user has registered. Each
// endpoint gets one retry; per-endpoint failures are logged and skipped.
func (s *Sender) Deliver(ctx context.Context, userID string, payload models.PushPayload) {
	subs, err := s.subs.PushSubscriptionsByUserID(ctx, userID)
	if err != nil {
		s.logger.Errorf("Push delivery: loading subscriptions for user %s failed: %v", userID, err)
		return
	}
	if len(subs) == 0 {
		s.logger.Debugf("Push delivery: no subscriptions for user %s", userID)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Errorf("Push delivery: marshal payload failed: %v", err)
		return
	}

	for _, sub := range subs {
		endpoint := sub.Endpoint
		err := utils.Retry(s.logger, 2, time.Second, func() error {
			return s.post(ctx, endpoint, body)
		})
		if err != nil {
			s.logger.Errorf("Push delivery to %s failed: %v", endpoint, err)
			continue
		}
		s.logger.Debugf("Push delivered to user %s (tag=%s)", userID, payload.Tag)
	}
}

func (s *Sender) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("TTL", strconv.Itoa(s.ttl))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
