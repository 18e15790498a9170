// Package kafka consumes the notification insert feed. Rows inserted into
// the notification tables while a user is connected arrive here and are
// published straight into the dispatch queue, bypassing a full
// reconciliation pass.
package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"medassist/internal/models"
	"medassist/internal/reconcile"
)

type Config struct {
	Broker  string
	Topic   string
	GroupID string
}

// Publisher is the dispatch-queue entry point the consumer feeds.
type Publisher interface {
	Publish(ctx context.Context, e models.NotificationEvent) bool
}

// DrugNamer resolves display names for refill rows, which arrive on the
// feed without one.
type DrugNamer interface {
	DrugName(ctx context.Context, drugID string) (string, error)
}

type Consumer struct {
	reader *segkafka.Reader
	pub    Publisher
	names  DrugNamer
	logger *logrus.Logger
}

// insertMessage is the feed envelope: the source table plus the inserted
// row as raw JSON.
type insertMessage struct {
	Table string          `json:"table"`
	Row   json.RawMessage `json:"row"`
}

func NewConsumer(cfg Config, pub Publisher, names DrugNamer, logger *logrus.Logger) *Consumer {
	reader := segkafka.NewReader(segkafka.ReaderConfig{
		Brokers:     []string{cfg.Broker},
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: segkafka.LastOffset,
	})
	return &Consumer{reader: reader, pub: pub, names: names, logger: logger}
}

func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Info("Kafka consumer started")
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Info("Kafka consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				continue
			}
			c.handle(ctx, msg.Value)
		}
	}()
}

func (c *Consumer) handle(ctx context.Context, value []byte) {
	var msg insertMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		c.logger.Errorf("Unmarshal message failed: %v", err)
		return
	}

	switch msg.Table {
	case "program_notifications":
		var row models.ProgramNotification
		if err := json.Unmarshal(msg.Row, &row); err != nil {
			c.logger.Errorf("Unmarshal program notification row failed: %v", err)
			return
		}
		if row.ID == "" || row.UserID == "" {
			c.logger.Error("Invalid program notification row: missing id or user_id")
			return
		}
		c.pub.Publish(ctx, reconcile.ProgramRowEvent(row))
		c.logger.Debugf("Processed realtime program notification %s", row.ID)

	case "refill_notifications":
		var row models.RefillNotification
		if err := json.Unmarshal(msg.Row, &row); err != nil {
			c.logger.Errorf("Unmarshal refill notification row failed: %v", err)
			return
		}
		if row.ID == "" || row.UserID == "" {
			c.logger.Error("Invalid refill notification row: missing id or user_id")
			return
		}
		if row.DrugName == "" {
			name, err := c.names.DrugName(ctx, row.DrugID)
			if err != nil {
				// Display name is cosmetic; deliver without it.
				c.logger.Errorf("Resolving drug name for %s failed: %v", row.DrugID, err)
			} else {
				row.DrugName = name
			}
		}
		c.pub.Publish(ctx, reconcile.RefillRowEvent(row, time.Now()))
		c.logger.Debugf("Processed realtime refill notification %s", row.ID)

	default:
		c.logger.Debugf("Ignoring insert for table %s", msg.Table)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
