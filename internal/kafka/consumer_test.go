package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"medassist/internal/models"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (f *fakePublisher) Publish(ctx context.Context, e models.NotificationEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return true
}

type fakeNamer struct {
	names map[string]string
}

func (f *fakeNamer) DrugName(ctx context.Context, drugID string) (string, error) {
	name, ok := f.names[drugID]
	if !ok {
		return "", errors.New("drug not found")
	}
	return name, nil
}

func testConsumer() (*Consumer, *fakePublisher) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	pub := &fakePublisher{}
	c := &Consumer{
		pub:    pub,
		names:  &fakeNamer{names: map[string]string{"drug-1": "Metformin"}},
		logger: logger,
	}
	return c, pub
}

func TestHandleProgramInsert(t *testing.T) {
	c, pub := testConsumer()

	c.handle(context.Background(), []byte(`{
		"table": "program_notifications",
		"row": {
			"id": "row-1",
			"user_id": "user-1",
			"program_id": "prog-1",
			"new_status": "open",
			"message": "Program Alpha is now open for enrollment",
			"enrollment_link": "https://example.org/alpha"
		}
	}`))

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	e := pub.events[0]
	if e.Type != models.EventProgramOpen || e.ID != "row-1" || e.UserID != "user-1" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.EnrollmentLink != "https://example.org/alpha" {
		t.Errorf("enrollment link not carried: %q", e.EnrollmentLink)
	}
}

func TestHandleRefillInsertResolvesDrugName(t *testing.T) {
	c, pub := testConsumer()

	c.handle(context.Background(), []byte(`{
		"table": "refill_notifications",
		"row": {
			"id": "row-2",
			"user_id": "user-1",
			"drug_id": "drug-1",
			"refill_date": "2030-01-05T00:00:00Z"
		}
	}`))

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	e := pub.events[0]
	if e.Type != models.EventRefillApproaching {
		t.Errorf("unexpected event type %q", e.Type)
	}
	if e.DrugName != "Metformin" {
		t.Errorf("drug name not resolved, got %q", e.DrugName)
	}
}

func TestHandleRefillInsertNameLookupFailureStillDelivers(t *testing.T) {
	c, pub := testConsumer()

	c.handle(context.Background(), []byte(`{
		"table": "refill_notifications",
		"row": {
			"id": "row-3",
			"user_id": "user-1",
			"drug_id": "drug-unknown",
			"refill_date": "2030-01-05T00:00:00Z"
		}
	}`))

	if len(pub.events) != 1 {
		t.Fatalf("expected delivery despite name lookup failure, got %d events", len(pub.events))
	}
	if pub.events[0].DrugName != "" {
		t.Errorf("expected empty drug name, got %q", pub.events[0].DrugName)
	}
}

func TestHandleIgnoresUnknownTableAndBadRows(t *testing.T) {
	c, pub := testConsumer()

	c.handle(context.Background(), []byte(`{"table": "audit_log", "row": {}}`))
	c.handle(context.Background(), []byte(`not json`))
	c.handle(context.Background(), []byte(`{"table": "program_notifications", "row": {"message": "no ids"}}`))

	if len(pub.events) != 0 {
		t.Fatalf("expected nothing published, got %d events", len(pub.events))
	}
}
