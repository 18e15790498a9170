package state

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"medassist/internal/models"
)

func setupTestClient(t *testing.T) (*Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client := &Client{rdb: rdb, logger: logger}

	return client, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestDedupShowOnce(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	store := NewDedupStore(client)
	ctx := context.Background()

	show, err := store.ShouldShow(ctx, "u1", "refill", "d1|2024-06-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !show {
		t.Fatal("first check must report show")
	}

	if err := store.MarkShown(ctx, "u1", "refill", "d1|2024-06-06"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	show, err = store.ShouldShow(ctx, "u1", "refill", "d1|2024-06-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if show {
		t.Fatal("second check must suppress")
	}
}

func TestDedupNewValueResetsEligibility(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	store := NewDedupStore(client)
	ctx := context.Background()

	if err := store.MarkShown(ctx, "u1", "refill", "d1|2024-06-06"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	// The advanced refill date is a different key, so it is eligible again.
	show, err := store.ShouldShow(ctx, "u1", "refill", "d1|2024-07-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !show {
		t.Fatal("changed observed value must restore eligibility")
	}
}

func TestDedupNamespacesAndUsersAreIndependent(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	store := NewDedupStore(client)
	ctx := context.Background()

	if err := store.MarkShown(ctx, "u1", "program", "p1"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	if show, _ := store.ShouldShow(ctx, "u1", "refill", "p1"); !show {
		t.Error("refill namespace must not see program keys")
	}
	if show, _ := store.ShouldShow(ctx, "u2", "program", "p1"); !show {
		t.Error("another user must not see u1's keys")
	}
}

func TestDedupClear(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	store := NewDedupStore(client)
	ctx := context.Background()

	if err := store.MarkShown(ctx, "u1", "program", "p1"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := store.Clear(ctx, "u1", "program", "p1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if show, _ := store.ShouldShow(ctx, "u1", "program", "p1"); !show {
		t.Fatal("cleared key must be eligible again")
	}
}

func TestSnapshotRoundTripAndOverwrite(t *testing.T) {
	client, cleanup := setupTestClient(t)
	defer cleanup()

	store := NewSnapshotStore(client)
	ctx := context.Background()

	empty, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("missing snapshot must be empty, got %v", empty)
	}

	first := map[string]models.ProgramStatus{
		"p1": models.ProgramClosed,
		"p2": models.ProgramOpen,
	}
	if err := store.Put(ctx, "u1", first); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got["p1"] != models.ProgramClosed || got["p2"] != models.ProgramOpen {
		t.Errorf("unexpected snapshot %v", got)
	}

	// Overwrite drops programs no longer present.
	second := map[string]models.ProgramStatus{"p2": models.ProgramClosed}
	if err := store.Put(ctx, "u1", second); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, _ = store.Get(ctx, "u1")
	if len(got) != 1 || got["p2"] != models.ProgramClosed {
		t.Errorf("overwrite did not replace snapshot: %v", got)
	}
}
