package redis

import (
	"context"
	"os"
	"testing"
)

func TestHandTypeCounters(t *testing.T) {
	addr := os.Getenv("POKERHAND_TEST_REDIS")
	if addr == "" {
		t.Skip("POKERHAND_TEST_REDIS not set")
	}

	c, err := New(addr, "pokerhand-test")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	for _, ht := range []string{"Pair", "Pair", "Flush"} {
		if err := c.IncrHandType(ctx, ht); err != nil {
			t.Fatalf("incr: %v", err)
		}
	}

	counts, err := c.HandTypeCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["Pair"] != 2 || counts["Flush"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	total, err := c.Total(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}

	if err := c.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	total, err = c.Total(ctx)
	if err != nil || total != 0 {
		t.Fatalf("expected 0 after reset, got %d, %v", total, err)
	}
}

func TestKeyPrefix(t *testing.T) {
	c := &Client{prefix: "ph"}
	if got := c.key("hand_types"); got != "ph:hand_types" {
		t.Fatalf("expected ph:hand_types, got %s", got)
	}
	c.prefix = ""
	if got := c.key("hand_types"); got != "hand_types" {
		t.Fatalf("expected hand_types, got %s", got)
	}
}
