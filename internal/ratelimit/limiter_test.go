package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestTracker connects to a local Redis instance. Tests that call this
// helper require a running Redis on localhost:6379 and skip otherwise.
func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		iter := client.Scan(ctx, 0, "rl:*:test_*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
		client.Close()
	})
	return NewTracker(client)
}

func TestConsume_WithinBudget(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	connID := fmt.Sprintf("test_within_%d", time.Now().UnixNano())

	for i := 0; i < RuleChatMessage.Points; i++ {
		allowed, err := tr.Consume(ctx, connID, RuleChatMessage)
		if err != nil {
			t.Fatalf("Consume() error: %v", err)
		}
		if !allowed {
			t.Fatalf("attempt %d denied, budget is %d", i+1, RuleChatMessage.Points)
		}
	}
}

func TestConsume_DeniesOverBudget(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	connID := fmt.Sprintf("test_over_%d", time.Now().UnixNano())

	for i := 0; i < RuleChatMessage.Points; i++ {
		if _, err := tr.Consume(ctx, connID, RuleChatMessage); err != nil {
			t.Fatalf("Consume() error: %v", err)
		}
	}

	// The (points+1)-th attempt within the window must be denied.
	allowed, err := tr.Consume(ctx, connID, RuleChatMessage)
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}
	if allowed {
		t.Error("attempt over budget was allowed")
	}
}

func TestConsume_WindowReset(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	connID := fmt.Sprintf("test_reset_%d", time.Now().UnixNano())
	rule := Rule{Key: "rl:msg:", Points: 1, Window: time.Second}

	if allowed, _ := tr.Consume(ctx, connID, rule); !allowed {
		t.Fatal("first attempt denied")
	}
	if allowed, _ := tr.Consume(ctx, connID, rule); allowed {
		t.Fatal("second attempt in window allowed")
	}

	time.Sleep(1100 * time.Millisecond)

	if allowed, _ := tr.Consume(ctx, connID, rule); !allowed {
		t.Error("attempt after window elapsed denied")
	}
}

func TestRemaining(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	connID := fmt.Sprintf("test_remaining_%d", time.Now().UnixNano())

	rem, err := tr.Remaining(ctx, connID, RuleJoinRoom)
	if err != nil {
		t.Fatalf("Remaining() error: %v", err)
	}
	if rem != RuleJoinRoom.Points {
		t.Errorf("fresh budget remaining = %d, want %d", rem, RuleJoinRoom.Points)
	}

	tr.Consume(ctx, connID, RuleJoinRoom)
	rem, _ = tr.Remaining(ctx, connID, RuleJoinRoom)
	if rem != RuleJoinRoom.Points-1 {
		t.Errorf("after one consume remaining = %d, want %d", rem, RuleJoinRoom.Points-1)
	}
}
