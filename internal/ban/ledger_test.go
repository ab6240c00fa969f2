package ban

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestLedger connects to a local Redis instance and cleans up test keys.
// Tests that call this helper require a running Redis on localhost:6379.
func newTestLedger(t *testing.T, duration time.Duration) *Ledger {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		iter := client.Scan(ctx, 0, Prefix+"test_*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
		client.Close()
	})
	return NewLedger(client, duration)
}

func testOrigin(name string) string {
	return fmt.Sprintf("test_%s_%d", name, time.Now().UnixNano())
}

func TestIsBanned_Clean(t *testing.T) {
	l := newTestLedger(t, 30*time.Second)

	banned, remaining, err := l.IsBanned(context.Background(), testOrigin("clean"))
	if err != nil {
		t.Fatalf("IsBanned() error: %v", err)
	}
	if banned {
		t.Errorf("expected clean origin, got banned (remaining=%d)", remaining)
	}
}

func TestRecordViolation_Bans(t *testing.T) {
	l := newTestLedger(t, 30*time.Second)
	ctx := context.Background()
	origin := testOrigin("bans")

	if err := l.RecordViolation(ctx, origin, "malicious input"); err != nil {
		t.Fatalf("RecordViolation() error: %v", err)
	}

	banned, remaining, err := l.IsBanned(ctx, origin)
	if err != nil {
		t.Fatalf("IsBanned() error: %v", err)
	}
	if !banned {
		t.Fatal("expected banned=true after violation")
	}
	if remaining <= 0 || remaining > 30 {
		t.Errorf("remaining = %d, want in (0,30]", remaining)
	}
}

func TestRecordViolation_RefreshesSingleSlot(t *testing.T) {
	l := newTestLedger(t, 30*time.Second)
	ctx := context.Background()
	origin := testOrigin("refresh")

	if err := l.RecordViolation(ctx, origin, "first"); err != nil {
		t.Fatalf("RecordViolation() error: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)

	// A second violation while banned restarts the window instead of
	// stacking a second ban on top.
	if err := l.RecordViolation(ctx, origin, "second"); err != nil {
		t.Fatalf("RecordViolation() error: %v", err)
	}

	_, remaining, err := l.IsBanned(ctx, origin)
	if err != nil {
		t.Fatalf("IsBanned() error: %v", err)
	}
	if remaining < 29 {
		t.Errorf("remaining = %d after refresh, want >= 29", remaining)
	}
}

func TestBanExpires(t *testing.T) {
	l := newTestLedger(t, time.Second)
	ctx := context.Background()
	origin := testOrigin("expires")

	if err := l.RecordViolation(ctx, origin, "short"); err != nil {
		t.Fatalf("RecordViolation() error: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)

	banned, _, err := l.IsBanned(ctx, origin)
	if err != nil {
		t.Fatalf("IsBanned() error: %v", err)
	}
	if banned {
		t.Error("ban did not expire after its window")
	}
}

func TestNewLedger_DefaultDuration(t *testing.T) {
	l := NewLedger(nil, 0)
	if l.Duration() != DefaultDuration {
		t.Errorf("Duration() = %v, want %v", l.Duration(), DefaultDuration)
	}
}
