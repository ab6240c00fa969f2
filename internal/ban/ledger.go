// Package ban tracks temporary bans keyed by client origin, backed by Redis.
// Ban records are simple key-value pairs with TTL-based expiry:
//
//	Key:   ban:<origin>
//	Value: <reason>
//	TTL:   ban duration
//
// The state machine is CLEAN -> (violation) -> BANNED -> (TTL expiry) ->
// CLEAN. There is no manual unban path in the gateway's normal flow.
package ban

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Prefix is the Redis key prefix for ban records.
const Prefix = "ban:"

// DefaultDuration is the ban window applied per violation.
const DefaultDuration = 30 * time.Second

// Ledger manages ban records in Redis.
type Ledger struct {
	client   *redis.Client
	duration time.Duration
}

// NewLedger creates a ban ledger using the provided Redis client. A
// non-positive duration falls back to DefaultDuration.
func NewLedger(client *redis.Client, duration time.Duration) *Ledger {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Ledger{client: client, duration: duration}
}

// Duration returns the configured ban window.
func (l *Ledger) Duration() time.Duration {
	return l.duration
}

// RecordViolation bans the origin for the configured window. A repeated
// violation while already banned refreshes the single slot rather than
// stacking: the ban simply restarts from now.
func (l *Ledger) RecordViolation(ctx context.Context, origin, reason string) error {
	return l.client.Set(ctx, Prefix+origin, reason, l.duration).Err()
}

// IsBanned checks whether an origin is currently banned. Returns
// (banned, remainingSeconds, error). Redis errors are returned so callers
// can decide how to handle them (the gateway fails open).
func (l *Ledger) IsBanned(ctx context.Context, origin string) (bool, int, error) {
	key := Prefix + origin

	if err := l.client.Get(ctx, key).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, 0, nil
		}
		return false, 0, err
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		// The ban exists but the TTL read failed. Report banned with 0
		// remaining rather than swallowing the ban.
		return true, 0, nil
	}

	remaining := 0
	if ttl > 0 {
		remaining = int(ttl.Seconds())
	}
	return true, remaining, nil
}
