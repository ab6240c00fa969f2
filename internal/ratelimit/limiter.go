// Package ratelimit provides Redis-backed rate limiting using the INCR +
// EXPIRE fixed-window algorithm. Every connection-scoped operation carries a
// budget of points per window; exhausting the budget is a soft denial that
// never escalates to a ban.
package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule defines a rate budget: the Redis key prefix, maximum number of points
// in the window, and the window duration.
type Rule struct {
	Key    string        // Redis key prefix (e.g., "rl:msg:")
	Points int           // max consumed points per window
	Window time.Duration // window duration
}

// Per-operation budgets.
var (
	// RuleChatMessage allows 5 messages per 10 seconds per connection.
	RuleChatMessage = Rule{Key: "rl:msg:", Points: 5, Window: 10 * time.Second}

	// RuleRegister allows 5 registration attempts per minute per connection.
	RuleRegister = Rule{Key: "rl:reg:", Points: 5, Window: 1 * time.Minute}

	// RuleUsernameCheck allows 1 availability probe per second per connection.
	RuleUsernameCheck = Rule{Key: "rl:uname:", Points: 1, Window: 1 * time.Second}

	// RuleJoinRoom allows 5 room joins per 10 seconds per connection.
	RuleJoinRoom = Rule{Key: "rl:join:", Points: 5, Window: 10 * time.Second}

	// RuleHistory allows 5 history pages per 5 seconds per connection.
	RuleHistory = Rule{Key: "rl:hist:", Points: 5, Window: 5 * time.Second}
)

// Tracker performs rate budget checks against Redis.
type Tracker struct {
	client *redis.Client
}

// NewTracker creates a Tracker backed by the given Redis client.
func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{client: client}
}

// Consume attempts to debit one point from the budget identified by
// (connID, rule). It returns true if the operation is allowed. On Redis
// errors the method fails open so that a Redis outage does not block
// legitimate traffic.
func (t *Tracker) Consume(ctx context.Context, connID string, rule Rule) (bool, error) {
	key := rule.Key + connID

	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[ratelimit] redis INCR error key=%s: %v (failing open)", key, err)
		return true, err
	}

	// On the first increment, set the expiry to define the window boundary.
	if count == 1 {
		if err := t.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			log.Printf("[ratelimit] redis EXPIRE error key=%s: %v (failing open)", key, err)
			// The key exists but has no TTL. Best effort: delete it so it
			// doesn't block the connection forever.
			t.client.Del(ctx, key)
			return true, err
		}
	}

	return int(count) <= rule.Points, nil
}

// Remaining returns the number of points left in the current window for
// (connID, rule). Returns the full budget if the key does not exist yet.
// On Redis errors it returns the full budget (fail open).
func (t *Tracker) Remaining(ctx context.Context, connID string, rule Rule) (int, error) {
	key := rule.Key + connID

	count, err := t.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return rule.Points, nil
	}
	if err != nil {
		log.Printf("[ratelimit] redis GET error key=%s: %v (failing open)", key, err)
		return rule.Points, err
	}

	remaining := rule.Points - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the budget for (connID, rule). Used when a connection is
// torn down so a reconnecting client starts with a fresh window.
func (t *Tracker) Reset(ctx context.Context, connID string, rule Rule) error {
	return t.client.Del(ctx, rule.Key+connID).Err()
}
