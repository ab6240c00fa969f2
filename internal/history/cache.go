// Package history maintains the per-room in-memory message window that
// seeds newly joined clients, plus paginated reads over durable history.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cursorstyle/chat-gateway/internal/protocol"
	"github.com/cursorstyle/chat-gateway/internal/store"
)

// Defaults for the join window and the in-memory retention horizon.
const (
	DefaultWindow = 50
	DefaultMaxAge = 24 * time.Hour
	DefaultPage   = 30
)

// Source is the durable read surface the cache depends on. *store.Store
// satisfies it; tests substitute a fake.
type Source interface {
	RecentMessages(ctx context.Context, roomID string, limit int) ([]store.Message, error)
	PageMessages(ctx context.Context, roomID string, offset, limit int) ([]store.Message, error)
}

// Cache holds the recent message window for each room.
type Cache struct {
	source Source
	window int
	maxAge time.Duration

	mu    sync.Mutex
	rooms map[string][]protocol.Wrapped
}

// New builds a cache over the given durable source.
func New(source Source, window int, maxAge time.Duration) *Cache {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Cache{
		source: source,
		window: window,
		maxAge: maxAge,
		rooms:  make(map[string][]protocol.Wrapped),
	}
}

// FromStored converts a durable message to its wire shape.
func FromStored(m store.Message) protocol.ChatMessage {
	return protocol.ChatMessage{
		MessageID:         m.MessageID,
		Text:              m.Text,
		ResponseTo:        m.ResponseTo,
		IdentityEncrypted: m.IdentityEncrypted,
		Timestamp:         m.Timestamp,
		CreatedAt:         m.CreatedAt,
		Username:          m.Username,
		Avatar:            m.Avatar,
		CountryCode:       m.CountryCode,
		UserID:            m.UserID,
		RoomID:            m.RoomID,
	}
}

// Wrap builds the broadcast envelope for one wire message.
func Wrap(msg protocol.ChatMessage) protocol.Wrapped {
	return protocol.Wrapped{
		Message:   msg,
		Timestamp: msg.Timestamp,
		RoomID:    msg.RoomID,
	}
}

// OnJoin reads the room's newest durable messages and returns them oldest
// first, refreshing the in-memory window. A failed durable read falls back
// to the previously cached window when one exists.
func (c *Cache) OnJoin(ctx context.Context, roomID string) ([]protocol.Wrapped, error) {
	rows, err := c.source.RecentMessages(ctx, roomID, c.window)
	if err != nil {
		c.mu.Lock()
		if cached, ok := c.rooms[roomID]; ok && len(cached) > 0 {
			out := make([]protocol.Wrapped, len(cached))
			copy(out, cached)
			c.mu.Unlock()
			return out, nil
		}
		c.mu.Unlock()
		return nil, fmt.Errorf("history: seed %s: %w", roomID, err)
	}

	// Durable reads come newest first; the window is kept oldest first.
	seeded := make([]protocol.Wrapped, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		seeded = append(seeded, Wrap(FromStored(rows[i])))
	}

	c.mu.Lock()
	c.rooms[roomID] = seeded
	out := make([]protocol.Wrapped, len(seeded))
	copy(out, seeded)
	c.mu.Unlock()
	return out, nil
}

// OnAppend adds a freshly delivered message to the room's window and prunes
// entries older than the retention horizon relative to the new message.
func (c *Cache) OnAppend(roomID string, wrapped protocol.Wrapped) {
	cutoff := wrapped.Timestamp - c.maxAge.Milliseconds()

	c.mu.Lock()
	defer c.mu.Unlock()

	entries := append(c.rooms[roomID], wrapped)
	kept := entries[:0]
	for _, e := range entries {
		if e.Timestamp > cutoff {
			kept = append(kept, e)
		}
	}
	if n := len(kept) - c.window; n > 0 {
		kept = kept[n:]
	}
	c.rooms[roomID] = kept
}

// Page reads one page of a room's durable history. Entries come back oldest
// first; hasMore reports whether the page was full, hinting at further pages.
func (c *Cache) Page(ctx context.Context, roomID string, offset, limit int) ([]protocol.Wrapped, bool, error) {
	if limit <= 0 {
		limit = DefaultPage
	}

	rows, err := c.source.PageMessages(ctx, roomID, offset, limit)
	if err != nil {
		return nil, false, fmt.Errorf("history: page %s: %w", roomID, err)
	}

	page := make([]protocol.Wrapped, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		page = append(page, Wrap(FromStored(rows[i])))
	}
	return page, len(rows) == limit, nil
}
