package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cursorstyle/chat-gateway/internal/protocol"
	"github.com/cursorstyle/chat-gateway/internal/store"
)

// fakeSource serves canned durable messages, newest first, the way the real
// store does.
type fakeSource struct {
	messages map[string][]store.Message // newest first
	calls    int
	err      error
}

func (f *fakeSource) RecentMessages(_ context.Context, roomID string, limit int) ([]store.Message, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rows := f.messages[roomID]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeSource) PageMessages(_ context.Context, roomID string, offset, limit int) ([]store.Message, error) {
	rows := f.messages[roomID]
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func storedMessage(id string, ts int64) store.Message {
	return store.Message{
		MessageID: id,
		RoomID:    "general",
		Text:      "text " + id,
		Username:  "alice",
		Timestamp: ts,
	}
}

func newestFirst(n int, base int64) []store.Message {
	rows := make([]store.Message, 0, n)
	for i := n - 1; i >= 0; i-- {
		rows = append(rows, storedMessage(fmt.Sprintf("m%d", i), base+int64(i)))
	}
	return rows
}

func TestOnJoin_SeedsOldestFirst(t *testing.T) {
	src := &fakeSource{messages: map[string][]store.Message{
		"general": newestFirst(5, 1000),
	}}
	c := New(src, 50, DefaultMaxAge)

	window, err := c.OnJoin(context.Background(), "general")
	if err != nil {
		t.Fatalf("OnJoin: %v", err)
	}
	if len(window) != 5 {
		t.Fatalf("window len = %d, want 5", len(window))
	}
	if window[0].Message.MessageID != "m0" || window[4].Message.MessageID != "m4" {
		t.Errorf("window order: first=%s last=%s, want m0..m4",
			window[0].Message.MessageID, window[4].Message.MessageID)
	}
}

func TestOnJoin_ReloadsDurableEveryJoin(t *testing.T) {
	src := &fakeSource{messages: map[string][]store.Message{
		"general": newestFirst(3, 1000),
	}}
	c := New(src, 50, DefaultMaxAge)

	if _, err := c.OnJoin(context.Background(), "general"); err != nil {
		t.Fatalf("first OnJoin: %v", err)
	}

	// Messages inserted by other gateway instances must show up on the next
	// join even though the local window is non-empty.
	src.messages["general"] = newestFirst(5, 1000)
	window, err := c.OnJoin(context.Background(), "general")
	if err != nil {
		t.Fatalf("second OnJoin: %v", err)
	}
	if len(window) != 5 {
		t.Errorf("window len = %d, want 5", len(window))
	}
	if src.calls != 2 {
		t.Errorf("durable reads = %d, want 2", src.calls)
	}
}

func TestOnJoin_FallsBackToWindowOnReadError(t *testing.T) {
	src := &fakeSource{messages: map[string][]store.Message{
		"general": newestFirst(3, 1000),
	}}
	c := New(src, 50, DefaultMaxAge)

	if _, err := c.OnJoin(context.Background(), "general"); err != nil {
		t.Fatalf("seed OnJoin: %v", err)
	}

	src.err = fmt.Errorf("connection refused")
	window, err := c.OnJoin(context.Background(), "general")
	if err != nil {
		t.Fatalf("OnJoin with failing source: %v", err)
	}
	if len(window) != 3 {
		t.Errorf("fallback window len = %d, want 3", len(window))
	}

	if _, err := c.OnJoin(context.Background(), "lobby"); err == nil {
		t.Error("OnJoin for an unseeded room should surface the read error")
	}
}

func TestOnJoin_WindowLimit(t *testing.T) {
	src := &fakeSource{messages: map[string][]store.Message{
		"general": newestFirst(80, 1000),
	}}
	c := New(src, 50, DefaultMaxAge)

	window, err := c.OnJoin(context.Background(), "general")
	if err != nil {
		t.Fatalf("OnJoin: %v", err)
	}
	if len(window) != 50 {
		t.Fatalf("window len = %d, want 50", len(window))
	}
	// The newest 50 of 80, oldest first.
	if window[0].Message.MessageID != "m30" || window[49].Message.MessageID != "m79" {
		t.Errorf("window spans %s..%s, want m30..m79",
			window[0].Message.MessageID, window[49].Message.MessageID)
	}
}

func TestOnAppend_PrunesOldEntries(t *testing.T) {
	src := &fakeSource{messages: map[string][]store.Message{}}
	c := New(src, 50, 24*time.Hour)

	base := time.Now().UnixMilli()
	old := Wrap(protocol.ChatMessage{MessageID: "old", RoomID: "general",
		Timestamp: base - 25*time.Hour.Milliseconds()})
	fresh := Wrap(protocol.ChatMessage{MessageID: "fresh", RoomID: "general", Timestamp: base})

	c.OnAppend("general", old)
	c.OnAppend("general", fresh)

	// Read the window through the fallback path so the durable store does
	// not mask what OnAppend kept.
	src.err = fmt.Errorf("connection refused")
	window, err := c.OnJoin(context.Background(), "general")
	if err != nil {
		t.Fatalf("OnJoin: %v", err)
	}
	if len(window) != 1 || window[0].Message.MessageID != "fresh" {
		t.Errorf("window = %+v, want just the fresh entry", window)
	}
}

func TestPage_ReversesAndReportsHasMore(t *testing.T) {
	src := &fakeSource{messages: map[string][]store.Message{
		"general": newestFirst(70, 1000),
	}}
	c := New(src, 50, DefaultMaxAge)

	page, hasMore, err := c.Page(context.Background(), "general", 0, 30)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(page) != 30 || !hasMore {
		t.Fatalf("page len = %d hasMore = %v, want 30 true", len(page), hasMore)
	}
	// Newest 30 of 70, returned oldest first.
	if page[0].Message.MessageID != "m40" || page[29].Message.MessageID != "m69" {
		t.Errorf("page spans %s..%s, want m40..m69",
			page[0].Message.MessageID, page[29].Message.MessageID)
	}

	last, hasMore, err := c.Page(context.Background(), "general", 60, 30)
	if err != nil {
		t.Fatalf("Page last: %v", err)
	}
	if len(last) != 10 || hasMore {
		t.Errorf("last page len = %d hasMore = %v, want 10 false", len(last), hasMore)
	}
}

func TestPage_DefaultLimit(t *testing.T) {
	src := &fakeSource{messages: map[string][]store.Message{
		"general": newestFirst(40, 1000),
	}}
	c := New(src, 50, DefaultMaxAge)

	page, hasMore, err := c.Page(context.Background(), "general", 0, 0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(page) != DefaultPage || !hasMore {
		t.Errorf("page len = %d hasMore = %v, want %d true", len(page), hasMore, DefaultPage)
	}
}
