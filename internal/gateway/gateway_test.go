package gateway

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gobwas/ws/wsutil"

	"github.com/cursorstyle/chat-gateway/internal/config"
	"github.com/cursorstyle/chat-gateway/internal/history"
	"github.com/cursorstyle/chat-gateway/internal/protocol"
	"github.com/cursorstyle/chat-gateway/internal/ratelimit"
	"github.com/cursorstyle/chat-gateway/internal/room"
	"github.com/cursorstyle/chat-gateway/internal/store"
	"github.com/cursorstyle/chat-gateway/internal/ws"
)

// fakeLedger records violations in memory and lets tests force the banned
// state.
type fakeLedger struct {
	mu         sync.Mutex
	banned     bool
	remaining  int
	violations []string
}

func (f *fakeLedger) RecordViolation(_ context.Context, _, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.violations = append(f.violations, reason)
	return nil
}

func (f *fakeLedger) IsBanned(context.Context, string) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banned, f.remaining, nil
}

func (f *fakeLedger) Duration() time.Duration { return 30 * time.Second }

func (f *fakeLedger) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.violations...)
}

// fakeLimiter answers every Consume with a fixed verdict.
type fakeLimiter struct {
	allow bool
}

func (f *fakeLimiter) Consume(context.Context, string, ratelimit.Rule) (bool, error) {
	return f.allow, nil
}

// testConn builds a Connection over a pipe and drains every server frame
// into a channel.
func testConn(t *testing.T) (*ws.Connection, <-chan []byte) {
	t.Helper()

	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})

	frames := make(chan []byte, 16)
	go func() {
		for {
			data, err := wsutil.ReadServerText(client)
			if err != nil {
				return
			}
			frames <- data
		}
	}()

	return &ws.Connection{
		ID:        "conn-1",
		OriginKey: "203.0.113.9",
		Conn:      server,
	}, frames
}

func nextFrame(t *testing.T, frames <-chan []byte) []byte {
	t.Helper()
	select {
	case data := <-frames:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a server frame")
		return nil
	}
}

func testGateway(ledger *fakeLedger, limiter *fakeLimiter, disconnect func(*ws.Connection)) *Gateway {
	return New(config.Config{}, nil, nil, room.NewRegistry(), nil, limiter, ledger, nil, nil, disconnect)
}

func envelope(t *testing.T, raw string) protocol.Envelope {
	t.Helper()
	env, _, err := protocol.ParseClientMessage([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return env
}

func TestGuard_CleanRequestReachesHandler(t *testing.T) {
	ledger := &fakeLedger{}
	conn, _ := testConn(t)

	called := false
	g := testGateway(ledger, &fakeLimiter{allow: true}, nil)
	h := g.guard("check_username", &ratelimit.RuleUsernameCheck, func(*ws.Connection, protocol.Envelope, any) {
		called = true
	})

	h(conn, envelope(t, `{"type":"check_username","username":"gopher"}`), nil)

	if !called {
		t.Fatal("handler was not invoked for a clean request")
	}
	if len(ledger.recorded()) != 0 {
		t.Fatalf("unexpected violations: %v", ledger.recorded())
	}
}

func TestGuard_AbuseSignatureBansAndDisconnects(t *testing.T) {
	ledger := &fakeLedger{}
	conn, frames := testConn(t)

	var disconnected *ws.Connection
	called := false
	g := testGateway(ledger, &fakeLimiter{allow: true}, func(c *ws.Connection) { disconnected = c })
	h := g.guard("chat_message", &ratelimit.RuleChatMessage, func(*ws.Connection, protocol.Envelope, any) {
		called = true
	})

	raw := `{"type":"chat_message","payload":{"text":"<script>alert(1)</script>","message_id":"m1"}}`
	h(conn, envelope(t, raw), nil)

	if called {
		t.Fatal("handler ran despite a malicious payload")
	}
	if got := ledger.recorded(); len(got) != 1 || got[0] != "abuse_signature" {
		t.Fatalf("violations = %v, want [abuse_signature]", got)
	}
	if disconnected != conn {
		t.Fatal("connection was not force-closed")
	}

	var banned protocol.BannedMsg
	if err := json.Unmarshal(nextFrame(t, frames), &banned); err != nil {
		t.Fatalf("decode banned frame: %v", err)
	}
	if banned.Type != protocol.TypeBanned || banned.Duration != 30 {
		t.Fatalf("banned frame = %+v", banned)
	}
}

func TestGuard_AbuseSignatureInNestedField(t *testing.T) {
	ledger := &fakeLedger{}
	conn, _ := testConn(t)

	called := false
	g := testGateway(ledger, &fakeLimiter{allow: true}, nil)
	h := g.guard("join_room", &ratelimit.RuleJoinRoom, func(*ws.Connection, protocol.Envelope, any) {
		called = true
	})

	raw := `{"type":"join_room","identity_token":"b6e7f8a0-1111-4222-8333-444455556666",` +
		`"user_data":{"bio":"x'; DROP TABLE users; --"}}`
	h(conn, envelope(t, raw), nil)

	if called {
		t.Fatal("handler ran despite a nested injection signature")
	}
	if got := ledger.recorded(); len(got) != 1 || got[0] != "abuse_signature" {
		t.Fatalf("violations = %v, want [abuse_signature]", got)
	}
}

func TestGuard_RateDenialIsSoft(t *testing.T) {
	ledger := &fakeLedger{}
	conn, frames := testConn(t)

	disconnected := false
	called := false
	g := testGateway(ledger, &fakeLimiter{allow: false}, func(*ws.Connection) { disconnected = true })
	h := g.guard("chat_message", &ratelimit.RuleChatMessage, func(*ws.Connection, protocol.Envelope, any) {
		called = true
	})

	h(conn, envelope(t, `{"type":"chat_message","ref":"r7","payload":{"text":"hi","message_id":"m1"}}`), nil)

	if called {
		t.Fatal("handler ran despite rate exhaustion")
	}
	if disconnected {
		t.Fatal("rate exhaustion must not disconnect the client")
	}
	if len(ledger.recorded()) != 0 {
		t.Fatalf("rate exhaustion recorded violations: %v", ledger.recorded())
	}

	var denied protocol.RateLimitedMsg
	if err := json.Unmarshal(nextFrame(t, frames), &denied); err != nil {
		t.Fatalf("decode rate_limited frame: %v", err)
	}
	if denied.Type != protocol.TypeRateLimited || denied.Ref != "r7" {
		t.Fatalf("rate_limited frame = %+v", denied)
	}
	if denied.RetryAfter != int(ratelimit.RuleChatMessage.Window.Seconds()) {
		t.Fatalf("retry_after = %d", denied.RetryAfter)
	}
}

func TestGuard_BannedRetryRejectedWithoutRefresh(t *testing.T) {
	ledger := &fakeLedger{banned: true, remaining: 12}
	conn, frames := testConn(t)

	disconnected := false
	called := false
	g := testGateway(ledger, &fakeLimiter{allow: true}, func(*ws.Connection) { disconnected = true })
	h := g.guard("get_rooms", nil, func(*ws.Connection, protocol.Envelope, any) {
		called = true
	})

	h(conn, envelope(t, `{"type":"get_rooms"}`), nil)

	if called {
		t.Fatal("handler ran for a banned origin")
	}
	if got := ledger.recorded(); len(got) != 0 {
		t.Fatalf("retry mid-ban recorded violations: %v", got)
	}
	if !disconnected {
		t.Fatal("banned origin was not disconnected")
	}

	var banned protocol.BannedMsg
	if err := json.Unmarshal(nextFrame(t, frames), &banned); err != nil {
		t.Fatalf("decode banned frame: %v", err)
	}
	// The retry does not extend the ban, so the remaining time is reported.
	if banned.Duration != 12 {
		t.Fatalf("duration = %d, want 12", banned.Duration)
	}
}

func TestGuard_UnmeteredOperationSkipsRateLimit(t *testing.T) {
	ledger := &fakeLedger{}
	conn, _ := testConn(t)

	called := false
	g := testGateway(ledger, &fakeLimiter{allow: false}, nil)
	h := g.guard("get_rooms", nil, func(*ws.Connection, protocol.Envelope, any) {
		called = true
	})

	h(conn, envelope(t, `{"type":"get_rooms"}`), nil)

	if !called {
		t.Fatal("unmetered operation was rate limited")
	}
}

// stubSource backs the history cache without a database, serving rows
// newest first the way the real store does.
type stubSource struct {
	rows []store.Message
}

func (s *stubSource) RecentMessages(context.Context, string, int) ([]store.Message, error) {
	return s.rows, nil
}

func (s *stubSource) PageMessages(_ context.Context, _ string, offset, limit int) ([]store.Message, error) {
	rows := s.rows
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Drives raw client frames through the dispatcher into the registered
// handlers, covering the parse-to-handler hand-off for the decoded message.
func TestDispatch_RoutesWireFramesToHandlers(t *testing.T) {
	hist := history.New(&stubSource{rows: []store.Message{
		{MessageID: "m1", RoomID: "general", Text: "newest", Timestamp: 2000},
		{MessageID: "m0", RoomID: "general", Text: "oldest", Timestamp: 1000},
	}}, 50, history.DefaultMaxAge)

	g := New(config.Config{}, nil, nil, room.NewRegistry(), hist,
		&fakeLimiter{allow: true}, &fakeLedger{}, nil, nil, nil)

	d := ws.NewMessageDispatcher()
	g.RegisterHandlers(d)

	conn, frames := testConn(t)

	d.Dispatch(conn, []byte(`{"type":"get_history_chunk","ref":"r1","room_id":"general","offset":0,"limit":30}`))

	var resp protocol.ResponseMsg
	if err := json.Unmarshal(nextFrame(t, frames), &resp); err != nil {
		t.Fatalf("decode history response: %v", err)
	}
	if resp.Type != protocol.TypeResponse || resp.Ref != "r1" || !resp.Success {
		t.Fatalf("history response = %+v", resp)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want object", resp.Data)
	}
	if messages, ok := data["messages"].([]any); !ok || len(messages) != 2 {
		t.Fatalf("messages = %v, want 2 entries", data["messages"])
	}
	if hasMore, _ := data["has_more"].(bool); hasMore {
		t.Error("has_more = true for an exhausted page")
	}

	d.Dispatch(conn, []byte(`{"type":"create_room","ref":"r2","id":"lobby","name":"Lobby"}`))

	var denied protocol.ResponseMsg
	if err := json.Unmarshal(nextFrame(t, frames), &denied); err != nil {
		t.Fatalf("decode create_room response: %v", err)
	}
	if denied.Ref != "r2" || denied.Success || denied.Reason != "Unauthorized" {
		t.Fatalf("create_room response = %+v", denied)
	}
}

func TestNormalizeAvatar(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"avatar_0", "avatar_0"},
		{"avatar_42", "avatar_42"},
		{"avatar_112", "avatar_112"},
		{"avatar_113", "avatar_17"},
		{"avatar_9999999999", "avatar_17"},
		{"avatar_-1", "avatar_17"},
		{"avatar_1x", "avatar_17"},
		{"AVATAR_1", "avatar_17"},
		{"", "avatar_17"},
		{"../../etc/passwd", "avatar_17"},
	}
	for _, tt := range tests {
		if got := normalizeAvatar(tt.in); got != tt.want {
			t.Errorf("normalizeAvatar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
