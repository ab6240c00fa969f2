// Package client provides a reusable WebSocket load test client for the chat
// gateway. It connects using gobwas/ws (the same library the server uses),
// speaks the gateway's ref-correlated request/response protocol, and tracks
// per-connection performance metrics.
package client

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Client -> Server message types.
const (
	TypeGetRooms        = "get_rooms"
	TypeRegisterUser    = "register_user"
	TypeCheckUsername   = "check_username"
	TypeJoinRoom        = "join_room"
	TypeChatMessage     = "chat_message"
	TypeGetHistoryChunk = "get_history_chunk"
	TypePing            = "ping"
)

// Server -> Client message types.
const (
	TypeResponse       = "response"
	TypeChatEvent      = "chat_message"
	TypeRoomUserCounts = "room_user_counts"
	TypeRateLimited    = "rate_limited"
	TypeBanned         = "banned"
	TypeError          = "error"
	TypePong           = "pong"
)

// Response is the gateway's reply to a ref-correlated request.
type Response struct {
	Type    string          `json:"type"`
	Ref     string          `json:"ref"`
	Success bool            `json:"success"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

// Metrics tracks per-connection performance data.
type Metrics struct {
	ConnectLatency   time.Duration
	MessagesReceived int
	MessagesSent     int
	Errors           int
}

// Client represents a single simulated user connection to the gateway. It
// manages the WebSocket lifecycle, correlates responses to requests by ref,
// and dispatches unsolicited pushes to registered handlers.
type Client struct {
	conn          net.Conn
	identityToken string

	writeMu  sync.Mutex
	mu       sync.Mutex
	metrics  Metrics
	pending  map[string]chan Response
	handlers map[string]func(json.RawMessage)

	refSeq    atomic.Uint64
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a load test client connected to the given WebSocket URL. Each
// client gets a fresh random identity token, and a background goroutine
// begins reading frames immediately.
func New(ctx context.Context, url string) (*Client, error) {
	start := time.Now()
	conn, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	c := &Client{
		conn:          conn,
		identityToken: randomUUID(),
		pending:       make(map[string]chan Response),
		handlers:      make(map[string]func(json.RawMessage)),
		done:          make(chan struct{}),
	}
	c.metrics.ConnectLatency = time.Since(start)

	go c.readLoop()

	return c, nil
}

// IdentityToken returns this client's generated identity token.
func (c *Client) IdentityToken() string {
	return c.identityToken
}

// Send sends a JSON message to the server without waiting for a reply.
func (c *Client) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.Lock()
	c.metrics.MessagesSent++
	c.mu.Unlock()
	return wsutil.WriteClientMessage(c.conn, ws.OpText, data)
}

// Request sends a message with a fresh ref and blocks until the matching
// response arrives or the context is cancelled. The msg map is mutated to
// carry the ref.
func (c *Client) Request(ctx context.Context, msg map[string]any) (Response, error) {
	ref := fmt.Sprintf("r%d", c.refSeq.Add(1))
	msg["ref"] = ref

	ch := make(chan Response, 1)
	c.mu.Lock()
	c.pending[ref] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, ref)
		c.mu.Unlock()
	}()

	if err := c.Send(msg); err != nil {
		return Response{}, err
	}

	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-c.done:
		return Response{}, fmt.Errorf("connection closed while waiting for ref=%s", ref)
	case resp := <-ch:
		return resp, nil
	}
}

// Register registers a profile for this client's identity token.
func (c *Client) Register(ctx context.Context, username string) (Response, error) {
	return c.Request(ctx, map[string]any{
		"type":           TypeRegisterUser,
		"username":       username,
		"identity_token": c.identityToken,
		"avatar":         "avatar_3",
	})
}

// Join moves the client into a room and returns the join response, which
// carries the seeded history window.
func (c *Client) Join(ctx context.Context, roomID string) (Response, error) {
	return c.Request(ctx, map[string]any{
		"type":           TypeJoinRoom,
		"identity_token": c.identityToken,
		"room_id":        roomID,
	})
}

// Chat sends a chat message into the client's current room and waits for the
// gateway's verdict.
func (c *Client) Chat(ctx context.Context, text string) (Response, error) {
	return c.Request(ctx, map[string]any{
		"type": TypeChatMessage,
		"payload": map[string]any{
			"text":       text,
			"message_id": randomUUID(),
		},
	})
}

// On registers a handler for unsolicited server pushes of a given type
// (chat_message broadcasts, rate_limited, banned, room_user_counts). The
// handler receives the full raw JSON of the frame and runs on the read loop
// goroutine, so it must not block. One handler per type; registering again
// replaces the previous handler.
func (c *Client) On(msgType string, handler func(json.RawMessage)) {
	c.mu.Lock()
	c.handlers[msgType] = handler
	c.mu.Unlock()
}

// Done is closed when the connection is gone, whether by Close or by a read
// error. Scenarios use it to detect server-side drops.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection and stops the read loop. Safe to call more
// than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// GetMetrics returns a copy of the client's metrics.
func (c *Client) GetMetrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

// readLoop reads frames until the connection closes, correlating responses
// by ref and dispatching everything else by type.
func (c *Client) readLoop() {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		data, err := wsutil.ReadServerText(c.conn)
		if err != nil {
			select {
			case <-c.done:
				// Intentional close, not an error.
			default:
				c.mu.Lock()
				c.metrics.Errors++
				c.mu.Unlock()
				c.Close()
			}
			return
		}

		c.mu.Lock()
		c.metrics.MessagesReceived++
		c.mu.Unlock()

		var envelope struct {
			Type string `json:"type"`
			Ref  string `json:"ref"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			continue
		}

		// Both response frames and rate_limited pushes carry the ref of the
		// request they answer, so either resolves a pending Request.
		if envelope.Ref != "" && (envelope.Type == TypeResponse || envelope.Type == TypeRateLimited) {
			var resp Response
			if err := json.Unmarshal(data, &resp); err != nil {
				continue
			}
			if resp.Reason == "" && envelope.Type == TypeRateLimited {
				resp.Reason = TypeRateLimited
			}
			c.mu.Lock()
			ch, okPending := c.pending[envelope.Ref]
			handler, okHandler := c.handlers[envelope.Type]
			c.mu.Unlock()
			if okPending {
				ch <- resp
			}
			if envelope.Type == TypeRateLimited && okHandler {
				handler(json.RawMessage(data))
			}
			continue
		}

		c.mu.Lock()
		handler, ok := c.handlers[envelope.Type]
		c.mu.Unlock()
		if ok {
			handler(json.RawMessage(data))
		}
	}
}

// randomUUID generates a version 4 UUID string. The gateway validates
// identity tokens as UUIDs, and the loadtest module avoids pulling in a
// dependency for the one format it needs.
func randomUUID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
