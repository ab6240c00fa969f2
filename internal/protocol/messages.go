// Package protocol defines the WebSocket message types and structures used
// for communication between the client and the gateway. All messages are
// serialized as JSON and follow a consistent envelope format with a type
// discriminator; requests may carry a "ref" that the gateway echoes in its
// response for correlation.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ---------------------------------------------------------------------------
// Message type constants
// ---------------------------------------------------------------------------

// Client -> Server message types.
const (
	TypeGetRooms        = "get_rooms"
	TypeRegisterUser    = "register_user"
	TypeCheckUsername   = "check_username"
	TypeJoinRoom        = "join_room"
	TypeChatMessage     = "chat_message"
	TypeGetHistoryChunk = "get_history_chunk"
	TypeCreateRoom      = "create_room"
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

var validate = validator.New()

// ---------------------------------------------------------------------------
// Envelope — used for initial JSON parsing to extract the type discriminator.
// ---------------------------------------------------------------------------

// Envelope holds the message type, the optional correlation ref, and the raw
// JSON payload for deferred parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Ref  string          `json:"ref"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the full raw bytes and extracts only the "type" and
// "ref" fields so that the rest of the payload can be decoded later into the
// appropriate concrete struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	var partial struct {
		Type string `json:"type"`
		Ref  string `json:"ref"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	e.Ref = partial.Ref
	return nil
}

// ---------------------------------------------------------------------------
// Client -> Server message structs
// ---------------------------------------------------------------------------

// GetRoomsMsg asks for the room list, optionally attaching the caller's
// profile when an identity token is supplied.
type GetRoomsMsg struct {
	Type          string `json:"type"`
	Ref           string `json:"ref,omitempty"`
	IdentityToken string `json:"identity_token,omitempty"`
}

// RegisterUserMsg creates or updates the profile bound to an identity token.
type RegisterUserMsg struct {
	Type          string `json:"type"`
	Ref           string `json:"ref,omitempty"`
	Username      string `json:"username" validate:"required"`
	IdentityToken string `json:"identity_token" validate:"required"`
	Avatar        string `json:"avatar,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
	CurrentRoomID string `json:"current_room_id,omitempty"`
}

// CheckUsernameMsg is a read-only availability probe for a username.
type CheckUsernameMsg struct {
	Type     string `json:"type"`
	Ref      string `json:"ref,omitempty"`
	Username string `json:"username" validate:"required"`
}

// JoinRoomMsg moves the connection into a room.
type JoinRoomMsg struct {
	Type          string         `json:"type"`
	Ref           string         `json:"ref,omitempty"`
	IdentityToken string         `json:"identity_token" validate:"required"`
	RoomID        string         `json:"room_id,omitempty"`
	UserData      map[string]any `json:"user_data,omitempty"`
}

// ChatPayload is the client-supplied part of a chat message.
type ChatPayload struct {
	Text       string `json:"text" validate:"required"`
	MessageID  string `json:"message_id" validate:"required"`
	ResponseTo string `json:"response_to,omitempty"`
}

// ChatMessageMsg submits a chat message to the connection's current room.
type ChatMessageMsg struct {
	Type    string      `json:"type"`
	Ref     string      `json:"ref,omitempty"`
	Payload ChatPayload `json:"payload" validate:"required"`
}

// GetHistoryChunkMsg pages through a room's durable history.
type GetHistoryChunkMsg struct {
	Type   string `json:"type"`
	Ref    string `json:"ref,omitempty"`
	RoomID string `json:"room_id" validate:"required"`
	Offset int    `json:"offset" validate:"gte=0"`
	Limit  int    `json:"limit" validate:"gte=0,lte=100"`
}

// CreateRoomMsg creates a new room (admin surface).
type CreateRoomMsg struct {
	Type           string `json:"type"`
	Ref            string `json:"ref,omitempty"`
	AdminToken     string `json:"admin_token,omitempty"`
	ID             string `json:"id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Image          string `json:"image,omitempty"`
	DefaultMessage string `json:"default_message,omitempty"`
	IsReadOnly     bool   `json:"is_read_only,omitempty"`
}

// PingMsg is a client-initiated keepalive ping.
type PingMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Wire representations of chat data
// ---------------------------------------------------------------------------

// ChatMessage is the full message record as sent to clients.
type ChatMessage struct {
	MessageID         string    `json:"message_id"`
	Text              string    `json:"text"`
	ResponseTo        string    `json:"response_to,omitempty"`
	IdentityEncrypted string    `json:"identity_encrypted"`
	Timestamp         int64     `json:"timestamp"`
	CreatedAt         time.Time `json:"created_at"`
	Username          string    `json:"username"`
	Avatar            string    `json:"avatar"`
	CountryCode       string    `json:"country_code"`
	UserID            string    `json:"user_id"`
	RoomID            string    `json:"room_id"`
}

// Wrapped is the broadcast envelope around one chat message. The same shape
// seeds the history window sent on join.
type Wrapped struct {
	Message   ChatMessage `json:"message"`
	Timestamp int64       `json:"timestamp"`
	RoomID    string      `json:"room_id"`
}

// ChatEventMsg is the typed broadcast frame carrying one wrapped message.
type ChatEventMsg struct {
	Type string `json:"type"`
	Wrapped
}

// NoticeEventMsg is the typed broadcast frame carrying one system notice.
type NoticeEventMsg struct {
	Type      string       `json:"type"`
	Message   SystemNotice `json:"message"`
	Timestamp int64        `json:"timestamp"`
	RoomID    string       `json:"room_id"`
}

// SystemNotice is an ephemeral room event (join, username change). It is
// broadcast but never persisted.
type SystemNotice struct {
	User        string `json:"user"`
	Avatar      string `json:"avatar"`
	Text        string `json:"text"`
	Time        string `json:"time"`
	Kind        string `json:"kind"` // "system:joinRoom" or "system:usernameChanged"
	RoomID      string `json:"room_id"`
	Username    string `json:"username,omitempty"`
	OldUsername string `json:"old_username,omitempty"`
	NewUsername string `json:"new_username,omitempty"`
}

// System notice kinds.
const (
	NoticeJoinRoom        = "system:joinRoom"
	NoticeUsernameChanged = "system:usernameChanged"
)

// RoomInfo is one room in the get_rooms listing.
type RoomInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Image          string `json:"image"`
	DefaultMessage string `json:"default_message"`
	IsReadOnly     bool   `json:"is_read_only"`
}

// UserInfo is the profile attached to responses that carry a user.
type UserInfo struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	CountryCode string `json:"country_code"`
	Created     bool   `json:"created"`
	Action      string `json:"action,omitempty"`
}

// ---------------------------------------------------------------------------
// Server -> Client message structs
// ---------------------------------------------------------------------------

// ResponseMsg is the gateway's reply to a client request. Ref mirrors the
// request's ref when one was given.
type ResponseMsg struct {
	Type    string `json:"type"`
	Ref     string `json:"ref,omitempty"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// RoomUserCountsMsg carries the per-room member counts plus the aggregate
// total, pushed whenever the counts change.
type RoomUserCountsMsg struct {
	Type           string         `json:"type"`
	Counts         map[string]int `json:"counts"`
	TotalUserCount int            `json:"total_user_count"`
}

// RateLimitedMsg is sent when the client exceeded an operation's budget.
type RateLimitedMsg struct {
	Type       string `json:"type"`
	Ref        string `json:"ref,omitempty"`
	RetryAfter int    `json:"retry_after"`
}

// BannedMsg is sent when the client has been banned.
type BannedMsg struct {
	Type     string `json:"type"`
	Duration int    `json:"duration"`
	Reason   string `json:"reason"`
}

// ErrorMsg communicates an error condition outside a request/response pair.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongMsg is the server's response to a client ping.
type PongMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// ParseClientMessage parses raw WebSocket bytes into a typed client message.
// It returns the envelope (type, ref, raw payload), a pointer to the decoded
// struct, and any error encountered during parsing or validation. An error
// is returned for unknown or server-only message types.
func ParseClientMessage(data []byte) (Envelope, any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("protocol: failed to parse message: %w", err)
	}

	var (
		msg any
		err error
	)

	switch env.Type {
	case TypeGetRooms:
		var m GetRoomsMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = &m
	case TypeRegisterUser:
		var m RegisterUserMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = &m
	case TypeCheckUsername:
		var m CheckUsernameMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = &m
	case TypeJoinRoom:
		var m JoinRoomMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = &m
	case TypeChatMessage:
		var m ChatMessageMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = &m
	case TypeGetHistoryChunk:
		var m GetHistoryChunkMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = &m
	case TypeCreateRoom:
		var m CreateRoomMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = &m
	case TypePing:
		var m PingMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = &m
	default:
		return env, nil, fmt.Errorf("protocol: unknown message type %q", env.Type)
	}

	if err != nil {
		return env, nil, fmt.Errorf("protocol: failed to parse %s: %w", env.Type, err)
	}
	if err := validate.Struct(msg); err != nil {
		return env, nil, fmt.Errorf("protocol: invalid %s: %w", env.Type, err)
	}
	return env, msg, nil
}

// NewServerMessage serializes a server-to-client message to JSON bytes.
func NewServerMessage(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal server message: %w", err)
	}
	return data, nil
}
