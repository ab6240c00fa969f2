package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseClientMessage_RegisterUser(t *testing.T) {
	raw := `{"type":"register_user","ref":"r1","username":"alice","identity_token":"tok","avatar":"avatar_3"}`

	env, msg, err := ParseClientMessage([]byte(raw))
	if err != nil {
		t.Fatalf("ParseClientMessage: %v", err)
	}
	if env.Type != TypeRegisterUser || env.Ref != "r1" {
		t.Errorf("envelope = %+v", env)
	}

	m, ok := msg.(*RegisterUserMsg)
	if !ok {
		t.Fatalf("msg type = %T, want *RegisterUserMsg", msg)
	}
	if m.Username != "alice" || m.IdentityToken != "tok" || m.Avatar != "avatar_3" {
		t.Errorf("msg = %+v", m)
	}
}

func TestParseClientMessage_ChatMessage(t *testing.T) {
	raw := `{"type":"chat_message","payload":{"text":"hi","message_id":"m1","response_to":"m0"}}`

	_, msg, err := ParseClientMessage([]byte(raw))
	if err != nil {
		t.Fatalf("ParseClientMessage: %v", err)
	}
	m := msg.(*ChatMessageMsg)
	if m.Payload.Text != "hi" || m.Payload.MessageID != "m1" || m.Payload.ResponseTo != "m0" {
		t.Errorf("payload = %+v", m.Payload)
	}
}

func TestParseClientMessage_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"register missing username", `{"type":"register_user","identity_token":"tok"}`},
		{"chat missing text", `{"type":"chat_message","payload":{"message_id":"m1"}}`},
		{"join missing token", `{"type":"join_room","room_id":"general"}`},
		{"history negative offset", `{"type":"get_history_chunk","room_id":"general","offset":-1,"limit":30}`},
		{"history oversized limit", `{"type":"get_history_chunk","room_id":"general","offset":0,"limit":500}`},
		{"create room missing name", `{"type":"create_room","id":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseClientMessage([]byte(tt.raw)); err == nil {
				t.Errorf("ParseClientMessage(%s) succeeded, want validation error", tt.raw)
			}
		})
	}
}

func TestParseClientMessage_UnknownType(t *testing.T) {
	_, _, err := ParseClientMessage([]byte(`{"type":"find_match"}`))
	if err == nil || !strings.Contains(err.Error(), "unknown message type") {
		t.Errorf("err = %v, want unknown message type", err)
	}
}

func TestEnvelope_MissingType(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"ref":"r1"}`), &env); err == nil {
		t.Error("expected error for missing type field")
	}
}

func TestEnvelope_RetainsRaw(t *testing.T) {
	raw := `{"type":"join_room","identity_token":"tok","user_data":{"nested":{"k":"v"}}}`

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if string(env.Raw) != raw {
		t.Errorf("Raw = %s, want the full original payload", env.Raw)
	}
}

func TestNewServerMessage_Response(t *testing.T) {
	data, err := NewServerMessage(ResponseMsg{
		Type:    TypeResponse,
		Ref:     "r9",
		Success: false,
		Reason:  "Username already taken",
	})
	if err != nil {
		t.Fatalf("NewServerMessage: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal server message: %v", err)
	}
	if decoded["type"] != TypeResponse || decoded["ref"] != "r9" || decoded["success"] != false {
		t.Errorf("decoded = %v", decoded)
	}
	if _, present := decoded["data"]; present {
		t.Error("empty data should be omitted")
	}
}
