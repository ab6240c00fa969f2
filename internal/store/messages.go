package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ClientMeta captures the transport-level request metadata stored alongside
// each message for abuse forensics.
type ClientMeta struct {
	IP             string
	IPCountry      string
	UserAgent      string
	AcceptLanguage string
	Origin         string
	CFRay          string
}

// Message is one durable chat message, including the author snapshot taken
// at send time.
type Message struct {
	MessageID         string
	RoomID            string
	Text              string
	ResponseTo        string
	Username          string
	Avatar            string
	CountryCode       string
	UserID            string
	IdentityEncrypted string
	Meta              ClientMeta
	Timestamp         int64 // unix milliseconds
	CreatedAt         time.Time
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// InsertMessage persists one message.
func (s *Store) InsertMessage(ctx context.Context, m *Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (
			message_id, room_id, text, response_to,
			username, avatar, country_code, user_id, identity_encrypted,
			client_ip, client_ip_country, client_user_agent,
			client_accept_language, client_origin, client_cf_ray,
			timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		m.MessageID, m.RoomID, m.Text, nullable(m.ResponseTo),
		m.Username, m.Avatar, m.CountryCode, m.UserID, m.IdentityEncrypted,
		nullable(m.Meta.IP), nullable(m.Meta.IPCountry), nullable(m.Meta.UserAgent),
		nullable(m.Meta.AcceptLanguage), nullable(m.Meta.Origin), nullable(m.Meta.CFRay),
		m.Timestamp)
	if err != nil {
		return fmt.Errorf("store: insert message: %w", err)
	}
	return nil
}

const messageColumns = `message_id, room_id, text, COALESCE(response_to, ''),
	username, avatar, country_code, user_id, identity_encrypted, timestamp, created_at`

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.MessageID, &m.RoomID, &m.Text, &m.ResponseTo,
			&m.Username, &m.Avatar, &m.CountryCode, &m.UserID,
			&m.IdentityEncrypted, &m.Timestamp, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: query messages: %w", err)
	}
	return messages, nil
}

// RecentMessages returns the newest limit messages for a room, newest first.
func (s *Store) RecentMessages(ctx context.Context, roomID string, limit int) ([]Message, error) {
	return s.queryMessages(ctx, `
		SELECT `+messageColumns+`
		FROM messages WHERE room_id = $1
		ORDER BY timestamp DESC LIMIT $2`,
		roomID, limit)
}

// PageMessages returns one page of a room's messages, newest first, skipping
// offset rows.
func (s *Store) PageMessages(ctx context.Context, roomID string, offset, limit int) ([]Message, error) {
	return s.queryMessages(ctx, `
		SELECT `+messageColumns+`
		FROM messages WHERE room_id = $1
		ORDER BY timestamp DESC OFFSET $2 LIMIT $3`,
		roomID, offset, limit)
}

// DeleteMessagesBefore removes messages with a timestamp older than cutoff
// and reports how many rows went away.
func (s *Store) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE timestamp < $1`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("store: delete old messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: delete old messages: %w", err)
	}
	return n, nil
}
