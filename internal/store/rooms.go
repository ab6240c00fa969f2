package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Room is one chat room.
type Room struct {
	ID             string
	Name           string
	Image          string
	DefaultMessage string
	IsReadOnly     bool
	CreatedAt      time.Time
}

const roomColumns = `id, name, image, default_message, is_read_only, created_at`

func scanRoom(row *sql.Row) (*Room, error) {
	var r Room
	err := row.Scan(&r.ID, &r.Name, &r.Image, &r.DefaultMessage, &r.IsReadOnly, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan room: %w", err)
	}
	return &r, nil
}

// ListRooms returns every room, oldest first.
func (s *Store) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Image, &r.DefaultMessage, &r.IsReadOnly, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rooms: %w", err)
	}
	return rooms, nil
}

// RoomByID fetches one room, or ErrNotFound.
func (s *Store) RoomByID(ctx context.Context, id string) (*Room, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	return scanRoom(row)
}

// FirstRoom returns the oldest room. Used as the fallback when a client asks
// to join a room that does not exist.
func (s *Store) FirstRoom(ctx context.Context) (*Room, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms ORDER BY created_at ASC LIMIT 1`)
	return scanRoom(row)
}

// CreateRoom inserts a new room. ErrRoomExists is returned when the id is
// already taken.
func (s *Store) CreateRoom(ctx context.Context, room *Room) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, image, default_message, is_read_only)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		room.ID, room.Name, room.Image, room.DefaultMessage, room.IsReadOnly)
	if err != nil {
		return fmt.Errorf("store: insert room: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: insert room: %w", err)
	}
	if n == 0 {
		return ErrRoomExists
	}
	return nil
}

// ErrRoomExists is returned by CreateRoom on a duplicate room id.
var ErrRoomExists = errors.New("store: room already exists")
