package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is one registered chat identity.
type User struct {
	UserID        string
	IdentityToken string
	Username      string
	Avatar        string
	CountryCode   string
	CurrentRoomID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("store: not found")

const userColumns = `user_id, identity_token, username, avatar, country_code, COALESCE(current_room_id, ''), created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.UserID, &u.IdentityToken, &u.Username, &u.Avatar,
		&u.CountryCode, &u.CurrentRoomID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	return &u, nil
}

// UserByToken fetches the user bound to an identity token.
func (s *Store) UserByToken(ctx context.Context, token string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE identity_token = $1`, token)
	return scanUser(row)
}

// UserByName fetches the user owning a username.
func (s *Store) UserByName(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// CreateUser inserts a new user with a fresh user_id and returns it.
func (s *Store) CreateUser(ctx context.Context, token, username, avatar, countryCode string) (*User, error) {
	userID := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, identity_token, username, avatar, country_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		userID, token, username, avatar, countryCode, now)
	if err != nil {
		return nil, fmt.Errorf("store: insert user: %w", err)
	}

	return &User{
		UserID:        userID,
		IdentityToken: token,
		Username:      username,
		Avatar:        avatar,
		CountryCode:   countryCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// UpdateUser refreshes the mutable profile fields for an identity token.
func (s *Store) UpdateUser(ctx context.Context, token, username, avatar string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = $2, avatar = $3, updated_at = NOW()
		WHERE identity_token = $1`,
		token, username, avatar)
	if err != nil {
		return fmt.Errorf("store: update user: %w", err)
	}
	return nil
}

// SetCurrentRoom remembers the room a user last joined.
func (s *Store) SetCurrentRoom(ctx context.Context, token, roomID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET current_room_id = $2, updated_at = NOW()
		WHERE identity_token = $1`,
		token, roomID)
	if err != nil {
		return fmt.Errorf("store: set current room: %w", err)
	}
	return nil
}
