package gateway

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/cursorstyle/chat-gateway/internal/history"
	"github.com/cursorstyle/chat-gateway/internal/identity"
	"github.com/cursorstyle/chat-gateway/internal/metrics"
	"github.com/cursorstyle/chat-gateway/internal/protocol"
	"github.com/cursorstyle/chat-gateway/internal/store"
	"github.com/cursorstyle/chat-gateway/internal/ws"
)

// defaultRoomID is the room joined when the client does not name one.
const defaultRoomID = "general"

// oracleTimeout bounds the async content review, which outlives the handler.
const oracleTimeout = 15 * time.Second

func (g *Gateway) handleGetRooms(conn *ws.Connection, env protocol.Envelope, msg any) {
	m := msg.(*protocol.GetRoomsMsg)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	rooms, err := g.store.ListRooms(ctx)
	if err != nil {
		g.serverError(conn, env.Ref, err)
		return
	}

	infos := make([]protocol.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, protocol.RoomInfo{
			ID:             r.ID,
			Name:           r.Name,
			Image:          r.Image,
			DefaultMessage: r.DefaultMessage,
			IsReadOnly:     r.IsReadOnly,
		})
	}

	data := map[string]any{"rooms": infos}

	// A known identity also gets its profile back so the client can restore
	// its last room.
	if identity.ValidToken(m.IdentityToken) {
		user, err := g.store.UserByToken(ctx, m.IdentityToken)
		switch {
		case err == nil:
			currentRoom := user.CurrentRoomID
			if currentRoom == "" {
				currentRoom = defaultRoomID
			}
			data["user"] = map[string]any{
				"user_id":         user.UserID,
				"username":        user.Username,
				"avatar":          user.Avatar,
				"country_code":    user.CountryCode,
				"current_room_id": currentRoom,
			}
		case !errors.Is(err, store.ErrNotFound):
			log.Printf("[gateway] user lookup conn=%s: %v", conn.ID, err)
		}
	}

	g.respond(conn, env.Ref, true, "", data)
}

func (g *Gateway) handleRegisterUser(conn *ws.Connection, env protocol.Envelope, msg any) {
	m := msg.(*protocol.RegisterUserMsg)

	if !identity.ValidToken(m.IdentityToken) {
		g.fail(conn, env.Ref, "Not valid UUID")
		return
	}

	username := strings.TrimSpace(m.Username)
	if reason := g.moderator.CheckUsername(username); reason != "" {
		g.fail(conn, env.Ref, reason)
		return
	}

	avatar := normalizeAvatar(m.Avatar)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	// The name must not belong to a different identity.
	if other, err := g.store.UserByName(ctx, username); err == nil {
		if other.IdentityToken != m.IdentityToken {
			g.fail(conn, env.Ref, "Username already taken")
			return
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		g.serverError(conn, env.Ref, err)
		return
	}

	existing, err := g.store.UserByToken(ctx, m.IdentityToken)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		g.serverError(conn, env.Ref, err)
		return
	}

	var info protocol.UserInfo
	if existing != nil {
		renamed := existing.Username != username
		if err := g.store.UpdateUser(ctx, m.IdentityToken, username, avatar); err != nil {
			g.serverError(conn, env.Ref, err)
			return
		}
		info = protocol.UserInfo{
			UserID:      existing.UserID,
			Username:    username,
			Avatar:      avatar,
			CountryCode: existing.CountryCode,
			Created:     false,
			Action:      "updateTimestamp",
		}
		if renamed {
			info.Action = "userNameChanged"
			g.announceRename(conn, existing.Username, username, avatar)
		}
	} else {
		countryCode := m.CountryCode
		if countryCode == "" {
			countryCode = conn.Meta.IPCountry
		}
		user, err := g.store.CreateUser(ctx, m.IdentityToken, username, avatar, countryCode)
		if err != nil {
			g.serverError(conn, env.Ref, err)
			return
		}
		info = protocol.UserInfo{
			UserID:      user.UserID,
			Username:    username,
			Avatar:      avatar,
			CountryCode: user.CountryCode,
			Created:     true,
			Action:      "newUserAdded",
		}
	}

	g.registry.BindIdentity(conn.ID, m.IdentityToken)
	g.registry.SetUsername(conn.ID, username)

	g.respond(conn, env.Ref, true, "", map[string]any{"user": info})
}

// announceRename broadcasts a username-change notice to the room the
// connection currently occupies. The notice is ephemeral.
func (g *Gateway) announceRename(conn *ws.Connection, oldName, newName, avatar string) {
	sess, ok := g.registry.Snapshot(conn.ID)
	if !ok || sess.RoomID == "" {
		return
	}
	now := time.Now()
	notice := protocol.NoticeEventMsg{
		Type: protocol.TypeChatEvent,
		Message: protocol.SystemNotice{
			User:        "System",
			Avatar:      avatar,
			Text:        oldName + " is now known as " + newName + ".",
			Time:        now.UTC().Format(time.RFC3339),
			Kind:        protocol.NoticeUsernameChanged,
			RoomID:      sess.RoomID,
			OldUsername: oldName,
			NewUsername: newName,
		},
		Timestamp: now.UnixMilli(),
		RoomID:    sess.RoomID,
	}
	data, err := protocol.NewServerMessage(notice)
	if err != nil {
		log.Printf("[gateway] marshal rename notice: %v", err)
		return
	}
	g.registry.Broadcast(sess.RoomID, data)
}

func (g *Gateway) handleCheckUsername(conn *ws.Connection, env protocol.Envelope, msg any) {
	m := msg.(*protocol.CheckUsernameMsg)

	username := strings.ToLower(strings.TrimSpace(m.Username))
	if reason := g.moderator.CheckUsername(username); reason != "" {
		g.respond(conn, env.Ref, true, "", map[string]any{
			"available": false,
			"reason":    reason,
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	_, err := g.store.UserByName(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		g.respond(conn, env.Ref, true, "", map[string]any{"available": true})
	case err != nil:
		g.serverError(conn, env.Ref, err)
	default:
		g.respond(conn, env.Ref, true, "", map[string]any{
			"available": false,
			"reason":    "Username already taken",
		})
	}
}

func (g *Gateway) handleJoinRoom(conn *ws.Connection, env protocol.Envelope, msg any) {
	m := msg.(*protocol.JoinRoomMsg)

	if !identity.ValidToken(m.IdentityToken) {
		g.fail(conn, env.Ref, "Not valid UUID")
		return
	}

	roomID := m.RoomID
	if roomID == "" {
		roomID = defaultRoomID
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	rm, err := g.store.RoomByID(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		// Unknown room ids land in the oldest room rather than erroring.
		rm, err = g.store.FirstRoom(ctx)
		if errors.Is(err, store.ErrNotFound) {
			g.fail(conn, env.Ref, "No rooms available")
			return
		}
	}
	if err != nil {
		g.serverError(conn, env.Ref, err)
		return
	}

	g.registry.BindIdentity(conn.ID, m.IdentityToken)
	g.registry.Join(conn.ID, rm.ID)

	if _, err := g.store.UserByToken(ctx, m.IdentityToken); err == nil {
		if err := g.store.SetCurrentRoom(ctx, m.IdentityToken, rm.ID); err != nil {
			log.Printf("[gateway] persist current room conn=%s: %v", conn.ID, err)
		}
	}

	// The joiner gets the current presence snapshot immediately instead of
	// waiting for the next periodic push.
	g.send(conn, g.registry.CountsMessage())

	if username, _ := m.UserData["username"].(string); username != "" {
		g.registry.SetUsername(conn.ID, username)
		g.announceJoin(rm.ID, username, m.UserData)
	}

	window, err := g.history.OnJoin(ctx, rm.ID)
	if err != nil {
		g.serverError(conn, env.Ref, err)
		return
	}

	g.respond(conn, env.Ref, true, "", map[string]any{
		"room_id": rm.ID,
		"history": window,
	})
}

// announceJoin broadcasts an ephemeral join notice to the room.
func (g *Gateway) announceJoin(roomID, username string, userData map[string]any) {
	avatar, _ := userData["avatar"].(string)
	now := time.Now()
	notice := protocol.NoticeEventMsg{
		Type: protocol.TypeChatEvent,
		Message: protocol.SystemNotice{
			User:     "System",
			Avatar:   normalizeAvatar(avatar),
			Text:     username + " joined the room.",
			Time:     now.UTC().Format(time.RFC3339),
			Kind:     protocol.NoticeJoinRoom,
			RoomID:   roomID,
			Username: username,
		},
		Timestamp: now.UnixMilli(),
		RoomID:    roomID,
	}
	data, err := protocol.NewServerMessage(notice)
	if err != nil {
		log.Printf("[gateway] marshal join notice: %v", err)
		return
	}
	g.registry.Broadcast(roomID, data)
}

func (g *Gateway) handleChatMessage(conn *ws.Connection, env protocol.Envelope, msg any) {
	m := msg.(*protocol.ChatMessageMsg)

	sess, ok := g.registry.Snapshot(conn.ID)
	if !ok || sess.IdentityToken == "" {
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		g.fail(conn, env.Ref, "Unauthorized: not registered")
		return
	}
	if sess.RoomID == "" {
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		g.fail(conn, env.Ref, "Join a room first")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	rm, err := g.store.RoomByID(ctx, sess.RoomID)
	if err != nil {
		g.serverError(conn, env.Ref, err)
		return
	}
	if rm.IsReadOnly && (g.cfg.AdminToken == "" || sess.IdentityToken != g.cfg.AdminToken) {
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		g.fail(conn, env.Ref, "No access to this room")
		return
	}

	if res := g.moderator.CheckMessage(m.Payload.Text); !res.Valid {
		metrics.MessagesTotal.WithLabelValues("blocked").Inc()
		g.fail(conn, env.Ref, res.Reason)
		return
	}

	sealed, err := g.cipher.Seal(sess.IdentityToken)
	if err != nil {
		g.serverError(conn, env.Ref, err)
		return
	}

	// Author snapshot at send time. Unregistered identities still post under
	// the anonymous placeholders.
	username, avatar, countryCode, userID := "anonymous", "avatar_17", "unknown", "anonymous"
	if user, err := g.store.UserByToken(ctx, sess.IdentityToken); err == nil {
		username, avatar, countryCode, userID = user.Username, user.Avatar, user.CountryCode, user.UserID
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("[gateway] author lookup conn=%s: %v", conn.ID, err)
	}

	now := time.Now()
	wire := protocol.ChatMessage{
		MessageID:         m.Payload.MessageID,
		Text:              m.Payload.Text,
		ResponseTo:        m.Payload.ResponseTo,
		IdentityEncrypted: sealed,
		Timestamp:         now.UnixMilli(),
		CreatedAt:         now.UTC(),
		Username:          username,
		Avatar:            avatar,
		CountryCode:       countryCode,
		UserID:            userID,
		RoomID:            rm.ID,
	}

	record := store.Message{
		MessageID:         wire.MessageID,
		RoomID:            wire.RoomID,
		Text:              wire.Text,
		ResponseTo:        wire.ResponseTo,
		Username:          wire.Username,
		Avatar:            wire.Avatar,
		CountryCode:       wire.CountryCode,
		UserID:            wire.UserID,
		IdentityEncrypted: wire.IdentityEncrypted,
		Meta: store.ClientMeta{
			IP:             conn.Meta.IP,
			IPCountry:      conn.Meta.IPCountry,
			UserAgent:      conn.Meta.UserAgent,
			AcceptLanguage: conn.Meta.AcceptLanguage,
			Origin:         conn.Meta.Origin,
			CFRay:          conn.Meta.CFRay,
		},
		Timestamp: wire.Timestamp,
		CreatedAt: wire.CreatedAt,
	}
	if err := g.store.InsertMessage(ctx, &record); err != nil {
		g.serverError(conn, env.Ref, err)
		return
	}

	wrapped := history.Wrap(wire)
	g.history.OnAppend(rm.ID, wrapped)

	event := protocol.ChatEventMsg{Type: protocol.TypeChatEvent, Wrapped: wrapped}
	if data, err := protocol.NewServerMessage(event); err != nil {
		log.Printf("[gateway] marshal chat event: %v", err)
	} else {
		g.registry.Broadcast(rm.ID, data)
	}

	metrics.MessagesTotal.WithLabelValues("delivered").Inc()

	if g.oracle != nil && g.oracle.Enabled() {
		go func() {
			rctx, rcancel := context.WithTimeout(context.Background(), oracleTimeout)
			defer rcancel()
			g.oracle.Review(rctx, wire.MessageID, wire.RoomID, wire.Username, wire.Text)
		}()
	}

	g.respond(conn, env.Ref, true, "", map[string]any{"message": wire})
}

func (g *Gateway) handleGetHistoryChunk(conn *ws.Connection, env protocol.Envelope, msg any) {
	m := msg.(*protocol.GetHistoryChunkMsg)

	limit := m.Limit
	if limit == 0 {
		limit = history.DefaultPage
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	messages, hasMore, err := g.history.Page(ctx, m.RoomID, m.Offset, limit)
	if err != nil {
		g.serverError(conn, env.Ref, err)
		return
	}

	g.respond(conn, env.Ref, true, "", map[string]any{
		"messages": messages,
		"has_more": hasMore,
	})
}

func (g *Gateway) handleCreateRoom(conn *ws.Connection, env protocol.Envelope, msg any) {
	m := msg.(*protocol.CreateRoomMsg)

	if g.cfg.AdminToken == "" || m.AdminToken != g.cfg.AdminToken {
		g.fail(conn, env.Ref, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	err := g.store.CreateRoom(ctx, &store.Room{
		ID:             m.ID,
		Name:           m.Name,
		Image:          m.Image,
		DefaultMessage: m.DefaultMessage,
		IsReadOnly:     m.IsReadOnly,
		CreatedAt:      time.Now().UTC(),
	})
	switch {
	case errors.Is(err, store.ErrRoomExists):
		g.fail(conn, env.Ref, "Room already exists")
	case err != nil:
		g.serverError(conn, env.Ref, err)
	default:
		g.respond(conn, env.Ref, true, "", map[string]any{"room_id": m.ID})
	}
}
