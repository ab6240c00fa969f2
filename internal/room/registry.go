// Package room tracks which connection is in which room and fans out
// broadcasts. All session state is owned by the Registry and mutated only
// through its methods.
package room

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cursorstyle/chat-gateway/internal/metrics"
	"github.com/cursorstyle/chat-gateway/internal/protocol"
)

// Sender is the write surface of one connection. *ws.Connection satisfies it.
type Sender interface {
	WriteMessage(data []byte) error
}

// Session is the per-connection state the gateway cares about.
type Session struct {
	ConnID        string
	IdentityToken string
	Username      string
	RoomID        string
	sender        Sender
}

// Registry owns every live session and the room membership maps.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session            // conn_id -> session
	rooms    map[string]map[string]*Session // room_id -> conn_id -> session

	prevCounts map[string]int // last presence snapshot broadcast
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		rooms:      make(map[string]map[string]*Session),
		prevCounts: make(map[string]int),
	}
}

// Register adds a fresh session for a connection.
func (r *Registry) Register(connID string, sender Sender) {
	r.mu.Lock()
	r.sessions[connID] = &Session{ConnID: connID, sender: sender}
	r.mu.Unlock()
}

// Unregister drops a session and removes it from its room, if any.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return
	}
	r.leaveLocked(sess)
	delete(r.sessions, connID)
}

// BindIdentity attaches an identity token to a connection.
func (r *Registry) BindIdentity(connID, token string) {
	r.mu.Lock()
	if sess, ok := r.sessions[connID]; ok {
		sess.IdentityToken = token
	}
	r.mu.Unlock()
}

// SetUsername records the display name for a connection.
func (r *Registry) SetUsername(connID, username string) {
	r.mu.Lock()
	if sess, ok := r.sessions[connID]; ok {
		sess.Username = username
	}
	r.mu.Unlock()
}

// Snapshot returns a copy of the session for a connection, or false when the
// connection is unknown.
func (r *Registry) Snapshot(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	return Session{
		ConnID:        sess.ConnID,
		IdentityToken: sess.IdentityToken,
		Username:      sess.Username,
		RoomID:        sess.RoomID,
	}, true
}

// Join moves a connection into roomID, leaving any previous room first.
// Membership is exclusive.
func (r *Registry) Join(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return
	}
	r.leaveLocked(sess)

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*Session)
		r.rooms[roomID] = members
	}
	members[connID] = sess
	sess.RoomID = roomID
}

// Leave removes a connection from its current room.
func (r *Registry) Leave(connID string) {
	r.mu.Lock()
	if sess, ok := r.sessions[connID]; ok {
		r.leaveLocked(sess)
	}
	r.mu.Unlock()
}

func (r *Registry) leaveLocked(sess *Session) {
	if sess.RoomID == "" {
		return
	}
	if members, ok := r.rooms[sess.RoomID]; ok {
		delete(members, sess.ConnID)
		if len(members) == 0 {
			delete(r.rooms, sess.RoomID)
		}
	}
	sess.RoomID = ""
}

// Broadcast sends data to every member of a room.
func (r *Registry) Broadcast(roomID string, data []byte) {
	for _, sess := range r.members(roomID) {
		if err := sess.sender.WriteMessage(data); err != nil {
			log.Printf("[room] broadcast to %s: %v", sess.ConnID, err)
		}
	}
}

// BroadcastAll sends data to every connected client.
func (r *Registry) BroadcastAll(data []byte) {
	r.mu.RLock()
	targets := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		targets = append(targets, sess)
	}
	r.mu.RUnlock()

	for _, sess := range targets {
		if err := sess.sender.WriteMessage(data); err != nil {
			log.Printf("[room] broadcast to %s: %v", sess.ConnID, err)
		}
	}
}

// Send writes data to a single connection.
func (r *Registry) Send(connID string, data []byte) error {
	r.mu.RLock()
	sess, ok := r.sessions[connID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return sess.sender.WriteMessage(data)
}

func (r *Registry) members(roomID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	out := make([]*Session, 0, len(members))
	for _, sess := range members {
		out = append(out, sess)
	}
	return out
}

// Counts returns the member count per room plus the aggregate total.
func (r *Registry) Counts() (map[string]int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.rooms))
	total := 0
	for roomID, members := range r.rooms {
		counts[roomID] = len(members)
		total += len(members)
	}
	return counts, total
}

// CountsMessage builds the presence push for the current membership.
func (r *Registry) CountsMessage() protocol.RoomUserCountsMsg {
	counts, total := r.Counts()
	return protocol.RoomUserCountsMsg{
		Type:           protocol.TypeRoomUserCounts,
		Counts:         counts,
		TotalUserCount: total,
	}
}

// StartPresence broadcasts the room counts to every client whenever they
// change, checking on the given interval.
func (r *Registry) StartPresence(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[room] presence loop stopped")
			return
		case <-ticker.C:
			r.pushPresence()
		}
	}
}

func (r *Registry) pushPresence() {
	counts, total := r.Counts()

	r.mu.Lock()
	if countsEqual(r.prevCounts, counts) {
		r.mu.Unlock()
		return
	}
	// Zero out gauges for rooms that just emptied before overwriting.
	for roomID := range r.prevCounts {
		if _, ok := counts[roomID]; !ok {
			metrics.RoomMembers.WithLabelValues(roomID).Set(0)
		}
	}
	for roomID, n := range counts {
		metrics.RoomMembers.WithLabelValues(roomID).Set(float64(n))
	}
	r.prevCounts = counts
	r.mu.Unlock()

	data, err := protocol.NewServerMessage(protocol.RoomUserCountsMsg{
		Type:           protocol.TypeRoomUserCounts,
		Counts:         counts,
		TotalUserCount: total,
	})
	if err != nil {
		log.Printf("[room] marshal presence: %v", err)
		return
	}
	r.BroadcastAll(data)
}

func countsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
