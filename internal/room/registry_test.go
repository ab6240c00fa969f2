package room

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/cursorstyle/chat-gateway/internal/protocol"
)

// fakeConn records every frame written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeConn) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestJoin_Exclusive(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", &fakeConn{})

	r.Join("c1", "general")
	r.Join("c1", "gaming")

	counts, total := r.Counts()
	if counts["general"] != 0 || counts["gaming"] != 1 || total != 1 {
		t.Errorf("counts = %v total = %d, want gaming=1 total=1", counts, total)
	}

	sess, ok := r.Snapshot("c1")
	if !ok || sess.RoomID != "gaming" {
		t.Errorf("session = %+v ok = %v, want RoomID=gaming", sess, ok)
	}
}

func TestBroadcast_RoomScoped(t *testing.T) {
	r := NewRegistry()
	inRoom, other := &fakeConn{}, &fakeConn{}
	r.Register("c1", inRoom)
	r.Register("c2", other)
	r.Join("c1", "general")
	r.Join("c2", "gaming")

	r.Broadcast("general", []byte("hello"))

	if inRoom.count() != 1 {
		t.Errorf("room member got %d frames, want 1", inRoom.count())
	}
	if other.count() != 0 {
		t.Errorf("non-member got %d frames, want 0", other.count())
	}
}

func TestUnregister_LeavesRoom(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", &fakeConn{})
	r.Join("c1", "general")

	r.Unregister("c1")

	counts, total := r.Counts()
	if len(counts) != 0 || total != 0 {
		t.Errorf("counts = %v total = %d after unregister", counts, total)
	}
	if _, ok := r.Snapshot("c1"); ok {
		t.Error("session still present after unregister")
	}
}

func TestBindIdentity(t *testing.T) {
	r := NewRegistry()
	r.Register("c1", &fakeConn{})

	r.BindIdentity("c1", "token-1")
	r.SetUsername("c1", "alice")

	sess, ok := r.Snapshot("c1")
	if !ok || sess.IdentityToken != "token-1" || sess.Username != "alice" {
		t.Errorf("session = %+v", sess)
	}
}

func TestPresence_OnlyPushesOnChange(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}
	r.Register("c1", conn)
	r.Join("c1", "general")

	r.pushPresence()
	if conn.count() != 1 {
		t.Fatalf("first push: %d frames, want 1", conn.count())
	}

	// Same membership: no broadcast.
	r.pushPresence()
	if conn.count() != 1 {
		t.Errorf("unchanged push: %d frames, want 1", conn.count())
	}

	r.Register("c2", &fakeConn{})
	r.Join("c2", "gaming")
	r.pushPresence()
	if conn.count() != 2 {
		t.Errorf("changed push: %d frames, want 2", conn.count())
	}

	var msg protocol.RoomUserCountsMsg
	if err := json.Unmarshal(conn.frames[1], &msg); err != nil {
		t.Fatalf("unmarshal presence: %v", err)
	}
	if msg.Type != protocol.TypeRoomUserCounts || msg.TotalUserCount != 2 {
		t.Errorf("presence = %+v, want total 2", msg)
	}
	if msg.Counts["general"] != 1 || msg.Counts["gaming"] != 1 {
		t.Errorf("presence counts = %v", msg.Counts)
	}
}
