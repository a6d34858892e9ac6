package relay

import (
	"strings"
	"testing"
	"time"

	domain "github.com/example/room-relay/domain/relay"
)

func TestStore_EnsurePublicRoom(t *testing.T) {
	s := NewStore()

	room := s.EnsurePublicRoom()
	if room.ID != domain.PublicRoomID {
		t.Errorf("EnsurePublicRoom() ID = %q, want %q", room.ID, domain.PublicRoomID)
	}
	if room.Kind != domain.KindPublic {
		t.Errorf("EnsurePublicRoom() Kind = %q, want %q", room.Kind, domain.KindPublic)
	}

	// idempotent, and a no-op on membership
	_ = s.JoinRoom(domain.PublicRoomID, "conn1", "alice")
	again := s.EnsurePublicRoom()
	if len(again.Members) != 1 {
		t.Errorf("EnsurePublicRoom() members = %d, want 1", len(again.Members))
	}
	if s.RoomCount() != 1 {
		t.Errorf("RoomCount() = %d, want 1", s.RoomCount())
	}
}

func TestStore_CreatePrivateRoom(t *testing.T) {
	s := NewStore()

	code := s.CreatePrivateRoom("conn1", "alice")
	if len(code) != roomCodeLength {
		t.Fatalf("CreatePrivateRoom() code length = %d, want %d", len(code), roomCodeLength)
	}
	for _, c := range code {
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F') {
			t.Errorf("CreatePrivateRoom() code %q contains non-hex character %q", code, c)
		}
	}

	room, ok := s.GetRoom(code)
	if !ok {
		t.Fatal("GetRoom() should find the created room")
	}
	if room.Kind != domain.KindPrivate {
		t.Errorf("room.Kind = %q, want %q", room.Kind, domain.KindPrivate)
	}
	if name := room.Members["conn1"]; name != "alice" {
		t.Errorf("creator membership = %q, want %q", name, "alice")
	}
	if room.LastActivity.IsZero() {
		t.Error("room.LastActivity should be set")
	}
}

func TestStore_CreatePrivateRoom_CollisionRetry(t *testing.T) {
	s := NewStore()
	first := s.CreatePrivateRoom("conn1", "alice")

	// force the generator to collide once before yielding a fresh code
	codes := []string{first, "FRESH1"}
	s.newCode = func() string {
		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code
	}

	second := s.CreatePrivateRoom("conn2", "bob")
	if second != "FRESH1" {
		t.Fatalf("CreatePrivateRoom() = %q, want retry result %q", second, "FRESH1")
	}

	// the colliding room must be untouched
	room, ok := s.GetRoom(first)
	if !ok {
		t.Fatal("original room was overwritten")
	}
	if name := room.Members["conn1"]; name != "alice" {
		t.Errorf("original room membership = %q, want %q", name, "alice")
	}
}

func TestStore_CodeUniqueness(t *testing.T) {
	s := NewStore()

	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		code := s.CreatePrivateRoom("conn", "user")
		if seen[code] {
			t.Fatalf("duplicate live room code generated: %q", code)
		}
		seen[code] = true
	}
	if s.RoomCount() != 10000 {
		t.Errorf("RoomCount() = %d, want 10000", s.RoomCount())
	}
}

func TestStore_JoinRoom(t *testing.T) {
	s := NewStore()
	code := s.CreatePrivateRoom("creator", "carol")

	tests := []struct {
		name    string
		roomID  string
		wantErr bool
	}{
		{
			name:    "public room joins lazily",
			roomID:  domain.PublicRoomID,
			wantErr: false,
		},
		{
			name:    "existing private room",
			roomID:  code,
			wantErr: false,
		},
		{
			name:    "private room id is case-normalized",
			roomID:  "  " + strings.ToLower(code) + " ",
			wantErr: false,
		},
		{
			name:    "unknown private room",
			roomID:  "ZZZZZZ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.JoinRoom(tt.roomID, "conn1", "alice")
			if tt.wantErr {
				if err == nil {
					t.Error("JoinRoom() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("JoinRoom() unexpected error: %v", err)
			}
		})
	}
}

func TestStore_RecordMessage(t *testing.T) {
	s := NewStore()
	_ = s.JoinRoom(domain.PublicRoomID, "a", "alice")
	_ = s.JoinRoom(domain.PublicRoomID, "b", "bob")
	_ = s.JoinRoom(domain.PublicRoomID, "c", "carol")

	recipients, err := s.RecordMessage(domain.PublicRoomID, "a", "hello")
	if err != nil {
		t.Fatalf("RecordMessage() error = %v", err)
	}

	if len(recipients) != 2 {
		t.Fatalf("recipients = %d, want 2", len(recipients))
	}
	for _, m := range recipients {
		if m.ConnID == "a" {
			t.Error("sender must not be in the fanout set")
		}
	}

	log := s.History(domain.PublicRoomID)
	if len(log) != 1 {
		t.Fatalf("History() length = %d, want 1", len(log))
	}
	if log[0].Content != "hello" || log[0].Sender != "alice" {
		t.Errorf("logged message = %+v, want content %q from %q", log[0], "hello", "alice")
	}
}

func TestStore_RecordMessage_RoomVanished(t *testing.T) {
	s := NewStore()
	code := s.CreatePrivateRoom("a", "alice")
	s.Leave("a", code) // empties and deletes the room

	if _, err := s.RecordMessage(code, "a", "hello"); err == nil {
		t.Error("RecordMessage() to a deleted room should fail")
	}
}

func TestStore_MessageOrdering(t *testing.T) {
	s := NewStore()
	_ = s.JoinRoom(domain.PublicRoomID, "a", "alice")

	want := []string{"one", "two", "three"}
	for _, content := range want {
		if _, err := s.RecordMessage(domain.PublicRoomID, "a", content); err != nil {
			t.Fatalf("RecordMessage(%q) error = %v", content, err)
		}
	}

	log := s.History(domain.PublicRoomID)
	if len(log) != len(want) {
		t.Fatalf("History() length = %d, want %d", len(log), len(want))
	}
	for i, content := range want {
		if log[i].Content != content {
			t.Errorf("log[%d].Content = %q, want %q", i, log[i].Content, content)
		}
	}
}

func TestStore_Leave(t *testing.T) {
	s := NewStore()

	t.Run("empty private room is deleted synchronously", func(t *testing.T) {
		code := s.CreatePrivateRoom("a", "alice")
		_ = s.JoinRoom(code, "b", "bob")

		s.Leave("a", code)
		if _, ok := s.GetRoom(code); !ok {
			t.Fatal("room with remaining member should survive")
		}

		s.Leave("b", code)
		if _, ok := s.GetRoom(code); ok {
			t.Error("emptied private room should be deleted")
		}
		if err := s.JoinRoom(code, "c", "carol"); err == nil {
			t.Error("join after deletion should fail with room not found")
		}
	})

	t.Run("public room survives emptiness", func(t *testing.T) {
		_ = s.JoinRoom(domain.PublicRoomID, "a", "alice")
		s.Leave("a", domain.PublicRoomID)

		room, ok := s.GetRoom(domain.PublicRoomID)
		if !ok {
			t.Fatal("public room must never be deleted")
		}
		if len(room.Members) != 0 {
			t.Errorf("public room members = %d, want 0", len(room.Members))
		}
	})
}

func TestStore_Sweep(t *testing.T) {
	const idle = 30 * time.Minute
	now := time.Now()

	s := NewStore()
	s.EnsurePublicRoom()

	stale := s.CreatePrivateRoom("a", "alice")
	fresh := s.CreatePrivateRoom("b", "bob")
	empty := s.CreatePrivateRoom("c", "carol")
	s.rooms[stale].LastActivity = now.Add(-idle - time.Millisecond)
	s.rooms[fresh].LastActivity = now.Add(-idle + time.Millisecond)
	delete(s.rooms[empty].Members, "c")

	deleted, remaining := s.Sweep(now, idle)

	if deleted != 2 {
		t.Errorf("Sweep() deleted = %d, want 2", deleted)
	}
	if remaining != 2 {
		t.Errorf("Sweep() remaining = %d, want 2", remaining)
	}
	if _, ok := s.GetRoom(stale); ok {
		t.Error("room idle past the threshold should be swept")
	}
	if _, ok := s.GetRoom(empty); ok {
		t.Error("empty private room should be swept")
	}
	if _, ok := s.GetRoom(fresh); !ok {
		t.Error("room within the idle threshold should survive")
	}
	if _, ok := s.GetRoom(domain.PublicRoomID); !ok {
		t.Error("public room must survive every sweep")
	}
}

func TestStore_Sweep_NeverDeletesIdlePublicRoom(t *testing.T) {
	s := NewStore()
	s.EnsurePublicRoom()
	s.rooms[domain.PublicRoomID].LastActivity = time.Now().Add(-24 * time.Hour)

	deleted, remaining := s.Sweep(time.Now(), 30*time.Minute)
	if deleted != 0 || remaining != 1 {
		t.Errorf("Sweep() = (%d, %d), want (0, 1)", deleted, remaining)
	}
}
