package relay

import (
	"strings"
	"sync"
	"time"

	nanoid "github.com/jaevor/go-nanoid"

	domain "github.com/example/room-relay/domain/relay"
)

// Room code generation parameters. Codes are drawn from a cryptographic
// source: private room codes are the only access control a room has.
const (
	roomCodeAlphabet = "0123456789ABCDEF"
	roomCodeLength   = 6
)

// Store owns all room state: membership, message log and last-activity
// timestamp per room. Every mutation of a room happens under one mutex, so
// concurrent joins, chats, leaves and sweeps against the same room are
// serialized.
type Store struct {
	mu      sync.Mutex
	rooms   map[string]*domain.Room
	newCode func() string
}

// NewStore creates an empty room store.
func NewStore() *Store {
	gen, err := nanoid.CustomASCII(roomCodeAlphabet, roomCodeLength)
	if err != nil {
		// alphabet and length are static; CustomASCII cannot reject them
		panic(err)
	}
	return &Store{
		rooms:   make(map[string]*domain.Room),
		newCode: gen,
	}
}

// NormalizeRoomID case-normalizes a wire room identifier.
func NormalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

// EnsurePublicRoom creates the public room if it does not exist yet and
// returns a snapshot of it. Idempotent; a no-op on membership.
func (s *Store) EnsurePublicRoom() domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.ensurePublicLocked())
}

func (s *Store) ensurePublicLocked() *domain.Room {
	room, ok := s.rooms[domain.PublicRoomID]
	if !ok {
		room = &domain.Room{
			ID:           domain.PublicRoomID,
			Kind:         domain.KindPublic,
			Members:      make(map[string]string),
			LastActivity: time.Now(),
		}
		s.rooms[domain.PublicRoomID] = room
	}
	return room
}

// CreatePrivateRoom creates a private room with a freshly generated code and
// the creator as its sole member, and returns the room identifier. Generated
// codes that collide with a live room are discarded and regenerated, never
// overwritten.
func (s *Store) CreatePrivateRoom(connID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.newCode()
	for {
		if _, taken := s.rooms[code]; !taken && code != domain.PublicRoomID {
			break
		}
		code = s.newCode()
	}

	s.rooms[code] = &domain.Room{
		ID:           code,
		Kind:         domain.KindPrivate,
		Members:      map[string]string{connID: name},
		LastActivity: time.Now(),
	}
	return code
}

// JoinRoom adds a member to a room. Joining the public identifier always
// succeeds, creating the room lazily; joining an unknown private identifier
// returns ErrRoomNotFound.
func (s *Store) JoinRoom(roomID, connID, name string) error {
	roomID = NormalizeRoomID(roomID)

	s.mu.Lock()
	defer s.mu.Unlock()

	var room *domain.Room
	if roomID == domain.PublicRoomID {
		room = s.ensurePublicLocked()
	} else {
		var ok bool
		room, ok = s.rooms[roomID]
		if !ok {
			return ErrRoomNotFound
		}
	}

	room.Members[connID] = name
	room.LastActivity = time.Now()
	return nil
}

// RecordMessage appends a message to the room's log, bumps its activity
// timestamp and returns the membership snapshot to fan out to, excluding the
// sender. Returns ErrRoomNotFound if the room vanished between the sender's
// join and this call; the caller treats that as a no-op failure.
func (s *Store) RecordMessage(roomID, senderID, content string) ([]domain.Member, error) {
	roomID = NormalizeRoomID(roomID)

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}

	sender := room.Members[senderID]
	now := time.Now()
	room.Log = append(room.Log, domain.Message{
		Content:   content,
		Sender:    sender,
		Timestamp: now,
	})
	room.LastActivity = now

	recipients := make([]domain.Member, 0, len(room.Members))
	for id, name := range room.Members {
		if id == senderID {
			continue
		}
		recipients = append(recipients, domain.Member{ConnID: id, Name: name})
	}
	return recipients, nil
}

// Leave removes a member from a room. A private room left with no members
// is deleted synchronously; the public room always survives.
func (s *Store) Leave(connID, roomID string) {
	roomID = NormalizeRoomID(roomID)

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return
	}
	delete(room.Members, connID)
	if room.Kind == domain.KindPrivate && len(room.Members) == 0 {
		delete(s.rooms, roomID)
	}
}

// Sweep deletes every private room that is empty or whose last activity is
// older than idleTimeout, and reports how many rooms were deleted and how
// many remain. The public room is never deleted.
func (s *Store) Sweep(now time.Time, idleTimeout time.Duration) (deleted, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, room := range s.rooms {
		if room.Kind != domain.KindPrivate {
			continue
		}
		if len(room.Members) == 0 || now.Sub(room.LastActivity) > idleTimeout {
			delete(s.rooms, id)
			deleted++
		}
	}
	return deleted, len(s.rooms)
}

// GetRoom returns a snapshot of a room.
func (s *Store) GetRoom(roomID string) (domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[NormalizeRoomID(roomID)]
	if !ok {
		return domain.Room{}, false
	}
	return snapshot(room), true
}

// Rooms returns a snapshot of every live room.
func (s *Store) Rooms() []domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, snapshot(room))
	}
	return out
}

// RoomCount returns the number of live rooms.
func (s *Store) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// MemberCount returns the number of members in a room, or zero for an
// unknown room.
func (s *Store) MemberCount(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[NormalizeRoomID(roomID)]
	if !ok {
		return 0
	}
	return len(room.Members)
}

// History returns a copy of a room's message log.
func (s *Store) History(roomID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[NormalizeRoomID(roomID)]
	if !ok {
		return nil
	}
	log := make([]domain.Message, len(room.Log))
	copy(log, room.Log)
	return log
}

// snapshot copies a room so callers never see store-owned maps or slices.
func snapshot(room *domain.Room) domain.Room {
	out := *room
	out.Members = make(map[string]string, len(room.Members))
	for id, name := range room.Members {
		out.Members[id] = name
	}
	out.Log = make([]domain.Message, len(room.Log))
	copy(out.Log, room.Log)
	return out
}
