package relay

import "time"

// RoomKind distinguishes the shared public room from code-addressed rooms.
type RoomKind string

const (
	KindPublic  RoomKind = "public"
	KindPrivate RoomKind = "private"
)

// PublicRoomID is the reserved identifier of the shared public room. It is
// never issued as a private room code (codes are generated, never reserved
// words) and the room behind it is never deleted.
const PublicRoomID = "PUBLIC"

// Message is one relayed chat line as kept in a room's log.
type Message struct {
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Member is one room occupant: the connection identity plus the display
// name it joined under.
type Member struct {
	ConnID string `json:"conn_id"`
	Name   string `json:"name"`
}

// Room holds the full state of one room. Instances are owned by the room
// store; callers only ever see copies or snapshots.
type Room struct {
	ID           string            `json:"id"`
	Kind         RoomKind          `json:"kind"`
	Members      map[string]string `json:"-"` // connID -> display name
	Log          []Message         `json:"-"`
	LastActivity time.Time         `json:"last_activity"`
}
