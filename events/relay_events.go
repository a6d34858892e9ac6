package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomCreatedEvent is emitted when a private room is created.
type RoomCreatedEvent struct {
	RoomID    string    `json:"room_id"`
	RoomKind  string    `json:"room_kind"`
	CreatedBy string    `json:"created_by"`
	Timestamp time.Time `json:"timestamp"`
}

// MemberJoinedEvent is emitted when a connection joins a room.
type MemberJoinedEvent struct {
	RoomID    string    `json:"room_id"`
	ConnID    string    `json:"conn_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// MemberLeftEvent is emitted when a connection leaves a room, including
// the implicit leave on disconnect.
type MemberLeftEvent struct {
	RoomID    string    `json:"room_id"`
	ConnID    string    `json:"conn_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageRelayedEvent is emitted after a chat message has been recorded
// and fanned out to the other members of its room.
type MessageRelayedEvent struct {
	RoomID     string    `json:"room_id"`
	Sender     string    `json:"sender"`
	Recipients int       `json:"recipients"`
	Timestamp  time.Time `json:"timestamp"`
}

// RoomsSweptEvent is emitted after each idle-room sweep pass.
type RoomsSweptEvent struct {
	Deleted   int       `json:"deleted"`
	Remaining int       `json:"remaining"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the relay domain.
var (
	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"relay",
		"RoomCreated",
		"v1",
	)

	MemberJoinedV1 = helper.EventDefinition[MemberJoinedEvent](
		"relay",
		"MemberJoined",
		"v1",
	)

	MemberLeftV1 = helper.EventDefinition[MemberLeftEvent](
		"relay",
		"MemberLeft",
		"v1",
	)

	MessageRelayedV1 = helper.EventDefinition[MessageRelayedEvent](
		"relay",
		"MessageRelayed",
		"v1",
	)

	RoomsSweptV1 = helper.EventDefinition[RoomsSweptEvent](
		"relay",
		"RoomsSwept",
		"v1",
	)
)
