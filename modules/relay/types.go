package relay

import (
	"time"
	"unicode/utf8"
)

// Envelope type constants. The string values are load-bearing: the browser
// client matches on them verbatim.
const (
	TypeJoin             = "join"
	TypeChat             = "chat"
	TypeJoinConfirmation = "joinConfirmation"
	TypeRoomCreated      = "roomCreated"
	TypeError            = "error"
	TypeErr              = "err"
)

// Room type discriminator values carried on the wire.
const (
	RoomTypePublic  = "public"
	RoomTypePrivate = "private"
)

// Wire error messages.
const (
	msgInvalidFormat = "Invalid message format"
	msgRoomNotFound  = "room not found"
	msgUserNotFound  = "User not found"
)

// Validation limits.
const (
	MaxUsernameLength = 50
	MaxMessageLength  = 5000
)

// Envelope is one structured message unit exchanged over a connection,
// in both directions.
type Envelope struct {
	Type     string   `json:"type"`
	RoomType string   `json:"roomType,omitempty"`
	GenCode  bool     `json:"gencode,omitempty"`
	Payload  *Payload `json:"payload,omitempty"`
	Message  string   `json:"message,omitempty"` // error envelopes only
}

// Payload carries the envelope body. Which fields are set depends on the
// envelope type; timestamps are epoch milliseconds.
type Payload struct {
	Username  string `json:"username,omitempty"`
	RoomID    string `json:"roomId,omitempty"`
	RoomCode  string `json:"roomCode,omitempty"`
	Message   string `json:"message,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Outbound is one envelope addressed to one connection. The engine returns
// these; the transport layer delivers them best-effort.
type Outbound struct {
	To  string
	Env Envelope
}

func errorEnvelope(message string) Envelope {
	return Envelope{Type: TypeError, Message: message}
}

func errEnvelope(message string) Envelope {
	return Envelope{Type: TypeErr, Message: message}
}

func joinConfirmation(roomType, roomID, username string, at time.Time) Envelope {
	p := &Payload{Username: username, Timestamp: at.UnixMilli()}
	if roomType == RoomTypePrivate {
		p.RoomID = roomID
	}
	return Envelope{Type: TypeJoinConfirmation, RoomType: roomType, Payload: p}
}

func roomCreated(roomCode, username string, at time.Time) Envelope {
	return Envelope{
		Type:     TypeRoomCreated,
		RoomType: RoomTypePrivate,
		Payload:  &Payload{RoomCode: roomCode, Username: username, Timestamp: at.UnixMilli()},
	}
}

func chatEnvelope(roomType, roomID, message, sender string, at time.Time) Envelope {
	p := &Payload{Message: message, Sender: sender, Timestamp: at.UnixMilli()}
	if roomType == RoomTypePrivate {
		p.RoomID = roomID
	}
	return Envelope{Type: TypeChat, RoomType: roomType, Payload: p}
}

// validUsername reports whether a join payload carries a usable display name.
func validUsername(name string) bool {
	return name != "" && len(name) <= MaxUsernameLength && utf8.ValidString(name)
}

// validMessage reports whether a chat payload carries usable content.
func validMessage(content string) bool {
	return content != "" && len(content) <= MaxMessageLength && utf8.ValidString(content)
}
