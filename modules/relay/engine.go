package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	domain "github.com/example/room-relay/domain/relay"
)

// Emitter receives notifications about completed state transitions. The
// relay module implements it by publishing domain events; tests substitute
// a mock.
type Emitter interface {
	RoomCreated(roomID, connID, username string)
	MemberJoined(roomID, connID, username string)
	MemberLeft(roomID, connID, username string)
	MessageRelayed(roomID, sender string, recipients int)
}

type noopEmitter struct{}

func (noopEmitter) RoomCreated(string, string, string)  {}
func (noopEmitter) MemberJoined(string, string, string) {}
func (noopEmitter) MemberLeft(string, string, string)   {}
func (noopEmitter) MessageRelayed(string, string, int)  {}

// Engine interprets inbound envelopes against the connection registry and
// the room store. It is a synchronous transition function: one inbound
// envelope in, zero or more outbound envelopes back. It never touches a
// socket, which keeps it unit-testable without a live transport.
type Engine struct {
	registry *Registry
	store    *Store
	emitter  Emitter
	logger   *slog.Logger
}

// NewEngine creates a relay engine over the given registry and store.
// A nil emitter disables notifications.
func NewEngine(registry *Registry, store *Store, emitter Emitter, logger *slog.Logger) *Engine {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		registry: registry,
		store:    store,
		emitter:  emitter,
		logger:   logger,
	}
}

// HandleConnect binds a fresh connection identity with no name and no room.
func (e *Engine) HandleConnect(connID string) {
	e.registry.Bind(connID)
}

// HandleDisconnect is the implicit leave for a closed connection: the
// member is removed from its room and the identity released. Safe to call
// more than once; only the first call has an effect.
func (e *Engine) HandleDisconnect(connID string) {
	e.leaveCurrent(connID)
	e.registry.Remove(connID)
}

// HandleEnvelope applies one inbound raw frame and returns the outbound
// envelopes to deliver. Malformed input yields a single error reply and no
// state change.
func (e *Engine) HandleEnvelope(connID string, raw []byte) []Outbound {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Payload == nil {
		e.logger.Debug("malformed envelope", "connID", connID)
		return reply(connID, errorEnvelope(msgInvalidFormat))
	}

	switch env.Type {
	case TypeJoin:
		return e.handleJoin(connID, env)
	case TypeChat:
		return e.handleChat(connID, env)
	default:
		return reply(connID, errorEnvelope(msgInvalidFormat))
	}
}

func (e *Engine) handleJoin(connID string, env Envelope) []Outbound {
	username := strings.TrimSpace(env.Payload.Username)
	if !validUsername(username) {
		return reply(connID, errorEnvelope(msgInvalidFormat))
	}

	switch env.RoomType {
	case RoomTypePublic:
		return e.joinPublic(connID, username)
	case RoomTypePrivate:
		if env.GenCode {
			return e.createPrivate(connID, username)
		}
		return e.joinPrivate(connID, username, env.Payload.RoomID)
	default:
		return reply(connID, errorEnvelope(msgInvalidFormat))
	}
}

func (e *Engine) joinPublic(connID, username string) []Outbound {
	e.leaveCurrent(connID)
	e.store.EnsurePublicRoom()

	name := e.bindName(connID, username)
	// joining the public identifier cannot fail
	_ = e.store.JoinRoom(domain.PublicRoomID, connID, name)
	e.registry.SetRoom(connID, domain.PublicRoomID)

	e.emitter.MemberJoined(domain.PublicRoomID, connID, name)
	e.logger.Info("joined public room", "connID", connID, "username", name)
	return reply(connID, joinConfirmation(RoomTypePublic, domain.PublicRoomID, name, time.Now()))
}

func (e *Engine) createPrivate(connID, username string) []Outbound {
	e.leaveCurrent(connID)

	name := e.bindName(connID, username)
	code := e.store.CreatePrivateRoom(connID, name)
	e.registry.SetRoom(connID, code)

	e.emitter.RoomCreated(code, connID, name)
	e.emitter.MemberJoined(code, connID, name)
	e.logger.Info("private room created", "connID", connID, "roomID", code)
	return reply(connID, roomCreated(code, name, time.Now()))
}

func (e *Engine) joinPrivate(connID, username, roomID string) []Outbound {
	roomID = NormalizeRoomID(roomID)
	if roomID == "" {
		return reply(connID, errorEnvelope(msgInvalidFormat))
	}

	name := e.bindName(connID, username)
	if err := e.store.JoinRoom(roomID, connID, name); err != nil {
		return reply(connID, errEnvelope(msgRoomNotFound))
	}

	// the new membership is in place; now drop the old one
	if prev, ok := e.registry.CurrentRoom(connID); ok && prev != roomID {
		e.store.Leave(connID, prev)
		e.emitter.MemberLeft(prev, connID, name)
	}
	e.registry.SetRoom(connID, roomID)

	e.emitter.MemberJoined(roomID, connID, name)
	e.logger.Info("joined private room", "connID", connID, "roomID", roomID)
	return reply(connID, joinConfirmation(RoomTypePrivate, roomID, name, time.Now()))
}

func (e *Engine) handleChat(connID string, env Envelope) []Outbound {
	roomID, inRoom := e.registry.CurrentRoom(connID)
	name, named := e.registry.Name(connID)
	if !inRoom || !named {
		return reply(connID, errorEnvelope(msgUserNotFound))
	}

	content := env.Payload.Message
	if !validMessage(content) {
		return reply(connID, errorEnvelope(msgInvalidFormat))
	}

	recipients, err := e.store.RecordMessage(roomID, connID, content)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			// room vanished between join and chat; drop the stale pointer
			e.registry.ClearRoom(connID)
		}
		return reply(connID, errEnvelope(msgRoomNotFound))
	}

	roomType := RoomTypePublic
	if roomID != domain.PublicRoomID {
		roomType = RoomTypePrivate
	}

	now := time.Now()
	out := make([]Outbound, 0, len(recipients))
	for _, member := range recipients {
		out = append(out, Outbound{
			To:  member.ConnID,
			Env: chatEnvelope(roomType, roomID, content, name, now),
		})
	}

	e.emitter.MessageRelayed(roomID, name, len(out))
	e.logger.Debug("message relayed", "roomID", roomID, "sender", name, "recipients", len(out))
	return out
}

// bindName sets the display name on first join; later joins keep the
// original name.
func (e *Engine) bindName(connID, username string) string {
	if err := e.registry.SetName(connID, username); err != nil && !errors.Is(err, ErrAlreadyNamed) {
		// identity raced a disconnect; rebind so the join can proceed
		e.registry.Bind(connID)
		_ = e.registry.SetName(connID, username)
	}
	if name, ok := e.registry.Name(connID); ok {
		return name
	}
	return username
}

// leaveCurrent removes the connection from its current room, if any.
func (e *Engine) leaveCurrent(connID string) {
	roomID, ok := e.registry.CurrentRoom(connID)
	if !ok {
		return
	}
	name, _ := e.registry.Name(connID)
	e.store.Leave(connID, roomID)
	e.registry.ClearRoom(connID)
	e.emitter.MemberLeft(roomID, connID, name)
}

func reply(to string, env Envelope) []Outbound {
	return []Outbound{{To: to, Env: env}}
}
