package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/room-relay/events"
)

// Module consumes relay events and keeps process-lifetime activity
// counters. It is the only consumer of the event bus; the relay core never
// depends on it.
type Module struct {
	roomsCreated   atomic.Int64
	joins          atomic.Int64
	leaves         atomic.Int64
	messages       atomic.Int64
	fanoutSends    atomic.Int64
	roomsSwept     atomic.Int64
	logger         *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the monitor module.
func NewModule() *Module {
	return &Module{logger: slog.Default()}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "monitor"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("monitor module started")
	return nil
}

// Stop logs the final counters.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("monitor module stopped",
		"messages", m.messages.Load(),
		"joins", m.joins.Load(),
		"roomsCreated", m.roomsCreated.Load())
	return nil
}

// Health reports the accumulated counters.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: m.Stats(),
	}
}

// Stats returns a snapshot of all counters.
func (m *Module) Stats() map[string]any {
	return map[string]any{
		"rooms_created": m.roomsCreated.Load(),
		"joins":         m.joins.Load(),
		"leaves":        m.leaves.Load(),
		"messages":      m.messages.Load(),
		"fanout_sends":  m.fanoutSends.Load(),
		"rooms_swept":   m.roomsSwept.Load(),
	}
}

// RegisterEventConsumers subscribes to all relay events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomCreatedV1, m.handleRoomCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomCreated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MemberJoinedV1, m.handleMemberJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register MemberJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MemberLeftV1, m.handleMemberLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register MemberLeft consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageRelayedV1, m.handleMessageRelayed, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageRelayed consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomsSweptV1, m.handleRoomsSwept, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomsSwept consumer: %w", err)
	}

	m.logger.Info("registered relay event consumers")
	return nil
}

func (m *Module) handleRoomCreated(_ context.Context, event events.RoomCreatedEvent, _ *mono.Msg) error {
	m.roomsCreated.Add(1)
	m.logger.Debug("room created", "roomID", event.RoomID, "by", event.CreatedBy)
	return nil
}

func (m *Module) handleMemberJoined(_ context.Context, event events.MemberJoinedEvent, _ *mono.Msg) error {
	m.joins.Add(1)
	m.logger.Debug("member joined", "roomID", event.RoomID, "username", event.Username)
	return nil
}

func (m *Module) handleMemberLeft(_ context.Context, event events.MemberLeftEvent, _ *mono.Msg) error {
	m.leaves.Add(1)
	m.logger.Debug("member left", "roomID", event.RoomID, "username", event.Username)
	return nil
}

func (m *Module) handleMessageRelayed(_ context.Context, event events.MessageRelayedEvent, _ *mono.Msg) error {
	m.messages.Add(1)
	m.fanoutSends.Add(int64(event.Recipients))
	return nil
}

func (m *Module) handleRoomsSwept(_ context.Context, event events.RoomsSweptEvent, _ *mono.Msg) error {
	m.roomsSwept.Add(int64(event.Deleted))
	if event.Deleted > 0 {
		m.logger.Debug("rooms swept", "deleted", event.Deleted, "remaining", event.Remaining)
	}
	return nil
}
