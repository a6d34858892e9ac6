package relay

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-monolith/mono"

	"github.com/example/room-relay/events"
)

// Default sweep timing. Both can be overridden through the environment.
const (
	defaultSweepInterval = 10 * time.Minute
	defaultIdleTimeout   = 30 * time.Minute
)

// Module is the relay core: connection registry, room store and envelope
// engine, plus the periodic idle-room sweep.
type Module struct {
	registry *Registry
	store    *Store
	engine   *Engine
	eventBus mono.EventBus
	logger   *slog.Logger

	sweepInterval time.Duration
	idleTimeout   time.Duration
	cancelSweep   context.CancelFunc
	sweepDone     chan struct{}
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Emitter                    = (*Module)(nil)
)

// NewModule creates the relay module. Sweep timing comes from the
// SWEEP_INTERVAL and ROOM_IDLE_TIMEOUT environment variables.
func NewModule() *Module {
	m := &Module{
		registry:      NewRegistry(),
		store:         NewStore(),
		logger:        slog.Default(),
		sweepInterval: durationEnv("SWEEP_INTERVAL", defaultSweepInterval),
		idleTimeout:   durationEnv("ROOM_IDLE_TIMEOUT", defaultIdleTimeout),
		sweepDone:     make(chan struct{}),
	}
	m.engine = NewEngine(m.registry, m.store, m, m.logger)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.MemberJoinedV1.ToBase(),
		events.MemberLeftV1.ToBase(),
		events.MessageRelayedV1.ToBase(),
		events.RoomsSweptV1.ToBase(),
	}
}

// Start launches the periodic idle-room sweep.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelSweep = cancel
	go m.runSweep(ctx)
	m.logger.Info("relay module started",
		"sweepInterval", m.sweepInterval,
		"idleTimeout", m.idleTimeout)
	return nil
}

// Stop drains the sweep ticker and discards all room state.
func (m *Module) Stop(_ context.Context) error {
	if m.cancelSweep != nil {
		m.cancelSweep()
		<-m.sweepDone
	}
	m.logger.Info("relay module stopped",
		"rooms", m.store.RoomCount(),
		"connections", m.registry.Count())
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"rooms":       m.store.RoomCount(),
			"connections": m.registry.Count(),
		},
	}
}

// Engine returns the envelope engine for the transport layer to drive.
func (m *Module) Engine() *Engine {
	return m.engine
}

// Store returns the room store.
func (m *Module) Store() *Store {
	return m.store
}

// Registry returns the connection registry.
func (m *Module) Registry() *Registry {
	return m.registry
}

func (m *Module) runSweep(ctx context.Context) {
	defer close(m.sweepDone)

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, remaining := m.store.Sweep(time.Now(), m.idleTimeout)
			if deleted > 0 {
				m.logger.Info("swept idle rooms", "deleted", deleted, "remaining", remaining)
			}
			m.publish(func() error {
				return events.RoomsSweptV1.Publish(m.eventBus, events.RoomsSweptEvent{
					Deleted:   deleted,
					Remaining: remaining,
					Timestamp: time.Now(),
				}, nil)
			})
		}
	}
}

// Emitter implementation: engine transitions become domain events.

// RoomCreated publishes a RoomCreated event.
func (m *Module) RoomCreated(roomID, connID, username string) {
	m.publish(func() error {
		return events.RoomCreatedV1.Publish(m.eventBus, events.RoomCreatedEvent{
			RoomID:    roomID,
			RoomKind:  "private",
			CreatedBy: username,
			Timestamp: time.Now(),
		}, nil)
	})
}

// MemberJoined publishes a MemberJoined event.
func (m *Module) MemberJoined(roomID, connID, username string) {
	m.publish(func() error {
		return events.MemberJoinedV1.Publish(m.eventBus, events.MemberJoinedEvent{
			RoomID:    roomID,
			ConnID:    connID,
			Username:  username,
			Timestamp: time.Now(),
		}, nil)
	})
}

// MemberLeft publishes a MemberLeft event.
func (m *Module) MemberLeft(roomID, connID, username string) {
	m.publish(func() error {
		return events.MemberLeftV1.Publish(m.eventBus, events.MemberLeftEvent{
			RoomID:    roomID,
			ConnID:    connID,
			Username:  username,
			Timestamp: time.Now(),
		}, nil)
	})
}

// MessageRelayed publishes a MessageRelayed event.
func (m *Module) MessageRelayed(roomID, sender string, recipients int) {
	m.publish(func() error {
		return events.MessageRelayedV1.Publish(m.eventBus, events.MessageRelayedEvent{
			RoomID:     roomID,
			Sender:     sender,
			Recipients: recipients,
			Timestamp:  time.Now(),
		}, nil)
	})
}

func (m *Module) publish(fn func() error) {
	if m.eventBus == nil {
		return
	}
	if err := fn(); err != nil {
		m.logger.Warn("failed to publish event", "error", err)
	}
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
