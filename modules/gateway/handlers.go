package gateway

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/room-relay/modules/relay"
)

// client is one live websocket with its writes serialized. Reads happen on
// the connection's own goroutine only.
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// send writes one envelope as a text frame. Errors are returned so the
// caller can decide to drop them; a dead peer must not stall fanout.
func (c *client) send(env relay.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(env)
}

// clientTable maps connection identities to live sockets.
type clientTable struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func newClientTable() *clientTable {
	return &clientTable{clients: make(map[string]*client)}
}

func (t *clientTable) add(c *client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clients[c.id] = c
}

func (t *clientTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.clients, id)
}

func (t *clientTable) get(id string) (*client, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.clients[id]
	return c, ok
}

func (t *clientTable) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clients)
}

func (t *clientTable) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.clients {
		_ = c.conn.Close()
	}
	t.clients = make(map[string]*client)
}

// handleWebSocket owns one connection for its whole lifetime: bind an
// identity, pump inbound frames through the engine and deliver whatever
// comes back.
func (m *Module) handleWebSocket(conn *websocket.Conn) {
	id := uuid.New().String()
	c := &client{id: id, conn: conn}

	m.clients.add(c)
	engine := m.relay.Engine()
	engine.HandleConnect(id)

	defer func() {
		m.clients.remove(id)
		engine.HandleDisconnect(id)
		_ = conn.Close()
		m.logger.Info("client disconnected", "connID", id)
	}()

	m.logger.Info("client connected", "connID", id)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Error("read failed", "connID", id, "error", err)
			}
			break
		}

		m.deliver(engine.HandleEnvelope(id, raw))
	}
}

// deliver writes outbound envelopes best-effort. A failed or missing peer
// is skipped; the remaining recipients still get theirs.
func (m *Module) deliver(out []relay.Outbound) {
	for _, o := range out {
		c, ok := m.clients.get(o.To)
		if !ok {
			continue
		}
		if err := c.send(o.Env); err != nil {
			m.logger.Debug("dropped send to dead peer", "connID", o.To, "error", err)
		}
	}
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"details": fiber.Map{
			"module":            "gateway",
			"connected_clients": m.clients.count(),
		},
	})
}

// statsHandler handles GET /api/v1/stats.
func (m *Module) statsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"rooms":       m.relay.Store().RoomCount(),
		"connections": m.relay.Registry().Count(),
		"clients":     m.clients.count(),
	})
}
