package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/room-relay/modules/relay"
)

// Module is the transport layer: it accepts websocket connections, frames
// text payloads and hands every inbound envelope to the relay engine. The
// core never sees a socket.
type Module struct {
	app     *fiber.App
	relay   *relay.Module
	clients *clientTable
	port    string
	logger  *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the gateway module. The listen port comes from PORT.
func NewModule(relayModule *relay.Module) *Module {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return &Module{
		relay:   relayModule,
		clients: newClientTable(),
		port:    port,
		logger:  slog.Default(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "gateway"
}

// Start initializes and starts the Fiber server.
func (m *Module) Start(_ context.Context) error {
	m.app = fiber.New(fiber.Config{
		AppName:               "room-relay",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		ReadTimeout:           30 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	m.app.Use(recover.New())

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	m.registerRoutes()

	// start in a goroutine, catching immediate bind failures
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("gateway started", "port", m.port)
	return nil
}

// Stop closes every live connection and shuts the server down.
func (m *Module) Stop(ctx context.Context) error {
	m.clients.closeAll()
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown gateway: %w", err)
		}
	}
	m.logger.Info("gateway stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":              m.port,
			"connected_clients": m.clients.count(),
		},
	}
}

func (m *Module) registerRoutes() {
	m.app.Get("/health", m.healthHandler)

	api := m.app.Group("/api/v1")
	api.Get("/stats", m.statsHandler)

	m.app.Use("/", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/", websocket.New(m.handleWebSocket))
}

func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
