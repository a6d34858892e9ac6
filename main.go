package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/room-relay/modules/gateway"
	"github.com/example/room-relay/modules/monitor"
	"github.com/example/room-relay/modules/relay"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== room-relay - real-time room-based message relay ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	relayModule := relay.NewModule()
	monitorModule := monitor.NewModule()
	gatewayModule := gateway.NewModule(relayModule)

	// Order: core first, then consumers, then the driving adapter
	app.Register(relayModule)   // registry + room store + engine + sweep
	app.Register(monitorModule) // event consumer for activity counters
	app.Register(gatewayModule) // fiber websocket transport

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("WebSocket endpoint: ws://localhost:%s/", port)
	log.Println(`  Join public:    {"roomType":"public","type":"join","payload":{"username":"alice"}}`)
	log.Println(`  Create private: {"roomType":"private","type":"join","gencode":true,"payload":{"username":"alice"}}`)
	log.Println(`  Join private:   {"roomType":"private","type":"join","gencode":false,"payload":{"roomId":"A1B2C3","username":"bob"}}`)
	log.Println(`  Chat:           {"roomType":"private","type":"chat","payload":{"roomId":"A1B2C3","message":"hi"}}`)
	log.Println("")
	log.Printf("REST endpoints (http://localhost:%s):", port)
	log.Println("  GET /health        - Health check")
	log.Println("  GET /api/v1/stats  - Room / connection counters")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
