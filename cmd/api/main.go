package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teledermato/intake-service/internal/auth"
	"github.com/teledermato/intake-service/internal/backend"
	"github.com/teledermato/intake-service/internal/db"
	httpserver "github.com/teledermato/intake-service/internal/http"
	"github.com/teledermato/intake-service/internal/messaging"
	"github.com/teledermato/intake-service/internal/session"
	"github.com/teledermato/intake-service/internal/submission"
	"github.com/teledermato/intake-service/internal/telemetry"
)

func main() {
	log.Println("intake-service starting")

	ctx := context.Background()

	// OpenTelemetry (degrades gracefully when the collector is down)
	telemetryProvider, err := telemetry.InitProvider(ctx, telemetry.LoadConfig())
	if err != nil {
		log.Printf("Warning: failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if telemetryProvider != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error shutting down OpenTelemetry: %v", err)
			}
		}
	}()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Printf("Warning: failed to initialize metrics: %v", err)
		metrics = nil
	}

	// PostgreSQL
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// RabbitMQ. The service keeps running without it; publishes become
	// warnings instead of failures.
	publisher, err := messaging.NewPublisher()
	if err != nil {
		log.Printf("Warning: failed to connect to RabbitMQ: %v", err)
		log.Println("Service will continue without event publishing")
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// EHR gateway
	gateway, err := backend.NewClient()
	if err != nil {
		log.Fatalf("Failed to configure EHR gateway client: %v", err)
	}

	// Auth: JWKS cache, token verifier, role permissions
	authConfig := auth.LoadConfig()
	jwks, err := auth.NewJWKS(authConfig.JWKSURL, 0)
	if err != nil {
		log.Fatalf("Failed to load JWKS from %s: %v", authConfig.JWKSURL, err)
	}
	verifier := auth.NewVerifier(authConfig, jwks)

	permissionsPath := os.Getenv("PERMISSIONS_FILE")
	if permissionsPath == "" {
		permissionsPath = "permissions.yml"
	}
	perms, err := auth.LoadPermissions(permissionsPath)
	if err != nil {
		log.Fatalf("Failed to load permissions from %s: %v", permissionsPath, err)
	}
	log.Printf("✓ Loaded permissions for %d roles", len(perms))

	// Session stack
	repository := session.NewRepository(database, publisher)
	registry := session.NewRegistry(gateway)
	orchestrator := submission.NewOrchestrator(gateway, publisher, metrics)
	sessionService := session.NewService(repository, registry, orchestrator, metrics)

	router := httpserver.SetupRouter(sessionService, verifier, perms)
	handler := httpserver.CORSMiddleware(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("✓ intake-service listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down intake-service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	log.Println("intake-service stopped")
}
