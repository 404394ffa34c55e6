package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/teledermato/intake-service/internal/db"
	"github.com/teledermato/intake-service/internal/session"
)

func main() {
	log.Println("Intake Session Cleanup Job - Starting")
	log.Printf("Retention Policy: deleted sessions kept %v, stale drafts kept %v", session.RetentionPeriod, session.StaleDraftAge)

	// Connect to database
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Create cleanup service
	cleanupService := session.NewCleanupService(database)

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Check how many sessions are eligible for cleanup
	count, err := cleanupService.GetExpiredSessionsCount(ctx)
	if err != nil {
		log.Fatalf("Failed to get expired sessions count: %v", err)
	}

	log.Printf("Found %d sessions eligible for permanent deletion", count)

	if count == 0 {
		log.Println("No cleanup needed. Exiting.")
		os.Exit(0)
	}

	// Perform cleanup
	deletedCount, err := cleanupService.CleanupExpiredSessions(ctx)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}

	log.Printf("✓ Cleanup completed successfully: %d sessions permanently deleted", deletedCount)
	log.Println("Cleanup Job - Finished")
}
