package session

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

// Retention windows for the cleanup job. Deleted sessions are purged
// after RetentionPeriod; untouched drafts are considered abandoned
// after StaleDraftAge and purged as well.
const (
	RetentionPeriod = 90 * 24 * time.Hour
	StaleDraftAge   = 30 * 24 * time.Hour
)

// CleanupService permanently deletes expired and abandoned intake sessions
type CleanupService struct {
	db *sql.DB
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(db *sql.DB) *CleanupService {
	return &CleanupService{db: db}
}

// CleanupExpiredSessions hard-deletes soft-deleted sessions past the
// retention window and drafts that have not been touched within the
// stale-draft window.
func (s *CleanupService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	deletedCutoff := time.Now().Add(-RetentionPeriod)
	staleCutoff := time.Now().Add(-StaleDraftAge)
	log.Printf("Starting cleanup of sessions deleted before %s and drafts untouched since %s",
		deletedCutoff.Format(time.RFC3339), staleCutoff.Format(time.RFC3339))

	query := `
		DELETE FROM teledermato.intake_sessions
		WHERE (deleted_at IS NOT NULL AND deleted_at < $1)
		   OR (status = 'draft' AND updated_at < $2)
	`

	result, err := s.db.ExecContext(ctx, query, deletedCutoff, staleCutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		log.Println("No expired sessions found for cleanup")
		return 0, nil
	}

	log.Printf("Successfully cleaned up %d expired sessions", rows)
	return int(rows), nil
}

// GetExpiredSessionsCount returns count of sessions eligible for cleanup
func (s *CleanupService) GetExpiredSessionsCount(ctx context.Context) (int, error) {
	deletedCutoff := time.Now().Add(-RetentionPeriod)
	staleCutoff := time.Now().Add(-StaleDraftAge)

	var count int
	query := `
		SELECT COUNT(*)
		FROM teledermato.intake_sessions
		WHERE (deleted_at IS NOT NULL AND deleted_at < $1)
		   OR (status = 'draft' AND updated_at < $2)
	`

	err := s.db.QueryRowContext(ctx, query, deletedCutoff, staleCutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired sessions: %w", err)
	}

	return count, nil
}
