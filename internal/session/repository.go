package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/teledermato/intake-service/internal/intake"
	"github.com/teledermato/intake-service/internal/messaging"
)

// Repository persists draft intake sessions. The full intake state is
// stored as one JSONB snapshot per session; the bearer credential is
// excluded from serialization and never reaches the database.
type Repository struct {
	db        *sql.DB
	publisher messaging.PublisherInterface
}

func NewRepository(db *sql.DB, publisher messaging.PublisherInterface) *Repository {
	return &Repository{
		db:        db,
		publisher: publisher,
	}
}

func (r *Repository) CreateSession(ctx context.Context, createdBy string, state intake.State) (*SessionResponse, error) {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intake state: %w", err)
	}

	query := `
        INSERT INTO teledermato.intake_sessions
        (id, created_by, status, state, created_at, updated_at)
        VALUES ($1, $2, 'draft', $3, $4, $4)
        RETURNING id, created_by, status, created_at, updated_at
    `

	sessionID := uuid.New()
	createdAt := time.Now().UTC()
	var session SessionResponse

	err = r.db.QueryRowContext(ctx, query,
		sessionID,
		createdBy,
		stateJSON,
		createdAt,
	).Scan(
		&session.ID,
		&session.CreatedBy,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert intake session: %w", err)
	}

	if r.publisher != nil {
		event := messaging.SessionCreatedEvent{
			BaseEvent: messaging.NewBaseEvent(messaging.EventSessionCreated),
			Data: messaging.SessionCreatedData{
				SessionID: session.ID,
				CreatedBy: createdBy,
				CreatedAt: createdAt,
			},
		}
		if err := r.publisher.Publish(ctx, messaging.EventSessionCreated, event); err != nil {
			log.Printf("Warning: failed to publish intake.session.created event: %v", err)
		}
	}

	return &session, nil
}

func (r *Repository) GetSession(ctx context.Context, id string) (*SessionResponse, error) {
	query := `
		SELECT id, created_by, status, created_at, updated_at, last_submitted_at
		FROM teledermato.intake_sessions
		WHERE id = $1 AND deleted_at IS NULL
	`

	var session SessionResponse
	var lastSubmitted sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.CreatedBy,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
		&lastSubmitted,
	)
	if err == sql.ErrNoRows || isInvalidUUID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query intake session: %w", err)
	}

	if lastSubmitted.Valid {
		ts := lastSubmitted.Time
		session.LastSubmittedAt = &ts
	}

	return &session, nil
}

// ListSessions retrieves sessions with pagination support
func (r *Repository) ListSessions(ctx context.Context, limit, offset int, createdBy, status string) ([]SessionResponse, int, error) {
	// Build WHERE clause
	whereClause := "WHERE deleted_at IS NULL"
	args := []interface{}{limit, offset}
	countArgs := []interface{}{}
	argIndex := 3

	if createdBy != "" {
		whereClause += fmt.Sprintf(` AND created_by = $%d`, argIndex)
		args = append(args, createdBy)
		countArgs = append(countArgs, createdBy)
		argIndex++
	}

	if status != "" && status != "all" {
		whereClause += fmt.Sprintf(` AND status = $%d`, argIndex)
		args = append(args, status)
		countArgs = append(countArgs, status)
	}

	var totalCount int
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM teledermato.intake_sessions
		%s
	`, whereClause)

	err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count intake sessions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, created_by, status, created_at, updated_at, last_submitted_at
		FROM teledermato.intake_sessions
		%s
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, whereClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query intake sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionResponse
	for rows.Next() {
		var session SessionResponse
		var lastSubmitted sql.NullTime

		err := rows.Scan(
			&session.ID,
			&session.CreatedBy,
			&session.Status,
			&session.CreatedAt,
			&session.UpdatedAt,
			&lastSubmitted,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan intake session: %w", err)
		}

		if lastSubmitted.Valid {
			ts := lastSubmitted.Time
			session.LastSubmittedAt = &ts
		}

		sessions = append(sessions, session)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating intake sessions: %w", err)
	}

	return sessions, totalCount, nil
}

func (r *Repository) LoadState(ctx context.Context, id string) (intake.State, error) {
	query := `
		SELECT state
		FROM teledermato.intake_sessions
		WHERE id = $1 AND deleted_at IS NULL
	`

	var stateJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&stateJSON)
	if err == sql.ErrNoRows || isInvalidUUID(err) {
		return intake.State{}, ErrNotFound
	}
	if err != nil {
		return intake.State{}, fmt.Errorf("failed to load intake state: %w", err)
	}

	var state intake.State
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return intake.State{}, fmt.Errorf("failed to unmarshal intake state: %w", err)
	}

	return state, nil
}

func (r *Repository) SaveState(ctx context.Context, id string, state intake.State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal intake state: %w", err)
	}

	query := `
		UPDATE teledermato.intake_sessions
		SET state = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, stateJSON, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to save intake state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkSubmitted records a successful submission as a single column
// write. The draft stays editable afterwards; only the status and the
// timestamp change.
func (r *Repository) MarkSubmitted(ctx context.Context, id string, submittedAt time.Time) error {
	query := `
		UPDATE teledermato.intake_sessions
		SET status = 'submitted', last_submitted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, submittedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark session submitted: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	session, err := r.GetSession(ctx, id)
	if err != nil {
		return err
	}

	// Soft delete: the snapshot is retained until the cleanup job purges it
	query := `
		UPDATE teledermato.intake_sessions
		SET deleted_at = $1,
		    status = 'deleted',
		    updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	deletedAt := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, deletedAt, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete intake session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if r.publisher != nil {
		event := messaging.SessionDeletedEvent{
			BaseEvent: messaging.NewBaseEvent(messaging.EventSessionDeleted),
			Data: messaging.SessionDeletedData{
				SessionID: session.ID,
				DeletedAt: deletedAt,
			},
		}
		if err := r.publisher.Publish(ctx, messaging.EventSessionDeleted, event); err != nil {
			log.Printf("Warning: failed to publish intake.session.deleted event: %v", err)
		}
	}

	return nil
}

// isInvalidUUID reports whether the error is Postgres rejecting a
// malformed uuid literal, which callers treat the same as not found.
func isInvalidUUID(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "22P02" // invalid_text_representation
	}
	return false
}
