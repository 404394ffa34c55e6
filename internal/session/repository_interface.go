package session

import (
	"context"
	"time"

	"github.com/teledermato/intake-service/internal/intake"
)

// RepositoryInterface defines the contract for intake session data access
type RepositoryInterface interface {
	CreateSession(ctx context.Context, createdBy string, state intake.State) (*SessionResponse, error)
	GetSession(ctx context.Context, id string) (*SessionResponse, error)
	ListSessions(ctx context.Context, limit, offset int, createdBy, status string) ([]SessionResponse, int, error)
	LoadState(ctx context.Context, id string) (intake.State, error)
	SaveState(ctx context.Context, id string, state intake.State) error
	MarkSubmitted(ctx context.Context, id string, submittedAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
