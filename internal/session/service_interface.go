package session

import (
	"context"
	"encoding/json"

	"github.com/teledermato/intake-service/internal/auth"
	"github.com/teledermato/intake-service/internal/backend"
	"github.com/teledermato/intake-service/internal/intake"
	"github.com/teledermato/intake-service/internal/pagination"
	"github.com/teledermato/intake-service/internal/submission"
)

// ServiceInterface defines the contract for intake session business logic
type ServiceInterface interface {
	CreateSession(ctx context.Context, principal *auth.Principal) (*SessionResponse, error)
	GetSession(ctx context.Context, id string) (*SessionResponse, error)
	ListSessions(ctx context.Context, params pagination.Params, createdBy, status string) (*PaginatedListResponse, error)
	DeleteSession(ctx context.Context, id string) error

	EditPatient(ctx context.Context, id string, principal *auth.Principal, edit intake.PatientEdit) (intake.State, error)
	RegisterPatient(ctx context.Context, id string, principal *auth.Principal) (*backend.PatientRecord, error)
	UpdateConsent(ctx context.Context, id string, principal *auth.Principal, req ConsentUpdateRequest) (intake.State, error)
	RemoveConsentPhoto(ctx context.Context, id string, principal *auth.Principal) (intake.State, error)
	SaveAnamnesisSection(ctx context.Context, id string, principal *auth.Principal, section string, body json.RawMessage) (intake.State, error)
	AdvanceAnamnesis(ctx context.Context, id string, principal *auth.Principal) (intake.State, error)
	RetreatAnamnesis(ctx context.Context, id string, principal *auth.Principal) (intake.State, error)
	ResetAnamnesis(ctx context.Context, id string, principal *auth.Principal) (intake.State, error)
	AddInjury(ctx context.Context, id string, principal *auth.Principal, req InjuryRequest) (intake.State, error)
	RemoveInjury(ctx context.Context, id string, principal *auth.Principal, index int) (intake.State, error)

	Readiness(ctx context.Context, id string, principal *auth.Principal) (intake.ReadinessResult, error)
	Submit(ctx context.Context, id string, principal *auth.Principal) (*submission.Result, error)
	SubmissionStatus(ctx context.Context, id string) (submission.View, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
