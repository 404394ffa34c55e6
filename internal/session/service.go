package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/teledermato/intake-service/internal/anamnesis"
	"github.com/teledermato/intake-service/internal/auth"
	"github.com/teledermato/intake-service/internal/backend"
	"github.com/teledermato/intake-service/internal/intake"
	"github.com/teledermato/intake-service/internal/pagination"
	"github.com/teledermato/intake-service/internal/submission"
	"github.com/teledermato/intake-service/internal/telemetry"
)

// Anamnesis section identifiers used in the section URL segment
const (
	SectionGeneralHealth       = "general-health"
	SectionPhototype           = "phototype"
	SectionCancerHistory       = "cancer-history"
	SectionRiskFactors         = "risk-factors"
	SectionLesionInvestigation = "lesion-investigation"
)

// Service ties the persisted sessions to their live runtimes. Every
// mutating call signs the requesting principal into the session store
// first, so the state always carries the credential of the operator who
// touched it last, and persists the resulting snapshot.
type Service struct {
	repo         RepositoryInterface
	registry     *Registry
	orchestrator *submission.Orchestrator
	metrics      *telemetry.Metrics
}

// NewService creates a session service. metrics may be nil.
func NewService(repo RepositoryInterface, registry *Registry, orchestrator *submission.Orchestrator, metrics *telemetry.Metrics) *Service {
	return &Service{
		repo:         repo,
		registry:     registry,
		orchestrator: orchestrator,
		metrics:      metrics,
	}
}

func (s *Service) CreateSession(ctx context.Context, principal *auth.Principal) (*SessionResponse, error) {
	state := intake.NewState()

	session, err := s.repo.CreateSession(ctx, principal.UserID, state)
	if err != nil {
		return nil, fmt.Errorf("failed to create intake session: %w", err)
	}

	rt := s.registry.Create(session.ID, state)
	rt.Store.SignIn(principal.UserID, principal.RawToken)
	s.metrics.RecordSessionOperation(ctx, "created")

	return session, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*SessionResponse, error) {
	return s.repo.GetSession(ctx, id)
}

// ListSessions retrieves sessions with pagination
func (s *Service) ListSessions(ctx context.Context, params pagination.Params, createdBy, status string) (*PaginatedListResponse, error) {
	params.Validate()

	sessions, totalCount, err := s.repo.ListSessions(ctx, params.Limit, params.CalculateOffset(), createdBy, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list intake sessions: %w", err)
	}

	return &PaginatedListResponse{
		Success:    true,
		Sessions:   sessions,
		Pagination: params.CalculateMeta(totalCount),
	}, nil
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.registry.Remove(id)
	s.metrics.RecordSessionOperation(ctx, "deleted")
	return nil
}

// runtime returns the live runtime for a session, rehydrating it from
// the persisted snapshot on first touch after a restart.
func (s *Service) runtime(ctx context.Context, id string) (*Runtime, error) {
	if rt, ok := s.registry.Get(id); ok {
		return rt, nil
	}

	state, err := s.repo.LoadState(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.registry.Create(id, state), nil
}

// mutate runs one store mutation and persists the resulting snapshot.
func (s *Service) mutate(ctx context.Context, id string, principal *auth.Principal, apply func(rt *Runtime) error) (intake.State, error) {
	rt, err := s.runtime(ctx, id)
	if err != nil {
		return intake.State{}, err
	}

	rt.Store.SignIn(principal.UserID, principal.RawToken)
	if err := apply(rt); err != nil {
		return intake.State{}, err
	}

	snap := rt.Store.Snapshot()
	if err := s.repo.SaveState(ctx, id, snap); err != nil {
		return intake.State{}, fmt.Errorf("failed to persist intake state: %w", err)
	}
	return snap, nil
}

// EditPatient applies a partial identification edit. When the
// identifier changed, the debounced upstream lookup is rescheduled.
func (s *Service) EditPatient(ctx context.Context, id string, principal *auth.Principal, edit intake.PatientEdit) (intake.State, error) {
	return s.mutate(ctx, id, principal, func(rt *Runtime) error {
		rt.Store.EditPatient(edit)
		if edit.Identifier != nil {
			rt.Lookup.IdentifierChanged(*edit.Identifier, principal.RawToken)
		}
		return nil
	})
}

// RegisterPatient registers the current identification data upstream.
func (s *Service) RegisterPatient(ctx context.Context, id string, principal *auth.Principal) (*backend.PatientRecord, error) {
	rt, err := s.runtime(ctx, id)
	if err != nil {
		return nil, err
	}

	rt.Store.SignIn(principal.UserID, principal.RawToken)
	record, err := rt.Lookup.Register(ctx, principal.RawToken)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveState(ctx, id, rt.Store.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to persist intake state: %w", err)
	}
	return record, nil
}

func (s *Service) UpdateConsent(ctx context.Context, id string, principal *auth.Principal, req ConsentUpdateRequest) (intake.State, error) {
	return s.mutate(ctx, id, principal, func(rt *Runtime) error {
		if req.SignaturePhoto != nil && *req.SignaturePhoto != "" {
			rt.Store.AttachSignaturePhoto(*req.SignaturePhoto)
		}
		if req.Agreed != nil {
			if err := rt.Store.SetConsentAgreement(*req.Agreed); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) RemoveConsentPhoto(ctx context.Context, id string, principal *auth.Principal) (intake.State, error) {
	return s.mutate(ctx, id, principal, func(rt *Runtime) error {
		rt.Store.RemoveSignaturePhoto()
		return nil
	})
}

// SaveAnamnesisSection decodes and stores one wizard section by its URL
// segment name.
func (s *Service) SaveAnamnesisSection(ctx context.Context, id string, principal *auth.Principal, section string, body json.RawMessage) (intake.State, error) {
	return s.mutate(ctx, id, principal, func(rt *Runtime) error {
		switch section {
		case SectionGeneralHealth:
			var sec anamnesis.GeneralHealth
			if err := json.Unmarshal(body, &sec); err != nil {
				return fmt.Errorf("invalid section payload: %w", err)
			}
			rt.Store.SaveGeneralHealth(sec)
		case SectionPhototype:
			var sec anamnesis.PhototypeAssessment
			if err := json.Unmarshal(body, &sec); err != nil {
				return fmt.Errorf("invalid section payload: %w", err)
			}
			rt.Store.SavePhototype(sec)
		case SectionCancerHistory:
			var sec anamnesis.CancerHistory
			if err := json.Unmarshal(body, &sec); err != nil {
				return fmt.Errorf("invalid section payload: %w", err)
			}
			rt.Store.SaveCancerHistory(sec)
		case SectionRiskFactors:
			var sec anamnesis.RiskFactors
			if err := json.Unmarshal(body, &sec); err != nil {
				return fmt.Errorf("invalid section payload: %w", err)
			}
			rt.Store.SaveRiskFactors(sec)
		case SectionLesionInvestigation:
			var sec anamnesis.LesionInvestigation
			if err := json.Unmarshal(body, &sec); err != nil {
				return fmt.Errorf("invalid section payload: %w", err)
			}
			rt.Store.SaveLesionInvestigation(sec)
		default:
			return ErrUnknownSection
		}
		return nil
	})
}

func (s *Service) AdvanceAnamnesis(ctx context.Context, id string, principal *auth.Principal) (intake.State, error) {
	return s.mutate(ctx, id, principal, func(rt *Runtime) error {
		rt.Store.AdvanceAnamnesis()
		return nil
	})
}

func (s *Service) RetreatAnamnesis(ctx context.Context, id string, principal *auth.Principal) (intake.State, error) {
	return s.mutate(ctx, id, principal, func(rt *Runtime) error {
		rt.Store.RetreatAnamnesis()
		return nil
	})
}

func (s *Service) ResetAnamnesis(ctx context.Context, id string, principal *auth.Principal) (intake.State, error) {
	return s.mutate(ctx, id, principal, func(rt *Runtime) error {
		rt.Store.ResetAnamnesis()
		return nil
	})
}

func (s *Service) AddInjury(ctx context.Context, id string, principal *auth.Principal, req InjuryRequest) (intake.State, error) {
	return s.mutate(ctx, id, principal, func(rt *Runtime) error {
		rt.Store.AddInjury(intake.InjuryRecord{
			Location:    req.Location,
			Description: req.Description,
			Photos:      req.Photos,
		})
		return nil
	})
}

func (s *Service) RemoveInjury(ctx context.Context, id string, principal *auth.Principal, index int) (intake.State, error) {
	return s.mutate(ctx, id, principal, func(rt *Runtime) error {
		return rt.Store.RemoveInjury(index)
	})
}

// Readiness returns the latest observed readiness for a session. The
// principal is signed in first so a freshly rehydrated session does not
// report a stale missing-user block.
func (s *Service) Readiness(ctx context.Context, id string, principal *auth.Principal) (intake.ReadinessResult, error) {
	rt, err := s.runtime(ctx, id)
	if err != nil {
		return intake.ReadinessResult{}, err
	}
	rt.Store.SignIn(principal.UserID, principal.RawToken)
	return rt.Readiness.Latest(), nil
}

// Submit snapshots the session and runs the submission saga. On success
// the submission timestamp is recorded on the persisted row.
func (s *Service) Submit(ctx context.Context, id string, principal *auth.Principal) (*submission.Result, error) {
	rt, err := s.runtime(ctx, id)
	if err != nil {
		return nil, err
	}

	rt.Store.SignIn(principal.UserID, principal.RawToken)
	snap := rt.Store.Snapshot()

	result, err := s.orchestrator.Submit(ctx, id, rt.Submission, snap)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkSubmitted(ctx, id, time.Now().UTC()); err != nil {
		log.Printf("Warning: failed to record submission timestamp for session %s: %v", id, err)
	}
	return result, nil
}

// SubmissionStatus returns the state of the session's submission attempt.
func (s *Service) SubmissionStatus(ctx context.Context, id string) (submission.View, error) {
	rt, err := s.runtime(ctx, id)
	if err != nil {
		return submission.View{}, err
	}
	return rt.Submission.View(), nil
}
