package e2e

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/teledermato/intake-service/internal/anamnesis"
	"github.com/teledermato/intake-service/internal/auth"
	"github.com/teledermato/intake-service/internal/backend"
	httpserver "github.com/teledermato/intake-service/internal/http"
	"github.com/teledermato/intake-service/internal/intake"
	"github.com/teledermato/intake-service/internal/session"
	"github.com/teledermato/intake-service/internal/submission"
	"github.com/teledermato/intake-service/internal/testutil"
)

// TestServer represents a complete E2E test environment. The full HTTP
// stack runs in-process: real router, real middleware, real session
// service. Only the database and the EHR gateway are replaced by
// in-memory fakes, so the suite needs no external services.
type TestServer struct {
	Server        *httptest.Server
	Gateway       *StubGateway
	MockPublisher *testutil.MockPublisher
	Verifier      *auth.Verifier
	PrivateKey    *rsa.PrivateKey
}

// SetupE2ETest creates a complete test environment for E2E testing
func SetupE2ETest(t *testing.T) *TestServer {
	t.Helper()

	// Load permissions from file
	perms, err := auth.LoadPermissions("../../permissions.yml")
	if err != nil {
		t.Fatalf("Failed to load permissions: %v", err)
	}

	// Create test verifier and get private key for signing tokens
	verifier, privateKey := testutil.CreateTestVerifier(t)

	// In-memory collaborators
	gateway := NewStubGateway()
	mockPublisher := testutil.NewMockPublisher()
	repo := newMemoryRepository()

	registry := session.NewRegistry(gateway)
	orchestrator := submission.NewOrchestrator(gateway, mockPublisher, nil)
	sessionService := session.NewService(repo, registry, orchestrator, nil)

	router := httpserver.SetupRouter(sessionService, verifier, perms)
	server := httptest.NewServer(router)

	return &TestServer{
		Server:        server,
		Gateway:       gateway,
		MockPublisher: mockPublisher,
		Verifier:      verifier,
		PrivateKey:    privateKey,
	}
}

// Cleanup cleans up all test resources
func (ts *TestServer) Cleanup(t *testing.T) {
	t.Helper()
	ts.Server.Close()
}

// GenerateNurseToken generates a NURSE token for this test server
func (ts *TestServer) GenerateNurseToken(t *testing.T) string {
	t.Helper()
	return testutil.GenerateNurseToken(t, ts.PrivateKey)
}

// GeneratePhysicianToken generates a PHYSICIAN token for this test server
func (ts *TestServer) GeneratePhysicianToken(t *testing.T) string {
	t.Helper()
	return testutil.GeneratePhysicianToken(t, ts.PrivateKey)
}

// GenerateCommunityAgentToken generates a COMMUNITY_AGENT token for this test server
func (ts *TestServer) GenerateCommunityAgentToken(t *testing.T) string {
	t.Helper()
	return testutil.GenerateCommunityAgentToken(t, ts.PrivateKey)
}

// NewClient creates a new HTTP test client for this server with the given token
func (ts *TestServer) NewClient(token string) *testutil.HTTPTestClient {
	return testutil.NewHTTPTestClient(ts.Server.URL, token)
}

// memoryRepository is an in-memory session store standing in for PostgreSQL
type memoryRepository struct {
	mu       sync.Mutex
	sessions map[string]*session.SessionResponse
	states   map[string]intake.State
}

var _ session.RepositoryInterface = (*memoryRepository)(nil)

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		sessions: make(map[string]*session.SessionResponse),
		states:   make(map[string]intake.State),
	}
}

func (m *memoryRepository) CreateSession(ctx context.Context, createdBy string, state intake.State) (*session.SessionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	s := &session.SessionResponse{
		ID:        uuid.New().String(),
		CreatedBy: createdBy,
		Status:    session.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[s.ID] = s
	m.states[s.ID] = state.Clone()
	copied := *s
	return &copied, nil
}

func (m *memoryRepository) GetSession(ctx context.Context, id string) (*session.SessionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memoryRepository) ListSessions(ctx context.Context, limit, offset int, createdBy, status string) ([]session.SessionResponse, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []session.SessionResponse
	for _, s := range m.sessions {
		if createdBy != "" && s.CreatedBy != createdBy {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		all = append(all, *s)
	}

	total := len(all)
	if offset >= total {
		return []session.SessionResponse{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memoryRepository) LoadState(ctx context.Context, id string) (intake.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[id]
	if !ok {
		return intake.State{}, session.ErrNotFound
	}
	return state.Clone(), nil
}

func (m *memoryRepository) SaveState(ctx context.Context, id string, state intake.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	m.states[id] = state.Clone()
	return nil
}

func (m *memoryRepository) MarkSubmitted(ctx context.Context, id string, submittedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	s.Status = session.StatusSubmitted
	ts := submittedAt
	s.LastSubmittedAt = &ts
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memoryRepository) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return session.ErrNotFound
	}
	delete(m.sessions, id)
	delete(m.states, id)
	return nil
}

// StubGateway is an in-memory EHR gateway. Patients seeded via
// SeedPatient are found by lookup; everything else is accepted and
// recorded so tests can assert what reached the upstream.
type StubGateway struct {
	mu          sync.Mutex
	patients    map[string]backend.PatientRecord
	nextID      int
	Attendances []string
	Consents    []string
	Anamneses   []string
	Lesions     []backend.LesionRequest
}

var _ backend.Gateway = (*StubGateway)(nil)

func NewStubGateway() *StubGateway {
	return &StubGateway{patients: make(map[string]backend.PatientRecord)}
}

// SeedPatient makes an upstream patient visible to identifier lookups
func (g *StubGateway) SeedPatient(record backend.PatientRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.patients[record.Identifier] = record
}

func (g *StubGateway) RegisterAttendance(ctx context.Context, patientServerID, credential string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := fmt.Sprintf("att-%d", g.nextID)
	g.Attendances = append(g.Attendances, id)
	return id, nil
}

func (g *StubGateway) UploadConsent(ctx context.Context, attendanceID, signaturePhoto, credential string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Consents = append(g.Consents, attendanceID)
	return nil
}

func (g *StubGateway) SubmitAnamnesis(ctx context.Context, attendanceID string, payload anamnesis.Payload, credential string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Anamneses = append(g.Anamneses, attendanceID)
	return nil
}

func (g *StubGateway) RegisterLesion(ctx context.Context, attendanceID string, lesion backend.LesionRequest, credential string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.Lesions = append(g.Lesions, lesion)
	return fmt.Sprintf("les-%d", g.nextID), nil
}

func (g *StubGateway) LookupPatientByIdentifier(ctx context.Context, identifier, credential string) (*backend.PatientRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	record, ok := g.patients[identifier]
	if !ok {
		return nil, backend.ErrNotFound
	}
	copied := record
	return &copied, nil
}

func (g *StubGateway) RegisterPatient(ctx context.Context, req backend.RegisterPatientRequest, credential string) (*backend.PatientRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	record := backend.PatientRecord{
		ServerID:   fmt.Sprintf("srv-%d", g.nextID),
		Identifier: req.Identifier,
		Name:       req.Name,
		BirthDate:  req.BirthDate,
		Sex:        req.Sex,
		Phone:      req.Phone,
		Email:      req.Email,
	}
	g.patients[record.Identifier] = record
	return &record, nil
}
