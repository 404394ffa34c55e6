package patient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/teledermato/intake-service/internal/anamnesis"
	"github.com/teledermato/intake-service/internal/backend"
	"github.com/teledermato/intake-service/internal/intake"
)

// mockGateway implements the lookup/registration side of the gateway
type mockGateway struct {
	mu sync.Mutex

	lookupCalls   []string
	registerCalls int

	lookupFunc   func(identifier string) (*backend.PatientRecord, error)
	registerFunc func(req backend.RegisterPatientRequest) (*backend.PatientRecord, error)
}

func (m *mockGateway) LookupPatientByIdentifier(ctx context.Context, identifier, credential string) (*backend.PatientRecord, error) {
	m.mu.Lock()
	m.lookupCalls = append(m.lookupCalls, identifier)
	m.mu.Unlock()
	if m.lookupFunc != nil {
		return m.lookupFunc(identifier)
	}
	return nil, backend.ErrNotFound
}

func (m *mockGateway) RegisterPatient(ctx context.Context, req backend.RegisterPatientRequest, credential string) (*backend.PatientRecord, error) {
	m.mu.Lock()
	m.registerCalls++
	m.mu.Unlock()
	if m.registerFunc != nil {
		return m.registerFunc(req)
	}
	return &backend.PatientRecord{ServerID: "srv-new", Identifier: req.Identifier}, nil
}

func (m *mockGateway) RegisterAttendance(ctx context.Context, patientServerID, credential string) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockGateway) UploadConsent(ctx context.Context, attendanceID, signaturePhoto, credential string) error {
	return errors.New("not implemented")
}

func (m *mockGateway) SubmitAnamnesis(ctx context.Context, attendanceID string, payload anamnesis.Payload, credential string) error {
	return errors.New("not implemented")
}

func (m *mockGateway) RegisterLesion(ctx context.Context, attendanceID string, lesion backend.LesionRequest, credential string) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockGateway) lookupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lookupCalls)
}

func newTestService(gateway *mockGateway) (*LookupService, *intake.Store) {
	store := intake.NewStore()
	svc := NewLookupService(gateway, store)
	svc.debounce = 0 // fire synchronously in tests
	return svc, store
}

func strptr(s string) *string { return &s }

// TestIdentifierChanged_MatchPopulatesState tests a lookup hit
func TestIdentifierChanged_MatchPopulatesState(t *testing.T) {
	gateway := &mockGateway{
		lookupFunc: func(identifier string) (*backend.PatientRecord, error) {
			return &backend.PatientRecord{
				ServerID:   "srv-42",
				Identifier: identifier,
				Name:       "Maria da Silva",
				BirthDate:  "1975-03-12",
				Sex:        "female",
			}, nil
		},
	}
	svc, store := newTestService(gateway)
	store.EditPatient(intake.PatientEdit{Identifier: strptr("12345678901")})

	svc.IdentifierChanged("12345678901", "tok")

	snap := store.Snapshot()
	if !snap.Patient.Matched || snap.Patient.ServerID != "srv-42" {
		t.Fatalf("Expected matched patient, got %+v", snap.Patient)
	}
	if snap.Patient.Name != "Maria da Silva" {
		t.Errorf("Expected auto-populated name, got %q", snap.Patient.Name)
	}
}

// TestIdentifierChanged_IncompleteIdentifierDoesNotFire tests the length gate
func TestIdentifierChanged_IncompleteIdentifierDoesNotFire(t *testing.T) {
	gateway := &mockGateway{}
	svc, _ := newTestService(gateway)

	svc.IdentifierChanged("12345", "tok")
	svc.IdentifierChanged("1234567890", "tok")

	if n := gateway.lookupCount(); n != 0 {
		t.Errorf("Expected no lookups for incomplete identifiers, got %d", n)
	}
}

// TestIdentifierChanged_SameValueFiresOnce tests dedupe against the last checked value
func TestIdentifierChanged_SameValueFiresOnce(t *testing.T) {
	gateway := &mockGateway{}
	svc, _ := newTestService(gateway)

	svc.IdentifierChanged("12345678901", "tok")
	svc.IdentifierChanged("12345678901", "tok")
	svc.IdentifierChanged("123.456.789-01", "tok") // same digits, formatted

	if n := gateway.lookupCount(); n != 1 {
		t.Errorf("Expected exactly one lookup, got %d", n)
	}
}

// TestIdentifierChanged_DebounceCoalesces tests that rapid edits produce one lookup
func TestIdentifierChanged_DebounceCoalesces(t *testing.T) {
	gateway := &mockGateway{}
	svc, _ := newTestService(gateway)
	svc.debounce = 20 * time.Millisecond

	svc.IdentifierChanged("11111111111", "tok")
	svc.IdentifierChanged("22222222222", "tok")
	svc.IdentifierChanged("12345678901", "tok")

	time.Sleep(100 * time.Millisecond)

	gateway.mu.Lock()
	calls := append([]string(nil), gateway.lookupCalls...)
	gateway.mu.Unlock()

	if len(calls) != 1 {
		t.Fatalf("Expected the debounce to coalesce edits into one lookup, got %v", calls)
	}
	if calls[0] != "12345678901" {
		t.Errorf("Expected lookup for the last value, got %s", calls[0])
	}
}

// TestIdentifierChanged_StaleResultDiscarded tests a result arriving after further edits
func TestIdentifierChanged_StaleResultDiscarded(t *testing.T) {
	gateway := &mockGateway{}
	svc, store := newTestService(gateway)
	gateway.lookupFunc = func(identifier string) (*backend.PatientRecord, error) {
		// Simulate the operator editing while the request is in flight.
		store.EditPatient(intake.PatientEdit{Identifier: strptr("99999999901")})
		return &backend.PatientRecord{ServerID: "srv-42", Identifier: identifier}, nil
	}

	store.EditPatient(intake.PatientEdit{Identifier: strptr("12345678901")})
	svc.IdentifierChanged("12345678901", "tok")

	if snap := store.Snapshot(); snap.Patient.Matched {
		t.Errorf("Expected stale lookup result to be discarded, got %+v", snap.Patient)
	}
}

// TestRegister_MutuallyExclusiveWithMatch tests that a matched patient is never registered
func TestRegister_MutuallyExclusiveWithMatch(t *testing.T) {
	gateway := &mockGateway{}
	svc, store := newTestService(gateway)

	store.ResolvePatient(intake.PatientMatch{ServerID: "srv-42", Identifier: "12345678901"})

	_, err := svc.Register(context.Background(), "tok")
	if !errors.Is(err, ErrAlreadyMatched) {
		t.Fatalf("Expected ErrAlreadyMatched, got: %v", err)
	}

	gateway.mu.Lock()
	registered := gateway.registerCalls
	gateway.mu.Unlock()
	if registered != 0 {
		t.Errorf("Expected no registration calls, got %d", registered)
	}
}

// TestRegister_Success tests registration of an unmatched patient
func TestRegister_Success(t *testing.T) {
	gateway := &mockGateway{}
	svc, store := newTestService(gateway)

	store.EditPatient(intake.PatientEdit{
		Identifier: strptr("12345678901"),
		Name:       strptr("João Pereira"),
		BirthDate:  strptr("1980-07-01"),
		Sex:        strptr("male"),
	})

	record, err := svc.Register(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if record.ServerID != "srv-new" {
		t.Errorf("Expected server id 'srv-new', got %q", record.ServerID)
	}

	snap := store.Snapshot()
	if snap.Patient.ServerID != "srv-new" || !snap.Patient.Matched {
		t.Errorf("Expected resolved patient state, got %+v", snap.Patient)
	}
}

// TestRegister_IncompleteRecord tests validation before the upstream call
func TestRegister_IncompleteRecord(t *testing.T) {
	gateway := &mockGateway{}
	svc, store := newTestService(gateway)

	store.EditPatient(intake.PatientEdit{Identifier: strptr("12345678901")})

	if _, err := svc.Register(context.Background(), "tok"); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Expected ErrIncomplete for missing name, got: %v", err)
	}
}
