package patient

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/teledermato/intake-service/internal/backend"
	"github.com/teledermato/intake-service/internal/intake"
)

// DefaultDebounce is how long the service waits after the last
// identifier edit before firing a lookup, so typing does not produce a
// request per keystroke.
const DefaultDebounce = 500 * time.Millisecond

const lookupTimeout = 10 * time.Second

var (
	ErrAlreadyMatched = errors.New("patient already matched by lookup; registration not allowed")
	ErrIncomplete     = errors.New("patient record incomplete")
)

// LookupService dedupes patients by national identifier before a new
// record is registered upstream. A lookup fires only once the
// identifier reaches its full length, only after the debounce window,
// and only when the value differs from the last one checked.
type LookupService struct {
	gateway  backend.Gateway
	store    *intake.Store
	debounce time.Duration

	mu          sync.Mutex
	timer       *time.Timer
	lastChecked string
}

// NewLookupService creates a lookup service bound to one intake store.
func NewLookupService(gateway backend.Gateway, store *intake.Store) *LookupService {
	return &LookupService{
		gateway:  gateway,
		store:    store,
		debounce: DefaultDebounce,
	}
}

// IdentifierChanged reschedules the debounced lookup for the edited
// identifier. Incomplete identifiers cancel any pending lookup; a value
// equal to the last one checked never fires again.
func (s *LookupService) IdentifierChanged(identifier, credential string) {
	digits := digitsOnly(identifier)

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(digits) != intake.IdentifierLength || digits == s.lastChecked {
		s.mu.Unlock()
		return
	}
	if s.debounce <= 0 {
		s.mu.Unlock()
		s.lookup(digits, credential)
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.lookup(digits, credential)
	})
	s.mu.Unlock()
}

func (s *LookupService) lookup(digits, credential string) {
	s.mu.Lock()
	if digits == s.lastChecked {
		s.mu.Unlock()
		return
	}
	s.lastChecked = digits
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	record, err := s.gateway.LookupPatientByIdentifier(ctx, digits, credential)
	if errors.Is(err, backend.ErrNotFound) {
		return
	}
	if err != nil {
		log.Printf("Patient lookup for identifier %s failed: %v", maskIdentifier(digits), err)
		return
	}

	// The operator may have kept typing while the lookup was in
	// flight; a stale result must not overwrite the current state.
	if digitsOnly(s.store.Snapshot().Patient.Identifier) != digits {
		return
	}

	s.store.ResolvePatient(intake.PatientMatch{
		ServerID:   record.ServerID,
		Identifier: record.Identifier,
		Name:       record.Name,
		BirthDate:  record.BirthDate,
		Sex:        record.Sex,
		Phone:      record.Phone,
		Email:      record.Email,
	})
	log.Printf("Patient lookup matched identifier %s to upstream record %s", maskIdentifier(digits), record.ServerID)
}

// Register creates a new upstream patient from the current intake
// state. It is mutually exclusive with a successful lookup: a matched
// patient must never be registered a second time.
func (s *LookupService) Register(ctx context.Context, credential string) (*backend.PatientRecord, error) {
	snap := s.store.Snapshot()
	if snap.Patient.Matched {
		return nil, ErrAlreadyMatched
	}

	digits := digitsOnly(snap.Patient.Identifier)
	if len(digits) != intake.IdentifierLength {
		return nil, fmt.Errorf("%w: identifier must have %d digits", ErrIncomplete, intake.IdentifierLength)
	}
	if snap.Patient.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrIncomplete)
	}

	sex := snap.Patient.Sex
	if sex == "other" && snap.Patient.SexOther != "" {
		sex = snap.Patient.SexOther
	}

	record, err := s.gateway.RegisterPatient(ctx, backend.RegisterPatientRequest{
		Identifier: digits,
		Name:       snap.Patient.Name,
		BirthDate:  snap.Patient.BirthDate,
		Sex:        sex,
		Phone:      snap.Patient.Phone,
		Email:      snap.Patient.Email,
		Address:    snap.Patient.Address,
	}, credential)
	if err != nil {
		return nil, fmt.Errorf("failed to register patient: %w", err)
	}

	s.mu.Lock()
	s.lastChecked = digits
	s.mu.Unlock()

	s.store.ResolvePatient(intake.PatientMatch{
		ServerID:   record.ServerID,
		Identifier: digits,
	})
	return record, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// maskIdentifier hides the middle digits of a CPF in logs.
func maskIdentifier(digits string) string {
	if len(digits) < 4 {
		return "***"
	}
	return digits[:3] + "*****" + digits[len(digits)-3:]
}
