package intake

import (
	"errors"
	"sync"
	"time"

	"github.com/teledermato/intake-service/internal/anamnesis"
)

var (
	ErrNoSignaturePhoto = errors.New("consent cannot be agreed without a signature photo")
	ErrInjuryIndex      = errors.New("injury index out of range")
)

type subscription struct {
	kinds  map[MutationKind]struct{}
	notify func(kind MutationKind, state State)
}

// Store holds the mutable intake state of one session and dispatches
// typed mutations to it. Every mutation notifies matching subscribers
// synchronously before the mutation call returns, so a reader checking
// derived state right after a mutation always sees a value consistent
// with it.
//
// Subscribers run under the store lock and must not call back into the
// store; they receive a deep copy of the state instead.
type Store struct {
	mu    sync.Mutex
	state State
	subs  []subscription
}

// NewStore creates a store with an empty intake state.
func NewStore() *Store {
	return &Store{state: NewState()}
}

// NewStoreFromState rehydrates a store from a persisted snapshot.
func NewStoreFromState(state State) *Store {
	return &Store{state: state.Clone()}
}

// Subscribe registers a callback for the given mutation kinds.
func (s *Store) Subscribe(kinds []MutationKind, notify func(kind MutationKind, state State)) {
	set := make(map[MutationKind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, subscription{kinds: set, notify: notify})
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) dispatch(kind MutationKind, apply func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apply(&s.state)

	var snap State
	copied := false
	for _, sub := range s.subs {
		if _, ok := sub.kinds[kind]; !ok {
			continue
		}
		if !copied {
			snap = s.state.Clone()
			copied = true
		}
		sub.notify(kind, snap)
	}
}

// SignIn records the authenticated operator and the credential that
// will be forwarded to the EHR gateway.
func (s *Store) SignIn(userID, accessToken string) {
	s.dispatch(MutationAuthSignedIn, func(st *State) {
		st.Auth = AuthState{UserID: userID, AccessToken: accessToken}
	})
}

// SignOut clears the credential.
func (s *Store) SignOut() {
	s.dispatch(MutationAuthSignedOut, func(st *State) {
		st.Auth = AuthState{}
	})
}

// PatientEdit carries partial updates to the identification section.
type PatientEdit struct {
	Identifier *string `json:"identifier,omitempty"`
	Name       *string `json:"name,omitempty"`
	BirthDate  *string `json:"birth_date,omitempty"`
	Sex        *string `json:"sex,omitempty"`
	SexOther   *string `json:"sex_other,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
	Address    *string `json:"address,omitempty"`
}

// EditPatient applies the non-nil fields of the edit. If the identifier
// diverges from a previously matched one, the match is invalidated so a
// submission can never silently reference another person's record.
func (s *Store) EditPatient(edit PatientEdit) {
	s.dispatch(MutationPatientEdited, func(st *State) {
		p := &st.Patient
		if edit.Identifier != nil {
			p.Identifier = *edit.Identifier
		}
		if edit.Name != nil {
			p.Name = *edit.Name
		}
		if edit.BirthDate != nil {
			p.BirthDate = *edit.BirthDate
		}
		if edit.Sex != nil {
			p.Sex = *edit.Sex
		}
		if edit.SexOther != nil {
			p.SexOther = *edit.SexOther
		}
		if edit.Phone != nil {
			p.Phone = *edit.Phone
		}
		if edit.Email != nil {
			p.Email = *edit.Email
		}
		if edit.Address != nil {
			p.Address = *edit.Address
		}
		if p.Matched && p.Identifier != p.MatchedIdentifier {
			p.Matched = false
			p.MatchedIdentifier = ""
			p.ServerID = ""
		}
	})
}

// PatientMatch is the upstream record a lookup or registration resolved.
type PatientMatch struct {
	ServerID   string
	Identifier string
	Name       string
	BirthDate  string
	Sex        string
	Phone      string
	Email      string
}

// ResolvePatient records a lookup hit or a successful registration and
// auto-populates the identification fields from the upstream record.
func (s *Store) ResolvePatient(match PatientMatch) {
	s.dispatch(MutationPatientResolved, func(st *State) {
		p := &st.Patient
		p.ServerID = match.ServerID
		p.Matched = true
		p.MatchedIdentifier = match.Identifier
		p.Identifier = match.Identifier
		if match.Name != "" {
			p.Name = match.Name
		}
		if match.BirthDate != "" {
			p.BirthDate = match.BirthDate
		}
		if match.Sex != "" {
			p.Sex = match.Sex
		}
		if match.Phone != "" {
			p.Phone = match.Phone
		}
		if match.Email != "" {
			p.Email = match.Email
		}
	})
}

// AttachSignaturePhoto stores the captured consent signature and stamps
// the capture time.
func (s *Store) AttachSignaturePhoto(photoRef string) {
	s.dispatch(MutationConsentPhotoAttached, func(st *State) {
		now := time.Now().UTC()
		st.Consent.SignaturePhoto = photoRef
		st.Consent.CapturedAt = &now
	})
}

// RemoveSignaturePhoto discards the captured signature. The agreement
// flag is cleared with it: consent cannot stand without its photo.
func (s *Store) RemoveSignaturePhoto() {
	s.dispatch(MutationConsentPhotoRemoved, func(st *State) {
		st.Consent = ConsentState{}
	})
}

// SetConsentAgreement flips the agreement flag. Agreeing requires a
// signature photo to already be attached.
func (s *Store) SetConsentAgreement(agreed bool) error {
	var err error
	s.dispatch(MutationConsentAgreementSet, func(st *State) {
		if agreed && st.Consent.SignaturePhoto == "" {
			err = ErrNoSignaturePhoto
			return
		}
		st.Consent.Agreed = agreed
	})
	return err
}

// SaveGeneralHealth stores step 1 answers.
func (s *Store) SaveGeneralHealth(section anamnesis.GeneralHealth) {
	s.dispatch(MutationAnamnesisSectionSaved, func(st *State) {
		st.Anamnesis.GeneralHealth = section
	})
}

// SavePhototype stores step 2 answers.
func (s *Store) SavePhototype(section anamnesis.PhototypeAssessment) {
	s.dispatch(MutationAnamnesisSectionSaved, func(st *State) {
		st.Anamnesis.Phototype = section
	})
}

// SaveCancerHistory stores step 3 answers.
func (s *Store) SaveCancerHistory(section anamnesis.CancerHistory) {
	s.dispatch(MutationAnamnesisSectionSaved, func(st *State) {
		st.Anamnesis.CancerHistory = section
	})
}

// SaveRiskFactors stores step 4 answers.
func (s *Store) SaveRiskFactors(section anamnesis.RiskFactors) {
	s.dispatch(MutationAnamnesisSectionSaved, func(st *State) {
		st.Anamnesis.RiskFactors = section
	})
}

// SaveLesionInvestigation stores step 5 answers.
func (s *Store) SaveLesionInvestigation(section anamnesis.LesionInvestigation) {
	s.dispatch(MutationAnamnesisSectionSaved, func(st *State) {
		st.Anamnesis.LesionInvestigation = section
	})
}

// AdvanceAnamnesis moves the wizard forward.
func (s *Store) AdvanceAnamnesis() {
	s.dispatch(MutationAnamnesisAdvanced, func(st *State) {
		st.Anamnesis.Progress = st.Anamnesis.Progress.Advance()
	})
}

// RetreatAnamnesis moves the wizard back.
func (s *Store) RetreatAnamnesis() {
	s.dispatch(MutationAnamnesisRetreated, func(st *State) {
		st.Anamnesis.Progress = st.Anamnesis.Progress.Retreat()
	})
}

// ResetAnamnesis returns the wizard to its initial state. Answers are
// kept; only the progress machine resets.
func (s *Store) ResetAnamnesis() {
	s.dispatch(MutationAnamnesisReset, func(st *State) {
		st.Anamnesis.Progress = st.Anamnesis.Progress.Reset()
	})
}

// AddInjury appends a lesion record. Insertion order is preserved.
func (s *Store) AddInjury(injury InjuryRecord) {
	s.dispatch(MutationInjuryAdded, func(st *State) {
		st.Injuries.Injuries = append(st.Injuries.Injuries, injury)
	})
}

// RemoveInjury deletes the lesion at the given index.
func (s *Store) RemoveInjury(index int) error {
	var err error
	s.dispatch(MutationInjuryRemoved, func(st *State) {
		if index < 0 || index >= len(st.Injuries.Injuries) {
			err = ErrInjuryIndex
			return
		}
		st.Injuries.Injuries = append(st.Injuries.Injuries[:index], st.Injuries.Injuries[index+1:]...)
	})
	return err
}
