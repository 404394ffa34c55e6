package intake

import (
	"time"

	"github.com/teledermato/intake-service/internal/anamnesis"
)

// IdentifierLength is the expected length of the national patient
// identifier (CPF digits).
const IdentifierLength = 11

// PatientState holds the identification section of the intake form.
// ServerID is empty until the patient is resolved upstream, either by a
// lookup hit or by registration.
type PatientState struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	BirthDate  string `json:"birth_date"`
	Sex        string `json:"sex"`
	SexOther   string `json:"sex_other,omitempty"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`

	ServerID          string `json:"server_id,omitempty"`
	Matched           bool   `json:"matched"`
	MatchedIdentifier string `json:"matched_identifier,omitempty"`
}

// Resolved reports whether the patient can be referenced upstream.
func (p PatientState) Resolved() bool {
	return len(p.Identifier) == IdentifierLength && p.ServerID != ""
}

// ConsentState holds the signed consent term. Agreed can only be true
// while a signature photo is attached.
type ConsentState struct {
	SignaturePhoto string     `json:"signature_photo,omitempty"`
	Agreed         bool       `json:"agreed"`
	CapturedAt     *time.Time `json:"captured_at,omitempty"`
}

// Complete reports whether the consent section blocks submission.
func (c ConsentState) Complete() bool {
	return c.Agreed && c.SignaturePhoto != ""
}

// InjuryRecord is one reported lesion: where it is, what it looks like,
// and the photos taken of it. Photo order is preserved.
type InjuryRecord struct {
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
}

// InjuryState holds the reported lesions in insertion order. The order
// is meaningful: per-lesion submission results are correlated by index.
type InjuryState struct {
	Injuries []InjuryRecord `json:"injuries"`
}

// AuthState carries the signed-in operator and the bearer credential
// forwarded to the EHR gateway.
type AuthState struct {
	UserID      string `json:"user_id,omitempty"`
	AccessToken string `json:"-"`
}

// Authenticated reports whether a usable credential is present.
func (a AuthState) Authenticated() bool {
	return a.AccessToken != ""
}

// State is the full intake snapshot: the five independently-edited
// slices of one session.
type State struct {
	Patient   PatientState     `json:"patient"`
	Consent   ConsentState     `json:"consent"`
	Anamnesis anamnesis.Record `json:"anamnesis"`
	Injuries  InjuryState      `json:"injuries"`
	Auth      AuthState        `json:"auth"`
}

// NewState returns an empty intake state at the first wizard step.
func NewState() State {
	return State{Anamnesis: anamnesis.NewRecord()}
}

// Clone returns a deep copy. Slices are copied so a snapshot cannot be
// corrupted by later mutations.
func (s State) Clone() State {
	out := s
	if s.Consent.CapturedAt != nil {
		ts := *s.Consent.CapturedAt
		out.Consent.CapturedAt = &ts
	}
	if s.Injuries.Injuries != nil {
		out.Injuries.Injuries = make([]InjuryRecord, len(s.Injuries.Injuries))
		for i, inj := range s.Injuries.Injuries {
			copied := inj
			if inj.Photos != nil {
				copied.Photos = append([]string(nil), inj.Photos...)
			}
			out.Injuries.Injuries[i] = copied
		}
	}
	return out
}
