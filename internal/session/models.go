package session

import (
	"time"

	"github.com/teledermato/intake-service/internal/intake"
	"github.com/teledermato/intake-service/internal/pagination"
	"github.com/teledermato/intake-service/internal/submission"
)

// Session status values
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusDeleted   = "deleted"
)

// SessionResponse represents the session metadata returned to clients
type SessionResponse struct {
	ID              string     `json:"id"`
	CreatedBy       string     `json:"created_by"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastSubmittedAt *time.Time `json:"last_submitted_at,omitempty"`
}

// ConsentUpdateRequest carries a consent mutation. A non-nil photo
// attaches the signature; a non-nil agreed flips the agreement flag.
type ConsentUpdateRequest struct {
	SignaturePhoto *string `json:"signature_photo,omitempty"`
	Agreed         *bool   `json:"agreed,omitempty"`
}

// InjuryRequest represents one reported lesion
type InjuryRequest struct {
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
}

type SuccessResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Session *SessionResponse `json:"session,omitempty"`
}

// StateResponse returns the full intake snapshot after a mutation so
// clients can refresh without a second round trip
type StateResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	State   intake.State `json:"state"`
}

type ReadinessResponse struct {
	Success   bool                   `json:"success"`
	Readiness intake.ReadinessResult `json:"readiness"`
}

type SubmitResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Result  *submission.Result `json:"result,omitempty"`
}

type SubmissionStatusResponse struct {
	Success    bool            `json:"success"`
	Submission submission.View `json:"submission"`
}

// PaginatedListResponse represents a paginated session listing
type PaginatedListResponse struct {
	Success    bool              `json:"success"`
	Sessions   []SessionResponse `json:"sessions"`
	Pagination pagination.Meta   `json:"pagination"`
}
