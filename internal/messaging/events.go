package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Event routing keys as constants
const (
	// Intake session events
	EventSessionCreated = "intake.session.created"
	EventSessionDeleted = "intake.session.deleted"

	// Submission events
	EventSubmissionSucceeded = "intake.submission.succeeded"
	EventSubmissionFailed    = "intake.submission.failed"
	EventLesionFailed        = "intake.lesion.failed"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// SessionCreatedEvent signals that a draft intake session was opened
type SessionCreatedEvent struct {
	BaseEvent
	Data SessionCreatedData `json:"data"`
}

type SessionCreatedData struct {
	SessionID string    `json:"session_id"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionDeletedEvent signals that a draft intake session was discarded
type SessionDeletedEvent struct {
	BaseEvent
	Data SessionDeletedData `json:"data"`
}

type SessionDeletedData struct {
	SessionID string    `json:"session_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// SubmissionSucceededEvent signals a completed submission saga.
// LesionsFailed can be non-zero: lesion registration is best-effort and
// does not fail the submission.
type SubmissionSucceededEvent struct {
	BaseEvent
	Data SubmissionSucceededData `json:"data"`
}

type SubmissionSucceededData struct {
	SessionID     string    `json:"session_id"`
	AttendanceID  string    `json:"attendance_id"`
	PatientID     string    `json:"patient_id"`
	LesionsTotal  int       `json:"lesions_total"`
	LesionsFailed int       `json:"lesions_failed"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// SubmissionFailedEvent signals an aborted submission saga. When a step
// after attendance registration failed, AttendanceID identifies the
// orphaned upstream encounter so a downstream reconciler can act on it.
type SubmissionFailedEvent struct {
	BaseEvent
	Data SubmissionFailedData `json:"data"`
}

type SubmissionFailedData struct {
	SessionID    string    `json:"session_id"`
	AttendanceID string    `json:"attendance_id,omitempty"`
	Step         string    `json:"step"`
	Reason       string    `json:"reason"`
	FailedAt     time.Time `json:"failed_at"`
}

// LesionFailedEvent signals one failed lesion registration inside an
// otherwise successful submission
type LesionFailedEvent struct {
	BaseEvent
	Data LesionFailedData `json:"data"`
}

type LesionFailedData struct {
	SessionID    string `json:"session_id"`
	AttendanceID string `json:"attendance_id"`
	LesionIndex  int    `json:"lesion_index"`
	Location     string `json:"location"`
	Reason       string `json:"reason"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		ServiceName: "intake-service",
	}
}
