package submission

import (
	"sync"
	"time"
)

// Status is the lifecycle state of one submission attempt.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Session tracks the submission attempt of one intake session. It is
// owned exclusively by the orchestrator while a saga runs; readers get
// a copy through View.
type Session struct {
	mu           sync.Mutex
	status       Status
	attendanceID string
	lastError    string
	startedAt    *time.Time
	finishedAt   *time.Time
}

// NewSession returns an idle submission session.
func NewSession() *Session {
	return &Session{status: StatusIdle}
}

// View is the read model of a submission session.
type View struct {
	Status       Status     `json:"status"`
	AttendanceID string     `json:"attendance_id,omitempty"`
	Error        string     `json:"error,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// View returns a copy of the current session state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Status:       s.status,
		AttendanceID: s.attendanceID,
		Error:        s.lastError,
	}
	if s.startedAt != nil {
		ts := *s.startedAt
		v.StartedAt = &ts
	}
	if s.finishedAt != nil {
		ts := *s.finishedAt
		v.FinishedAt = &ts
	}
	return v
}

// Reset returns the session to idle, e.g. when the operator leaves the
// encounter or starts a new one.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusPending {
		return
	}
	s.status = StatusIdle
	s.attendanceID = ""
	s.lastError = ""
	s.startedAt = nil
	s.finishedAt = nil
}

// begin flips the session to pending. Returns false when a saga is
// already in flight.
func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusPending {
		return false
	}
	now := time.Now().UTC()
	s.status = StatusPending
	s.attendanceID = ""
	s.lastError = ""
	s.startedAt = &now
	s.finishedAt = nil
	return true
}

func (s *Session) succeed(attendanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.status = StatusSucceeded
	s.attendanceID = attendanceID
	s.finishedAt = &now
}

func (s *Session) fail(attendanceID string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.status = StatusFailed
	s.attendanceID = attendanceID
	s.lastError = cause.Error()
	s.finishedAt = &now
}
