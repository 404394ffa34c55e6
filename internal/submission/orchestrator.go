// Package submission drives the four-step saga that persists a
// completed intake against the EHR gateway.
//
// The saga is at-least-once and non-idempotent by design: a failure in
// step 2 or 3 leaves the attendance registered upstream with no
// compensating delete. The failure event carries the orphaned
// attendance id so a downstream reconciler can deal with it; retrying
// restarts from step 1 and registers a new attendance.
package submission

import (
	"context"
	"log"
	"time"

	"github.com/teledermato/intake-service/internal/anamnesis"
	"github.com/teledermato/intake-service/internal/backend"
	"github.com/teledermato/intake-service/internal/intake"
	"github.com/teledermato/intake-service/internal/messaging"
	"github.com/teledermato/intake-service/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/teledermato/intake-service/submission")

// LesionResult is the per-lesion outcome of step 4, in injury list
// order.
type LesionResult struct {
	Index    int    `json:"index"`
	LesionID string `json:"lesion_id,omitempty"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// Result is the outcome of a successful saga. Lesions can contain
// failures: lesion registration is best-effort.
type Result struct {
	AttendanceID string         `json:"attendance_id"`
	Lesions      []LesionResult `json:"lesions"`
}

// Orchestrator executes submission sagas against the EHR gateway.
type Orchestrator struct {
	gateway   backend.Gateway
	publisher messaging.PublisherInterface
	metrics   *telemetry.Metrics
}

// NewOrchestrator creates an orchestrator. metrics may be nil.
func NewOrchestrator(gateway backend.Gateway, publisher messaging.PublisherInterface, metrics *telemetry.Metrics) *Orchestrator {
	return &Orchestrator{
		gateway:   gateway,
		publisher: publisher,
		metrics:   metrics,
	}
}

// Submit runs the saga for one intake snapshot. Steps run strictly in
// order; each fatal step failure aborts the saga and is reported as a
// StepError. Preconditions are checked before any network call: if one
// fails, no I/O happens at all. The snapshot is a deep copy taken by
// the caller, so concurrent edits to the live intake cannot corrupt an
// in-flight saga. There is no cancellation and no automatic retry.
func (o *Orchestrator) Submit(ctx context.Context, sessionID string, session *Session, snap intake.State) (*Result, error) {
	if err := checkPreconditions(snap); err != nil {
		o.metrics.RecordReadinessBlocked(ctx, err.Domain)
		return nil, err
	}

	if !session.begin() {
		return nil, ErrSubmissionInFlight
	}

	ctx, span := tracer.Start(ctx, "submission.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("intake.session_id", sessionID),
		attribute.Int("intake.lesion_count", len(snap.Injuries.Injuries)),
	)

	credential := snap.Auth.AccessToken

	// Step 1: register the attendance. Nothing is committed upstream
	// before this step, so a failure here is fully recoverable.
	attendanceID, err := o.runStep(ctx, StepRegisterAttendance, func() (string, error) {
		return o.gateway.RegisterAttendance(ctx, snap.Patient.ServerID, credential)
	})
	if err != nil {
		return nil, o.abort(ctx, sessionID, session, span, "", StepRegisterAttendance, err)
	}

	// Step 2: attach the signed consent term.
	_, err = o.runStep(ctx, StepUploadConsent, func() (string, error) {
		return "", o.gateway.UploadConsent(ctx, attendanceID, snap.Consent.SignaturePhoto, credential)
	})
	if err != nil {
		return nil, o.abort(ctx, sessionID, session, span, attendanceID, StepUploadConsent, err)
	}

	// Step 3: submit the mapped questionnaire.
	payload := anamnesis.BuildPayload(snap.Anamnesis)
	_, err = o.runStep(ctx, StepSubmitAnamnesis, func() (string, error) {
		return "", o.gateway.SubmitAnamnesis(ctx, attendanceID, payload, credential)
	})
	if err != nil {
		return nil, o.abort(ctx, sessionID, session, span, attendanceID, StepSubmitAnamnesis, err)
	}

	// Step 4: register lesions one at a time, in list order. A failed
	// lesion is recorded and the loop continues: the saga still
	// succeeds so the encounter is not lost over a single photo upload.
	results := o.registerLesions(ctx, sessionID, attendanceID, snap, credential)

	session.succeed(attendanceID)
	o.metrics.RecordSubmission(ctx, "succeeded")
	span.SetStatus(codes.Ok, "submission completed")

	failed := 0
	for _, lr := range results {
		if !lr.OK {
			failed++
		}
	}
	o.publishSucceeded(ctx, sessionID, attendanceID, snap.Patient.ServerID, len(results), failed)

	return &Result{AttendanceID: attendanceID, Lesions: results}, nil
}

// checkPreconditions verifies the snapshot all-or-nothing, in the same
// priority order as the readiness validator, plus patient resolution.
func checkPreconditions(snap intake.State) *PreconditionError {
	readiness := intake.EvaluateReadiness(snap.Auth, snap.Consent, snap.Anamnesis)
	if !readiness.Ready {
		for domain := range readiness.Errors {
			return &PreconditionError{Domain: domain}
		}
		return &PreconditionError{Domain: intake.DomainUser}
	}
	if !snap.Patient.Resolved() {
		return &PreconditionError{Domain: intake.DomainPatient}
	}
	return nil
}

func (o *Orchestrator) registerLesions(ctx context.Context, sessionID, attendanceID string, snap intake.State, credential string) []LesionResult {
	injuries := snap.Injuries.Injuries
	results := make([]LesionResult, 0, len(injuries))

	for i, injury := range injuries {
		lesion := backend.LesionRequest{
			Location:    injury.Location,
			Description: injury.Description,
			Photos:      injury.Photos,
		}
		start := time.Now()
		lesionID, err := o.gateway.RegisterLesion(ctx, attendanceID, lesion, credential)
		o.metrics.RecordSagaStep(ctx, StepRegisterLesions, float64(time.Since(start).Milliseconds()), err == nil)

		if err != nil {
			log.Printf("Lesion %d/%d failed for attendance %s: %v", i+1, len(injuries), attendanceID, err)
			o.metrics.RecordLesionFailure(ctx)
			o.publishLesionFailed(ctx, sessionID, attendanceID, i, injury.Location, err)
			results = append(results, LesionResult{Index: i, Error: err.Error()})
			continue
		}
		results = append(results, LesionResult{Index: i, LesionID: lesionID, OK: true})
	}
	return results
}

// runStep times one fatal saga step and records its metric.
func (o *Orchestrator) runStep(ctx context.Context, step string, fn func() (string, error)) (string, error) {
	start := time.Now()
	out, err := fn()
	o.metrics.RecordSagaStep(ctx, step, float64(time.Since(start).Milliseconds()), err == nil)
	return out, err
}

func (o *Orchestrator) abort(ctx context.Context, sessionID string, session *Session, span trace.Span, attendanceID, step string, cause error) error {
	stepErr := &StepError{Step: step, Cause: cause}
	log.Printf("Submission for session %s aborted at %s: %v", sessionID, step, cause)

	session.fail(attendanceID, stepErr)
	o.metrics.RecordSubmission(ctx, "failed")
	span.SetStatus(codes.Error, stepErr.Error())

	event := messaging.SubmissionFailedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventSubmissionFailed),
		Data: messaging.SubmissionFailedData{
			SessionID:    sessionID,
			AttendanceID: attendanceID,
			Step:         step,
			Reason:       cause.Error(),
			FailedAt:     time.Now().UTC(),
		},
	}
	if err := o.publisher.Publish(ctx, messaging.EventSubmissionFailed, event); err != nil {
		log.Printf("Failed to publish submission failed event: %v", err)
	}

	return stepErr
}

func (o *Orchestrator) publishSucceeded(ctx context.Context, sessionID, attendanceID, patientID string, lesionsTotal, lesionsFailed int) {
	event := messaging.SubmissionSucceededEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventSubmissionSucceeded),
		Data: messaging.SubmissionSucceededData{
			SessionID:     sessionID,
			AttendanceID:  attendanceID,
			PatientID:     patientID,
			LesionsTotal:  lesionsTotal,
			LesionsFailed: lesionsFailed,
			SubmittedAt:   time.Now().UTC(),
		},
	}
	if err := o.publisher.Publish(ctx, messaging.EventSubmissionSucceeded, event); err != nil {
		log.Printf("Failed to publish submission succeeded event: %v", err)
	}
}

func (o *Orchestrator) publishLesionFailed(ctx context.Context, sessionID, attendanceID string, index int, location string, cause error) {
	event := messaging.LesionFailedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventLesionFailed),
		Data: messaging.LesionFailedData{
			SessionID:    sessionID,
			AttendanceID: attendanceID,
			LesionIndex:  index,
			Location:     location,
			Reason:       cause.Error(),
		},
	}
	if err := o.publisher.Publish(ctx, messaging.EventLesionFailed, event); err != nil {
		log.Printf("Failed to publish lesion failed event: %v", err)
	}
}
