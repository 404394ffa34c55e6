package submission

import (
	"errors"
	"fmt"
)

// Saga step names, reported in failures and events.
const (
	StepRegisterAttendance = "registerAttendance"
	StepUploadConsent      = "uploadConsent"
	StepSubmitAnamnesis    = "submitAnamnesis"
	StepRegisterLesions    = "registerLesions"
)

// ErrSubmissionInFlight is returned when a submit is triggered while a
// saga for the same session is still pending.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// PreconditionError reports an intake domain that blocked the saga
// before any network I/O happened.
type PreconditionError struct {
	Domain string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition not met: %s", e.Domain)
}

// StepError reports the failing fatal step (1-3) and its cause. Lesion
// registration failures never surface as a StepError.
type StepError struct {
	Step  string
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("submission step %s failed: %v", e.Step, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
