package intake

import "github.com/teledermato/intake-service/internal/anamnesis"

// Domain tags used in readiness errors and submission preconditions.
// consentTerm is the historical tag for the consent section and is part
// of the client contract.
const (
	DomainUser      = "user"
	DomainConsent   = "consentTerm"
	DomainAnamnesis = "anamnesis"
	DomainPatient   = "patient"
)

// ReadinessResult is the outcome of a readiness evaluation. Errors maps
// a domain tag to the blocking reason. Only the first blocking domain
// is reported per evaluation.
type ReadinessResult struct {
	Ready  bool              `json:"ready"`
	Errors map[string]string `json:"errors,omitempty"`
}

// EvaluateReadiness determines whether the intake is complete enough to
// submit. Pure and side-effect free. Checks fail fast in priority
// order: authentication, then consent, then anamnesis — the result
// carries only the first blocking reason, never an accumulation.
func EvaluateReadiness(auth AuthState, consent ConsentState, rec anamnesis.Record) ReadinessResult {
	if !auth.Authenticated() {
		return blocked(DomainUser, "operator is not authenticated")
	}
	if !consent.Complete() {
		return blocked(DomainConsent, "consent term not agreed or signature photo missing")
	}
	if !rec.Progress.Complete() {
		return blocked(DomainAnamnesis, "anamnesis questionnaire not completed")
	}
	return ReadinessResult{Ready: true}
}

func blocked(domain, reason string) ReadinessResult {
	return ReadinessResult{Ready: false, Errors: map[string]string{domain: reason}}
}
