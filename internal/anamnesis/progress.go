package anamnesis

// TotalSteps is the number of questionnaire steps in the intake wizard.
const TotalSteps = 5

// Progress tracks where the intake wizard stands. Completed is only set
// when the final step is confirmed via a forward advancement.
type Progress struct {
	Step       int  `json:"step"`
	TotalSteps int  `json:"total_steps"`
	Completed  bool `json:"completed"`
}

// NewProgress returns the initial wizard state (first step, not completed).
func NewProgress() Progress {
	return Progress{Step: 1, TotalSteps: TotalSteps}
}

// Advance moves the wizard one step forward. The step is clamped at
// TotalSteps; advancing past the final step marks the wizard completed.
func (p Progress) Advance() Progress {
	next := p.Step + 1
	if next > p.TotalSteps {
		next = p.TotalSteps
		p.Completed = true
	}
	p.Step = next
	return p
}

// Retreat moves the wizard one step back, clamped at 1. Moving backward
// always clears the completion flag.
func (p Progress) Retreat() Progress {
	prev := p.Step - 1
	if prev < 1 {
		prev = 1
	}
	p.Step = prev
	p.Completed = false
	return p
}

// Reset returns the wizard to its initial state.
func (p Progress) Reset() Progress {
	return NewProgress()
}

// Complete reports whether the questionnaire counts as finished.
// A persisted progress can have reached the last step without the
// explicit flag being set; both forms are accepted.
func (p Progress) Complete() bool {
	return p.Completed || p.Step >= p.TotalSteps
}
