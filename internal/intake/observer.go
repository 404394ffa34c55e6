package intake

import "sync"

// ReadinessObserver keeps the latest readiness result in sync with the
// store. It recomputes on every auth, consent or anamnesis mutation —
// injury mutations are deliberately excluded — and the recomputation
// happens synchronously inside the dispatch, so Latest is never stale
// relative to a completed mutation.
type ReadinessObserver struct {
	mu     sync.RWMutex
	latest ReadinessResult
}

// NewReadinessObserver subscribes an observer to the store and seeds it
// with an evaluation of the current state.
func NewReadinessObserver(store *Store) *ReadinessObserver {
	o := &ReadinessObserver{}
	snap := store.Snapshot()
	o.latest = EvaluateReadiness(snap.Auth, snap.Consent, snap.Anamnesis)
	store.Subscribe(RevalidationKinds, func(_ MutationKind, state State) {
		result := EvaluateReadiness(state.Auth, state.Consent, state.Anamnesis)
		o.mu.Lock()
		o.latest = result
		o.mu.Unlock()
	})
	return o
}

// Latest returns the most recently computed readiness result.
func (o *ReadinessObserver) Latest() ReadinessResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.latest
}
