package session

import (
	"sync"

	"github.com/teledermato/intake-service/internal/backend"
	"github.com/teledermato/intake-service/internal/intake"
	"github.com/teledermato/intake-service/internal/patient"
	"github.com/teledermato/intake-service/internal/submission"
)

// Runtime is the live in-memory machinery of one intake session: the
// mutable store, the readiness observer wired to it, the debounced
// patient lookup and the submission state machine. A runtime exists for
// every session that has been touched since the process started;
// untouched sessions live only as JSONB snapshots.
type Runtime struct {
	Store      *intake.Store
	Readiness  *intake.ReadinessObserver
	Lookup     *patient.LookupService
	Submission *submission.Session
}

// Registry maps session ids to live runtimes.
type Registry struct {
	gateway backend.Gateway

	mu       sync.Mutex
	runtimes map[string]*Runtime
}

func NewRegistry(gateway backend.Gateway) *Registry {
	return &Registry{
		gateway:  gateway,
		runtimes: make(map[string]*Runtime),
	}
}

// Get returns the live runtime for a session, if one exists.
func (r *Registry) Get(id string) (*Runtime, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.runtimes[id]
	return rt, ok
}

// Create builds a runtime around the given state snapshot and registers
// it. If a runtime already exists for the id, the existing one wins: two
// handlers racing to rehydrate the same session must not end up on
// different stores.
func (r *Registry) Create(id string, state intake.State) *Runtime {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.runtimes[id]; ok {
		return existing
	}

	store := intake.NewStoreFromState(state)
	rt := &Runtime{
		Store:      store,
		Readiness:  intake.NewReadinessObserver(store),
		Lookup:     patient.NewLookupService(r.gateway, store),
		Submission: submission.NewSession(),
	}
	r.runtimes[id] = rt
	return rt
}

// Remove drops the runtime for a deleted session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runtimes, id)
}
