package uploadflow

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"modelhaus/api/internal/ids"
	"modelhaus/api/internal/staging"
)

// Registry holds the live upload flows keyed by id. Abandoned flows are
// pruned by the scheduler after an idle TTL.
type Registry struct {
	mu         sync.RWMutex
	flows      map[string]*Flow
	policy     staging.Policy
	categories []string
	log        zerolog.Logger
}

func NewRegistry(policy staging.Policy, categories []string, log zerolog.Logger) *Registry {
	return &Registry{
		flows:      make(map[string]*Flow),
		policy:     policy,
		categories: categories,
		log:        log.With().Str("component", "uploadflow").Logger(),
	}
}

// Create starts a fresh flow owned by the given user.
func (r *Registry) Create(owner string) *Flow {
	flow := newFlow(ids.New(), owner, r.policy, r.categories, r.log)
	r.mu.Lock()
	r.flows[flow.ID()] = flow
	r.mu.Unlock()
	return flow
}

// Get looks up a live flow.
func (r *Registry) Get(id string) (*Flow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	flow, ok := r.flows[id]
	return flow, ok
}

// Remove drops a flow outright.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.flows, id)
	r.mu.Unlock()
}

// Len reports the number of live flows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}

// PruneIdle removes flows untouched for longer than the TTL and returns
// how many went away.
func (r *Registry) PruneIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	pruned := 0
	for id, flow := range r.flows {
		if flow.Touched().Before(cutoff) {
			delete(r.flows, id)
			pruned++
		}
	}
	if pruned > 0 {
		r.log.Info().Int("pruned", pruned).Msg("idle upload flows pruned")
	}
	return pruned
}
