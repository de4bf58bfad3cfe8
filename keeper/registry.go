package keeper

import (
	"sync"

	"github.com/stakeward/steward-core/validatorhistory"
)

// Registry is the keeper's long-lived validator-history store: one
// *validatorhistory.History per vote account, created lazily and kept for
// the life of the process (spec §3.7 "created lazily ... then lives
// forever"). It implements api.Store so the HTTP read API can be handed a
// *Registry directly.
type Registry struct {
	mu         sync.RWMutex
	histories  map[[32]byte]*validatorhistory.History
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{histories: make(map[[32]byte]*validatorhistory.History)}
}

// Get returns the History for voteAccount, if one has been created.
func (r *Registry) Get(voteAccount [32]byte) (*validatorhistory.History, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.histories[voteAccount]
	return h, ok
}

// GetOrCreate returns the existing History for voteAccount, creating one
// if this is the first observation.
func (r *Registry) GetOrCreate(voteAccount [32]byte) *validatorhistory.History {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.histories[voteAccount]
	if !ok {
		h = validatorhistory.New(voteAccount)
		r.histories[voteAccount] = h
	}
	return h
}

// Len reports how many validators have a History.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.histories)
}
