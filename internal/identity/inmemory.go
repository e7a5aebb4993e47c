package identity

import (
	"context"
	"sync"
)

// InMemoryResolver serves profiles from process memory for tests and
// database-less local runs.
type InMemoryResolver struct {
	mu        sync.RWMutex
	profiles  map[string]Profile
	byAccount map[int64]Profile
}

func NewInMemoryResolver() *InMemoryResolver {
	return &InMemoryResolver{
		profiles:  make(map[string]Profile),
		byAccount: make(map[int64]Profile),
	}
}

// Add registers a profile, optionally bound to an owning account.
// accountID 0 leaves the profile unreachable via ResolveAccount.
func (r *InMemoryResolver) Add(p Profile, accountID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Principal.Key()] = p
	if accountID != 0 {
		r.byAccount[accountID] = p
	}
}

func (r *InMemoryResolver) Resolve(_ context.Context, kind Kind, id int64) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[Principal{Kind: kind, ID: id}.Key()]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryResolver) ResolveAccount(_ context.Context, accountID int64) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byAccount[accountID]
	if !ok {
		return Profile{}, ErrNoProfile
	}
	return p, nil
}
