// Package onboarding persists the brand and audience profiles collected during
// onboarding. Both stores implement core.ProfileStore.
package onboarding

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/campaignmesh/core"
)

// ErrNotFound is returned for unknown ids and by Latest on an empty store.
var ErrNotFound = core.ErrProfileNotFound

// InMemoryStore is a volatile ProfileStore keeping profiles in a process
// local map. It is safe for concurrent access. Returned profiles are copies.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]core.Profile
	order    []string
	now      func() time.Time
}

// NewInMemoryStore constructs an empty in-memory profile store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[string]core.Profile),
		now:      time.Now,
	}
}

// Save stores p, assigning an id and creation time when missing. Saving an
// existing id replaces the record.
func (s *InMemoryStore) Save(_ context.Context, p core.Profile) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p = prepare(p, s.now)
	if _, ok := s.profiles[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.profiles[p.ID] = clone(p)
	return clone(p), nil
}

// Get returns the profile with the given id.
func (s *InMemoryStore) Get(_ context.Context, id string) (core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return core.Profile{}, ErrNotFound
	}
	return clone(p), nil
}

// Latest returns the most recently created profile. Ties go to the later save.
func (s *InMemoryStore) Latest(_ context.Context) (core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return core.Profile{}, ErrNotFound
	}
	latest := s.profiles[s.order[0]]
	for _, id := range s.order[1:] {
		if p := s.profiles[id]; !p.CreatedAt.Before(latest.CreatedAt) {
			latest = p
		}
	}
	return clone(latest), nil
}

// List returns all profiles in save order.
func (s *InMemoryStore) List(_ context.Context) ([]core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Profile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.profiles[id]))
	}
	return out, nil
}

func prepare(p core.Profile, now func() time.Time) core.Profile {
	if p.ID == "" {
		p.ID = core.NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now().UTC()
	}
	return p
}

func clone(p core.Profile) core.Profile {
	p.Channels = append([]string(nil), p.Channels...)
	p.BrandDocVectorIDs = append([]string(nil), p.BrandDocVectorIDs...)
	p.AudienceDocVectorIDs = append([]string(nil), p.AudienceDocVectorIDs...)
	return p
}

var _ core.ProfileStore = (*InMemoryStore)(nil)
