package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/campaignmesh/workflow"
)

// ErrRunNotFound is returned when no run is registered under an id.
var ErrRunNotFound = errors.New("run not found")

// RunInfo describes a registered run.
type RunInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// InMemoryStore is a volatile registry of workflow runs kept in a process
// local map. It is safe for concurrent access. When MaxRuns is reached the
// oldest run is evicted.
type InMemoryStore struct {
	mu      sync.RWMutex
	runs    map[string]*workflow.Controller
	order   []string
	maxRuns int
}

// NewInMemoryStore constructs an empty registry. maxRuns <= 0 keeps every run.
func NewInMemoryStore(maxRuns int) *InMemoryStore {
	return &InMemoryStore{runs: make(map[string]*workflow.Controller), maxRuns: maxRuns}
}

// Put registers c under its id, replacing any run with the same id.
func (s *InMemoryStore) Put(c *workflow.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[c.ID()]; !exists {
		s.order = append(s.order, c.ID())
	}
	s.runs[c.ID()] = c

	for s.maxRuns > 0 && len(s.order) > s.maxRuns {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
}

// Get returns the run registered under id.
func (s *InMemoryStore) Get(id string) (*workflow.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return c, nil
}

// Delete removes a run. Unknown ids are ignored.
func (s *InMemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return
	}
	delete(s.runs, id)
	for i, rid := range s.order {
		if rid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// List returns the registered runs, oldest first.
func (s *InMemoryStore) List() []RunInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunInfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, RunInfo{ID: id, CreatedAt: s.runs[id].CreatedAt()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len returns the number of registered runs.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
