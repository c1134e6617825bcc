package opponent

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds descriptors keyed by ID.
type Registry struct {
	byID map[string]*Descriptor
}

// NewRegistry builds a Registry from descs.
//
// Postcondition: Returns an error if any ID repeats.
func NewRegistry(descs ...*Descriptor) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Descriptor, len(descs))}
	for _, d := range descs {
		if _, exists := r.byID[d.ID]; exists {
			return nil, fmt.Errorf("opponent: duplicate id %q", d.ID)
		}
		r.byID[d.ID] = d
	}
	return r, nil
}

// Get returns the descriptor for id.
func (r *Registry) Get(id string) (*Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// All returns every descriptor ordered by floor, then ID.
func (r *Registry) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DefeatedSet records the opponents the player has beaten. A defeated
// opponent can never be battled again.
//
// DefeatedSet is safe for concurrent use.
type DefeatedSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewDefeatedSet creates a set seeded with ids.
func NewDefeatedSet(ids ...string) *DefeatedSet {
	s := &DefeatedSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Has reports whether id has been defeated.
func (s *DefeatedSet) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Mark records id as defeated and reports whether it was newly added.
func (s *DefeatedSet) Mark(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// IDs returns the defeated IDs in sorted order.
func (s *DefeatedSet) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
