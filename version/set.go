package version

import (
	"slices"
	"sync"
)

// Set is a collection of versions in which versions that compare equal collapse into one entry.
// The first inserted representation is kept. Set is safe for concurrent use.
type Set struct {
	mu    sync.Mutex
	items map[string]Version
}

// NewSet returns a Set containing vs.
func NewSet(vs ...Version) *Set {
	s := &Set{items: make(map[string]Version, len(vs))}
	for _, v := range vs {
		s.Add(v)
	}

	return s
}

// Add inserts v and reports whether it was not already present. Invalid versions are ignored.
func (s *Set) Add(v Version) bool {
	if !v.IsValid() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items == nil {
		s.items = make(map[string]Version)
	}
	key := v.canonical()
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = v

	return true
}

// Len returns the number of distinct versions.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

// Max returns the greatest version in the set and false when the set is empty.
func (s *Set) Max() (Version, bool) {
	sorted := s.Sorted()
	if len(sorted) == 0 {
		return Version{}, false
	}

	return sorted[len(sorted)-1], true
}

// Sorted returns the versions in ascending order.
func (s *Set) Sorted() []Version {
	s.mu.Lock()
	out := make([]Version, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	s.mu.Unlock()

	slices.SortFunc(out, Compare)

	return out
}
