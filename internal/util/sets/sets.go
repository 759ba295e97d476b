package sets

import (
	"cmp"
	"slices"
	"sync"
)

// Set is a simple generic hash set for comparable keys.
// Usage: s := sets.New[string]("a","b"); s.Add("c"); if s.Has("b") {...}
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts value into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has returns true if v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	out := make([]T, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Guarded is a Set safe for concurrent use. The zero value is ready to use.
type Guarded[T comparable] struct {
	mu sync.Mutex
	s  Set[T]
}

// Claim adds v and reports whether it was absent. Exactly one caller wins per value.
func (g *Guarded[T]) Claim(v T) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.s == nil {
		g.s = make(Set[T])
	}
	if g.s.Has(v) {
		return false
	}
	g.s.Add(v)
	return true
}

// Has reports whether v has been claimed.
func (g *Guarded[T]) Has(v T) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.s.Has(v)
}

// Len returns the number of claimed values.
func (g *Guarded[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.s)
}

// Snapshot returns a copy of the claimed values.
func (g *Guarded[T]) Snapshot() Set[T] {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(Set[T], len(g.s))
	for k := range g.s {
		out[k] = struct{}{}
	}
	return out
}
