package collect

import (
	"sort"
	"sync"
)

// MapSurface is an in-memory Surface keyed by element id. It is safe for
// concurrent use.
type MapSurface struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Surface = (*MapSurface)(nil)

// NewMapSurface seeds a surface with the provided element values.
func NewMapSurface(values map[string]string) *MapSurface {
	s := &MapSurface{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Value implements Surface.
func (s *MapSurface) Value(element string) (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[element]
	return v, ok
}

// Set writes an element value, creating the element when needed.
func (s *MapSurface) Set(element, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[element] = value
}

// Has reports whether element exists on the surface.
func (s *MapSurface) Has(element string) bool {
	_, ok := s.Value(element)
	return ok
}

// Reset implements Surface. Elements that exist are set to ""; unknown ones
// are left absent.
func (s *MapSurface) Reset(elements ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, element := range elements {
		if _, ok := s.values[element]; ok {
			s.values[element] = ""
		}
	}
}

// Snapshot returns a copy of the current values.
func (s *MapSurface) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Elements lists the known element ids in sorted order.
func (s *MapSurface) Elements() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
