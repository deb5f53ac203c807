package testutil

import (
	"sync"

	"github.com/roach88/jsonfilter/internal/metadata"
)

// CountingSource wraps a metadata provider and reference list source and
// counts how often each is called.
//
// Used to verify read-through caches hit the source at most once per key.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CountingSource struct {
	Provider metadata.Provider
	Lists    metadata.ReferenceListSource

	// Gate, when non-nil, is received from after every source read and
	// before its result is returned, so tests can hold fetches in flight.
	Gate chan struct{}

	// Err, when non-nil, is returned by every call.
	Err error

	mu    sync.Mutex
	calls map[string]int
}

// NewCountingSource creates a counting wrapper over catalog.
func NewCountingSource(catalog *metadata.Catalog) *CountingSource {
	return &CountingSource{
		Provider: catalog,
		Lists:    catalog,
		calls:    make(map[string]int),
	}
}

func (s *CountingSource) record(key string) error {
	if s.Gate != nil {
		<-s.Gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[key]++
	return s.Err
}

// Calls returns how often key was requested. Keys are "property:Type.Name",
// "display:Type" and "list:Namespace.Name".
func (s *CountingSource) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// Total returns the number of source calls across all keys.
func (s *CountingSource) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Property implements metadata.Provider.
func (s *CountingSource) Property(entityType, name string) (metadata.PropertyInfo, bool, error) {
	info, ok, err := s.Provider.Property(entityType, name)
	if recErr := s.record("property:" + entityType + "." + name); recErr != nil {
		return metadata.PropertyInfo{}, false, recErr
	}
	return info, ok, err
}

// DisplayNameProperty implements metadata.Provider.
func (s *CountingSource) DisplayNameProperty(entityType string) (string, bool, error) {
	name, ok, err := s.Provider.DisplayNameProperty(entityType)
	if recErr := s.record("display:" + entityType); recErr != nil {
		return "", false, recErr
	}
	return name, ok, err
}

// ReferenceListItems implements metadata.ReferenceListSource.
func (s *CountingSource) ReferenceListItems(id metadata.CategoryID) ([]metadata.ReferenceListItem, bool, error) {
	items, ok, err := s.Lists.ReferenceListItems(id)
	if recErr := s.record("list:" + id.String()); recErr != nil {
		return nil, false, recErr
	}
	return items, ok, err
}
