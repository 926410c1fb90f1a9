package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toolsascode/wildebeest/internal/model"
)

// MemoryStore keeps markers in process memory. Markers are shared across
// instances; it serves tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	markers map[uuid.UUID][]Marker
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markers: make(map[uuid.UUID][]Marker)}
}

func (s *MemoryStore) Markers(ctx context.Context, instance model.Instance, resourceID uuid.UUID) ([]Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Marker, len(s.markers[resourceID]))
	copy(out, s.markers[resourceID])
	return out, nil
}

func (s *MemoryStore) Record(ctx context.Context, instance model.Instance, resourceID, stateID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[resourceID] = []Marker{{ResourceID: resourceID, StateID: stateID, LastMigrationInstant: at}}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, instance model.Instance, resourceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, resourceID)
	return nil
}

// Add appends a marker without replacing existing ones
func (s *MemoryStore) Add(m Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[m.ResourceID] = append(s.markers[m.ResourceID], m)
}
