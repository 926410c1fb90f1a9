package state

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/toolsascode/wildebeest/internal/model"
)

const (
	// DefaultMetaSchema is the schema that holds the state table on backends with schemas
	DefaultMetaSchema = "wb"
	// DefaultStateTable is the table that holds state markers
	DefaultStateTable = "wb_state"
)

// Marker records the state a resource instance was last moved to
type Marker struct {
	ResourceID           uuid.UUID
	StateID              uuid.UUID
	LastMigrationInstant time.Time
}

// Store persists state markers on a backend
type Store interface {
	// Markers returns every marker recorded for the resource. A backend
	// where the resource has never been provisioned returns no markers.
	Markers(ctx context.Context, instance model.Instance, resourceID uuid.UUID) ([]Marker, error)

	// Record replaces the resource's markers with a single marker for stateID
	Record(ctx context.Context, instance model.Instance, resourceID, stateID uuid.UUID, at time.Time) error

	// Clear removes the resource's markers. A backend that no longer exists
	// has nothing to clear and returns nil.
	Clear(ctx context.Context, instance model.Instance, resourceID uuid.UUID) error
}
