package state

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toolsascode/wildebeest/internal/model"
)

// Tracker implements backends.ResourcePlugin on top of a marker Store
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a tracker backed by store
func NewTracker(store Store) *Tracker {
	return &Tracker{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CurrentState returns the declared state named by the resource's marker, or
// nil when no marker exists.
func (t *Tracker) CurrentState(ctx context.Context, resource *model.Resource, instance model.Instance) (*model.State, error) {
	markers, err := t.store.Markers(ctx, instance, resource.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read state markers: %w", err)
	}

	switch len(markers) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, model.NewIndeterminateState(fmt.Sprintf(
			"Multiple rows found with resource ID %s in state tracking table", resource.ID))
	}

	s := resource.StateForID(markers[0].StateID)
	if s == nil {
		return nil, model.NewIndeterminateState(fmt.Sprintf(
			"The resource is declared to be in state %s, but this state is not defined for this resource",
			markers[0].StateID))
	}
	return s, nil
}

// SetStateID records stateID as the resource's current state. uuid.Nil
// records that the resource no longer exists.
func (t *Tracker) SetStateID(ctx context.Context, resource *model.Resource, instance model.Instance, stateID uuid.UUID) error {
	if stateID == uuid.Nil {
		if err := t.store.Clear(ctx, instance, resource.ID); err != nil {
			return fmt.Errorf("failed to clear state: %w", err)
		}
		return nil
	}
	if err := t.store.Record(ctx, instance, resource.ID, stateID, t.now()); err != nil {
		return fmt.Errorf("failed to record state %s: %w", stateID, err)
	}
	return nil
}
