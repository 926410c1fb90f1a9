package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/state"
)

// markerValue is the JSON stored under a resource's state key
type markerValue struct {
	StateID              uuid.UUID `json:"stateId"`
	LastMigrationInstant time.Time `json:"lastMigrationInstant"`
}

// Store keeps one marker key per resource. A Put replaces the previous
// marker, so a resource never has more than one.
type Store struct{}

func stateKey(inst *Instance, resourceID uuid.UUID) string {
	return inst.Key("wb/state/" + resourceID.String())
}

func (Store) Markers(ctx context.Context, instance model.Instance, resourceID uuid.UUID) ([]state.Marker, error) {
	return withClient(ctx, instance, func(inst *Instance, client *clientv3.Client) ([]state.Marker, error) {
		resp, err := client.Get(ctx, stateKey(inst, resourceID))
		if err != nil {
			return nil, fmt.Errorf("failed to read state key: %w", err)
		}

		markers := make([]state.Marker, 0, len(resp.Kvs))
		for _, kv := range resp.Kvs {
			m, err := decodeMarker(resourceID, kv.Value)
			if err != nil {
				return nil, err
			}
			markers = append(markers, m)
		}
		return markers, nil
	})
}

func (Store) Record(ctx context.Context, instance model.Instance, resourceID, stateID uuid.UUID, at time.Time) error {
	_, err := withClient(ctx, instance, func(inst *Instance, client *clientv3.Client) (struct{}, error) {
		value, err := json.Marshal(markerValue{StateID: stateID, LastMigrationInstant: at.UTC()})
		if err != nil {
			return struct{}{}, err
		}
		if _, err := client.Put(ctx, stateKey(inst, resourceID), string(value)); err != nil {
			return struct{}{}, fmt.Errorf("failed to write state key: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

func (Store) Clear(ctx context.Context, instance model.Instance, resourceID uuid.UUID) error {
	_, err := withClient(ctx, instance, func(inst *Instance, client *clientv3.Client) (struct{}, error) {
		if _, err := client.Delete(ctx, stateKey(inst, resourceID)); err != nil {
			return struct{}{}, fmt.Errorf("failed to delete state key: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

func decodeMarker(resourceID uuid.UUID, data []byte) (state.Marker, error) {
	var v markerValue
	if err := json.Unmarshal(data, &v); err != nil {
		return state.Marker{}, model.NewIndeterminateState(fmt.Sprintf("State key for resource %s holds an unreadable marker", resourceID))
	}
	return state.Marker{ResourceID: resourceID, StateID: v.StateID, LastMigrationInstant: v.LastMigrationInstant}, nil
}
