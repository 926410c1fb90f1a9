package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Resource is the declared graph of states and migrations for one kind of
// external system.
type Resource struct {
	ID            uuid.UUID
	Type          ResourceType
	Name          string
	States        []State
	Migrations    []Migration
	DefaultTarget string
}

// StateForID returns the declared state with the given id, or nil
func (r *Resource) StateForID(id uuid.UUID) *State {
	for i := range r.States {
		if r.States[i].ID == id {
			return &r.States[i]
		}
	}
	return nil
}

// HasState reports whether id names a declared state
func (r *Resource) HasState(id uuid.UUID) bool {
	return r.StateForID(id) != nil
}

// StateIDForLabel resolves a label to a state id. Labels are unique once
// Validate has passed; on an unvalidated resource the first match wins.
func (r *Resource) StateIDForLabel(label string) (uuid.UUID, bool) {
	for i := range r.States {
		if r.States[i].Label == label {
			return r.States[i].ID, true
		}
	}
	return uuid.Nil, false
}

// MigrationForID returns the declared migration with the given id, or nil
func (r *Resource) MigrationForID(id uuid.UUID) Migration {
	for _, m := range r.Migrations {
		if m.MigrationID() == id {
			return m
		}
	}
	return nil
}

// Validate checks the invariants a loaded resource must satisfy
func (r *Resource) Validate() error {
	if r.ID == uuid.Nil {
		return NewInvalidDefinition("resource id is required", nil)
	}
	if r.Type == "" {
		return NewInvalidDefinition("resource type is required", nil)
	}

	stateIDs := make(map[uuid.UUID]bool, len(r.States))
	labels := make(map[string]bool, len(r.States))
	for _, s := range r.States {
		if s.ID == uuid.Nil {
			return NewInvalidDefinition(fmt.Sprintf("state %q has no id", s.Label), nil)
		}
		if stateIDs[s.ID] {
			return NewInvalidDefinition(fmt.Sprintf("duplicate state id %s", s.ID), nil)
		}
		stateIDs[s.ID] = true

		if s.Label != "" {
			if labels[s.Label] {
				return NewInvalidDefinition(fmt.Sprintf("duplicate state label %q", s.Label), nil)
			}
			labels[s.Label] = true
		}

		assertionIDs := make(map[uuid.UUID]bool, len(s.Assertions))
		for _, a := range s.Assertions {
			if a.AssertionID() == uuid.Nil {
				return NewInvalidDefinition(fmt.Sprintf("assertion in state %s has no id", s.DisplayName()), nil)
			}
			if assertionIDs[a.AssertionID()] {
				return NewInvalidDefinition(fmt.Sprintf("duplicate assertion id %s in state %s", a.AssertionID(), s.DisplayName()), nil)
			}
			assertionIDs[a.AssertionID()] = true
		}
	}

	migrationIDs := make(map[uuid.UUID]bool, len(r.Migrations))
	for _, m := range r.Migrations {
		if m.MigrationID() == uuid.Nil {
			return NewInvalidDefinition("migration id is required", nil)
		}
		if migrationIDs[m.MigrationID()] {
			return NewInvalidDefinition(fmt.Sprintf("duplicate migration id %s", m.MigrationID()), nil)
		}
		migrationIDs[m.MigrationID()] = true

		if m.FromStateID() != uuid.Nil && !stateIDs[m.FromStateID()] {
			return NewInvalidDefinition(fmt.Sprintf("migration %s starts from undeclared state %s", m.MigrationID(), m.FromStateID()), nil)
		}
		if m.ToStateID() != uuid.Nil && !stateIDs[m.ToStateID()] {
			return NewInvalidDefinition(fmt.Sprintf("migration %s ends at undeclared state %s", m.MigrationID(), m.ToStateID()), nil)
		}
	}

	return nil
}
