package model

import (
	"context"

	"github.com/google/uuid"
)

// ResourceType classifies the backend a resource lives on
type ResourceType string

const (
	ResourceTypePostgreSQL ResourceType = "postgresql"
	ResourceTypeSQLite     ResourceType = "sqlite"
	ResourceTypeEtcd       ResourceType = "etcd"
)

// Instance is a live deployment of a resource. Concrete instances carry
// backend connection parameters and are only understood by their plugins.
type Instance interface {
	ResourceType() ResourceType
}

// State is a named, assertable point in a resource's lifecycle
type State struct {
	ID         uuid.UUID
	Label      string
	Assertions []Assertion
}

// DisplayName returns the label when set, otherwise the state id
func (s *State) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.ID.String()
}

// Migration is a directed edge between two states. uuid.Nil as the source
// means the resource does not exist yet; uuid.Nil as the target means the
// resource is destroyed by the migration.
type Migration interface {
	MigrationID() uuid.UUID
	FromStateID() uuid.UUID
	ToStateID() uuid.UUID
	// Kind names the migration variant and selects the plugin that performs it
	Kind() string
}

// BaseMigration carries the identity shared by every migration variant
type BaseMigration struct {
	ID   uuid.UUID
	From uuid.UUID
	To   uuid.UUID
}

func (m BaseMigration) MigrationID() uuid.UUID { return m.ID }
func (m BaseMigration) FromStateID() uuid.UUID { return m.From }
func (m BaseMigration) ToStateID() uuid.UUID   { return m.To }

// AssertionResponse is the outcome of applying an assertion to an instance
type AssertionResponse struct {
	Result  bool
	Message string
}

// Assertion is a read-only post-condition bound to a state.
//
// Perform returns a non-nil error only for faults: an instance of the wrong
// type (KindIncompatibleInstance) or backend I/O failure (KindAssertionFault).
// A check that ran and did not hold is reported through the response.
type Assertion interface {
	AssertionID() uuid.UUID
	SeqNum() int
	Kind() string
	Description() string
	Perform(ctx context.Context, instance Instance) (AssertionResponse, error)
}

// BaseAssertion carries the identity shared by every assertion variant
type BaseAssertion struct {
	ID  uuid.UUID
	Seq int
}

func (a BaseAssertion) AssertionID() uuid.UUID { return a.ID }
func (a BaseAssertion) SeqNum() int            { return a.Seq }

// AssertionResult is the reported outcome of one assertion evaluation
type AssertionResult struct {
	AssertionID uuid.UUID `json:"assertion_id"`
	Description string    `json:"description"`
	Result      bool      `json:"result"`
	Message     string    `json:"message"`
}

// AllPassed reports whether every result holds
func AllPassed(results []AssertionResult) bool {
	for _, r := range results {
		if !r.Result {
			return false
		}
	}
	return true
}
