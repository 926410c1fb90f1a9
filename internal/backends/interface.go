package backends

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/toolsascode/wildebeest/internal/model"
)

// ResourcePlugin reads and writes the current-state marker of a resource
// instance for one resource type.
type ResourcePlugin interface {
	// CurrentState returns the declared state the instance is in, or nil when
	// the resource does not exist yet. Ambiguous or undeclared markers are
	// reported as model.KindIndeterminateState.
	CurrentState(ctx context.Context, resource *model.Resource, instance model.Instance) (*model.State, error)

	// SetStateID persists stateID as the instance's current state
	SetStateID(ctx context.Context, resource *model.Resource, instance model.Instance, stateID uuid.UUID) error
}

// MigrationPlugin performs the backend side effect of one migration kind
type MigrationPlugin interface {
	Perform(ctx context.Context, log logrus.FieldLogger, migration model.Migration, instance model.Instance) error
}

// MigrationPluginFunc adapts a function to MigrationPlugin
type MigrationPluginFunc func(ctx context.Context, log logrus.FieldLogger, migration model.Migration, instance model.Instance) error

func (f MigrationPluginFunc) Perform(ctx context.Context, log logrus.FieldLogger, migration model.Migration, instance model.Instance) error {
	return f(ctx, log, migration, instance)
}

// Node is a decodable document fragment. *yaml.Node satisfies it.
type Node interface {
	Decode(v any) error
}

// DecodeEnv carries loader context to variant decoders
type DecodeEnv struct {
	// BaseDir is the directory of the document being decoded; relative file
	// parameters resolve against it.
	BaseDir string
}

// MigrationDecoder builds a migration variant from its document parameters
type MigrationDecoder func(base model.BaseMigration, node Node, env DecodeEnv) (model.Migration, error)

// AssertionDecoder builds an assertion variant from its document parameters
type AssertionDecoder func(base model.BaseAssertion, node Node, env DecodeEnv) (model.Assertion, error)

// InstanceDecoder builds an instance from its document parameters
type InstanceDecoder func(node Node) (model.Instance, error)

// PluginGroup describes a family of plugins shipped together
type PluginGroup struct {
	URI         string `json:"uri" yaml:"uri"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// ConnectionConfig holds configuration for a named instance supplied through
// the environment rather than an instance document.
type ConnectionConfig struct {
	Name     string
	Type     string // "postgresql", "sqlite", "etcd"
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Schema   string
	Extra    map[string]string // Additional backend-specific config
}
