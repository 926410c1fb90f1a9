// Package composite provides migrations that drive another resource
// defined in its own document.
package composite

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/executor"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/registry"
)

// KindExternalResource migrates an external resource on the same instance
const KindExternalResource = "composite.externalResource"

// Group describes the composite plugins
var Group = backends.PluginGroup{
	URI:         "wildebeest/composite",
	Name:        "Composite",
	Description: "Migrations that delegate to other resource definitions",
}

// MaxNesting bounds how many external resources may be migrating at once
// along one chain of composite migrations
const MaxNesting = 8

var validate = validator.New()

type chainKey struct{}

// chainFrom returns the resource files being migrated by the enclosing
// composite migrations, outermost first
func chainFrom(ctx context.Context) []string {
	chain, _ := ctx.Value(chainKey{}).([]string)
	return chain
}

func withChain(ctx context.Context, chain []string, file string) context.Context {
	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	return context.WithValue(ctx, chainKey{}, append(next, file))
}

// ResourceLoader reads resource documents
type ResourceLoader interface {
	LoadResource(path string) (*model.Resource, error)
}

// Migrator moves an instance to a target state of a resource
type Migrator interface {
	Migrate(ctx context.Context, resource *model.Resource, instance model.Instance, target string) (*executor.MigrateReport, error)
}

// ExternalResourceMigration migrates the resource defined in ResourceFile to
// Target, on the instance the enclosing migration runs against.
type ExternalResourceMigration struct {
	model.BaseMigration
	ResourceFile string
	Target       string
}

func (*ExternalResourceMigration) Kind() string { return KindExternalResource }

// Plugin performs external resource migrations
type Plugin struct {
	loader   ResourceLoader
	migrator Migrator
}

// NewPlugin creates a plugin that loads resources with loader and migrates
// them with migrator
func NewPlugin(loader ResourceLoader, migrator Migrator) *Plugin {
	return &Plugin{loader: loader, migrator: migrator}
}

func (p *Plugin) Perform(ctx context.Context, log logrus.FieldLogger, migration model.Migration, instance model.Instance) error {
	m, ok := migration.(*ExternalResourceMigration)
	if !ok {
		return fmt.Errorf("unsupported composite migration %T", migration)
	}

	chain := chainFrom(ctx)
	if slices.Contains(chain, m.ResourceFile) {
		return model.NewMigrationFailed(m.ID,
			fmt.Sprintf("External resource %s is already being migrated: %s", m.ResourceFile, strings.Join(chain, " -> ")), nil)
	}
	if len(chain) >= MaxNesting {
		return model.NewMigrationFailed(m.ID,
			fmt.Sprintf("External resources nested deeper than %d: %s", MaxNesting, strings.Join(chain, " -> ")), nil)
	}

	resource, err := p.loader.LoadResource(m.ResourceFile)
	if err != nil {
		return model.NewMigrationFailed(m.ID, "Unable to load external resource", err)
	}

	log.Infof("Migrating external resource %s to %s", resource.Name, m.Target)
	if _, err := p.migrator.Migrate(withChain(ctx, chain, m.ResourceFile), resource, instance, m.Target); err != nil {
		return externalFailure(m, err)
	}
	return nil
}

func externalFailure(m *ExternalResourceMigration, err error) error {
	switch model.KindOf(err) {
	case model.KindIndeterminateState:
		return model.NewMigrationFailed(m.ID, "Indeterminate state in external resource", err)
	case model.KindAssertionFailed:
		return model.NewMigrationFailed(m.ID, "Assertion failed in external resource", err)
	case model.KindMigrationNotPossible, model.KindAmbiguousPath:
		return model.NewMigrationFailed(m.ID, "Migration not possible in external resource", err)
	case model.KindIncompatibleInstance:
		return err
	default:
		return model.NewMigrationFailed(m.ID, "Migration failed in external resource", err)
	}
}

func decodeExternalResource(base model.BaseMigration, node backends.Node, env backends.DecodeEnv) (model.Migration, error) {
	var params struct {
		ResourceFile string `yaml:"resourceFile" validate:"required"`
		Target       string `yaml:"target" validate:"required"`
	}
	if err := node.Decode(&params); err != nil {
		return nil, err
	}
	if err := validate.Struct(&params); err != nil {
		return nil, err
	}
	return &ExternalResourceMigration{
		BaseMigration: base,
		ResourceFile:  env.Resolve(params.ResourceFile),
		Target:        params.Target,
	}, nil
}

// Register binds the composite migration kinds
func Register(reg registry.Registry, loader ResourceLoader, migrator Migrator) error {
	reg.RegisterGroup(Group)
	return errors.Join(
		reg.RegisterMigrationPlugin(KindExternalResource, NewPlugin(loader, migrator)),
		reg.RegisterMigrationDecoder(KindExternalResource, decodeExternalResource),
	)
}
