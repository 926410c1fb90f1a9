package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
)

// Registry maps resource types and migration kinds to the plugins that
// handle them, and document kinds to the decoders that build them.
type Registry interface {
	// RegisterResourcePlugin binds a resource type to its state-marker plugin
	RegisterResourcePlugin(resourceType model.ResourceType, plugin backends.ResourcePlugin) error

	// RegisterMigrationPlugin binds a migration kind to the plugin that performs it
	RegisterMigrationPlugin(kind string, plugin backends.MigrationPlugin) error

	// RegisterMigrationDecoder binds a migration kind to its document decoder
	RegisterMigrationDecoder(kind string, decoder backends.MigrationDecoder) error

	// RegisterAssertionDecoder binds an assertion kind to its document decoder
	RegisterAssertionDecoder(kind string, decoder backends.AssertionDecoder) error

	// RegisterInstanceDecoder binds a resource type to its instance decoder
	RegisterInstanceDecoder(resourceType model.ResourceType, decoder backends.InstanceDecoder) error

	// RegisterGroup records a plugin group for listing
	RegisterGroup(group backends.PluginGroup)

	ResourcePluginFor(resourceType model.ResourceType) (backends.ResourcePlugin, error)
	MigrationPluginFor(kind string) (backends.MigrationPlugin, error)
	MigrationDecoderFor(kind string) (backends.MigrationDecoder, error)
	AssertionDecoderFor(kind string) (backends.AssertionDecoder, error)
	InstanceDecoderFor(resourceType model.ResourceType) (backends.InstanceDecoder, error)

	// Groups returns the registered plugin groups sorted by URI
	Groups() []backends.PluginGroup
}

// GlobalRegistry is the process-wide registry used by the commands
var GlobalRegistry Registry = NewInMemoryRegistry()

// NewInMemoryRegistry creates a new in-memory registry
func NewInMemoryRegistry() Registry {
	return &inMemoryRegistry{
		resourcePlugins:   make(map[model.ResourceType]backends.ResourcePlugin),
		migrationPlugins:  make(map[string]backends.MigrationPlugin),
		migrationDecoders: make(map[string]backends.MigrationDecoder),
		assertionDecoders: make(map[string]backends.AssertionDecoder),
		instanceDecoders:  make(map[model.ResourceType]backends.InstanceDecoder),
		groups:            make(map[string]backends.PluginGroup),
	}
}

type inMemoryRegistry struct {
	mu                sync.RWMutex
	resourcePlugins   map[model.ResourceType]backends.ResourcePlugin
	migrationPlugins  map[string]backends.MigrationPlugin
	migrationDecoders map[string]backends.MigrationDecoder
	assertionDecoders map[string]backends.AssertionDecoder
	instanceDecoders  map[model.ResourceType]backends.InstanceDecoder
	groups            map[string]backends.PluginGroup
}

func (r *inMemoryRegistry) RegisterResourcePlugin(resourceType model.ResourceType, plugin backends.ResourcePlugin) error {
	if resourceType == "" || plugin == nil {
		return fmt.Errorf("resource type and plugin are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.resourcePlugins[resourceType]; exists {
		return fmt.Errorf("resource plugin for %s already registered", resourceType)
	}
	r.resourcePlugins[resourceType] = plugin
	return nil
}

func (r *inMemoryRegistry) RegisterMigrationPlugin(kind string, plugin backends.MigrationPlugin) error {
	if kind == "" || plugin == nil {
		return fmt.Errorf("migration kind and plugin are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.migrationPlugins[kind]; exists {
		return fmt.Errorf("migration plugin for %s already registered", kind)
	}
	r.migrationPlugins[kind] = plugin
	return nil
}

func (r *inMemoryRegistry) RegisterMigrationDecoder(kind string, decoder backends.MigrationDecoder) error {
	if kind == "" || decoder == nil {
		return fmt.Errorf("migration kind and decoder are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.migrationDecoders[kind]; exists {
		return fmt.Errorf("migration decoder for %s already registered", kind)
	}
	r.migrationDecoders[kind] = decoder
	return nil
}

func (r *inMemoryRegistry) RegisterAssertionDecoder(kind string, decoder backends.AssertionDecoder) error {
	if kind == "" || decoder == nil {
		return fmt.Errorf("assertion kind and decoder are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.assertionDecoders[kind]; exists {
		return fmt.Errorf("assertion decoder for %s already registered", kind)
	}
	r.assertionDecoders[kind] = decoder
	return nil
}

func (r *inMemoryRegistry) RegisterInstanceDecoder(resourceType model.ResourceType, decoder backends.InstanceDecoder) error {
	if resourceType == "" || decoder == nil {
		return fmt.Errorf("resource type and decoder are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.instanceDecoders[resourceType]; exists {
		return fmt.Errorf("instance decoder for %s already registered", resourceType)
	}
	r.instanceDecoders[resourceType] = decoder
	return nil
}

func (r *inMemoryRegistry) RegisterGroup(group backends.PluginGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.URI] = group
}

func (r *inMemoryRegistry) ResourcePluginFor(resourceType model.ResourceType) (backends.ResourcePlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plugin, ok := r.resourcePlugins[resourceType]
	if !ok {
		return nil, model.NewPluginNotFound(fmt.Sprintf("no resource plugin registered for resource type %q", resourceType))
	}
	return plugin, nil
}

func (r *inMemoryRegistry) MigrationPluginFor(kind string) (backends.MigrationPlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plugin, ok := r.migrationPlugins[kind]
	if !ok {
		return nil, model.NewPluginNotFound(fmt.Sprintf("no migration plugin registered for migration kind %q", kind))
	}
	return plugin, nil
}

func (r *inMemoryRegistry) MigrationDecoderFor(kind string) (backends.MigrationDecoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decoder, ok := r.migrationDecoders[kind]
	if !ok {
		return nil, model.NewPluginNotFound(fmt.Sprintf("unknown migration kind %q", kind))
	}
	return decoder, nil
}

func (r *inMemoryRegistry) AssertionDecoderFor(kind string) (backends.AssertionDecoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decoder, ok := r.assertionDecoders[kind]
	if !ok {
		return nil, model.NewPluginNotFound(fmt.Sprintf("unknown assertion kind %q", kind))
	}
	return decoder, nil
}

func (r *inMemoryRegistry) InstanceDecoderFor(resourceType model.ResourceType) (backends.InstanceDecoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decoder, ok := r.instanceDecoders[resourceType]
	if !ok {
		return nil, model.NewPluginNotFound(fmt.Sprintf("unknown instance type %q", resourceType))
	}
	return decoder, nil
}

func (r *inMemoryRegistry) Groups() []backends.PluginGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make([]backends.PluginGroup, 0, len(r.groups))
	for _, g := range r.groups {
		results = append(results, g)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].URI < results[j].URI
	})
	return results
}
