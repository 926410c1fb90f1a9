package migrations

import "github.com/toolsascode/wildebeest/internal/registry"

// GlobalRegistry provides public access to the process-wide plugin registry
// used by the wb commands.
var GlobalRegistry = registry.GlobalRegistry

// Registry is the plugin registry interface
type Registry = registry.Registry

// NewRegistry creates an empty registry
func NewRegistry() Registry {
	return registry.NewInMemoryRegistry()
}
