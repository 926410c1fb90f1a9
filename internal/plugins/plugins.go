// Package plugins wires the built-in backends into a registry.
package plugins

import (
	"errors"

	"github.com/toolsascode/wildebeest/internal/backends/composite"
	"github.com/toolsascode/wildebeest/internal/backends/etcd"
	"github.com/toolsascode/wildebeest/internal/backends/postgresql"
	"github.com/toolsascode/wildebeest/internal/backends/sqlite"
	"github.com/toolsascode/wildebeest/internal/registry"
)

// RegisterDefaults registers every built-in plugin group. The composite
// plugins load and migrate external resources through loader and migrator.
func RegisterDefaults(reg registry.Registry, loader composite.ResourceLoader, migrator composite.Migrator) error {
	return errors.Join(
		postgresql.Register(reg),
		sqlite.Register(reg),
		etcd.Register(reg),
		composite.Register(reg, loader, migrator),
	)
}
