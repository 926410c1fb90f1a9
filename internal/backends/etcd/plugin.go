package etcd

import (
	"errors"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/registry"
	"github.com/toolsascode/wildebeest/internal/state"
)

// Group describes the etcd plugins
var Group = backends.PluginGroup{
	URI:         "wildebeest/etcd",
	Name:        "etcd",
	Description: "etcd key spaces: state tracking, transactional key-value migrations and key assertions",
}

// Register binds the etcd resource plugin, migrations and decoders
func Register(reg registry.Registry) error {
	reg.RegisterGroup(Group)

	return errors.Join(
		reg.RegisterResourcePlugin(model.ResourceTypeEtcd, state.NewTracker(Store{})),
		reg.RegisterInstanceDecoder(model.ResourceTypeEtcd, DecodeInstance),
		reg.RegisterMigrationPlugin(KindKV, backends.MigrationPluginFunc(Perform)),
		reg.RegisterMigrationDecoder(KindKV, decodeKV),
		reg.RegisterAssertionDecoder(KindKeyExists, decodeKeyAssertion(true)),
		reg.RegisterAssertionDecoder(KindKeyDoesNotExist, decodeKeyAssertion(false)),
	)
}
