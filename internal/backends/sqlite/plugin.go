package sqlite

import (
	"errors"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/registry"
	"github.com/toolsascode/wildebeest/internal/state"
)

// Group describes the SQLite plugins
var Group = backends.PluginGroup{
	URI:         "wildebeest/sqlite",
	Name:        "SQLite",
	Description: "SQLite database files: state tracking, SQL scripts and table assertions",
}

// Register binds the SQLite resource plugin, migrations and decoders
func Register(reg registry.Registry) error {
	reg.RegisterGroup(Group)
	plugin := backends.MigrationPluginFunc(Perform)

	return errors.Join(
		reg.RegisterResourcePlugin(model.ResourceTypeSQLite, state.NewTracker(Store{})),
		reg.RegisterInstanceDecoder(model.ResourceTypeSQLite, DecodeInstance),

		reg.RegisterMigrationPlugin(KindSQLScript, plugin),
		reg.RegisterMigrationPlugin(KindDeleteDatabase, plugin),
		reg.RegisterMigrationDecoder(KindSQLScript, decodeSQLScript),
		reg.RegisterMigrationDecoder(KindDeleteDatabase, decodeDeleteDatabase),

		reg.RegisterAssertionDecoder(KindRowExists, decodeRowAssertion(true)),
		reg.RegisterAssertionDecoder(KindRowDoesNotExist, decodeRowAssertion(false)),
		reg.RegisterAssertionDecoder(KindTableExists, decodeTableAssertion(true)),
		reg.RegisterAssertionDecoder(KindTableDoesNotExist, decodeTableAssertion(false)),
	)
}
