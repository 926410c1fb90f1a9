package postgresql

import (
	"errors"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/registry"
	"github.com/toolsascode/wildebeest/internal/state"
)

// Group describes the PostgreSQL plugins
var Group = backends.PluginGroup{
	URI:         "wildebeest/postgresql",
	Name:        "PostgreSQL",
	Description: "PostgreSQL databases: state tracking, SQL scripts, database lifecycle and schema assertions",
}

// Register binds the PostgreSQL resource plugin, migrations and decoders
func Register(reg registry.Registry) error {
	reg.RegisterGroup(Group)
	plugin := backends.MigrationPluginFunc(Perform)

	return errors.Join(
		reg.RegisterResourcePlugin(model.ResourceTypePostgreSQL, state.NewTracker(Store{})),
		reg.RegisterInstanceDecoder(model.ResourceTypePostgreSQL, DecodeInstance),

		reg.RegisterMigrationPlugin(KindSQLScript, plugin),
		reg.RegisterMigrationPlugin(KindCreateDatabase, plugin),
		reg.RegisterMigrationPlugin(KindDropDatabase, plugin),
		reg.RegisterMigrationDecoder(KindSQLScript, decodeSQLScript),
		reg.RegisterMigrationDecoder(KindCreateDatabase, decodeCreateDatabase),
		reg.RegisterMigrationDecoder(KindDropDatabase, decodeDropDatabase),

		reg.RegisterAssertionDecoder(KindRowExists, decodeRowAssertion(true)),
		reg.RegisterAssertionDecoder(KindRowDoesNotExist, decodeRowAssertion(false)),
		reg.RegisterAssertionDecoder(KindSchemaExists, decodeSchemaAssertion(true)),
		reg.RegisterAssertionDecoder(KindSchemaDoesNotExist, decodeSchemaAssertion(false)),
		reg.RegisterAssertionDecoder(KindTableExists, decodeTableAssertion(true)),
		reg.RegisterAssertionDecoder(KindTableDoesNotExist, decodeTableAssertion(false)),
	)
}
