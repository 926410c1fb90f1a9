package plugins

import (
	"testing"

	"github.com/toolsascode/wildebeest/internal/backends/composite"
	"github.com/toolsascode/wildebeest/internal/backends/etcd"
	"github.com/toolsascode/wildebeest/internal/backends/postgresql"
	"github.com/toolsascode/wildebeest/internal/backends/sqlite"
	"github.com/toolsascode/wildebeest/internal/executor"
	"github.com/toolsascode/wildebeest/internal/loader"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/registry"
)

func TestRegisterDefaults(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	if err := RegisterDefaults(reg, loader.New(reg), executor.NewExecutor(reg)); err != nil {
		t.Fatalf("RegisterDefaults() error = %v", err)
	}

	groups := reg.Groups()
	want := []string{composite.Group.URI, etcd.Group.URI, postgresql.Group.URI, sqlite.Group.URI}
	if len(groups) != len(want) {
		t.Fatalf("Groups() = %v, want %v", groups, want)
	}
	for i, uri := range want {
		if groups[i].URI != uri {
			t.Errorf("Groups()[%d] = %s, want %s", i, groups[i].URI, uri)
		}
	}

	for _, rt := range []model.ResourceType{model.ResourceTypePostgreSQL, model.ResourceTypeSQLite, model.ResourceTypeEtcd} {
		if _, err := reg.ResourcePluginFor(rt); err != nil {
			t.Errorf("ResourcePluginFor(%s) error = %v", rt, err)
		}
		if _, err := reg.InstanceDecoderFor(rt); err != nil {
			t.Errorf("InstanceDecoderFor(%s) error = %v", rt, err)
		}
	}

	kinds := []string{
		postgresql.KindSQLScript, postgresql.KindCreateDatabase, postgresql.KindDropDatabase,
		sqlite.KindSQLScript, sqlite.KindDeleteDatabase,
		etcd.KindKV,
		composite.KindExternalResource,
	}
	for _, kind := range kinds {
		if _, err := reg.MigrationPluginFor(kind); err != nil {
			t.Errorf("MigrationPluginFor(%s) error = %v", kind, err)
		}
		if _, err := reg.MigrationDecoderFor(kind); err != nil {
			t.Errorf("MigrationDecoderFor(%s) error = %v", kind, err)
		}
	}
}
