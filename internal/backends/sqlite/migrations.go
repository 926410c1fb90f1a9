package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
)

const (
	KindSQLScript      = "sqlite.sqlScript"
	KindDeleteDatabase = "sqlite.deleteDatabase"
)

// SQLScriptMigration runs a script inside a transaction. The database file
// is created on first use.
type SQLScriptMigration struct {
	model.BaseMigration
	SQL string
}

func (*SQLScriptMigration) Kind() string { return KindSQLScript }

// DeleteDatabaseMigration removes the database file and its journals
type DeleteDatabaseMigration struct {
	model.BaseMigration
}

func (*DeleteDatabaseMigration) Kind() string { return KindDeleteDatabase }

// Perform implements backends.MigrationPlugin for every SQLite migration kind
func Perform(ctx context.Context, log logrus.FieldLogger, migration model.Migration, instance model.Instance) error {
	inst, err := asInstance(instance)
	if err != nil {
		return err
	}

	switch m := migration.(type) {
	case *SQLScriptMigration:
		return runScript(ctx, log, inst, m)
	case *DeleteDatabaseMigration:
		log.Infof("Deleting database %s", inst.Path)
		for _, path := range []string{inst.Path, inst.Path + "-wal", inst.Path + "-shm", inst.Path + "-journal"} {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to delete %s: %w", path, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported SQLite migration %T", migration)
	}
}

func runScript(ctx context.Context, log logrus.FieldLogger, inst *Instance, m *SQLScriptMigration) error {
	db, err := inst.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	log.Debugf("Executing script on %s", inst.Path)
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute script: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func decodeSQLScript(base model.BaseMigration, node backends.Node, env backends.DecodeEnv) (model.Migration, error) {
	var params struct {
		SQL        string `yaml:"sql"`
		ScriptFile string `yaml:"scriptFile"`
	}
	if err := node.Decode(&params); err != nil {
		return nil, err
	}
	script, err := env.ReadScript(params.SQL, params.ScriptFile)
	if err != nil {
		return nil, err
	}
	return &SQLScriptMigration{BaseMigration: base, SQL: script}, nil
}

func decodeDeleteDatabase(base model.BaseMigration, node backends.Node, env backends.DecodeEnv) (model.Migration, error) {
	return &DeleteDatabaseMigration{BaseMigration: base}, nil
}
