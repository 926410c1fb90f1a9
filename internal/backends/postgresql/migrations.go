package postgresql

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
)

const (
	KindSQLScript      = "postgresql.sqlScript"
	KindCreateDatabase = "postgresql.createDatabase"
	KindDropDatabase   = "postgresql.dropDatabase"
)

// SQLScriptMigration runs a script inside a transaction. When Schema is set
// the schema is created if needed and put first on the search path.
type SQLScriptMigration struct {
	model.BaseMigration
	SQL    string
	Schema string
}

func (*SQLScriptMigration) Kind() string { return KindSQLScript }

// CreateDatabaseMigration creates the instance's database
type CreateDatabaseMigration struct {
	model.BaseMigration
}

func (*CreateDatabaseMigration) Kind() string { return KindCreateDatabase }

// DropDatabaseMigration drops the instance's database
type DropDatabaseMigration struct {
	model.BaseMigration
}

func (*DropDatabaseMigration) Kind() string { return KindDropDatabase }

// Perform implements backends.MigrationPlugin for every PostgreSQL migration kind
func Perform(ctx context.Context, log logrus.FieldLogger, migration model.Migration, instance model.Instance) error {
	inst, err := asInstance(instance)
	if err != nil {
		return err
	}

	switch m := migration.(type) {
	case *SQLScriptMigration:
		return runScript(ctx, log, inst, m)
	case *CreateDatabaseMigration:
		log.Infof("Creating database %s on %s", inst.DatabaseName, inst.Host)
		return adminExec(ctx, inst, fmt.Sprintf("CREATE DATABASE %s", quoteIdentifier(inst.DatabaseName)))
	case *DropDatabaseMigration:
		log.Infof("Dropping database %s on %s", inst.DatabaseName, inst.Host)
		return adminExec(ctx, inst, fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", quoteIdentifier(inst.DatabaseName)))
	default:
		return fmt.Errorf("unsupported PostgreSQL migration %T", migration)
	}
}

func runScript(ctx context.Context, log logrus.FieldLogger, inst *Instance, m *SQLScriptMigration) error {
	exists, err := inst.databaseExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("database %s does not exist", inst.DatabaseName)
	}

	db, err := inst.open(ctx, inst.DatabaseName)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if m.Schema != "" {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quoteIdentifier(m.Schema))); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", m.Schema, err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if m.Schema != "" {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL search_path TO %s, public", quoteIdentifier(m.Schema))); err != nil {
			return fmt.Errorf("failed to set search_path: %w", err)
		}
	}

	log.Debugf("Executing script on %s", inst.DatabaseName)
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute script: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func adminExec(ctx context.Context, inst *Instance, statement string) error {
	db, err := inst.open(ctx, adminDatabase)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("failed to execute %q: %w", statement, err)
	}
	return nil
}

func decodeSQLScript(base model.BaseMigration, node backends.Node, env backends.DecodeEnv) (model.Migration, error) {
	var params struct {
		SQL        string `yaml:"sql"`
		ScriptFile string `yaml:"scriptFile"`
		Schema     string `yaml:"schema"`
	}
	if err := node.Decode(&params); err != nil {
		return nil, err
	}
	script, err := env.ReadScript(params.SQL, params.ScriptFile)
	if err != nil {
		return nil, err
	}
	return &SQLScriptMigration{BaseMigration: base, SQL: script, Schema: params.Schema}, nil
}

func decodeCreateDatabase(base model.BaseMigration, node backends.Node, env backends.DecodeEnv) (model.Migration, error) {
	return &CreateDatabaseMigration{BaseMigration: base}, nil
}

func decodeDropDatabase(base model.BaseMigration, node backends.Node, env backends.DecodeEnv) (model.Migration, error) {
	return &DropDatabaseMigration{BaseMigration: base}, nil
}
