package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"

	_ "modernc.org/sqlite"
)

var validate = validator.New()

// Instance is a SQLite database file
type Instance struct {
	Path string `yaml:"path" validate:"required"`
}

func (i *Instance) ResourceType() model.ResourceType { return model.ResourceTypeSQLite }

// DecodeInstance builds an Instance from an instance document
func DecodeInstance(node backends.Node) (model.Instance, error) {
	inst := &Instance{}
	if err := node.Decode(inst); err != nil {
		return nil, err
	}
	if err := validate.Struct(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func asInstance(instance model.Instance) (*Instance, error) {
	inst, ok := instance.(*Instance)
	if !ok {
		return nil, model.NewIncompatibleInstance(model.ResourceTypeSQLite, instance)
	}
	return inst, nil
}

// exists reports whether the database file is present
func (i *Instance) exists() (bool, error) {
	_, err := os.Stat(i.Path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat database %s: %w", i.Path, err)
	}
}

// open connects to the database, creating the file when it is missing
func (i *Instance) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", i.Path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// withDatabase runs check against an existing database, failing the
// assertion when the file is missing.
func withDatabase(ctx context.Context, instance model.Instance, check func(db *sql.DB) (model.AssertionResponse, error)) (model.AssertionResponse, error) {
	inst, err := asInstance(instance)
	if err != nil {
		return model.AssertionResponse{}, err
	}

	exists, err := inst.exists()
	if err != nil {
		return model.AssertionResponse{}, err
	}
	if !exists {
		return backends.DatabaseMissingResponse(inst.Path), nil
	}

	db, err := inst.open(ctx)
	if err != nil {
		return model.AssertionResponse{}, err
	}
	defer func() { _ = db.Close() }()

	return check(db)
}

func quoteIdentifier(name string) string {
	out := []byte{'"'}
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, name[i])
	}
	return string(append(out, '"'))
}
