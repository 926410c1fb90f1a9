package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
)

const (
	KindRowExists          = "postgresql.rowExists"
	KindRowDoesNotExist    = "postgresql.rowDoesNotExist"
	KindSchemaExists       = "postgresql.schemaExists"
	KindSchemaDoesNotExist = "postgresql.schemaDoesNotExist"
	KindTableExists        = "postgresql.tableExists"
	KindTableDoesNotExist  = "postgresql.tableDoesNotExist"
)

// RowAssertion checks the number of rows a query returns: exactly one when
// Exists is set, none otherwise.
type RowAssertion struct {
	model.BaseAssertion
	SQL    string
	Exists bool
}

func (a *RowAssertion) Kind() string {
	if a.Exists {
		return KindRowExists
	}
	return KindRowDoesNotExist
}

func (a *RowAssertion) Description() string {
	if a.Exists {
		return "Row exists"
	}
	return "Row does not exist"
}

func (a *RowAssertion) Perform(ctx context.Context, instance model.Instance) (model.AssertionResponse, error) {
	return withDatabase(ctx, instance, func(db *sql.DB) (model.AssertionResponse, error) {
		count, err := backends.CountRows(ctx, db, a.SQL)
		if err != nil {
			return model.AssertionResponse{}, err
		}
		if a.Exists {
			return backends.RowExistsResponse(count), nil
		}
		return backends.RowDoesNotExistResponse(count), nil
	})
}

// SchemaAssertion checks whether a schema is present
type SchemaAssertion struct {
	model.BaseAssertion
	Schema string
	Exists bool
}

func (a *SchemaAssertion) Kind() string {
	if a.Exists {
		return KindSchemaExists
	}
	return KindSchemaDoesNotExist
}

func (a *SchemaAssertion) Description() string {
	if a.Exists {
		return fmt.Sprintf("Schema %s exists", a.Schema)
	}
	return fmt.Sprintf("Schema %s does not exist", a.Schema)
}

func (a *SchemaAssertion) Perform(ctx context.Context, instance model.Instance) (model.AssertionResponse, error) {
	return withDatabase(ctx, instance, func(db *sql.DB) (model.AssertionResponse, error) {
		exists, err := schemaExists(ctx, db, a.Schema)
		if err != nil {
			return model.AssertionResponse{}, err
		}
		return backends.ExistenceResponse("Schema", a.Schema, exists, a.Exists), nil
	})
}

// TableAssertion checks whether a table is present in a schema
type TableAssertion struct {
	model.BaseAssertion
	Schema string
	Table  string
	Exists bool
}

func (a *TableAssertion) Kind() string {
	if a.Exists {
		return KindTableExists
	}
	return KindTableDoesNotExist
}

func (a *TableAssertion) Description() string {
	if a.Exists {
		return fmt.Sprintf("Table %s.%s exists", a.Schema, a.Table)
	}
	return fmt.Sprintf("Table %s.%s does not exist", a.Schema, a.Table)
}

func (a *TableAssertion) Perform(ctx context.Context, instance model.Instance) (model.AssertionResponse, error) {
	return withDatabase(ctx, instance, func(db *sql.DB) (model.AssertionResponse, error) {
		exists, err := tableExists(ctx, db, a.Schema, a.Table)
		if err != nil {
			return model.AssertionResponse{}, err
		}
		return backends.ExistenceResponse("Table", a.Table, exists, a.Exists), nil
	})
}

// withDatabase runs check against the instance's database, failing the
// assertion when the database does not exist.
func withDatabase(ctx context.Context, instance model.Instance, check func(db *sql.DB) (model.AssertionResponse, error)) (model.AssertionResponse, error) {
	inst, err := asInstance(instance)
	if err != nil {
		return model.AssertionResponse{}, err
	}

	exists, err := inst.databaseExists(ctx)
	if err != nil {
		return model.AssertionResponse{}, err
	}
	if !exists {
		return backends.DatabaseMissingResponse(inst.DatabaseName), nil
	}

	db, err := inst.open(ctx, inst.DatabaseName)
	if err != nil {
		return model.AssertionResponse{}, err
	}
	defer func() { _ = db.Close() }()

	return check(db)
}

func decodeRowAssertion(exists bool) backends.AssertionDecoder {
	return func(base model.BaseAssertion, node backends.Node, env backends.DecodeEnv) (model.Assertion, error) {
		var params struct {
			SQL string `yaml:"sql" validate:"required"`
		}
		if err := node.Decode(&params); err != nil {
			return nil, err
		}
		if err := validate.Struct(&params); err != nil {
			return nil, err
		}
		return &RowAssertion{BaseAssertion: base, SQL: params.SQL, Exists: exists}, nil
	}
}

func decodeSchemaAssertion(exists bool) backends.AssertionDecoder {
	return func(base model.BaseAssertion, node backends.Node, env backends.DecodeEnv) (model.Assertion, error) {
		var params struct {
			Schema string `yaml:"schema" validate:"required"`
		}
		if err := node.Decode(&params); err != nil {
			return nil, err
		}
		if err := validate.Struct(&params); err != nil {
			return nil, err
		}
		return &SchemaAssertion{BaseAssertion: base, Schema: params.Schema, Exists: exists}, nil
	}
}

func decodeTableAssertion(exists bool) backends.AssertionDecoder {
	return func(base model.BaseAssertion, node backends.Node, env backends.DecodeEnv) (model.Assertion, error) {
		var params struct {
			Schema string `yaml:"schema"`
			Table  string `yaml:"table" validate:"required"`
		}
		if err := node.Decode(&params); err != nil {
			return nil, err
		}
		if err := validate.Struct(&params); err != nil {
			return nil, err
		}
		if params.Schema == "" {
			params.Schema = "public"
		}
		return &TableAssertion{BaseAssertion: base, Schema: params.Schema, Table: params.Table, Exists: exists}, nil
	}
}
