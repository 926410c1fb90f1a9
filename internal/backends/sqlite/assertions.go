package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
)

const (
	KindRowExists         = "sqlite.rowExists"
	KindRowDoesNotExist   = "sqlite.rowDoesNotExist"
	KindTableExists       = "sqlite.tableExists"
	KindTableDoesNotExist = "sqlite.tableDoesNotExist"
)

// RowAssertion checks the number of rows a query returns
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

// TableAssertion checks whether a table is present
type TableAssertion struct {
	model.BaseAssertion
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
		return fmt.Sprintf("Table %s exists", a.Table)
	}
	return fmt.Sprintf("Table %s does not exist", a.Table)
}

func (a *TableAssertion) Perform(ctx context.Context, instance model.Instance) (model.AssertionResponse, error) {
	return withDatabase(ctx, instance, func(db *sql.DB) (model.AssertionResponse, error) {
		exists, err := tableExists(ctx, db, a.Table)
		if err != nil {
			return model.AssertionResponse{}, err
		}
		return backends.ExistenceResponse("Table", a.Table, exists, a.Exists), nil
	})
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

func decodeTableAssertion(exists bool) backends.AssertionDecoder {
	return func(base model.BaseAssertion, node backends.Node, env backends.DecodeEnv) (model.Assertion, error) {
		var params struct {
			Table string `yaml:"table" validate:"required"`
		}
		if err := node.Decode(&params); err != nil {
			return nil, err
		}
		if err := validate.Struct(&params); err != nil {
			return nil, err
		}
		return &TableAssertion{BaseAssertion: base, Table: params.Table, Exists: exists}, nil
	}
}
