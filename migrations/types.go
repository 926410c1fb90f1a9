package migrations

import (
	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
)

// Domain types shared with plugin authors
type (
	Resource          = model.Resource
	ResourceType      = model.ResourceType
	State             = model.State
	Instance          = model.Instance
	Migration         = model.Migration
	BaseMigration     = model.BaseMigration
	Assertion         = model.Assertion
	BaseAssertion     = model.BaseAssertion
	AssertionResponse = model.AssertionResponse
	AssertionResult   = model.AssertionResult
	Error             = model.Error
	ErrorKind         = model.ErrorKind
)

// Plugin contracts
type (
	ResourcePlugin      = backends.ResourcePlugin
	MigrationPlugin     = backends.MigrationPlugin
	MigrationPluginFunc = backends.MigrationPluginFunc
	MigrationDecoder    = backends.MigrationDecoder
	AssertionDecoder    = backends.AssertionDecoder
	InstanceDecoder     = backends.InstanceDecoder
	Node                = backends.Node
	DecodeEnv           = backends.DecodeEnv
	PluginGroup         = backends.PluginGroup
)

const (
	ResourceTypePostgreSQL = model.ResourceTypePostgreSQL
	ResourceTypeSQLite     = model.ResourceTypeSQLite
	ResourceTypeEtcd       = model.ResourceTypeEtcd
)
