package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/state"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// adminDatabase is the maintenance database used for server-level commands
const adminDatabase = "postgres"

var validate = validator.New()

// Instance is a PostgreSQL database on a server
type Instance struct {
	Host           string `yaml:"host" validate:"required"`
	Port           int    `yaml:"port" validate:"gte=0,lte=65535"`
	AdminUsername  string `yaml:"adminUsername" validate:"required"`
	AdminPassword  string `yaml:"adminPassword"`
	DatabaseName   string `yaml:"databaseName" validate:"required"`
	MetaSchemaName string `yaml:"metaSchemaName"`
	StateTableName string `yaml:"stateTableName"`
	SSLMode        string `yaml:"sslMode"`
}

func (i *Instance) ResourceType() model.ResourceType { return model.ResourceTypePostgreSQL }

// DecodeInstance builds an Instance from an instance document
func DecodeInstance(node backends.Node) (model.Instance, error) {
	inst := &Instance{}
	if err := node.Decode(inst); err != nil {
		return nil, err
	}
	if inst.Port == 0 {
		inst.Port = 5432
	}
	if inst.MetaSchemaName == "" {
		inst.MetaSchemaName = state.DefaultMetaSchema
	}
	if inst.StateTableName == "" {
		inst.StateTableName = state.DefaultStateTable
	}
	if inst.SSLMode == "" {
		inst.SSLMode = "disable"
	}
	if err := validate.Struct(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func asInstance(instance model.Instance) (*Instance, error) {
	inst, ok := instance.(*Instance)
	if !ok {
		return nil, model.NewIncompatibleInstance(model.ResourceTypePostgreSQL, instance)
	}
	return inst, nil
}

// connString builds a keyword/value connection string for database
func (i *Instance) connString(database string) string {
	pairs := []string{
		"host=" + quoteValue(i.Host),
		"port=" + strconv.Itoa(i.Port),
		"user=" + quoteValue(i.AdminUsername),
		"dbname=" + quoteValue(database),
		"sslmode=" + quoteValue(i.SSLMode),
	}
	if i.AdminPassword != "" {
		pairs = append(pairs, "password="+quoteValue(i.AdminPassword))
	}
	return strings.Join(pairs, " ")
}

// open connects to database on the instance's server
func (i *Instance) open(ctx context.Context, database string) (*sql.DB, error) {
	db, err := sql.Open("pgx", i.connString(database))
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	configureConnectionPool(db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	return db, nil
}

// databaseExists reports whether the instance's database exists on the server
func (i *Instance) databaseExists(ctx context.Context) (bool, error) {
	db, err := i.open(ctx, adminDatabase)
	if err != nil {
		return false, err
	}
	defer func() { _ = db.Close() }()

	var exists bool
	err = db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, i.DatabaseName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

func schemaExists(ctx context.Context, q querier, schemaName string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM information_schema.schemata
			WHERE schema_name = $1
		)
	`
	var exists bool
	if err := q.QueryRowContext(ctx, query, schemaName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check schema existence: %w", err)
	}
	return exists, nil
}

func tableExists(ctx context.Context, q querier, schemaName, tableName string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)
	`
	var exists bool
	if err := q.QueryRowContext(ctx, query, strings.ToLower(schemaName), strings.ToLower(tableName)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// quoteIdentifier quotes a PostgreSQL identifier
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteValue quotes a connection string value
func quoteValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}

// configureConnectionPool configures the connection pool with defaults that
// can be overridden via environment variables
func configureConnectionPool(db *sql.DB) {
	db.SetMaxOpenConns(getEnvInt("WB_DB_MAX_OPEN_CONNS", 2))
	db.SetMaxIdleConns(getEnvInt("WB_DB_MAX_IDLE_CONNS", 1))
	db.SetConnMaxLifetime(time.Duration(getEnvInt("WB_DB_CONN_MAX_LIFETIME_MINUTES", 5)) * time.Minute)
}

// getEnvInt gets an integer environment variable or returns the default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
