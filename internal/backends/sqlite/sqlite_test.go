package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/toolsascode/wildebeest/internal/events"
	"github.com/toolsascode/wildebeest/internal/executor"
	"github.com/toolsascode/wildebeest/internal/loader"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/registry"
	"github.com/toolsascode/wildebeest/internal/state"
)

const inventoryYAML = `
id: 0b3c8a5e-1f63-4c55-8f0e-6a2f3e7d9a01
type: sqlite
name: inventory
states:
  - id: 0b3c8a5e-1f63-4c55-8f0e-6a2f3e7d9a02
    label: Created
    assertions:
      - id: 0b3c8a5e-1f63-4c55-8f0e-6a2f3e7d9a10
        kind: sqlite.tableDoesNotExist
        table: items
  - id: 0b3c8a5e-1f63-4c55-8f0e-6a2f3e7d9a03
    label: SchemaLoaded
    assertions:
      - id: 0b3c8a5e-1f63-4c55-8f0e-6a2f3e7d9a11
        kind: sqlite.tableExists
        seqNum: 0
        table: items
      - id: 0b3c8a5e-1f63-4c55-8f0e-6a2f3e7d9a12
        kind: sqlite.rowExists
        seqNum: 1
        sql: SELECT id FROM items WHERE name = 'seed'
migrations:
  - id: 0b3c8a5e-1f63-4c55-8f0e-6a2f3e7d9a20
    kind: sqlite.sqlScript
    to: Created
    sql: CREATE TABLE meta (key TEXT)
  - id: 0b3c8a5e-1f63-4c55-8f0e-6a2f3e7d9a21
    kind: sqlite.sqlScript
    from: Created
    to: SchemaLoaded
    scriptFile: schema.sql
  - id: 0b3c8a5e-1f63-4c55-8f0e-6a2f3e7d9a22
    kind: sqlite.deleteDatabase
    from: SchemaLoaded
`

const schemaSQL = `
CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
INSERT INTO items (name) VALUES ('seed');
`

var testLog = logrus.New()

type otherInstance struct{}

func (otherInstance) ResourceType() model.ResourceType { return model.ResourceTypeEtcd }

type setup struct {
	exec     *executor.Executor
	resource *model.Resource
	instance model.Instance
	path     string
	events   *events.Recorder
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "schema.sql"), []byte(schemaSQL), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	reg := registry.NewInMemoryRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	l := loader.New(reg)

	resource, err := l.ParseResource([]byte(inventoryYAML), dir)
	if err != nil {
		t.Fatalf("ParseResource() error = %v", err)
	}
	path := filepath.Join(dir, "inventory.db")
	instance, err := l.ParseInstance([]byte("type: sqlite\npath: " + path + "\n"))
	if err != nil {
		t.Fatalf("ParseInstance() error = %v", err)
	}

	rec := &events.Recorder{}
	return &setup{
		exec:     executor.NewExecutor(reg, executor.WithSink(rec)),
		resource: resource,
		instance: instance,
		path:     path,
		events:   rec,
	}
}

func TestEndToEnd_MigrateAndDestroy(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()

	report, err := s.exec.State(ctx, s.resource, s.instance)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if report.State != nil {
		t.Fatalf("State() = %v, want non-existent before any migration", report.State.Label)
	}

	migrated, err := s.exec.Migrate(ctx, s.resource, s.instance, "SchemaLoaded")
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if len(migrated.Applied) != 2 {
		t.Errorf("Migrate() applied %v, want 2 migrations", migrated.Applied)
	}

	report, err = s.exec.State(ctx, s.resource, s.instance)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if report.State == nil || report.State.Label != "SchemaLoaded" {
		t.Fatalf("State() = %+v, want SchemaLoaded", report.State)
	}
	if !model.AllPassed(report.Results) || len(report.Results) != 2 {
		t.Errorf("State() results = %+v", report.Results)
	}
	if report.Results[1].Message != "Exactly one row exists, as expected" {
		t.Errorf("row assertion message = %q", report.Results[1].Message)
	}

	if err := Perform(ctx, testLog, &DeleteDatabaseMigration{}, s.instance); err != nil {
		t.Fatalf("Perform(deleteDatabase) error = %v", err)
	}
	if _, err := os.Stat(s.path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("database file still present: %v", err)
	}
	report, err = s.exec.State(ctx, s.resource, s.instance)
	if err != nil || report.State != nil {
		t.Errorf("State() after delete = %+v, %v, want non-existent", report, err)
	}
}

func TestEndToEnd_AssertionFailureStopsMigration(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()

	// pre-create the table so the Created state's assertion fails
	inst := s.instance.(*Instance)
	if err := Perform(ctx, testLog, &SQLScriptMigration{SQL: "CREATE TABLE items (id INTEGER, name TEXT)"}, inst); err != nil {
		t.Fatalf("Perform() error = %v", err)
	}

	report, err := s.exec.Migrate(ctx, s.resource, s.instance, "SchemaLoaded")
	if !errors.Is(err, model.ErrAssertionFailed) {
		t.Fatalf("Migrate() error = %v, want assertion failed", err)
	}
	if len(report.Applied) != 1 {
		t.Errorf("Migrate() applied %v, want only the first migration", report.Applied)
	}

	results := model.AssertionResultsOf(err)
	if len(results) != 1 || results[0].Message != "Table items exists" {
		t.Errorf("assertion results = %+v", results)
	}

	current, err := s.exec.State(ctx, s.resource, s.instance)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if current.State == nil || current.State.Label != "Created" {
		t.Errorf("State() = %+v, want Created to stay committed", current.State)
	}
}

func TestEndToEnd_JumpState(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()

	if err := s.exec.JumpState(ctx, s.resource, s.instance, "SchemaLoaded"); !errors.Is(err, model.ErrAssertionFailed) {
		t.Fatalf("JumpState() error = %v, want assertion failed against a missing database", err)
	}

	inst := s.instance.(*Instance)
	if err := Perform(ctx, testLog, &SQLScriptMigration{SQL: schemaSQL}, inst); err != nil {
		t.Fatalf("Perform() error = %v", err)
	}
	if err := s.exec.JumpState(ctx, s.resource, s.instance, "SchemaLoaded"); err != nil {
		t.Fatalf("JumpState() error = %v", err)
	}

	report, err := s.exec.State(ctx, s.resource, s.instance)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if report.State == nil || report.State.Label != "SchemaLoaded" {
		t.Errorf("State() = %+v, want SchemaLoaded", report.State)
	}
}

func TestStore_Indeterminate(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()
	store := Store{}

	if err := store.Record(ctx, s.instance, s.resource.ID, uuid.New(), time.Now()); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	_, err := s.exec.State(ctx, s.resource, s.instance)
	if !errors.Is(err, model.ErrIndeterminateState) {
		t.Errorf("State() error = %v, want indeterminate for an undeclared state", err)
	}

	if err := Perform(ctx, testLog, &SQLScriptMigration{SQL: "INSERT INTO wb_state VALUES ('" + s.resource.ID.String() + "', '" + uuid.NewString() + "', '2024-01-01T00:00:00Z')"}, s.instance); err != nil {
		t.Fatalf("Perform() error = %v", err)
	}
	markers, err := store.Markers(ctx, s.instance, s.resource.ID)
	if err != nil {
		t.Fatalf("Markers() error = %v", err)
	}
	if len(markers) != 2 {
		t.Fatalf("Markers() = %d markers, want 2", len(markers))
	}
	if _, err := state.NewTracker(store).CurrentState(ctx, s.resource, s.instance); !errors.Is(err, model.ErrIndeterminateState) {
		t.Errorf("CurrentState() error = %v, want indeterminate for duplicate markers", err)
	}

	if err := store.Clear(ctx, s.instance, s.resource.ID); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if markers, _ := store.Markers(ctx, s.instance, s.resource.ID); len(markers) != 0 {
		t.Errorf("Markers() after Clear = %v", markers)
	}
}

func TestIncompatibleInstance(t *testing.T) {
	if _, err := (Store{}).Markers(context.Background(), otherInstance{}, uuid.New()); !errors.Is(err, model.ErrIncompatibleInstance) {
		t.Errorf("Markers() error = %v, want incompatible instance", err)
	}
}
