package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/registry"
)

const inventoryYAML = `
id: 3e7a1c55-2b4d-4f6a-8c9e-1d2f3a4b5c01
type: sqlite
name: inventory
states:
  - id: 3e7a1c55-2b4d-4f6a-8c9e-1d2f3a4b5c02
    label: Created
  - id: 3e7a1c55-2b4d-4f6a-8c9e-1d2f3a4b5c03
    label: SchemaLoaded
    assertions:
      - id: 3e7a1c55-2b4d-4f6a-8c9e-1d2f3a4b5c11
        kind: sqlite.tableExists
        table: items
migrations:
  - id: 3e7a1c55-2b4d-4f6a-8c9e-1d2f3a4b5c20
    kind: sqlite.sqlScript
    to: Created
    sql: CREATE TABLE meta (key TEXT)
  - id: 3e7a1c55-2b4d-4f6a-8c9e-1d2f3a4b5c21
    kind: sqlite.sqlScript
    from: Created
    to: SchemaLoaded
    sql: CREATE TABLE items (id INTEGER PRIMARY KEY)
`

func writeDocuments(t *testing.T) (resource, instance string) {
	t.Helper()
	dir := t.TempDir()
	resource = filepath.Join(dir, "inventory.yaml")
	instance = filepath.Join(dir, "local.yaml")
	if err := os.WriteFile(resource, []byte(inventoryYAML), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	doc := "type: sqlite\npath: " + filepath.Join(dir, "inventory.db") + "\n"
	if err := os.WriteFile(instance, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return resource, instance
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(registry.NewInMemoryRegistry())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands_MigrateFlow(t *testing.T) {
	resource, instance := writeDocuments(t)

	out, err := run(t, "state", "-r", resource, "-i", instance)
	if err != nil {
		t.Fatalf("state error = %v", err)
	}
	if !strings.Contains(out, "Current state: non-existent") {
		t.Errorf("state output = %q", out)
	}

	out, err = run(t, "migrate", "-r", resource, "-i", instance, "-t", "SchemaLoaded")
	if err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	if strings.Count(out, "Applied migration") != 2 || !strings.Contains(out, "Current state: SchemaLoaded") {
		t.Errorf("migrate output = %q", out)
	}

	out, err = run(t, "assert", "-r", resource, "-i", instance)
	if err != nil {
		t.Fatalf("assert error = %v", err)
	}
	if !strings.Contains(out, "[PASS] Table items exists") {
		t.Errorf("assert output = %q", out)
	}
}

func TestCommands_ExitCodes(t *testing.T) {
	resource, instance := writeDocuments(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "unknown target", args: []string{"migrate", "-r", resource, "-i", instance, "-t", "Nowhere"}, want: exitInvalidInput},
		{name: "invalid target", args: []string{"migrate", "-r", resource, "-i", instance, "-t", "No!"}, want: exitInvalidInput},
		{name: "no default target", args: []string{"migrate", "-r", resource, "-i", instance}, want: exitInvalidInput},
		{name: "missing instance", args: []string{"state", "-r", resource}, want: exitInvalidInput},
		{name: "unconfigured instance name", args: []string{"state", "-r", resource, "--instance-name", "nowhere"}, want: exitInvalidInput},
		{name: "jumpstate assertions fail", args: []string{"jumpstate", "-r", resource, "-i", instance, "-t", "SchemaLoaded"}, want: exitAssertionFailed},
		{name: "unsupported new type", args: []string{"new", "orders", "--type", "mysql"}, want: exitInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if got := exitCode(err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d (err = %v)", got, tt.want, err)
			}
		})
	}
}

func TestCommands_NewAndPlugins(t *testing.T) {
	out, err := run(t, "new", "orders", "--type", "sqlite")
	if err != nil {
		t.Fatalf("new error = %v", err)
	}
	if !strings.Contains(out, "type: sqlite") || !strings.Contains(out, "name: orders") {
		t.Errorf("new output = %q", out)
	}

	out, err = run(t, "plugins")
	if err != nil {
		t.Fatalf("plugins error = %v", err)
	}
	for _, name := range []string{"PostgreSQL", "SQLite", "etcd"} {
		if !strings.Contains(out, name) {
			t.Errorf("plugins output missing %s: %q", name, out)
		}
	}
}

func TestExitCode(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitOK},
		{name: "plain error", err: errors.New("boom"), want: exitError},
		{name: "usage", err: &usageError{msg: "bad flag"}, want: exitInvalidInput},
		{name: "config", err: &configError{err: errors.New("bad env")}, want: exitEnvironmentError},
		{name: "indeterminate", err: model.NewIndeterminateState("two markers"), want: exitIndeterminate},
		{name: "not possible", err: model.NewMigrationNotPossible(uuid.Nil, id), want: exitNoPath},
		{name: "ambiguous", err: model.NewAmbiguousPath(uuid.Nil, id, 2), want: exitNoPath},
		{name: "assertion failed", err: model.NewAssertionFailed(id, nil), want: exitAssertionFailed},
		{name: "jumpstate failed", err: model.NewJumpStateFailed("no such state"), want: exitJumpStateFailed},
		{name: "wrapped", err: fmt.Errorf("run: %w", model.NewTargetNotSpecified()), want: exitInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
