package migrations

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/google/uuid"

	"github.com/toolsascode/wildebeest/internal/model"
)

// ResourceTemplate is the starter resource document written by "wb new".
// It declares a Created and a Ready state with a migration into each and a
// destroy migration back to non-existence.
const ResourceTemplate = `id: {{.ID}}
type: {{.Type}}
name: {{.Name}}
defaultTarget: Ready
states:
  - id: {{.CreatedID}}
    label: Created
    assertions:
      - id: {{.CreatedAssertionID}}
{{- if eq .Type "postgresql"}}
        kind: postgresql.tableDoesNotExist
        table: {{.Table}}
{{- else if eq .Type "sqlite"}}
        kind: sqlite.tableDoesNotExist
        table: {{.Table}}
{{- else}}
        kind: etcd.keyDoesNotExist
        key: {{.Name}}/ready
{{- end}}
  - id: {{.ReadyID}}
    label: Ready
    assertions:
      - id: {{.ReadyAssertionID}}
{{- if eq .Type "postgresql"}}
        kind: postgresql.tableExists
        table: {{.Table}}
{{- else if eq .Type "sqlite"}}
        kind: sqlite.tableExists
        table: {{.Table}}
{{- else}}
        kind: etcd.keyExists
        key: {{.Name}}/ready
{{- end}}
migrations:
  - id: {{.CreateMigrationID}}
    to: Created
{{- if eq .Type "postgresql"}}
    kind: postgresql.createDatabase
{{- else if eq .Type "sqlite"}}
    kind: sqlite.sqlScript
    sql: CREATE TABLE wb_meta (key TEXT PRIMARY KEY, value TEXT)
{{- else}}
    kind: etcd.kv
    operations:
      - op: put
        key: {{.Name}}/created
        value: "true"
{{- end}}
  - id: {{.ReadyMigrationID}}
    from: Created
    to: Ready
{{- if eq .Type "etcd"}}
    kind: etcd.kv
    operations:
      - op: put
        key: {{.Name}}/ready
        value: "true"
{{- else}}
    kind: {{.Type}}.sqlScript
    sql: CREATE TABLE {{.Table}} (id INTEGER PRIMARY KEY)
{{- end}}
  - id: {{.DestroyMigrationID}}
    from: Ready
{{- if eq .Type "postgresql"}}
    kind: postgresql.dropDatabase
{{- else if eq .Type "sqlite"}}
    kind: sqlite.deleteDatabase
{{- else}}
    kind: etcd.kv
    operations:
      - op: delete
        key: {{.Name}}/
        prefix: true
{{- end}}
`

var resourceTemplate = template.Must(template.New("resource").Parse(ResourceTemplate))

// TemplateData fills ResourceTemplate
type TemplateData struct {
	ID                 uuid.UUID
	Type               model.ResourceType
	Name               string
	Table              string
	CreatedID          uuid.UUID
	ReadyID            uuid.UUID
	CreatedAssertionID uuid.UUID
	ReadyAssertionID   uuid.UUID
	CreateMigrationID  uuid.UUID
	ReadyMigrationID   uuid.UUID
	DestroyMigrationID uuid.UUID
}

// NewResourceDocument renders a starter resource document of the given type
// with fresh ids.
func NewResourceDocument(name string, resourceType model.ResourceType) ([]byte, error) {
	switch resourceType {
	case model.ResourceTypePostgreSQL, model.ResourceTypeSQLite, model.ResourceTypeEtcd:
	default:
		return nil, fmt.Errorf("unsupported resource type %q", resourceType)
	}
	if name == "" {
		return nil, fmt.Errorf("resource name is required")
	}

	data := TemplateData{
		ID:                 uuid.New(),
		Type:               resourceType,
		Name:               name,
		Table:              "items",
		CreatedID:          uuid.New(),
		ReadyID:            uuid.New(),
		CreatedAssertionID: uuid.New(),
		ReadyAssertionID:   uuid.New(),
		CreateMigrationID:  uuid.New(),
		ReadyMigrationID:   uuid.New(),
		DestroyMigrationID: uuid.New(),
	}

	var buf bytes.Buffer
	if err := resourceTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render resource template: %w", err)
	}
	return buf.Bytes(), nil
}
