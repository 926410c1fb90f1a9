package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/registry"
	"github.com/toolsascode/wildebeest/internal/resolver"
)

type resourceDocument struct {
	ID            string          `yaml:"id" validate:"required,uuid"`
	Type          string          `yaml:"type" validate:"required"`
	Name          string          `yaml:"name" validate:"required"`
	DefaultTarget string          `yaml:"defaultTarget"`
	States        []stateDocument `yaml:"states" validate:"required,min=1,dive"`
	Migrations    []yaml.Node     `yaml:"migrations"`
}

type stateDocument struct {
	ID         string      `yaml:"id" validate:"required,uuid"`
	Label      string      `yaml:"label"`
	Assertions []yaml.Node `yaml:"assertions"`
}

type assertionHeader struct {
	ID     string `yaml:"id" validate:"required,uuid"`
	Kind   string `yaml:"kind" validate:"required"`
	SeqNum int    `yaml:"seqNum" validate:"gte=0"`
}

type migrationHeader struct {
	ID   string `yaml:"id" validate:"required,uuid"`
	Kind string `yaml:"kind" validate:"required"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type instanceHeader struct {
	Type string `yaml:"type" validate:"required"`
}

// Loader builds resources and instances from YAML documents using the
// decoders bound in a registry.
type Loader struct {
	registry    registry.Registry
	validate    *validator.Validate
	connections map[string]*backends.ConnectionConfig
	baseDir     string
}

// Option configures a Loader
type Option func(*Loader)

// WithConnections supplies the named instances NamedInstance resolves
func WithConnections(connections map[string]*backends.ConnectionConfig) Option {
	return func(l *Loader) { l.connections = connections }
}

// WithBaseDir resolves relative document paths against dir
func WithBaseDir(dir string) Option {
	return func(l *Loader) { l.baseDir = dir }
}

// New creates a loader over reg
func New(reg registry.Registry, opts ...Option) *Loader {
	l := &Loader{
		registry: reg,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadResource reads a resource document from path
func (l *Loader) LoadResource(path string) (*model.Resource, error) {
	path = l.resolve(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("failed to read resource file %s", path), err)
	}
	return l.ParseResource(data, filepath.Dir(path))
}

func (l *Loader) resolve(path string) string {
	if l.baseDir == "" || path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.baseDir, path)
}

// ParseResource decodes a resource document. Relative file parameters of
// its migrations and assertions resolve against baseDir.
func (l *Loader) ParseResource(data []byte, baseDir string) (*model.Resource, error) {
	var doc resourceDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, model.NewInvalidDefinition("failed to parse resource document", err)
	}
	if err := l.validate.Struct(&doc); err != nil {
		return nil, model.NewInvalidDefinition("invalid resource document", err)
	}

	env := backends.DecodeEnv{BaseDir: baseDir}
	resource := &model.Resource{
		ID:            uuid.MustParse(doc.ID),
		Type:          model.ResourceType(doc.Type),
		Name:          doc.Name,
		DefaultTarget: doc.DefaultTarget,
		States:        make([]model.State, 0, len(doc.States)),
	}

	for _, sd := range doc.States {
		s := model.State{ID: uuid.MustParse(sd.ID), Label: sd.Label}
		for i := range sd.Assertions {
			a, err := l.decodeAssertion(&sd.Assertions[i], env)
			if err != nil {
				return nil, err
			}
			s.Assertions = append(s.Assertions, a)
		}
		resource.States = append(resource.States, s)
	}

	for i := range doc.Migrations {
		m, err := l.decodeMigration(resource, &doc.Migrations[i], env)
		if err != nil {
			return nil, err
		}
		resource.Migrations = append(resource.Migrations, m)
	}

	if err := resource.Validate(); err != nil {
		return nil, err
	}
	if _, err := resolver.DetectCycles(resource); err != nil {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("resource %s", resource.Name), err)
	}
	return resource, nil
}

func (l *Loader) decodeAssertion(node *yaml.Node, env backends.DecodeEnv) (model.Assertion, error) {
	var header assertionHeader
	if err := node.Decode(&header); err != nil {
		return nil, model.NewInvalidDefinition("failed to parse assertion", err)
	}
	if err := l.validate.Struct(&header); err != nil {
		return nil, model.NewInvalidDefinition("invalid assertion", err)
	}

	decode, err := l.registry.AssertionDecoderFor(header.Kind)
	if err != nil {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("assertion %s", header.ID), err)
	}
	base := model.BaseAssertion{ID: uuid.MustParse(header.ID), Seq: header.SeqNum}
	a, err := decode(base, node, env)
	if err != nil {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("invalid %s assertion %s", header.Kind, header.ID), err)
	}
	return a, nil
}

func (l *Loader) decodeMigration(resource *model.Resource, node *yaml.Node, env backends.DecodeEnv) (model.Migration, error) {
	var header migrationHeader
	if err := node.Decode(&header); err != nil {
		return nil, model.NewInvalidDefinition("failed to parse migration", err)
	}
	if err := l.validate.Struct(&header); err != nil {
		return nil, model.NewInvalidDefinition("invalid migration", err)
	}

	from, err := stateRef(resource, header.From)
	if err != nil {
		return nil, err
	}
	to, err := stateRef(resource, header.To)
	if err != nil {
		return nil, err
	}

	decode, err := l.registry.MigrationDecoderFor(header.Kind)
	if err != nil {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("migration %s", header.ID), err)
	}
	base := model.BaseMigration{ID: uuid.MustParse(header.ID), From: from, To: to}
	m, err := decode(base, node, env)
	if err != nil {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("invalid %s migration %s", header.Kind, header.ID), err)
	}
	return m, nil
}

// stateRef resolves a migration endpoint given as a state id or label.
// An empty reference is the none pseudo-state.
func stateRef(resource *model.Resource, ref string) (uuid.UUID, error) {
	if ref == "" {
		return uuid.Nil, nil
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	if id, ok := resource.StateIDForLabel(ref); ok {
		return id, nil
	}
	return uuid.Nil, model.NewInvalidDefinition(fmt.Sprintf("migration endpoint %q names no declared state", ref), nil)
}

// LoadInstance reads an instance document from path
func (l *Loader) LoadInstance(path string) (model.Instance, error) {
	path = l.resolve(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("failed to read instance file %s", path), err)
	}
	return l.ParseInstance(data)
}

// envRef matches ${NAME}; a bare $ is left alone
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}

// ParseInstance decodes an instance document. ${VAR} references are
// expanded from the environment first.
func (l *Loader) ParseInstance(data []byte) (model.Instance, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(expandEnv(data), &node); err != nil {
		return nil, model.NewInvalidDefinition("failed to parse instance document", err)
	}
	if len(node.Content) == 0 {
		return nil, model.NewInvalidDefinition("instance document is empty", nil)
	}
	return l.decodeInstance(node.Content[0])
}

func (l *Loader) decodeInstance(node *yaml.Node) (model.Instance, error) {
	var header instanceHeader
	if err := node.Decode(&header); err != nil {
		return nil, model.NewInvalidDefinition("failed to parse instance", err)
	}
	if err := l.validate.Struct(&header); err != nil {
		return nil, model.NewInvalidDefinition("invalid instance document", err)
	}

	decode, err := l.registry.InstanceDecoderFor(model.ResourceType(header.Type))
	if err != nil {
		return nil, model.NewInvalidDefinition("instance", err)
	}
	instance, err := decode(node)
	if err != nil {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("invalid %s instance", header.Type), err)
	}
	return instance, nil
}

// NamedInstance builds the instance configured under name
func (l *Loader) NamedInstance(name string) (model.Instance, error) {
	conn, ok := l.connections[strings.ToLower(name)]
	if !ok {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("instance %q is not configured", name), nil)
	}
	return l.InstanceFromConnection(conn)
}

// InstanceFromConnection builds an instance from environment-supplied
// connection settings by mapping them onto the instance document fields of
// the connection's type.
func (l *Loader) InstanceFromConnection(conn *backends.ConnectionConfig) (model.Instance, error) {
	fields, err := connectionFields(conn)
	if err != nil {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("instance %s", conn.Name), err)
	}

	var node yaml.Node
	if err := node.Encode(fields); err != nil {
		return nil, model.NewInvalidDefinition(fmt.Sprintf("instance %s", conn.Name), err)
	}
	return l.decodeInstance(&node)
}

func connectionFields(conn *backends.ConnectionConfig) (map[string]any, error) {
	fields := map[string]any{"type": conn.Type}
	for key, value := range conn.Extra {
		fields[lowerCamel(key)] = value
	}

	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}

	switch model.ResourceType(conn.Type) {
	case model.ResourceTypePostgreSQL:
		set("host", conn.Host)
		set("adminUsername", conn.Username)
		set("adminPassword", conn.Password)
		set("databaseName", conn.Database)
		set("metaSchemaName", conn.Schema)
		if conn.Port != "" {
			port, err := strconv.Atoi(conn.Port)
			if err != nil {
				return nil, fmt.Errorf("invalid port %q: %w", conn.Port, err)
			}
			fields["port"] = port
		}
	case model.ResourceTypeSQLite:
		if _, ok := fields["path"]; !ok {
			set("path", conn.Database)
		}
	case model.ResourceTypeEtcd:
		if conn.Host != "" {
			var endpoints []string
			for _, host := range strings.Split(conn.Host, ",") {
				host = strings.TrimSpace(host)
				if conn.Port != "" && !strings.Contains(host, ":") {
					host += ":" + conn.Port
				}
				endpoints = append(endpoints, host)
			}
			fields["endpoints"] = endpoints
		}
		set("username", conn.Username)
		set("password", conn.Password)
	default:
		return nil, fmt.Errorf("unsupported instance type %q", conn.Type)
	}
	return fields, nil
}

// lowerCamel turns an environment suffix such as SSL_MODE into sslMode
func lowerCamel(key string) string {
	parts := strings.Split(strings.ToLower(key), "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteString(strings.ToUpper(p[:1]) + p[1:])
			continue
		}
		b.WriteString(p)
	}
	return b.String()
}
