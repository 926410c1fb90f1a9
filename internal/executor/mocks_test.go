package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/queue"
	"github.com/toolsascode/wildebeest/internal/registry"
	"github.com/toolsascode/wildebeest/internal/state"
)

const testType model.ResourceType = "test"

type testInstance struct {
	resourceType model.ResourceType
}

func (i *testInstance) ResourceType() model.ResourceType { return i.resourceType }

type testMigration struct {
	model.BaseMigration
}

func (testMigration) Kind() string { return "test.step" }

// mockAssertion returns a fixed response and records its evaluation order
type mockAssertion struct {
	model.BaseAssertion
	result bool
	err    error
	calls  *[]uuid.UUID
}

func (a *mockAssertion) Kind() string { return "test.check" }
func (a *mockAssertion) Description() string {
	return fmt.Sprintf("check %d", a.Seq)
}
func (a *mockAssertion) Perform(ctx context.Context, instance model.Instance) (model.AssertionResponse, error) {
	if a.calls != nil {
		*a.calls = append(*a.calls, a.ID)
	}
	if a.err != nil {
		return model.AssertionResponse{}, a.err
	}
	if a.result {
		return model.AssertionResponse{Result: true, Message: "ok"}, nil
	}
	return model.AssertionResponse{Result: false, Message: "not ok"}, nil
}

// mockMigrationPlugin records performed migrations and can fail on demand
type mockMigrationPlugin struct {
	performed []uuid.UUID
	failOn    uuid.UUID
}

func (p *mockMigrationPlugin) Perform(ctx context.Context, log logrus.FieldLogger, migration model.Migration, instance model.Instance) error {
	if migration.MigrationID() == p.failOn {
		return errors.New("backend unavailable")
	}
	p.performed = append(p.performed, migration.MigrationID())
	return nil
}

type fixture struct {
	resource     *model.Resource
	instance     *testInstance
	store        *state.MemoryStore
	plugin       *mockMigrationPlugin
	registry     registry.Registry
	created      uuid.UUID
	schemaLoaded uuid.UUID
}

// newFixture builds a resource with states Created and SchemaLoaded and
// registers a memory-backed resource plugin and a recording migration plugin.
func newFixture(migrations func(f *fixture) []model.Migration) *fixture {
	f := &fixture{
		instance:     &testInstance{resourceType: testType},
		store:        state.NewMemoryStore(),
		plugin:       &mockMigrationPlugin{},
		registry:     registry.NewInMemoryRegistry(),
		created:      uuid.New(),
		schemaLoaded: uuid.New(),
	}
	f.resource = &model.Resource{
		ID:   uuid.New(),
		Type: testType,
		Name: "fixture",
		States: []model.State{
			{ID: f.created, Label: "Created"},
			{ID: f.schemaLoaded, Label: "SchemaLoaded"},
		},
	}
	if migrations != nil {
		f.resource.Migrations = migrations(f)
	}
	_ = f.registry.RegisterResourcePlugin(testType, state.NewTracker(f.store))
	_ = f.registry.RegisterMigrationPlugin("test.step", f.plugin)
	return f
}

func (f *fixture) current() uuid.UUID {
	markers, _ := f.store.Markers(context.Background(), f.instance, f.resource.ID)
	if len(markers) == 0 {
		return uuid.Nil
	}
	return markers[0].StateID
}

func (f *fixture) setCurrent(id uuid.UUID) {
	_ = f.store.Record(context.Background(), f.instance, f.resource.ID, id, time.Time{})
}

func step(from, to uuid.UUID) testMigration {
	return testMigration{model.BaseMigration{ID: uuid.New(), From: from, To: to}}
}

// mockLoader returns prebuilt documents
type mockLoader struct {
	resource *model.Resource
	instance model.Instance
	err      error
}

func (l *mockLoader) LoadResource(path string) (*model.Resource, error) { return l.resource, l.err }
func (l *mockLoader) ParseResource(data []byte, baseDir string) (*model.Resource, error) {
	return l.resource, l.err
}
func (l *mockLoader) LoadInstance(path string) (model.Instance, error)  { return l.instance, nil }
func (l *mockLoader) ParseInstance(data []byte) (model.Instance, error) { return l.instance, nil }
func (l *mockLoader) NamedInstance(name string) (model.Instance, error) { return l.instance, nil }

// mockQueue records published jobs
type mockQueue struct {
	published  []*queue.Job
	publishErr error
}

func (q *mockQueue) PublishJob(ctx context.Context, job *queue.Job) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, job)
	return nil
}

func (q *mockQueue) Consume(ctx context.Context, handler queue.JobHandler) error { return nil }
func (q *mockQueue) Close() error                                                { return nil }
