package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/events"
	"github.com/toolsascode/wildebeest/internal/logger"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/queue"
	"github.com/toolsascode/wildebeest/internal/registry"
	"github.com/toolsascode/wildebeest/internal/resolver"
)

// Context keys for execution metadata
type contextKey string

const (
	executedByKey       contextKey = "executed_by"
	executionMethodKey  contextKey = "execution_method"
	executionContextKey contextKey = "execution_context"
)

// SetExecutionContext sets execution context in the context
func SetExecutionContext(ctx context.Context, executedBy, executionMethod string, executionContext map[string]interface{}) context.Context {
	ctx = context.WithValue(ctx, executedByKey, executedBy)
	ctx = context.WithValue(ctx, executionMethodKey, executionMethod)
	if executionContext != nil {
		ctxBytes, _ := json.Marshal(executionContext)
		ctx = context.WithValue(ctx, executionContextKey, string(ctxBytes))
	}
	return ctx
}

// GetExecutionContext extracts execution context from context
func GetExecutionContext(ctx context.Context) (executedBy, executionMethod, executionContext string) {
	executedBy = "system"
	executionMethod = "api"
	executionContext = ""

	if val := ctx.Value(executedByKey); val != nil {
		if s, ok := val.(string); ok {
			executedBy = s
		}
	}
	if val := ctx.Value(executionMethodKey); val != nil {
		if s, ok := val.(string); ok {
			executionMethod = s
		}
	}
	if val := ctx.Value(executionContextKey); val != nil {
		if s, ok := val.(string); ok {
			executionContext = s
		}
	}
	return executedBy, executionMethod, executionContext
}

// targetPattern is the grammar a target state label or id must match
var targetPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_ ]+[a-zA-Z0-9]$`)

// StateReport is the outcome of a State call
type StateReport struct {
	// State is nil when the resource does not exist on the instance
	State   *model.State
	Results []model.AssertionResult
}

// MigrateReport is the outcome of a Migrate call. On failure it still lists
// the migrations that were applied before the failing step.
type MigrateReport struct {
	FromStateID uuid.UUID
	ToStateID   uuid.UUID
	Applied     []uuid.UUID
}

// Executor drives resource instances through their state graphs. It holds no
// per-call state, so one Executor may serve many sequential or concurrent
// calls, as long as concurrent calls target different instances.
type Executor struct {
	registry registry.Registry
	sink     events.Sink
	log      logrus.FieldLogger
	loader   DocumentLoader
	queue    queue.Queue // Optional queue for async execution
	mu       sync.Mutex
}

// Option configures an Executor
type Option func(*Executor)

// WithSink sets the lifecycle event sink
func WithSink(sink events.Sink) Option {
	return func(e *Executor) { e.sink = sink }
}

// WithLogger sets the logger passed to migration plugins
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Executor) { e.log = log }
}

// WithLoader sets the document loader used to run queued jobs
func WithLoader(loader DocumentLoader) Option {
	return func(e *Executor) { e.loader = loader }
}

// NewExecutor creates a new executor
func NewExecutor(reg registry.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry: reg,
		sink:     events.Discard,
		log:      logger.L(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetRegistry returns the plugin registry
func (e *Executor) GetRegistry() registry.Registry {
	return e.registry
}

// State reports the instance's current state and, when it exists, the
// outcome of the state's assertions.
func (e *Executor) State(ctx context.Context, resource *model.Resource, instance model.Instance) (*StateReport, error) {
	plugin, err := e.resourcePlugin(resource, instance)
	if err != nil {
		return nil, err
	}

	current, err := plugin.CurrentState(ctx, resource, instance)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return &StateReport{}, nil
	}

	results, err := e.evaluate(ctx, resource, current, instance)
	if err != nil {
		return nil, err
	}
	return &StateReport{State: current, Results: results}, nil
}

// AssertState evaluates every assertion of the instance's current state in
// SeqNum order. Failed checks do not stop evaluation; only faults do.
func (e *Executor) AssertState(ctx context.Context, resource *model.Resource, instance model.Instance) ([]model.AssertionResult, error) {
	plugin, err := e.resourcePlugin(resource, instance)
	if err != nil {
		return nil, err
	}
	return e.assertCurrent(ctx, plugin, resource, instance)
}

// Migrate moves the instance along the unique path from its current state to
// target, asserting the new state after every step. Steps already applied
// are not undone when a later step fails.
func (e *Executor) Migrate(ctx context.Context, resource *model.Resource, instance model.Instance, target string) (*MigrateReport, error) {
	plugin, err := e.resourcePlugin(resource, instance)
	if err != nil {
		return nil, err
	}

	targetID, err := resolveTarget(resource, target)
	if err != nil {
		return nil, err
	}
	if !resource.HasState(targetID) {
		return nil, model.NewUnknownStateSpecified(target)
	}

	current, err := plugin.CurrentState(ctx, resource, instance)
	if err != nil {
		return nil, err
	}
	fromID := uuid.Nil
	if current != nil {
		fromID = current.ID
	}

	path, err := resolver.Unique(resource, fromID, targetID)
	if err != nil {
		return nil, err
	}

	// Resolve every plugin before touching the instance so a configuration
	// fault never leaves a path half applied.
	plugins := make([]backends.MigrationPlugin, len(path))
	for i, m := range path {
		if plugins[i], err = e.registry.MigrationPluginFor(m.Kind()); err != nil {
			return nil, err
		}
	}

	report := &MigrateReport{FromStateID: fromID, ToStateID: targetID}
	log := e.logFor(ctx, resource)
	log.Infof("Migrating %s from %s to %s in %d steps", resource.Name, stateName(resource, fromID), stateName(resource, targetID), len(path))

	for i, m := range path {
		if err := e.step(ctx, log, plugins[i], plugin, resource, m, instance); err != nil {
			return report, err
		}
		report.Applied = append(report.Applied, m.MigrationID())

		results, err := e.assertCurrent(ctx, plugin, resource, instance)
		if err != nil {
			return report, err
		}
		if !model.AllPassed(results) {
			return report, model.NewAssertionFailed(m.ToStateID(), results)
		}
	}

	return report, nil
}

// JumpState records target as the instance's current state without running
// any migration, provided every assertion of the target state holds.
func (e *Executor) JumpState(ctx context.Context, resource *model.Resource, instance model.Instance, target string) error {
	plugin, err := e.resourcePlugin(resource, instance)
	if err != nil {
		return err
	}

	targetID, err := resolveTarget(resource, target)
	if err != nil {
		return err
	}
	targetState := resource.StateForID(targetID)
	if targetState == nil {
		return model.NewJumpStateFailed(fmt.Sprintf("This resource does not have a state with ID %s", targetID))
	}

	results, err := e.evaluate(ctx, resource, targetState, instance)
	if err != nil {
		return err
	}
	if !model.AllPassed(results) {
		return model.NewAssertionFailed(targetID, results)
	}

	if err := plugin.SetStateID(ctx, resource, instance, targetID); err != nil {
		return err
	}
	e.logFor(ctx, resource).Infof("Jumped %s to state %s", resource.Name, targetState.DisplayName())
	return nil
}

// step performs one migration and commits its target state
func (e *Executor) step(ctx context.Context, log logrus.FieldLogger, mp backends.MigrationPlugin, rp backends.ResourcePlugin, resource *model.Resource, m model.Migration, instance model.Instance) error {
	base := events.Event{
		ResourceID:    resource.ID,
		ResourceName:  resource.Name,
		MigrationID:   m.MigrationID(),
		MigrationKind: m.Kind(),
		FromStateID:   m.FromStateID(),
		ToStateID:     m.ToStateID(),
	}
	started := time.Now()

	start := base
	start.Type = events.MigrationStart
	start.Time = started
	e.sink.Emit(start)

	stepLog := log.WithFields(logrus.Fields{
		"migration": m.MigrationID().String(),
		"kind":      m.Kind(),
	})
	err := mp.Perform(ctx, stepLog, m, instance)
	if err != nil {
		err = migrationFailed(m, err)
	} else {
		err = rp.SetStateID(ctx, resource, instance, m.ToStateID())
	}

	complete := base
	complete.Type = events.MigrationComplete
	complete.Time = time.Now()
	complete.Duration = complete.Time.Sub(started)
	complete.Err = err
	e.sink.Emit(complete)

	return err
}

func (e *Executor) assertCurrent(ctx context.Context, plugin backends.ResourcePlugin, resource *model.Resource, instance model.Instance) ([]model.AssertionResult, error) {
	current, err := plugin.CurrentState(ctx, resource, instance)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return []model.AssertionResult{}, nil
	}
	return e.evaluate(ctx, resource, current, instance)
}

// evaluate applies the state's assertions in SeqNum order
func (e *Executor) evaluate(ctx context.Context, resource *model.Resource, s *model.State, instance model.Instance) ([]model.AssertionResult, error) {
	assertions := make([]model.Assertion, len(s.Assertions))
	copy(assertions, s.Assertions)
	sort.SliceStable(assertions, func(i, j int) bool {
		return assertions[i].SeqNum() < assertions[j].SeqNum()
	})

	results := make([]model.AssertionResult, 0, len(assertions))
	for _, a := range assertions {
		base := events.Event{
			ResourceID:   resource.ID,
			ResourceName: resource.Name,
			StateID:      s.ID,
			AssertionID:  a.AssertionID(),
			Description:  a.Description(),
		}
		started := time.Now()

		start := base
		start.Type = events.AssertionStart
		start.Time = started
		e.sink.Emit(start)

		response, err := a.Perform(ctx, instance)

		complete := base
		complete.Type = events.AssertionComplete
		complete.Time = time.Now()
		complete.Duration = complete.Time.Sub(started)
		if err != nil {
			err = assertionFault(a, err)
			complete.Err = err
			e.sink.Emit(complete)
			return nil, err
		}
		result := response.Result
		complete.Result = &result
		complete.Message = response.Message
		e.sink.Emit(complete)

		results = append(results, model.AssertionResult{
			AssertionID: a.AssertionID(),
			Description: a.Description(),
			Result:      response.Result,
			Message:     response.Message,
		})
	}
	return results, nil
}

func (e *Executor) resourcePlugin(resource *model.Resource, instance model.Instance) (backends.ResourcePlugin, error) {
	if instance == nil || instance.ResourceType() != resource.Type {
		return nil, model.NewIncompatibleInstance(resource.Type, instance)
	}
	return e.registry.ResourcePluginFor(resource.Type)
}

func (e *Executor) logFor(ctx context.Context, resource *model.Resource) logrus.FieldLogger {
	executedBy, executionMethod, _ := GetExecutionContext(ctx)
	return e.log.WithFields(logrus.Fields{
		"resource":         resource.Name,
		"resource_id":      resource.ID.String(),
		"executed_by":      executedBy,
		"execution_method": executionMethod,
	})
}

// resolveTarget turns a target label or id into a state id, falling back to
// the resource's default target. The id is not checked against the graph.
func resolveTarget(resource *model.Resource, target string) (uuid.UUID, error) {
	if target == "" {
		target = resource.DefaultTarget
	}
	if target == "" {
		return uuid.Nil, model.NewTargetNotSpecified()
	}
	if !targetPattern.MatchString(target) {
		return uuid.Nil, model.NewInvalidStateSpecified(target)
	}

	if id, err := uuid.Parse(target); err == nil {
		return id, nil
	}
	if id, ok := resource.StateIDForLabel(target); ok {
		return id, nil
	}
	return uuid.Nil, model.NewUnknownStateSpecified(target)
}

func migrationFailed(m model.Migration, err error) error {
	var e *model.Error
	if errors.As(err, &e) && (e.Kind == model.KindMigrationFailed || e.Kind == model.KindIncompatibleInstance) {
		if e.MigrationID == uuid.Nil {
			e.MigrationID = m.MigrationID()
		}
		return err
	}
	return model.NewMigrationFailed(m.MigrationID(), fmt.Sprintf("migration %s failed", m.MigrationID()), err)
}

func assertionFault(a model.Assertion, err error) error {
	var e *model.Error
	if errors.As(err, &e) && (e.Kind == model.KindAssertionFault || e.Kind == model.KindIncompatibleInstance) {
		return err
	}
	return model.NewAssertionFault(a.AssertionID(), err)
}

func stateName(resource *model.Resource, id uuid.UUID) string {
	if id == uuid.Nil {
		return "non-existent"
	}
	if s := resource.StateForID(id); s != nil {
		return s.DisplayName()
	}
	return id.String()
}
