package executor

import (
	"context"
	"fmt"

	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/queue"
)

// DocumentLoader builds resources and instances for queued jobs
type DocumentLoader interface {
	LoadResource(path string) (*model.Resource, error)
	ParseResource(data []byte, baseDir string) (*model.Resource, error)
	LoadInstance(path string) (model.Instance, error)
	ParseInstance(data []byte) (model.Instance, error)
	NamedInstance(name string) (model.Instance, error)
}

// SubmitResult is the outcome of Submit: either a queued job id or the
// result of running the job in-process.
type SubmitResult struct {
	Queued bool
	JobID  string
	Result *queue.JobResult
}

// SetQueue sets the queue for async execution
func (e *Executor) SetQueue(q queue.Queue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = q
}

// Submit publishes job when a queue is configured and otherwise runs it
// synchronously.
func (e *Executor) Submit(ctx context.Context, job *queue.Job) (*SubmitResult, error) {
	e.mu.Lock()
	q := e.queue
	e.mu.Unlock()

	if q == nil {
		result, err := e.RunJob(ctx, job)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{JobID: job.ID, Result: result}, nil
	}

	if job.ID == "" {
		job.ID = queue.NewJobID()
	}
	if err := q.PublishJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to queue job: %w", err)
	}
	return &SubmitResult{Queued: true, JobID: job.ID}, nil
}

// RunJob loads the job's documents and runs its operation. Engine failures
// are reported in the result; the returned error is reserved for jobs that
// could not be attempted at all.
func (e *Executor) RunJob(ctx context.Context, job *queue.Job) (*queue.JobResult, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if e.loader == nil {
		return nil, fmt.Errorf("executor has no document loader")
	}

	result := &queue.JobResult{
		JobID:     job.ID,
		Operation: job.Operation,
		Applied:   []string{},
		Errors:    []string{},
	}

	resource, instance, err := e.loadJob(job)
	if err != nil {
		return fail(result, err), nil
	}

	switch job.Operation {
	case queue.OperationState:
		report, err := e.State(ctx, resource, instance)
		if err != nil {
			return fail(result, err), nil
		}
		if report.State != nil {
			result.StateID = report.State.ID.String()
			result.StateLabel = report.State.Label
		}
		result.Results = outcomes(report.Results)
		result.Success = model.AllPassed(report.Results)

	case queue.OperationMigrate:
		report, err := e.Migrate(ctx, resource, instance, job.Target)
		if report != nil {
			for _, id := range report.Applied {
				result.Applied = append(result.Applied, id.String())
			}
		}
		if err != nil {
			return fail(result, err), nil
		}
		result.StateID = report.ToStateID.String()
		result.Success = true

	case queue.OperationJumpState:
		if err := e.JumpState(ctx, resource, instance, job.Target); err != nil {
			return fail(result, err), nil
		}
		result.Success = true
	}

	return result, nil
}

func (e *Executor) loadJob(job *queue.Job) (*model.Resource, model.Instance, error) {
	var (
		resource *model.Resource
		instance model.Instance
		err      error
	)

	if job.ResourceDocument != "" {
		resource, err = e.loader.ParseResource([]byte(job.ResourceDocument), "")
	} else {
		resource, err = e.loader.LoadResource(job.ResourcePath)
	}
	if err != nil {
		return nil, nil, err
	}

	switch {
	case job.InstanceDocument != "":
		instance, err = e.loader.ParseInstance([]byte(job.InstanceDocument))
	case job.InstancePath != "":
		instance, err = e.loader.LoadInstance(job.InstancePath)
	default:
		instance, err = e.loader.NamedInstance(job.InstanceName)
	}
	if err != nil {
		return nil, nil, err
	}

	return resource, instance, nil
}

func fail(result *queue.JobResult, err error) *queue.JobResult {
	result.Success = false
	result.ErrorKind = string(model.KindOf(err))
	result.Errors = append(result.Errors, err.Error())
	result.Results = outcomes(model.AssertionResultsOf(err))
	return result
}

func outcomes(results []model.AssertionResult) []queue.AssertionOutcome {
	if len(results) == 0 {
		return nil
	}
	out := make([]queue.AssertionOutcome, len(results))
	for i, r := range results {
		out[i] = queue.AssertionOutcome{
			AssertionID: r.AssertionID.String(),
			Description: r.Description,
			Result:      r.Result,
			Message:     r.Message,
		}
	}
	return out
}
