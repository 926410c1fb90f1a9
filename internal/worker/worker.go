package worker

import (
	"context"

	"github.com/toolsascode/wildebeest/internal/executor"
	"github.com/toolsascode/wildebeest/internal/logger"
	"github.com/toolsascode/wildebeest/internal/queue"
)

// JobRunner runs one queued engine operation. *executor.Executor satisfies it.
type JobRunner interface {
	RunJob(ctx context.Context, job *queue.Job) (*queue.JobResult, error)
}

var _ JobRunner = (*executor.Executor)(nil)

// Worker processes engine jobs from the queue
type Worker struct {
	runner JobRunner
	queue  queue.Consumer
}

// NewWorker creates a new worker
func NewWorker(runner JobRunner, q queue.Consumer) *Worker {
	return &Worker{
		runner: runner,
		queue:  q,
	}
}

// Start consumes jobs until ctx is cancelled or the queue fails
func (w *Worker) Start(ctx context.Context) error {
	logger.Info("Starting wildebeest worker...")
	return w.queue.Consume(ctx, w.processJob)
}

// processJob runs a single job. Failed operations are reported in the
// result and never stop the worker.
func (w *Worker) processJob(ctx context.Context, job *queue.Job) (*queue.JobResult, error) {
	executedBy := "worker"
	if by, ok := job.Metadata["executed_by"].(string); ok && by != "" {
		executedBy = by
	}
	ctx = executor.SetExecutionContext(ctx, executedBy, "worker", map[string]interface{}{
		"job_id":    job.ID,
		"operation": string(job.Operation),
	})

	logger.Infof("Processing %s job %s", job.Operation, job.ID)
	result, err := w.runner.RunJob(ctx, job)
	if err != nil {
		return &queue.JobResult{
			JobID:     job.ID,
			Operation: job.Operation,
			Success:   false,
			Applied:   []string{},
			Errors:    []string{err.Error()},
		}, err
	}

	if result.Success {
		logger.Infof("Job %s: %s", job.ID, queue.Summary(result))
	} else {
		logger.Warnf("Job %s: %s", job.ID, queue.Summary(result))
	}
	return result, nil
}

// Stop closes the queue connection
func (w *Worker) Stop() error {
	logger.Info("Stopping wildebeest worker...")
	return w.queue.Close()
}
