package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/toolsascode/wildebeest/internal/executor"
	"github.com/toolsascode/wildebeest/internal/queue"
)

type mockRunner struct {
	result     *queue.JobResult
	err        error
	executedBy string
	method     string
}

func (r *mockRunner) RunJob(ctx context.Context, job *queue.Job) (*queue.JobResult, error) {
	r.executedBy, r.method, _ = executor.GetExecutionContext(ctx)
	return r.result, r.err
}

// mockConsumer delivers its jobs once and records the results
type mockConsumer struct {
	jobs    []*queue.Job
	results []*queue.JobResult
	errs    []error
	closed  bool
}

func (c *mockConsumer) Consume(ctx context.Context, handler queue.JobHandler) error {
	for _, job := range c.jobs {
		result, err := handler(ctx, job)
		c.results = append(c.results, result)
		c.errs = append(c.errs, err)
	}
	return nil
}

func (c *mockConsumer) Close() error {
	c.closed = true
	return nil
}

func TestWorker_Start(t *testing.T) {
	tests := []struct {
		name        string
		job         *queue.Job
		runner      *mockRunner
		wantSuccess bool
		wantErr     bool
		wantBy      string
	}{
		{
			name:        "successful job",
			job:         &queue.Job{ID: "job_1", Operation: queue.OperationMigrate},
			runner:      &mockRunner{result: &queue.JobResult{JobID: "job_1", Success: true}},
			wantSuccess: true,
			wantBy:      "worker",
		},
		{
			name:   "failed operation",
			job:    &queue.Job{ID: "job_2", Operation: queue.OperationJumpState, Metadata: map[string]interface{}{"executed_by": "alice"}},
			runner: &mockRunner{result: &queue.JobResult{JobID: "job_2", ErrorKind: "assertion_failed", Errors: []string{"assertion failed"}}},
			wantBy: "alice",
		},
		{
			name:    "job could not run",
			job:     &queue.Job{ID: "job_3", Operation: queue.OperationState},
			runner:  &mockRunner{err: errors.New("executor has no document loader")},
			wantErr: true,
			wantBy:  "worker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := &mockConsumer{jobs: []*queue.Job{tt.job}}
			w := NewWorker(tt.runner, consumer)

			if err := w.Start(context.Background()); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if len(consumer.results) != 1 {
				t.Fatalf("handled %d jobs, want 1", len(consumer.results))
			}
			result := consumer.results[0]
			if result.Success != tt.wantSuccess || result.JobID != tt.job.ID {
				t.Errorf("result = %+v", result)
			}
			if (consumer.errs[0] != nil) != tt.wantErr {
				t.Errorf("handler error = %v, wantErr %v", consumer.errs[0], tt.wantErr)
			}
			if tt.runner.executedBy != tt.wantBy || tt.runner.method != "worker" {
				t.Errorf("execution context = %s/%s, want %s/worker", tt.runner.executedBy, tt.runner.method, tt.wantBy)
			}
		})
	}
}

func TestWorker_Stop(t *testing.T) {
	consumer := &mockConsumer{}
	if err := NewWorker(&mockRunner{}, consumer).Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !consumer.closed {
		t.Error("Stop() should close the queue")
	}
}
