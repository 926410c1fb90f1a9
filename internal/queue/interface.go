package queue

import (
	"context"
)

// Operation names the engine operation a job runs
type Operation string

const (
	OperationState     Operation = "state"
	OperationMigrate   Operation = "migrate"
	OperationJumpState Operation = "jumpstate"
)

// Job represents an engine operation to be queued. The resource and the
// instance are given either as a path readable by the worker or as an
// inline document; an instance may also be named from the worker's
// environment.
type Job struct {
	ID               string                 `json:"id"`
	Operation        Operation              `json:"operation"`
	ResourcePath     string                 `json:"resource_path,omitempty"`
	ResourceDocument string                 `json:"resource_document,omitempty"`
	InstancePath     string                 `json:"instance_path,omitempty"`
	InstanceDocument string                 `json:"instance_document,omitempty"`
	InstanceName     string                 `json:"instance_name,omitempty"`
	Target           string                 `json:"target,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// AssertionOutcome is the serialized form of one assertion result
type AssertionOutcome struct {
	AssertionID string `json:"assertion_id"`
	Description string `json:"description"`
	Result      bool   `json:"result"`
	Message     string `json:"message"`
}

// JobResult represents the result of a job
type JobResult struct {
	JobID      string             `json:"job_id"`
	Operation  Operation          `json:"operation"`
	Success    bool               `json:"success"`
	StateID    string             `json:"state_id,omitempty"`
	StateLabel string             `json:"state_label,omitempty"`
	Applied    []string           `json:"applied"`
	Results    []AssertionOutcome `json:"results,omitempty"`
	ErrorKind  string             `json:"error_kind,omitempty"`
	Errors     []string           `json:"errors"`
}

// Producer publishes jobs to the queue
type Producer interface {
	// PublishJob publishes a job to the queue
	PublishJob(ctx context.Context, job *Job) error

	// Close closes the producer connection
	Close() error
}

// Consumer consumes jobs from the queue
type Consumer interface {
	// Consume starts consuming jobs from the queue
	// The handler function is called for each job
	Consume(ctx context.Context, handler JobHandler) error

	// Close closes the consumer connection
	Close() error
}

// JobHandler processes a job
type JobHandler func(ctx context.Context, job *Job) (*JobResult, error)

// Queue provides both producer and consumer capabilities
type Queue interface {
	Producer
	Consumer
}
