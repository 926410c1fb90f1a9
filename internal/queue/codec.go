package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Message header keys shared by the queue implementations
const (
	HeaderJobID     = "job-id"
	HeaderOperation = "operation"
)

// NewJobID returns a fresh job identifier
func NewJobID() string {
	return "job_" + uuid.NewString()
}

// Encode validates job, assigns an id when missing, and serializes it
func Encode(job *Job) ([]byte, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if job.ID == "" {
		job.ID = NewJobID()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}
	return data, nil
}

// Decode deserializes a job, taking the id from headers when the body has none
func Decode(data []byte, headers map[string]string) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if job.ID == "" {
		job.ID = headers[HeaderJobID]
	}
	return &job, nil
}

// Validate checks that a job names an operation and carries both documents
func (j *Job) Validate() error {
	switch j.Operation {
	case OperationState, OperationMigrate, OperationJumpState:
	default:
		return fmt.Errorf("unknown job operation %q", j.Operation)
	}
	if j.ResourcePath == "" && j.ResourceDocument == "" {
		return fmt.Errorf("job requires a resource path or document")
	}
	if j.InstancePath == "" && j.InstanceDocument == "" && j.InstanceName == "" {
		return fmt.Errorf("job requires an instance path, document or name")
	}
	return nil
}

// Summary renders a one-line description of a job result for logs
func Summary(result *JobResult) string {
	if result == nil {
		return "no result"
	}
	if result.Success {
		return fmt.Sprintf("%s succeeded: %d migrations applied, %d assertions", result.Operation, len(result.Applied), len(result.Results))
	}
	return fmt.Sprintf("%s failed (%s): %v", result.Operation, result.ErrorKind, result.Errors)
}
