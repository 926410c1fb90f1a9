package dto

import (
	"github.com/toolsascode/wildebeest/internal/backends"
	"github.com/toolsascode/wildebeest/internal/queue"
)

// OperationRequest carries the documents for one engine operation. The
// resource and the instance are given inline as YAML or as a path readable
// by the server; an instance may also be named from the server environment.
type OperationRequest struct {
	Resource     string                 `json:"resource"`
	ResourcePath string                 `json:"resource_path"`
	Instance     string                 `json:"instance"`
	InstancePath string                 `json:"instance_path"`
	InstanceName string                 `json:"instance_name"`
	Target       string                 `json:"target"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// Job converts the request into a job for op
func (r *OperationRequest) Job(op queue.Operation) *queue.Job {
	return &queue.Job{
		Operation:        op,
		ResourcePath:     r.ResourcePath,
		ResourceDocument: r.Resource,
		InstancePath:     r.InstancePath,
		InstanceDocument: r.Instance,
		InstanceName:     r.InstanceName,
		Target:           r.Target,
		Metadata:         r.Metadata,
	}
}

// AssertionResult is one evaluated assertion
type AssertionResult struct {
	AssertionID string `json:"assertion_id"`
	Description string `json:"description"`
	Result      bool   `json:"result"`
	Message     string `json:"message"`
}

// OperationResponse represents the outcome of an engine operation
type OperationResponse struct {
	JobID      string            `json:"job_id,omitempty"`
	Queued     bool              `json:"queued"`
	Operation  string            `json:"operation"`
	Success    bool              `json:"success"`
	StateID    string            `json:"state_id,omitempty"`
	StateLabel string            `json:"state_label,omitempty"`
	Applied    []string          `json:"applied"`
	Results    []AssertionResult `json:"results"`
	ErrorKind  string            `json:"error_kind,omitempty"`
	Errors     []string          `json:"errors"`
}

// AssertResponse represents the outcome of an assert request
type AssertResponse struct {
	Passed    bool              `json:"passed"`
	Results   []AssertionResult `json:"results"`
	ErrorKind string            `json:"error_kind,omitempty"`
	Errors    []string          `json:"errors"`
}

// PluginsResponse lists the registered plugin groups
type PluginsResponse struct {
	Plugins []backends.PluginGroup `json:"plugins"`
}

// FromJobResult builds the response for a job that ran in-process
func FromJobResult(result *queue.JobResult) OperationResponse {
	resp := OperationResponse{
		JobID:      result.JobID,
		Operation:  string(result.Operation),
		Success:    result.Success,
		StateID:    result.StateID,
		StateLabel: result.StateLabel,
		Applied:    result.Applied,
		Results:    Results(result.Results),
		ErrorKind:  result.ErrorKind,
		Errors:     result.Errors,
	}
	if resp.Applied == nil {
		resp.Applied = []string{}
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	return resp
}

// Results converts queued assertion outcomes, never returning nil
func Results(outcomes []queue.AssertionOutcome) []AssertionResult {
	results := make([]AssertionResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = AssertionResult{
			AssertionID: o.AssertionID,
			Description: o.Description,
			Result:      o.Result,
			Message:     o.Message,
		}
	}
	return results
}
