package dto

import (
	"testing"

	"github.com/toolsascode/wildebeest/internal/queue"
)

func TestOperationRequest_Job(t *testing.T) {
	req := OperationRequest{
		Resource:     "id: x",
		InstanceName: "local",
		Target:       "Created",
	}
	job := req.Job(queue.OperationMigrate)

	if job.Operation != queue.OperationMigrate {
		t.Errorf("Job() operation = %s", job.Operation)
	}
	if job.ResourceDocument != "id: x" || job.InstanceName != "local" || job.Target != "Created" {
		t.Errorf("Job() = %+v", job)
	}
	if job.ID != "" {
		t.Errorf("Job() id = %q, want empty until submitted", job.ID)
	}
}

func TestFromJobResult(t *testing.T) {
	tests := []struct {
		name        string
		result      *queue.JobResult
		wantResults int
	}{
		{
			name:   "empty slices are never null",
			result: &queue.JobResult{JobID: "job_1", Operation: queue.OperationState, Success: true},
		},
		{
			name: "assertion outcomes",
			result: &queue.JobResult{
				JobID:     "job_2",
				Operation: queue.OperationMigrate,
				ErrorKind: "assertion_failed",
				Errors:    []string{"assertion failed"},
				Applied:   []string{"a"},
				Results: []queue.AssertionOutcome{
					{AssertionID: "x", Description: "Table items exists", Result: false, Message: "Table items does not exist"},
				},
			},
			wantResults: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := FromJobResult(tt.result)
			if resp.Applied == nil || resp.Errors == nil || resp.Results == nil {
				t.Errorf("FromJobResult() has nil slices: %+v", resp)
			}
			if len(resp.Results) != tt.wantResults {
				t.Errorf("FromJobResult() results = %d, want %d", len(resp.Results), tt.wantResults)
			}
			if resp.JobID != tt.result.JobID || resp.ErrorKind != tt.result.ErrorKind {
				t.Errorf("FromJobResult() = %+v", resp)
			}
		})
	}
}
