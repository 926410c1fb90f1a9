package queue

import (
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	job := &Job{
		Operation:        OperationMigrate,
		ResourceDocument: "id: x",
		InstanceName:     "core",
		Target:           "SchemaLoaded",
	}

	data, err := Encode(job)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.HasPrefix(job.ID, "job_") {
		t.Errorf("Encode() should assign an id, got %q", job.ID)
	}

	got, err := Decode(data, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.ID != job.ID || got.Operation != OperationMigrate || got.Target != "SchemaLoaded" {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestDecode_IDFromHeaders(t *testing.T) {
	got, err := Decode([]byte(`{"operation":"state"}`), map[string]string{HeaderJobID: "job_42"})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.ID != "job_42" {
		t.Errorf("Decode() id = %q, want job_42", got.ID)
	}

	if _, err := Decode([]byte("not json"), nil); err == nil {
		t.Error("Decode() of invalid data should fail")
	}
}

func TestJob_Validate(t *testing.T) {
	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{"valid", Job{Operation: OperationState, ResourcePath: "r.yaml", InstancePath: "i.yaml"}, false},
		{"unknown operation", Job{Operation: "rollback", ResourcePath: "r.yaml", InstancePath: "i.yaml"}, true},
		{"missing resource", Job{Operation: OperationState, InstancePath: "i.yaml"}, true},
		{"missing instance", Job{Operation: OperationJumpState, ResourcePath: "r.yaml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	ok := Summary(&JobResult{Operation: OperationMigrate, Success: true, Applied: []string{"a", "b"}})
	if !strings.Contains(ok, "2 migrations applied") {
		t.Errorf("Summary() = %q", ok)
	}
	failed := Summary(&JobResult{Operation: OperationMigrate, ErrorKind: "assertion_failed", Errors: []string{"x"}})
	if !strings.Contains(failed, "assertion_failed") {
		t.Errorf("Summary() = %q", failed)
	}
	if Summary(nil) != "no result" {
		t.Error("Summary(nil)")
	}
}
