package kafka

import (
	"testing"

	"github.com/toolsascode/wildebeest/internal/queue"
)

func TestNewMessage(t *testing.T) {
	job := &queue.Job{
		ID:           "job_1",
		Operation:    queue.OperationMigrate,
		ResourcePath: "resources/core.yaml",
		InstanceName: "core",
	}

	msg, err := newMessage(job)
	if err != nil {
		t.Fatalf("newMessage() error = %v", err)
	}
	if string(msg.Key) != "resources/core.yaml" {
		t.Errorf("message key = %q, want resource path", msg.Key)
	}

	headers := headerMap(msg.Headers)
	if headers[queue.HeaderJobID] != "job_1" || headers[queue.HeaderOperation] != "migrate" {
		t.Errorf("headers = %v", headers)
	}

	decoded, err := queue.Decode(msg.Value, headers)
	if err != nil || decoded.InstanceName != "core" {
		t.Errorf("Decode() = %+v, %v", decoded, err)
	}
}

func TestNewMessage_InvalidJob(t *testing.T) {
	if _, err := newMessage(&queue.Job{Operation: queue.OperationMigrate}); err == nil {
		t.Error("newMessage() should reject a job without documents")
	}
}
