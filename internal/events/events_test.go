package events

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestMulti(t *testing.T) {
	var a, b Recorder
	sink := Multi(&a, nil, &b)

	sink.Emit(Event{Type: MigrationStart})
	sink.Emit(Event{Type: MigrationComplete})

	for name, r := range map[string]*Recorder{"a": &a, "b": &b} {
		got := r.Types()
		if len(got) != 2 || got[0] != MigrationStart || got[1] != MigrationComplete {
			t.Errorf("recorder %s got %v", name, got)
		}
	}
}

func TestSinkFunc(t *testing.T) {
	called := false
	SinkFunc(func(e Event) { called = e.Type == AssertionStart }).Emit(Event{Type: AssertionStart})
	if !called {
		t.Error("SinkFunc was not called")
	}
	Discard.Emit(Event{Type: AssertionStart})
}

func TestLogSink_Levels(t *testing.T) {
	passed, failed := true, false
	tests := []struct {
		name      string
		event     Event
		wantLevel logrus.Level
	}{
		{
			name:      "migration start",
			event:     Event{Type: MigrationStart, MigrationID: uuid.New()},
			wantLevel: logrus.DebugLevel,
		},
		{
			name:      "migration complete",
			event:     Event{Type: MigrationComplete, MigrationID: uuid.New()},
			wantLevel: logrus.InfoLevel,
		},
		{
			name:      "migration failed",
			event:     Event{Type: MigrationComplete, MigrationID: uuid.New(), Err: errors.New("boom")},
			wantLevel: logrus.ErrorLevel,
		},
		{
			name:      "assertion passed",
			event:     Event{Type: AssertionComplete, Result: &passed, Description: "Schema core exists"},
			wantLevel: logrus.InfoLevel,
		},
		{
			name:      "assertion failed",
			event:     Event{Type: AssertionComplete, Result: &failed, Message: "Schema core does not exist"},
			wantLevel: logrus.WarnLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			log.SetLevel(logrus.DebugLevel)

			NewLogSink(log).Emit(tt.event)

			entry := hook.LastEntry()
			if entry == nil {
				t.Fatal("no log entry written")
			}
			if entry.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", entry.Level, tt.wantLevel)
			}
			if entry.Data["event"] != string(tt.event.Type) {
				t.Errorf("event field = %v", entry.Data["event"])
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, "wb")
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	passed, failed := true, false
	m.Emit(Event{Type: MigrationStart, ResourceName: "db", MigrationKind: "sqlite.sqlScript"})
	m.Emit(Event{Type: MigrationComplete, ResourceName: "db", MigrationKind: "sqlite.sqlScript"})
	m.Emit(Event{Type: MigrationComplete, ResourceName: "db", MigrationKind: "sqlite.sqlScript", Err: errors.New("boom")})
	m.Emit(Event{Type: AssertionComplete, ResourceName: "db", Result: &passed})
	m.Emit(Event{Type: AssertionComplete, ResourceName: "db", Result: &failed})
	m.Emit(Event{Type: AssertionComplete, ResourceName: "db", Result: &failed})

	if got := testutil.ToFloat64(m.migrations.WithLabelValues("db", "sqlite.sqlScript", "success")); got != 1 {
		t.Errorf("successful migrations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.migrations.WithLabelValues("db", "sqlite.sqlScript", "failed")); got != 1 {
		t.Errorf("failed migrations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.assertions.WithLabelValues("db", "false")); got != 2 {
		t.Errorf("failed assertions = %v, want 2", got)
	}

	if _, err := NewMetrics(reg, "wb"); err == nil {
		t.Error("registering the same collectors twice should fail")
	}
}
