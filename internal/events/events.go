// Package events carries lifecycle notifications out of the migration
// engine. Sinks observe; they cannot influence control flow.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies a lifecycle notification
type Type string

const (
	MigrationStart    Type = "migration.start"
	MigrationComplete Type = "migration.complete"
	AssertionStart    Type = "assertion.start"
	AssertionComplete Type = "assertion.complete"
)

// Event is a single lifecycle notification
type Event struct {
	Type          Type
	Time          time.Time
	ResourceID    uuid.UUID
	ResourceName  string
	MigrationID   uuid.UUID
	MigrationKind string
	FromStateID   uuid.UUID
	ToStateID     uuid.UUID
	StateID       uuid.UUID
	AssertionID   uuid.UUID
	Description   string
	// Result is set on AssertionComplete when the assertion was evaluated
	Result  *bool
	Message string
	// Err is set on a Complete event when the step faulted
	Err      error
	Duration time.Duration
}

// Sink receives lifecycle notifications
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event
var Discard Sink = SinkFunc(func(Event) {})

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi fans each event out to every non-nil sink in order
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Recorder keeps every event it receives. It is not safe for concurrent use.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(e Event) { r.Events = append(r.Events, e) }

// Types returns the recorded event types in order
func (r *Recorder) Types() []Type {
	types := make([]Type, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}
