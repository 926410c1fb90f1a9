package events

import (
	"github.com/sirupsen/logrus"
)

// LogSink writes one structured log line per event
type LogSink struct {
	log logrus.FieldLogger
}

// NewLogSink creates a sink writing to log
func NewLogSink(log logrus.FieldLogger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(e Event) {
	fields := logrus.Fields{
		"event":    string(e.Type),
		"resource": e.ResourceName,
	}

	switch e.Type {
	case MigrationStart, MigrationComplete:
		fields["migration"] = e.MigrationID.String()
		fields["kind"] = e.MigrationKind
		fields["from"] = stateText(e.FromStateID)
		fields["to"] = stateText(e.ToStateID)
	case AssertionStart, AssertionComplete:
		fields["state"] = stateText(e.StateID)
		fields["assertion"] = e.AssertionID.String()
	}
	if e.Type == MigrationComplete || e.Type == AssertionComplete {
		fields["duration"] = e.Duration.String()
	}
	if e.Result != nil {
		fields["result"] = *e.Result
	}

	entry := s.log.WithFields(fields)
	switch {
	case e.Err != nil:
		entry.WithError(e.Err).Error(message(e))
	case e.Result != nil && !*e.Result:
		entry.Warn(message(e))
	case e.Type == MigrationStart || e.Type == AssertionStart:
		entry.Debug(message(e))
	default:
		entry.Info(message(e))
	}
}

func message(e Event) string {
	switch e.Type {
	case MigrationStart:
		return "Performing migration"
	case MigrationComplete:
		if e.Err != nil {
			return "Migration failed"
		}
		return "Migration complete"
	case AssertionStart:
		return "Applying assertion: " + e.Description
	case AssertionComplete:
		if e.Message != "" {
			return e.Description + ": " + e.Message
		}
		return e.Description
	}
	return string(e.Type)
}
