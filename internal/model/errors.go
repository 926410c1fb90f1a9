package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrorKind classifies an engine failure
type ErrorKind string

const (
	KindIndeterminateState    ErrorKind = "indeterminate_state"
	KindInvalidStateSpecified ErrorKind = "invalid_state_specified"
	KindUnknownStateSpecified ErrorKind = "unknown_state_specified"
	KindTargetNotSpecified    ErrorKind = "target_not_specified"
	KindMigrationNotPossible  ErrorKind = "migration_not_possible"
	KindAmbiguousPath         ErrorKind = "ambiguous_path"
	KindAssertionFailed       ErrorKind = "assertion_failed"
	KindMigrationFailed       ErrorKind = "migration_failed"
	KindJumpStateFailed       ErrorKind = "jumpstate_failed"
	KindIncompatibleInstance  ErrorKind = "incompatible_instance"
	KindAssertionFault        ErrorKind = "assertion_fault"
	KindPluginNotFound        ErrorKind = "plugin_not_found"
	KindInvalidDefinition     ErrorKind = "invalid_definition"
)

// Error is the single error type raised by the engine. The payload fields
// that are set depend on Kind; Results is only populated for
// KindAssertionFailed.
type Error struct {
	Kind        ErrorKind
	Message     string
	Target      string
	StateID     uuid.UUID
	MigrationID uuid.UUID
	AssertionID uuid.UUID
	Results     []AssertionResult
	Err         error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Message == "" {
		b.WriteString(string(e.Kind))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the Err* sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is
var (
	ErrIndeterminateState    = &Error{Kind: KindIndeterminateState}
	ErrInvalidStateSpecified = &Error{Kind: KindInvalidStateSpecified}
	ErrUnknownStateSpecified = &Error{Kind: KindUnknownStateSpecified}
	ErrTargetNotSpecified    = &Error{Kind: KindTargetNotSpecified}
	ErrMigrationNotPossible  = &Error{Kind: KindMigrationNotPossible}
	ErrAmbiguousPath         = &Error{Kind: KindAmbiguousPath}
	ErrAssertionFailed       = &Error{Kind: KindAssertionFailed}
	ErrMigrationFailed       = &Error{Kind: KindMigrationFailed}
	ErrJumpStateFailed       = &Error{Kind: KindJumpStateFailed}
	ErrIncompatibleInstance  = &Error{Kind: KindIncompatibleInstance}
	ErrAssertionFault        = &Error{Kind: KindAssertionFault}
	ErrPluginNotFound        = &Error{Kind: KindPluginNotFound}
	ErrInvalidDefinition     = &Error{Kind: KindInvalidDefinition}
)

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// AssertionResultsOf returns the assertion results carried by err, if any
func AssertionResultsOf(err error) []AssertionResult {
	var e *Error
	if errors.As(err, &e) {
		return e.Results
	}
	return nil
}

func NewIndeterminateState(message string) *Error {
	return &Error{Kind: KindIndeterminateState, Message: message}
}

func NewInvalidStateSpecified(target string) *Error {
	return &Error{
		Kind:    KindInvalidStateSpecified,
		Message: fmt.Sprintf("the state %q is not a valid state identifier or label", target),
		Target:  target,
	}
}

func NewUnknownStateSpecified(target string) *Error {
	return &Error{
		Kind:    KindUnknownStateSpecified,
		Message: fmt.Sprintf("the state %q is not declared for this resource", target),
		Target:  target,
	}
}

func NewTargetNotSpecified() *Error {
	return &Error{
		Kind:    KindTargetNotSpecified,
		Message: "no target state was specified and the resource has no default target",
	}
}

func NewMigrationNotPossible(from, to uuid.UUID) *Error {
	return &Error{
		Kind:    KindMigrationNotPossible,
		Message: fmt.Sprintf("no migration path from %s to %s", stateText(from), stateText(to)),
		StateID: to,
	}
}

func NewAmbiguousPath(from, to uuid.UUID, count int) *Error {
	return &Error{
		Kind:    KindAmbiguousPath,
		Message: fmt.Sprintf("%d possible migration paths from %s to %s", count, stateText(from), stateText(to)),
		StateID: to,
	}
}

func NewAssertionFailed(stateID uuid.UUID, results []AssertionResult) *Error {
	failed := 0
	for _, r := range results {
		if !r.Result {
			failed++
		}
	}
	return &Error{
		Kind:    KindAssertionFailed,
		Message: fmt.Sprintf("%d of %d assertions failed for state %s", failed, len(results), stateText(stateID)),
		StateID: stateID,
		Results: results,
	}
}

func NewMigrationFailed(migrationID uuid.UUID, message string, err error) *Error {
	return &Error{
		Kind:        KindMigrationFailed,
		Message:     message,
		MigrationID: migrationID,
		Err:         err,
	}
}

func NewJumpStateFailed(message string) *Error {
	return &Error{Kind: KindJumpStateFailed, Message: message}
}

func NewIncompatibleInstance(want ResourceType, got Instance) *Error {
	gotType := "<nil>"
	if got != nil {
		gotType = fmt.Sprintf("%T (%s)", got, got.ResourceType())
	}
	return &Error{
		Kind:    KindIncompatibleInstance,
		Message: fmt.Sprintf("expected a %s instance, got %s", want, gotType),
	}
}

func NewAssertionFault(assertionID uuid.UUID, err error) *Error {
	return &Error{
		Kind:        KindAssertionFault,
		Message:     fmt.Sprintf("assertion %s could not be evaluated", assertionID),
		AssertionID: assertionID,
		Err:         err,
	}
}

func NewPluginNotFound(message string) *Error {
	return &Error{Kind: KindPluginNotFound, Message: message}
}

func NewInvalidDefinition(message string, err error) *Error {
	return &Error{Kind: KindInvalidDefinition, Message: message, Err: err}
}

func stateText(id uuid.UUID) string {
	if id == uuid.Nil {
		return "non-existent"
	}
	return id.String()
}
