package main

import (
	"errors"

	"github.com/toolsascode/wildebeest/internal/model"
)

// Process exit codes
const (
	exitOK               = 0
	exitError            = 1
	exitInvalidInput     = 2
	exitIndeterminate    = 3
	exitNoPath           = 4
	exitAssertionFailed  = 5
	exitMigrationFailed  = 6
	exitJumpStateFailed  = 7
	exitEnvironmentError = 8
)

// configError marks failures to set up configuration or plugins
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// usageError marks invalid command-line input
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var usage *usageError
	if errors.As(err, &usage) {
		return exitInvalidInput
	}
	var cfg *configError
	if errors.As(err, &cfg) {
		return exitEnvironmentError
	}

	switch model.KindOf(err) {
	case model.KindInvalidStateSpecified, model.KindUnknownStateSpecified,
		model.KindTargetNotSpecified, model.KindInvalidDefinition:
		return exitInvalidInput
	case model.KindIndeterminateState:
		return exitIndeterminate
	case model.KindMigrationNotPossible, model.KindAmbiguousPath:
		return exitNoPath
	case model.KindAssertionFailed:
		return exitAssertionFailed
	case model.KindMigrationFailed:
		return exitMigrationFailed
	case model.KindJumpStateFailed:
		return exitJumpStateFailed
	case model.KindPluginNotFound, model.KindIncompatibleInstance, model.KindAssertionFault:
		return exitEnvironmentError
	default:
		return exitError
	}
}
