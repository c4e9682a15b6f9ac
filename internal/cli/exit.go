package cli

import (
	"errors"

	"linkage/internal/linkage/models"
)

// ExitCode is the process status linkagectl ends with.
type ExitCode int

const (
	ExitSuccess      ExitCode = iota // request handled
	ExitFailure                      // server answered ERROR
	ExitCommandError                 // bad flags, unreachable server, reply that is not a linkage response
	ExitNotFound                     // server answered NOT_FOUND and --fail-not-found was set
)

// exitCodeFor maps a linkage status onto an exit code. NOT_FOUND is a
// valid outcome unless the caller asked to fail on it.
func exitCodeFor(status models.Status, failNotFound bool) ExitCode {
	switch status {
	case models.StatusSuccess:
		return ExitSuccess
	case models.StatusNotFound:
		if failNotFound {
			return ExitNotFound
		}
		return ExitSuccess
	default:
		return ExitFailure
	}
}

// CommandError is a failed command together with the exit code it ends with.
type CommandError struct {
	Code    ExitCode
	Message string
	Err     error
}

// Fail builds a CommandError. err may be nil.
func Fail(code ExitCode, message string, err error) *CommandError {
	return &CommandError{Code: code, Message: message, Err: err}
}

func (e *CommandError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCodeOf resolves the exit code for a command result. Errors that are not
// a CommandError are reported as ExitFailure.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code
	}
	return ExitFailure
}
