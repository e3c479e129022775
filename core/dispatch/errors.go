package dispatch

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrHandledLocally is returned by Parse if the command has been
	// completed without talking to the kernel, e.g. help
	ErrHandledLocally = errors.New("handled locally")

	// ErrCommandFailed is returned if a handler stopped with StopErr or
	// the kernel rejected the request
	ErrCommandFailed = errors.New("command failed")

	// ErrUnknownCommand is returned for command names not in the table
	ErrUnknownCommand = errors.New("unknown command")
)

// ParseError reports invalid command line arguments
type ParseError struct {
	Command string
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Command == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

// Errorf returns a *ParseError for the command
func (d *Descriptor) Errorf(format string, args ...interface{}) error {
	return &ParseError{
		Command: d.Name,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// Exit codes returned by ExitCode
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitChannel = 2
	ExitTimeout = 3
)

// ExitCode maps an error returned by Client.Run to a process exit code
func ExitCode(err error) int {
	var perr *ParseError

	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &perr),
		errors.Is(err, ErrCommandFailed),
		errors.Is(err, ErrUnknownCommand):
		return ExitFailure
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	}

	return ExitChannel
}
