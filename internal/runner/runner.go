// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"fmt"
)

type (
	// Runner executes a single command line to completion and returns its
	// captured output. Implementations must return a *CommandError when the
	// command itself runs but exits non-zero, so callers can distinguish tool
	// failures from launch failures.
	Runner interface {
		Run(ctx context.Context, command string) (*Result, error)
	}

	// Result holds the captured output of one command invocation. It is
	// produced and consumed per call and never persisted.
	Result struct {
		Stdout   string
		Stderr   string
		ExitCode int
	}
)

// CommandError reports an external tool that exited non-zero.
type CommandError struct {
	// Command is the original command line as passed to Run.
	Command string
	// ExitCode is the tool's exit code.
	ExitCode int
	// Output is the captured stderr followed by the captured stdout.
	Output string
}

// Error returns the error message for CommandError.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q exited with code %d:\n%s", e.Command, e.ExitCode, e.Output)
}

func newCommandError(command string, res *Result) *CommandError {
	return &CommandError{
		Command:  command,
		ExitCode: res.ExitCode,
		Output:   res.Stderr + res.Stdout,
	}
}
