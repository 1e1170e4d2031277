// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRunner executes commands using an embedded shell interpreter
// (mvdan/sh). It needs no system shell, which makes it the fallback on hosts
// where sh is absent or unusable.
type VirtualRunner struct {
	// Logger receives the pre-execution diagnostic line. Nil uses log.Default().
	Logger *log.Logger
}

// NewVirtualRunner creates a virtual runner that logs to the given logger.
func NewVirtualRunner(logger *log.Logger) *VirtualRunner {
	return &VirtualRunner{Logger: logger}
}

func (r *VirtualRunner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

// Run parses and executes the command line with the embedded interpreter,
// capturing its output. On a non-zero exit the Result is returned alongside
// a *CommandError.
func (r *VirtualRunner) Run(ctx context.Context, command string) (*Result, error) {
	r.logger().Info("Running cmd: " + command)

	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "cmd")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	var stdout, stderr bytes.Buffer
	sh, err := interp.New(
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}

	err = sh.Run(ctx, prog)
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			res.ExitCode = int(status)
			return res, newCommandError(command, res)
		}
		return res, fmt.Errorf("command execution failed: %w", err)
	}
	return res, nil
}
