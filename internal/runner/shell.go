// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
)

// ShellRunner executes commands using the host shell.
type ShellRunner struct {
	// Shell overrides the shell binary. Empty means $SHELL, falling back to sh.
	Shell string
	// Logger receives the pre-execution diagnostic line. Nil uses log.Default().
	Logger *log.Logger
}

// NewShellRunner creates a shell runner that logs to the given logger.
func NewShellRunner(logger *log.Logger) *ShellRunner {
	return &ShellRunner{Logger: logger}
}

func (r *ShellRunner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

func (r *ShellRunner) shell() string {
	if r.Shell != "" {
		return r.Shell
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "sh"
}

// Run executes the command line via the shell and captures its output. On a
// non-zero exit the Result is returned alongside a *CommandError.
func (r *ShellRunner) Run(ctx context.Context, command string) (*Result, error) {
	r.logger().Info("Running cmd: " + command)

	cmd := exec.CommandContext(ctx, r.shell(), "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, newCommandError(command, res)
		}
		return res, fmt.Errorf("failed to execute command: %w", err)
	}
	return res, nil
}
