// SPDX-License-Identifier: MPL-2.0

// Package toolcheck verifies minimum versions of the external packaging
// toolchain before a bundle run starts.
package toolcheck

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"nimbus-bundler/internal/runner"

	"golang.org/x/mod/semver"
)

// Minimum tool versions required for a bundle run.
const (
	MinPipVersion        = "9.0.1"
	MinVirtualenvVersion = "15.1.0"
)

type (
	// Gate checks the dependency-fetch and isolated-environment tools before
	// any workspace state is created.
	Gate struct {
		Runner runner.Runner
		// Pip is the dependency-fetch executable. Empty means "pip".
		Pip string
		// Virtualenv is the isolated-environment executable. Empty means "virtualenv".
		Virtualenv string
		// Strict switches to a true semantic-version comparison. The default
		// comparator intentionally reproduces the looser historical rule; see
		// meetsMinimum.
		Strict bool
	}

	// VersionTooLowError reports a tool that failed the precondition gate.
	VersionTooLowError struct {
		Tool    string
		Minimum string
		Actual  string
	}
)

// Error returns the error message for VersionTooLowError.
func (e *VersionTooLowError) Error() string {
	return fmt.Sprintf("%s version %s does not meet the required minimum %s", e.Tool, e.Actual, e.Minimum)
}

func (g *Gate) pip() string {
	if g.Pip != "" {
		return g.Pip
	}
	return "pip"
}

func (g *Gate) virtualenv() string {
	if g.Virtualenv != "" {
		return g.Virtualenv
	}
	return "virtualenv"
}

// Verify checks both tools against their minimum versions. It runs no other
// side effects, so a failed gate leaves nothing to clean up.
func (g *Gate) Verify(ctx context.Context) error {
	res, err := g.Runner.Run(ctx, g.pip()+" --version")
	if err != nil {
		return fmt.Errorf("checking pip version: %w", err)
	}
	if err := g.check("pip", MinPipVersion, pipVersionToken(res.Stdout)); err != nil {
		return err
	}

	res, err = g.Runner.Run(ctx, g.virtualenv()+" --version")
	if err != nil {
		return fmt.Errorf("checking virtualenv version: %w", err)
	}
	return g.check("virtualenv", MinVirtualenvVersion, strings.TrimSpace(res.Stdout))
}

// pipVersionToken extracts the version from pip's free-text --version output,
// e.g. "pip 9.0.3 from /usr/lib/python3/site-packages (python 3.7)".
func pipVersionToken(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func (g *Gate) check(tool, minimum, actual string) error {
	ok, err := meetsMinimum(minimum, actual, g.Strict)
	if err != nil {
		return fmt.Errorf("checking %s version: %w", tool, err)
	}
	if !ok {
		return &VersionTooLowError{Tool: tool, Minimum: minimum, Actual: actual}
	}
	return nil
}

// meetsMinimum reports whether actual satisfies minimum.
//
// The default rule walks paired numeric components of (minimum, actual) and
// passes at the first position where the actual component is >= the minimum
// component; it fails only when no position satisfies before either sequence
// is exhausted. This is not a total order: 9.0.0 passes a 9.0.1 minimum at
// the first component. Existing installs depend on the looser gating, so the
// corrected comparison is opt-in via strict.
func meetsMinimum(minimum, actual string, strict bool) (bool, error) {
	if strict {
		v := "v" + strings.TrimSpace(actual)
		if !semver.IsValid(v) {
			return false, fmt.Errorf("invalid semantic version %q", actual)
		}
		return semver.Compare(v, "v"+minimum) >= 0, nil
	}

	minParts, err := splitVersion(minimum)
	if err != nil {
		return false, err
	}
	actParts, err := splitVersion(actual)
	if err != nil {
		return false, err
	}
	for i := 0; i < len(minParts) && i < len(actParts); i++ {
		if actParts[i] >= minParts[i] {
			return true, nil
		}
	}
	return false, nil
}

func splitVersion(v string) ([]int, error) {
	parts := strings.Split(strings.TrimSpace(v), ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid version component %q in %q", p, v)
		}
		out = append(out, n)
	}
	return out, nil
}
