// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"nimbus-bundler/internal/runner"
	"nimbus-bundler/internal/workspace"
)

type (
	// DependencyFetcher resolves and downloads the full transitive dependency
	// set of the target project. It builds a throwaway virtualenv, performs a
	// single editable install that simultaneously downloads every resolved
	// dependency archive, then discards the environment. This is the only
	// reliable way to obtain a flat directory of dependency archives without
	// walking the dependency graph by hand.
	DependencyFetcher struct {
		Runner runner.Runner
		// Python is the interpreter the virtualenv is built from. Empty means "python3".
		Python string
		// Virtualenv is the isolated-environment executable. Empty means "virtualenv".
		Virtualenv string
		// ProjectRoot is the target project's source tree.
		ProjectRoot string
		// ProjectName prefixes the project's own archive filename.
		ProjectName string
		// EnvParent is where the ephemeral environment is created. Empty means
		// the system temporary directory.
		EnvParent string
	}

	// ToolNotFoundError reports an executable missing from a freshly created
	// environment, which signals the environment creation itself is broken.
	ToolNotFoundError struct {
		Tool string
		Path string
	}

	// AmbiguousArtifactError reports a lookup that expected exactly one
	// archive but matched zero or several files.
	AmbiguousArtifactError struct {
		Prefix  string
		Matches []string
	}
)

// Error returns the error message for ToolNotFoundError.
func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s not found at %s in freshly created environment", e.Tool, e.Path)
}

// Error returns the error message for AmbiguousArtifactError.
func (e *AmbiguousArtifactError) Error() string {
	return fmt.Sprintf("expected exactly one archive with prefix %q, found %d: %v",
		e.Prefix, len(e.Matches), e.Matches)
}

func (f *DependencyFetcher) python() string {
	if f.Python != "" {
		return f.Python
	}
	return "python3"
}

func (f *DependencyFetcher) virtualenv() string {
	if f.Virtualenv != "" {
		return f.Virtualenv
	}
	return "virtualenv"
}

// Fetch downloads every transitive dependency of the target project into
// packageDir as source archives, then removes the project's own archive from
// the result (a freshly built source distribution replaces it later in the
// run). The ephemeral environment is removed on both the success and failure
// paths.
func (f *DependencyFetcher) Fetch(ctx context.Context, packageDir string) error {
	return workspace.WithEphemeralDir(f.EnvParent, f.ProjectName+"-env-", func(env string) error {
		create := fmt.Sprintf("%s --no-download --python %s %s", f.virtualenv(), f.python(), env)
		if _, err := f.Runner.Run(ctx, create); err != nil {
			return fmt.Errorf("failed to create isolated environment: %w", err)
		}

		pip := envPip(env)
		if _, err := os.Stat(pip); err != nil {
			return &ToolNotFoundError{Tool: "pip", Path: pip}
		}

		download := fmt.Sprintf("%s install -e %s -d %s %s", pip, f.ProjectRoot, packageDir, downloadFlags)
		if _, err := f.Runner.Run(ctx, download); err != nil {
			return fmt.Errorf("failed to download project dependencies: %w", err)
		}

		return f.removeProjectArchive(packageDir)
	})
}

// removeProjectArchive deletes the project's own archive from packageDir.
// Exactly one project-prefixed file must be present; anything else indicates
// a filename collision or a missing artifact, and nothing is deleted.
func (f *DependencyFetcher) removeProjectArchive(packageDir string) error {
	entries, err := os.ReadDir(packageDir)
	if err != nil {
		return fmt.Errorf("failed to list package directory: %w", err)
	}

	var matches []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), f.ProjectName) {
			matches = append(matches, e.Name())
		}
	}
	if len(matches) != 1 {
		return &AmbiguousArtifactError{Prefix: f.ProjectName, Matches: matches}
	}

	if err := os.Remove(filepath.Join(packageDir, matches[0])); err != nil {
		return fmt.Errorf("failed to remove project archive: %w", err)
	}
	return nil
}

// envPip locates the pip executable inside a virtualenv.
func envPip(env string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(env, "Scripts", "pip.exe")
	}
	return filepath.Join(env, "bin", "pip")
}
