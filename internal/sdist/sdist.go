// SPDX-License-Identifier: MPL-2.0

// Package sdist builds a fresh source distribution of the target project so
// the bundle ships the current code rather than a previously published
// release.
package sdist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"nimbus-bundler/internal/runner"
)

const distDirName = "dist"

// Builder invokes the project's packaging entry point and stages the result.
type Builder struct {
	Runner runner.Runner
	// Python is the interpreter used to run the packaging entry point. Empty
	// means "python3".
	Python string
	// ProjectRoot is the target project's source tree.
	ProjectRoot string
}

func (b *Builder) python() string {
	if b.Python != "" {
		return b.Python
	}
	return "python3"
}

// BuildAndStage removes any stale build output, builds the source
// distribution, and moves the produced archive into packageDir, returning
// the staged path.
//
// The packaging entry point is assumed to leave exactly one file in dist/.
// If it leaves several, the first directory entry wins; that upstream
// behavior is ambiguous and deliberately not disambiguated here.
func (b *Builder) BuildAndStage(ctx context.Context, packageDir string) (string, error) {
	distDir := filepath.Join(b.ProjectRoot, distDirName)
	if err := os.RemoveAll(distDir); err != nil {
		return "", fmt.Errorf("failed to remove stale dist directory: %w", err)
	}

	cmd := fmt.Sprintf("cd %s && %s setup.py sdist", b.ProjectRoot, b.python())
	if _, err := b.Runner.Run(ctx, cmd); err != nil {
		return "", fmt.Errorf("failed to build source distribution: %w", err)
	}

	entries, err := os.ReadDir(distDir)
	if err != nil {
		return "", fmt.Errorf("failed to read dist directory: %w", err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("packaging entry point produced no output in %s", distDir)
	}

	name := entries[0].Name()
	staged := filepath.Join(packageDir, name)
	if err := moveFile(filepath.Join(distDir, name), staged); err != nil {
		return "", fmt.Errorf("failed to stage source distribution: %w", err)
	}
	return staged, nil
}

// moveFile renames src to dst, falling back to copy-and-remove when the two
// paths are on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return err
	}
	return os.Remove(src)
}
