// SPDX-License-Identifier: MPL-2.0

// Package workspace manages the scratch directory tree that holds all
// intermediate bundle artifacts.
//
// The scratch root persists until the final archive step (or until an
// operator removes it after a failed run, which is deliberate so the partial
// state can be inspected). Only ephemeral directories created through
// WithEphemeralDir are guaranteed to be removed on every path.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	packagesDirName = "packages"
	setupDirName    = "setup"
)

// Workspace holds the paths of one run's scratch tree. The paths are
// read-only handles after creation; no component mutates another's view of
// the tree.
type Workspace struct {
	// Root is the uniquely named scratch directory.
	Root string
	// PackageDir is <Root>/packages, shared by all fetchers.
	PackageDir string
	// SetupDir is <Root>/packages/setup, for the setup-only bootstrap subset.
	SetupDir string
}

// Create makes a uniquely named scratch root under parent with the packages
// and packages/setup directories beneath it. An empty parent uses the system
// temporary directory.
func Create(parent, product string) (*Workspace, error) {
	root, err := os.MkdirTemp(parent, product+"-bundle-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}

	setupDir := filepath.Join(root, packagesDirName, setupDirName)
	if err := os.MkdirAll(setupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create package directories: %w", err)
	}

	return &Workspace{
		Root:       root,
		PackageDir: filepath.Join(root, packagesDirName),
		SetupDir:   setupDir,
	}, nil
}

// WithEphemeralDir creates a temporary directory under parent, invokes fn
// with its path, and removes the directory before returning, on both the
// success and failure paths. An empty parent uses the system temporary
// directory.
func WithEphemeralDir(parent, pattern string, fn func(dir string) error) error {
	dir, err := os.MkdirTemp(parent, pattern)
	if err != nil {
		return fmt.Errorf("failed to create ephemeral directory: %w", err)
	}
	defer func() {
		// Removal failures are not actionable here; the directory lives under
		// a temp parent and will not affect the bundle contents.
		_ = os.RemoveAll(dir)
	}()
	return fn(dir)
}
