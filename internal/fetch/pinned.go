// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"fmt"

	"nimbus-bundler/internal/runner"
)

// downloadFlags disables wheel acquisition and permits externally hosted
// packages, so every archive is a source distribution that installs on an
// air-gapped host.
const downloadFlags = "--no-binary :all: --allow-external"

// PinnedFetcher downloads version-pinned bootstrap packages as source
// archives, one pip invocation per package.
type PinnedFetcher struct {
	Runner   runner.Runner
	Registry Registry
	// Pip is the dependency-fetch executable. Empty means "pip".
	Pip string
}

func (f *PinnedFetcher) pip() string {
	if f.Pip != "" {
		return f.Pip
	}
	return "pip"
}

// Fetch downloads one pinned archive per name into targetDir, in order,
// stopping at the first failure. Archives downloaded before the failure are
// left in place; each package is independent, so there is nothing to roll
// back.
func (f *PinnedFetcher) Fetch(ctx context.Context, targetDir string, names []string) error {
	for _, name := range names {
		version, err := f.Registry.Pin(name)
		if err != nil {
			return err
		}
		cmd := fmt.Sprintf("%s install -d %s %s==%s %s", f.pip(), targetDir, name, version, downloadFlags)
		if _, err := f.Runner.Run(ctx, cmd); err != nil {
			return fmt.Errorf("failed to download %s==%s: %w", name, version, err)
		}
	}
	return nil
}
