// SPDX-License-Identifier: MPL-2.0

// Package pipeline sequences a bundle build from precondition checks to the
// final archive.
//
// Execution is strictly sequential and fail-fast: every external command
// runs to completion before the next step, no error is retried or recovered
// locally, and no partial bundle is ever produced. The only guaranteed
// cleanup on failure is the ephemeral environment inside the transitive
// fetch; the scratch workspace is left on disk so a failed run can be
// inspected.
package pipeline

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"nimbus-bundler/internal/bundle"
	"nimbus-bundler/internal/config"
	"nimbus-bundler/internal/fetch"
	"nimbus-bundler/internal/runner"
	"nimbus-bundler/internal/sdist"
	"nimbus-bundler/internal/toolcheck"
	"nimbus-bundler/internal/workspace"
)

// Pipeline runs the whole bundling sequence.
type Pipeline struct {
	cfg    config.Config
	runner runner.Runner
	logger *log.Logger
}

// New wires a pipeline from its configuration and command runner.
func New(cfg config.Config, r runner.Runner, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{cfg: cfg, runner: r, logger: logger}
}

// Run executes the full sequence and returns the absolute path of the
// produced archive.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	gate := &toolcheck.Gate{
		Runner:     p.runner,
		Pip:        p.cfg.Pip,
		Virtualenv: p.cfg.Virtualenv,
		Strict:     p.cfg.StrictVersions,
	}
	if err := gate.Verify(ctx); err != nil {
		return "", err
	}

	ws, err := workspace.Create(p.cfg.OutputDir, p.cfg.Product)
	if err != nil {
		return "", err
	}
	p.logger.Info("Created workspace", "root", ws.Root)

	pinned := &fetch.PinnedFetcher{
		Runner:   p.runner,
		Registry: p.cfg.PinnedVersions,
		Pip:      p.cfg.Pip,
	}
	p.logger.Info("Downloading bootstrap packages")
	if err := pinned.Fetch(ctx, ws.PackageDir, p.cfg.BootstrapPackages); err != nil {
		return "", err
	}
	p.logger.Info("Downloading setup packages")
	if err := pinned.Fetch(ctx, ws.SetupDir, p.cfg.SetupPackages); err != nil {
		return "", err
	}

	deps := &fetch.DependencyFetcher{
		Runner:      p.runner,
		Python:      p.cfg.Python,
		Virtualenv:  p.cfg.Virtualenv,
		ProjectRoot: p.cfg.ProjectRoot,
		ProjectName: p.cfg.ProjectName,
		EnvParent:   p.cfg.OutputDir,
	}
	p.logger.Info("Resolving project dependencies")
	if err := deps.Fetch(ctx, ws.PackageDir); err != nil {
		return "", err
	}

	builder := &sdist.Builder{
		Runner:      p.runner,
		Python:      p.cfg.Python,
		ProjectRoot: p.cfg.ProjectRoot,
	}
	p.logger.Info("Building source distribution")
	if _, err := builder.BuildAndStage(ctx, ws.PackageDir); err != nil {
		return "", err
	}

	installer := p.cfg.InstallerScript
	if installer == "" {
		installer, err = bundle.DefaultInstallerScript()
		if err != nil {
			return "", fmt.Errorf("failed to resolve installer script: %w", err)
		}
	}
	asm := &bundle.Assembler{Product: p.cfg.Product, InstallerScript: installer}
	p.logger.Info("Writing bundle archive")
	return asm.Finalize(ws.Root)
}
