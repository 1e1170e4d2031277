// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared helpers for tests that drive the bundling
// pipeline without invoking the real packaging toolchain.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"nimbus-bundler/internal/runner"
)

// FakeRunner records every command it receives and delegates results to a
// per-test Handle function. A nil Handle means every command succeeds with
// empty output; side effects a real tool would have (files appearing on
// disk) are simulated inside Handle.
type FakeRunner struct {
	Commands []string
	Handle   func(command string) (*runner.Result, error)
}

// Run implements runner.Runner.
func (f *FakeRunner) Run(_ context.Context, command string) (*runner.Result, error) {
	f.Commands = append(f.Commands, command)
	if f.Handle != nil {
		return f.Handle(command)
	}
	return &runner.Result{}, nil
}

// MustWriteFile writes content to path, creating parent directories as
// needed. The test fails immediately on error.
func MustWriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MustReadDirNames returns the sorted entry names of dir.
// The test fails immediately on error.
func MustReadDirNames(t testing.TB, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read directory %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
