// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"nimbus-bundler/internal/runner"
	"nimbus-bundler/internal/testutil"
)

// envCreatingHandle simulates virtualenv: the env directory is the last
// field of the creation command, and pip appears inside it.
func envCreatingHandle(t *testing.T) func(string) (*runner.Result, error) {
	t.Helper()
	return func(command string) (*runner.Result, error) {
		if strings.Contains(command, "--no-download") {
			fields := strings.Fields(command)
			env := fields[len(fields)-1]
			testutil.MustWriteFile(t, filepath.Join(env, "bin", "pip"), "#!/bin/sh\n")
		}
		return &runner.Result{}, nil
	}
}

func newFetcher(fake *testutil.FakeRunner, envParent string) *DependencyFetcher {
	return &DependencyFetcher{
		Runner:      fake,
		ProjectRoot: "/src/nimbus",
		ProjectName: "nimbus",
		EnvParent:   envParent,
	}
}

func TestDependencyFetcher_RemovesProjectArchive(t *testing.T) {
	envParent := t.TempDir()
	packageDir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(packageDir, "nimbus-1.0.0.tar.gz"), "stale")
	testutil.MustWriteFile(t, filepath.Join(packageDir, "requests-2.21.0.tar.gz"), "dep")

	fake := &testutil.FakeRunner{Handle: envCreatingHandle(t)}
	f := newFetcher(fake, envParent)

	if err := f.Fetch(context.Background(), packageDir); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	names := testutil.MustReadDirNames(t, packageDir)
	for _, name := range names {
		if strings.HasPrefix(name, "nimbus") {
			t.Errorf("project archive %q still present after Fetch()", name)
		}
	}
	if len(names) != 1 || names[0] != "requests-2.21.0.tar.gz" {
		t.Errorf("package dir = %v, want only the dependency archive", names)
	}

	if len(fake.Commands) != 2 {
		t.Fatalf("Fetch() issued %d commands, want 2", len(fake.Commands))
	}
	if !strings.HasPrefix(fake.Commands[0], "virtualenv --no-download --python python3 ") {
		t.Errorf("env creation command = %q", fake.Commands[0])
	}
	if !strings.Contains(fake.Commands[1], "install -e /src/nimbus -d "+packageDir) {
		t.Errorf("download command = %q", fake.Commands[1])
	}
}

func TestDependencyFetcher_EnvRemovedOnSuccess(t *testing.T) {
	envParent := t.TempDir()
	packageDir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(packageDir, "nimbus-1.0.0.tar.gz"), "stale")

	fake := &testutil.FakeRunner{Handle: envCreatingHandle(t)}
	f := newFetcher(fake, envParent)

	if err := f.Fetch(context.Background(), packageDir); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if names := testutil.MustReadDirNames(t, envParent); len(names) != 0 {
		t.Errorf("ephemeral environment left behind: %v", names)
	}
}

func TestDependencyFetcher_EnvRemovedOnFailure(t *testing.T) {
	envParent := t.TempDir()
	packageDir := t.TempDir()

	fake := &testutil.FakeRunner{
		Handle: func(command string) (*runner.Result, error) {
			if strings.Contains(command, "--no-download") {
				fields := strings.Fields(command)
				env := fields[len(fields)-1]
				testutil.MustWriteFile(t, filepath.Join(env, "bin", "pip"), "#!/bin/sh\n")
				return &runner.Result{}, nil
			}
			res := &runner.Result{Stderr: "resolver blew up\n", ExitCode: 2}
			return res, &runner.CommandError{Command: command, ExitCode: 2, Output: res.Stderr}
		},
	}
	f := newFetcher(fake, envParent)

	err := f.Fetch(context.Background(), packageDir)
	if err == nil {
		t.Fatal("Fetch() error = nil, want download failure")
	}
	if names := testutil.MustReadDirNames(t, envParent); len(names) != 0 {
		t.Errorf("ephemeral environment left behind after failure: %v", names)
	}
}

func TestDependencyFetcher_MissingPipInEnv(t *testing.T) {
	envParent := t.TempDir()
	packageDir := t.TempDir()

	// Environment creation "succeeds" but never materializes pip.
	fake := &testutil.FakeRunner{}
	f := newFetcher(fake, envParent)

	err := f.Fetch(context.Background(), packageDir)
	if err == nil {
		t.Fatal("Fetch() error = nil, want *ToolNotFoundError")
	}
	var notFound *ToolNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Fetch() error = %T, want *ToolNotFoundError", err)
	}
	if notFound.Tool != "pip" {
		t.Errorf("ToolNotFoundError.Tool = %q, want pip", notFound.Tool)
	}
	// Only the creation command ran; the download never started.
	if len(fake.Commands) != 1 {
		t.Errorf("Fetch() issued %d commands, want 1", len(fake.Commands))
	}
	if names := testutil.MustReadDirNames(t, envParent); len(names) != 0 {
		t.Errorf("ephemeral environment left behind: %v", names)
	}
}

func TestDependencyFetcher_ZeroProjectArchives(t *testing.T) {
	envParent := t.TempDir()
	packageDir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(packageDir, "requests-2.21.0.tar.gz"), "dep")

	fake := &testutil.FakeRunner{Handle: envCreatingHandle(t)}
	f := newFetcher(fake, envParent)

	err := f.Fetch(context.Background(), packageDir)
	var ambiguous *AmbiguousArtifactError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("Fetch() error = %v, want *AmbiguousArtifactError", err)
	}
	if len(ambiguous.Matches) != 0 {
		t.Errorf("AmbiguousArtifactError.Matches = %v, want empty", ambiguous.Matches)
	}
	// Nothing was deleted.
	if names := testutil.MustReadDirNames(t, packageDir); len(names) != 1 {
		t.Errorf("package dir = %v, want untouched contents", names)
	}
}

func TestDependencyFetcher_MultipleProjectArchives(t *testing.T) {
	envParent := t.TempDir()
	packageDir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(packageDir, "nimbus-1.0.0.tar.gz"), "a")
	testutil.MustWriteFile(t, filepath.Join(packageDir, "nimbus-2.0.0.tar.gz"), "b")

	fake := &testutil.FakeRunner{Handle: envCreatingHandle(t)}
	f := newFetcher(fake, envParent)

	err := f.Fetch(context.Background(), packageDir)
	var ambiguous *AmbiguousArtifactError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("Fetch() error = %v, want *AmbiguousArtifactError", err)
	}
	if len(ambiguous.Matches) != 2 {
		t.Errorf("AmbiguousArtifactError.Matches = %v, want both archives", ambiguous.Matches)
	}
	// Both files survive; the ambiguity aborts before any deletion.
	if names := testutil.MustReadDirNames(t, packageDir); len(names) != 2 {
		t.Errorf("package dir = %v, want both archives untouched", names)
	}
}
