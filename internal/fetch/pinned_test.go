// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"nimbus-bundler/internal/runner"
	"nimbus-bundler/internal/testutil"
)

func testRegistry() Registry {
	return Registry{
		"pip":            "9.0.3",
		"virtualenv":     "16.7.8",
		"setuptools-scm": "3.3.3",
	}
}

func TestPinnedFetcher_OneInvocationPerPackage(t *testing.T) {
	fake := &testutil.FakeRunner{}
	f := &PinnedFetcher{Runner: fake, Registry: testRegistry()}

	names := []string{"pip", "virtualenv", "setuptools-scm"}
	if err := f.Fetch(context.Background(), "/work/packages", names); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(fake.Commands) != len(names) {
		t.Fatalf("Fetch() issued %d commands, want %d", len(fake.Commands), len(names))
	}
	want := []string{
		"pip install -d /work/packages pip==9.0.3 --no-binary :all: --allow-external",
		"pip install -d /work/packages virtualenv==16.7.8 --no-binary :all: --allow-external",
		"pip install -d /work/packages setuptools-scm==3.3.3 --no-binary :all: --allow-external",
	}
	for i, cmd := range want {
		if fake.Commands[i] != cmd {
			t.Errorf("command %d = %q, want %q", i, fake.Commands[i], cmd)
		}
	}
}

func TestPinnedFetcher_StopsAtFirstFailure(t *testing.T) {
	fake := &testutil.FakeRunner{
		Handle: func(command string) (*runner.Result, error) {
			if strings.Contains(command, "virtualenv==") {
				res := &runner.Result{Stderr: "no matching distribution\n", ExitCode: 1}
				return res, &runner.CommandError{Command: command, ExitCode: 1, Output: res.Stderr}
			}
			return &runner.Result{}, nil
		},
	}
	f := &PinnedFetcher{Runner: fake, Registry: testRegistry()}

	err := f.Fetch(context.Background(), "/work/packages", []string{"pip", "virtualenv", "setuptools-scm"})
	if err == nil {
		t.Fatal("Fetch() error = nil, want download failure")
	}

	var cmdErr *runner.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Fetch() error = %T, want wrapped *runner.CommandError", err)
	}
	// The failing package aborts the sequence; no invocation follows it.
	if len(fake.Commands) != 2 {
		t.Errorf("Fetch() issued %d commands, want 2 (stop after failure)", len(fake.Commands))
	}
}

func TestPinnedFetcher_MissingPinFailsBeforeDownload(t *testing.T) {
	fake := &testutil.FakeRunner{}
	f := &PinnedFetcher{Runner: fake, Registry: testRegistry()}

	err := f.Fetch(context.Background(), "/work/packages", []string{"left-pad"})
	if err == nil {
		t.Fatal("Fetch() error = nil, want missing pin error")
	}
	if !strings.Contains(err.Error(), "left-pad") {
		t.Errorf("Fetch() error = %v, want package name in message", err)
	}
	if len(fake.Commands) != 0 {
		t.Errorf("Fetch() issued %d commands, want 0 (lookup fails fast)", len(fake.Commands))
	}
}

func TestPinnedFetcher_PipOverride(t *testing.T) {
	fake := &testutil.FakeRunner{}
	f := &PinnedFetcher{Runner: fake, Registry: testRegistry(), Pip: "/venv/bin/pip"}

	if err := f.Fetch(context.Background(), "/d", []string{"pip"}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.HasPrefix(fake.Commands[0], "/venv/bin/pip install -d /d ") {
		t.Errorf("command = %q, want pip override", fake.Commands[0])
	}
}

func TestRegistry_Pin(t *testing.T) {
	r := testRegistry()

	version, err := r.Pin("pip")
	if err != nil {
		t.Fatalf("Pin() error = %v", err)
	}
	if version != "9.0.3" {
		t.Errorf("Pin(pip) = %q, want 9.0.3", version)
	}

	if _, err := r.Pin("unknown"); err == nil {
		t.Error("Pin(unknown) error = nil, want missing pin error")
	}
}

func TestRegistry_Names(t *testing.T) {
	names := testRegistry().Names()
	want := []string{"pip", "setuptools-scm", "virtualenv"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("Names() = %v, want %v", names, want)
	}
}

func TestDefaultRegistry_CoversBootstrapPackages(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range []string{"pip", "virtualenv", "setuptools", "wheel", "setuptools-scm"} {
		if _, err := r.Pin(name); err != nil {
			t.Errorf("DefaultRegistry missing pin for %s: %v", name, err)
		}
	}
}
