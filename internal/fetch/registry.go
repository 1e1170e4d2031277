// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry maps bootstrap package names to their pinned versions. Treat it
// as immutable after construction; fetchers only read from it.
type Registry map[string]string

// DefaultRegistry returns the compiled-in pins for the bootstrap toolchain.
func DefaultRegistry() Registry {
	return Registry{
		"pip":            "9.0.3",
		"virtualenv":     "16.7.8",
		"setuptools":     "40.3.0",
		"wheel":          "0.33.6",
		"setuptools-scm": "3.3.3",
	}
}

// Pin returns the pinned version for name, failing fast when the name has no
// registered pin.
func (r Registry) Pin(name string) (string, error) {
	version, ok := r[name]
	if !ok {
		return "", fmt.Errorf("no pinned version registered for package %q", name)
	}
	return version, nil
}

// Names returns the registered package names in sorted order.
func (r Registry) Names() []string {
	names := maps.Keys(r)
	slices.Sort(names)
	return names
}
