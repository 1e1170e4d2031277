// SPDX-License-Identifier: MPL-2.0

// Package fetch acquires package archives for the bundle.
//
// Two fetchers populate the shared package directory:
//   - PinnedFetcher downloads a fixed, version-pinned set of bootstrap
//     packages without invoking the full dependency resolver
//   - DependencyFetcher resolves the target project's complete transitive
//     dependency set through a throwaway virtualenv and downloads every
//     resolved archive
//
// Pinned versions come from an immutable Registry passed in at construction
// so tests can substitute alternate registries.
package fetch
