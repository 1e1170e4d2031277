// SPDX-License-Identifier: MPL-2.0

// Package runner executes external packaging tools for the bundler.
//
// Two implementations are available:
//   - ShellRunner: runs command lines through the host shell, so pipes and
//     redirection in the command text work as they would interactively
//   - VirtualRunner: runs command lines with an embedded POSIX shell
//     interpreter (mvdan/sh) for hosts without a usable system shell
//
// Both capture stdout and stderr fully and convert a non-zero exit code into
// a *CommandError carrying the command text, the exit code, and the combined
// output (stderr first) for diagnostics.
package runner
