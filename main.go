// SPDX-License-Identifier: MPL-2.0

// nimbus-bundler assembles a self-contained, offline-installable
// distribution bundle for the nimbus CLI.
package main

import cmd "nimbus-bundler/cmd/bundler"

func main() {
	cmd.Execute()
}
