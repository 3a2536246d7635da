// Command shellcore is a demo harness for go.shellcore.dev/engine: a small
// cobra-based CLI that wires the engine to a line-oriented REPL, an HCL
// config file, and slog+tint logging (SPEC_FULL.md §10.3), mirroring the way
// davidolrik-overseer ships cmd/ alongside its own internal/daemon.
package main

import (
	"fmt"
	"os"
)

func main() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
