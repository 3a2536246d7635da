package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time the way overseer's core.Version would be,
// but since this is a demo binary with no release pipeline of its own, it
// just carries a fixed string.
const version = "0.1.0-dev"

// NewVersionCommand mirrors overseer/cmd/version.go's shape, minus the
// daemon-version round trip -- this engine has no long-running daemon to
// query.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shellcore %s (go.shellcore.dev/engine)\n", version)
		},
	}
}
