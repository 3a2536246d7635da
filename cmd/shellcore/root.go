package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the demo CLI's command tree, following
// davidolrik-overseer/cmd/root.go's shape: a PersistentPreRunE that loads
// config and installs the process-wide slog handler before any subcommand
// runs, persistent --config-path/--verbose flags, subcommands added at the
// end (SPEC_FULL.md §10.3).
func NewRootCommand() *cobra.Command {
	var configPath string
	var verbose int

	homeDir, _ := os.UserHomeDir()
	defaultConfigPath := filepath.Join(homeDir, ".config", "shellcore", "config.hcl")

	var cfg *hclConfig

	rootCmd := &cobra.Command{
		Use:   "shellcore",
		Short: "shellcore - embeddable shell engine demo harness",
		Long: "shellcore is a demo CLI for go.shellcore.dev/engine: it drives the " +
			"Runner against a real democore.Core so the library has a runnable, " +
			"observable harness.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			switch {
			case verbose >= 2:
				level = slog.LevelDebug
			case verbose == 1:
				level = slog.LevelInfo
			}
			slog.SetDefault(slog.New(
				tint.NewHandler(os.Stderr, &tint.Options{
					Level:      level,
					TimeFormat: time.DateTime,
				}),
			))

			loaded, err := loadHCLConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = loaded
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", defaultConfigPath, "HCL config file path")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "more output, repeat for even more")

	rootCmd.AddCommand(
		NewRunCommand(&cfg),
		NewReplCommand(&cfg),
		NewVersionCommand(),
	)
	return rootCmd
}
