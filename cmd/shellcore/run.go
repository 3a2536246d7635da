package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"go.shellcore.dev/engine"
	"go.shellcore.dev/engine/internal/democore"
	"go.shellcore.dev/engine/internal/miniparser"
)

// NewRunCommand builds `shellcore run <file>`: source and execute an
// rc-style script against a fresh democore.Core (SPEC_FULL.md §10.3). cfg is
// a pointer-to-pointer because the root command's PersistentPreRunE only
// populates the config after cobra has already wired this command's RunE
// closure.
func NewRunCommand(cfg **hclConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Source and run a shell script file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(*cfg, args[0])
		},
	}
}

func runScript(cfg *hclConfig, path string) error {
	startDir, err := os.Getwd()
	if err != nil {
		return err
	}
	historyPath := cfg.historyPath(defaultHistoryPath())
	core, err := democore.New(startDir, historyPath, cfg.historySize())
	if err != nil {
		return fmt.Errorf("constructing core: %w", err)
	}
	defer core.Close()

	parser := miniparser.New()
	shell := shellcore.New(core, cfg.engineConfig())
	core.Bind(shell.Runner(), parser)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go pumpStream(core.Stream(), stop, &wg)
	defer func() {
		close(stop)
		wg.Wait()
	}()

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(startDir, path)
	}
	return core.Source(abs)
}

// pumpStream drains core's ShellStream to the CLI's own stdout/stderr until
// stop is closed, polling every 20ms -- the demo's
// equivalent of an embedding host's event loop (spec.md §4.3).
func pumpStream(stream *shellcore.ShellStream, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		msgs, ok := stream.FetchFromEngine()
		for _, msg := range msgs {
			printEngineMessage(msg)
		}
		if !ok {
			return
		}
		select {
		case <-stop:
			msgs, _ := stream.FetchFromEngine()
			for _, msg := range msgs {
				printEngineMessage(msg)
			}
			return
		case <-ticker.C:
		}
	}
}

func printEngineMessage(msg shellcore.EngineMessage) {
	switch msg.Kind {
	case shellcore.EngineOutput:
		if msg.Stdout != nil {
			fmt.Fprint(os.Stdout, *msg.Stdout)
		}
		if msg.Stderr != nil {
			fmt.Fprint(os.Stderr, *msg.Stderr)
		}
	case shellcore.EngineError:
		if msg.Err != nil {
			fmt.Fprintf(os.Stderr, "shellcore: %v\n", msg.Err)
		}
	case shellcore.EngineDirs:
		for _, d := range msg.Dirs {
			fmt.Fprintln(os.Stdout, d)
		}
	case shellcore.EngineAlias:
		// Handled by the host reading ShellCore.AliasGet directly in this
		// demo; nothing to print here.
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "shellcore-history.db"
	}
	return filepath.Join(home, ".config", "shellcore", "history.db")
}
