package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go.shellcore.dev/engine"
	"go.shellcore.dev/engine/internal/democore"
	"go.shellcore.dev/engine/internal/miniparser"
)

// NewReplCommand builds `shellcore repl`: an interactive stdin/stdout loop
// driving Shell.Run through a real ShellStream (SPEC_FULL.md §10.3). It is
// the one place the demo exercises the full host protocol: top-level
// command entry, mid-command stdin forwarding (HostInput), Ctrl-C as
// Interrupt, and a live-reloading rc file via fsnotify.
func NewReplCommand(cfg **hclConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Run an interactive read-eval-print loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(*cfg)
		},
	}
}

// repl owns the single piece of state the stdin-reader goroutine and the
// main loop must share: whether a statement is currently running (and, if
// so, whether it's specifically a Read -- the only case this demo puts the
// terminal into raw mode for, per SPEC_FULL.md §11).
type repl struct {
	core   *democore.Core
	shell  *shellcore.Shell
	stream *shellcore.ShellStream

	mu       sync.Mutex
	busy     bool
	readStmt bool

	cmdCh chan string
}

func runRepl(cfg *hclConfig) error {
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

	r := &repl{core: core, shell: shell, stream: core.Stream(), cmdCh: make(chan string, 1)}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(2)
	go func() { defer wg.Done(); pumpStream(r.stream, stop, &wg) }()
	go func() { defer wg.Done(); r.readStdin(stop) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGINT)
	go func() {
		for range sigCh {
			if r.isBusy() {
				r.stream.SendToEngine(shellcore.InterruptMessage())
			}
		}
	}()

	sourceRCWithReload(core, stop)

	fmt.Fprintln(os.Stderr, "shellcore repl -- type 'exit' to quit")
	for line := range r.cmdCh {
		if err := core.RecordHistory(line); err != nil {
			slog.Warn("record history", "error", err)
		}
		expr, err := parser.Parse(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
			continue
		}
		r.setBusy(true, isReadExpr(expr))
		rc := shell.Run(expr)
		r.setBusy(false, false)
		slog.Debug("statement finished", "rc", rc)
		if isExitExpr(expr) {
			break
		}
	}

	close(stop)
	wg.Wait()
	signal.Stop(sigCh)
	return nil
}

func isReadExpr(expr *shellcore.ShellExpression) bool {
	return len(expr.Statements) == 1 && expr.Statements[0].Kind == shellcore.StmtRead
}

func isExitExpr(expr *shellcore.ShellExpression) bool {
	return len(expr.Statements) == 1 && expr.Statements[0].Kind == shellcore.StmtExit
}

func (r *repl) isBusy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

func (r *repl) setBusy(busy, readStmt bool) {
	r.mu.Lock()
	r.busy = busy
	r.readStmt = readStmt
	r.mu.Unlock()
}

func (r *repl) wantsRawRead() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy && r.readStmt
}

// readStdin is the demo's only stdin reader: while idle it hands each line
// to cmdCh as a top-level command; while a statement is running it forwards
// the line as HostInput to the engine instead -- and, specifically for a
// Read statement, drops into raw mode for that one line so the terminal
// doesn't double-echo alongside the engine's own prompt (SPEC_FULL.md §11,
// following golang.org/x/term's use in
// davidolrik-overseer/internal/keyring/prompt.go).
func (r *repl) readStdin(stop <-chan struct{}) {
	defer close(r.cmdCh)
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-stop:
			return
		default:
		}
		var line string
		var err error
		if r.wantsRawRead() {
			line, err = readLineRaw(int(os.Stdin.Fd()))
		} else {
			line, err = reader.ReadString('\n')
			line = trimNewline(line)
		}
		if err != nil {
			return
		}
		if r.isBusy() {
			r.stream.SendToEngine(shellcore.InputMessage(line))
		} else {
			select {
			case r.cmdCh <- line:
			case <-stop:
				return
			}
		}
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// readLineRaw puts fd into raw mode, echoes each typed byte itself, and
// returns one completed line.
func readLineRaw(fd int) (string, error) {
	old, err := term.MakeRaw(fd)
	if err != nil {
		// Not a terminal (e.g. piped stdin in a test harness); fall back to
		// a plain line read.
		reader := bufio.NewReader(os.Stdin)
		s, rerr := reader.ReadString('\n')
		return trimNewline(s), rerr
	}
	defer term.Restore(fd, old)

	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return string(line), err
		}
		if n == 0 {
			continue
		}
		c := buf[0]
		if c == '\n' || c == '\r' {
			fmt.Fprint(os.Stdout, "\r\n")
			return string(line), nil
		}
		if c == 127 || c == 8 { // backspace/delete
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Fprint(os.Stdout, "\b \b")
			}
			continue
		}
		line = append(line, c)
		fmt.Fprintf(os.Stdout, "%c", c)
	}
}

// sourceRCWithReload sources ~/.config/shellcore/rc once, then watches it
// with fsnotify and re-sources it on every save -- the same config-reload
// idiom davidolrik-overseer/internal/daemon/server.go applies to its own
// HCL config, given a concrete caller here for the Source statement
// (spec.md §4.4.5, SPEC_FULL.md §11).
func sourceRCWithReload(core *democore.Core, stop <-chan struct{}) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	rcPath := filepath.Join(home, ".config", "shellcore", "rc")
	if _, err := os.Stat(rcPath); err != nil {
		return
	}
	if err := core.Source(rcPath); err != nil {
		slog.Warn("source rc file", "path", rcPath, "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("create rc file watcher", "error", err)
		return
	}
	if err := watcher.Add(rcPath); err != nil {
		slog.Warn("watch rc file", "path", rcPath, "error", err)
		watcher.Close()
		return
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					slog.Info("rc file changed, re-sourcing", "path", rcPath)
					if err := core.Source(rcPath); err != nil {
						slog.Warn("re-source rc file", "error", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("rc file watcher error", "error", err)
			}
		}
	}()
}
