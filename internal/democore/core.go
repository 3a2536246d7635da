package democore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.shellcore.dev/engine"
)

// Core is a complete, in-memory-plus-SQLite ShellCore (spec.md §3/§6): the
// demo CLI's default environment, and a convenient fixture for tests that
// need a real implementation rather than a hand-rolled stub.
type Core struct {
	mu sync.Mutex

	aliases   map[string]string
	functions map[string]*shellcore.ShellExpression
	storage   map[string]string
	environ   map[string]string

	dirs []string // dirs[0] is the current directory; rest is the pushd stack

	history *History
	stream  *shellcore.ShellStream

	// runner and parser are wired in after construction (New takes neither,
	// to avoid a construction cycle between shellcore.Shell and
	// democore.Core): Source and Readline both need to recursively parse and
	// evaluate shell text.
	runner *shellcore.Runner
	parser shellcore.Parser
}

// New constructs a Core rooted at startDir, with history persisted at
// historyPath. bufSize sizes the ShellStream in both directions.
func New(startDir, historyPath string, bufSize int) (*Core, error) {
	hist, err := OpenHistory(historyPath)
	if err != nil {
		return nil, err
	}
	return &Core{
		aliases:   make(map[string]string),
		functions: make(map[string]*shellcore.ShellExpression),
		storage:   make(map[string]string),
		environ:   make(map[string]string),
		dirs:      []string{startDir},
		history:   hist,
		stream:    shellcore.NewShellStream(bufSize),
	}, nil
}

// Bind wires the Runner and Parser this Core serves, resolving the
// construction-order cycle between Core and Shell: a caller constructs
// Core, then shellcore.New(core, cfg), then calls Bind so Core's own
// Source/Readline support can recurse back into the engine.
func (c *Core) Bind(runner *shellcore.Runner, parser shellcore.Parser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runner = runner
	c.parser = parser
}

// Close releases the history database.
func (c *Core) Close() error {
	return c.history.Close()
}

func (c *Core) AliasGet(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.aliases[name]
	return v, ok
}

func (c *Core) AliasSet(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[name] = value
}

func (c *Core) FunctionGet(name string) (*shellcore.ShellExpression, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.functions[name]
	return v, ok
}

func (c *Core) FunctionSet(name string, expr *shellcore.ShellExpression) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.functions[name] = expr
}

func (c *Core) ValueGet(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.storage[key]
	return v, ok
}

func (c *Core) ValueUnset(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.storage, key)
}

func (c *Core) StorageSet(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storage[key] = value
}

func (c *Core) EnvironSet(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.environ[key] = value
	os.Setenv(key, value)
}

func (c *Core) HistoryAt(index int) (string, bool) {
	return c.history.At(index)
}

// RecordHistory appends a line to the history store; the demo CLI's REPL
// calls this itself before parsing, since ShellCore (not Runner) owns
// history and the Runner never originates new lines on its own.
func (c *Core) RecordHistory(line string) error {
	return c.history.Append(line)
}

func (c *Core) ChangeDirectory(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = home
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("democore: %s is not a directory", path)
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(c.dirs[0], abs)
	}
	c.dirs[0] = abs
	return nil
}

func (c *Core) Pushd(path string) error {
	c.mu.Lock()
	prev := c.dirs[0]
	c.mu.Unlock()
	if err := c.ChangeDirectory(path); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// ChangeDirectory already rewrote dirs[0] to the new directory; put the
	// previous one back right beneath it so PopdFront returns to it.
	c.dirs = append([]string{c.dirs[0], prev}, c.dirs[1:]...)
	return nil
}

func (c *Core) PopdFront() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.dirs) <= 1 {
		return "", fmt.Errorf("democore: directory stack is empty")
	}
	popped := c.dirs[0]
	c.dirs = c.dirs[1:]
	return popped, nil
}

func (c *Core) PopdBack() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.dirs) <= 1 {
		return "", fmt.Errorf("democore: directory stack is empty")
	}
	last := len(c.dirs) - 1
	popped := c.dirs[last]
	c.dirs = c.dirs[:last]
	return popped, nil
}

func (c *Core) Dirs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.dirs))
	copy(out, c.dirs)
	return out
}

// Readline implements spec.md §6's readline(string) -> Result<u8, ShellError>:
// parse cmd through the bound parser and run it to completion through the
// bound runner, returning its exit code. ExecHistory (statements.go)
// delegates entirely to this method rather than re-parsing a recalled
// history line itself, matching original_source/src/runner.rs's
// exec_history: `core.readline(cmd)`.
func (c *Core) Readline(cmd string) (uint8, error) {
	c.mu.Lock()
	runner, parser := c.runner, c.parser
	c.mu.Unlock()
	if runner == nil || parser == nil {
		return 1, fmt.Errorf("democore: Readline called before Bind")
	}
	expr, err := parser.Parse(cmd)
	if err != nil {
		return 1, &shellcore.ShellError{Kind: shellcore.ShellErrParser, Err: err}
	}
	rc, _ := runner.RunExpression(expr)
	return rc, nil
}

// Source reads path line by line, parsing and running each through the
// bound Runner (spec.md §4.4.5).
func (c *Core) Source(path string) error {
	c.mu.Lock()
	runner, parser := c.runner, c.parser
	c.mu.Unlock()
	if runner == nil || parser == nil {
		return fmt.Errorf("democore: Source called before Bind")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		expr, err := parser.Parse(line)
		if err != nil {
			return err
		}
		runner.RunExpression(expr)
	}
	return scanner.Err()
}

func (c *Core) Exit(code uint8) {
	// The demo CLI observes exitFlag via Shell.Run's return value; Core
	// itself has no process to terminate, matching spec.md §4.4.6's note
	// that Exit only sets the unwind signal.
}

func (c *Core) Stream() *shellcore.ShellStream {
	return c.stream
}
