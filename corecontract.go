package shellcore

// ShellCore is the ambient environment the Runner is threaded through by
// reference: aliases, functions, storage, environment, history, and a
// directory stack (spec.md §3/§6). It is an external collaborator -- out of
// scope for this module -- consumed only through this interface. No
// process-global singleton stands in for it; every Runner is handed its own.
type ShellCore interface {
	AliasGet(name string) (string, bool)
	AliasSet(name, value string)

	FunctionGet(name string) (*ShellExpression, bool)
	FunctionSet(name string, expr *ShellExpression)

	ValueGet(key string) (string, bool)
	ValueUnset(key string)
	StorageSet(key, value string)

	EnvironSet(key, value string)

	HistoryAt(index int) (string, bool)

	ChangeDirectory(path string) error
	Pushd(path string) error
	PopdFront() (string, error)
	PopdBack() (string, error)
	Dirs() []string

	// Readline parses cmd and runs it to completion, returning its exit
	// code (spec.md §6, "readline(string) -> Result<u8, ShellError>"). It is
	// the mechanism ExecHistory delegates a recalled history line through
	// (original_source/src/runner.rs's exec_history: `core.readline(cmd)`),
	// and a host may call it directly to run a command string without going
	// through a Read statement or the ShellStream protocol at all.
	Readline(cmd string) (uint8, error)

	Source(path string) error
	Exit(code uint8)

	// Stream returns the ShellStream this ShellCore is borrowing out to the
	// Runner; never nil for a correctly constructed ShellCore.
	Stream() *ShellStream
}

// Parser turns a line of shell text into a ShellExpression (spec.md §6).
// The surface parser itself is out of scope for this module. The Runner
// never calls it: re-parsing shell text (a recalled history line, a sourced
// file) happens inside a ShellCore implementation's Readline/Source, as
// democore.Core does.
type Parser interface {
	Parse(line string) (*ShellExpression, error)
}
