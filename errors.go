package shellcore

import (
	"errors"
	"fmt"

	"go.shellcore.dev/engine/internal/task"
)

// ShellErrorKind classifies a ShellError (spec.md §7, "the enclosing
// ShellError family").
type ShellErrorKind int

const (
	ShellErrTask ShellErrorKind = iota
	ShellErrOutOfHistoryRange
	ShellErrParser
	ShellErrIO
)

func (k ShellErrorKind) String() string {
	switch k {
	case ShellErrTask:
		return "task error"
	case ShellErrOutOfHistoryRange:
		return "out of history range"
	case ShellErrParser:
		return "parser error"
	case ShellErrIO:
		return "io error"
	default:
		return "unknown shell error"
	}
}

// ShellError is always surfaced to the host as an EngineMessage of kind
// EngineError, never returned synchronously from Shell.Run (spec.md §7).
type ShellError struct {
	Kind ShellErrorKind
	Task *task.Error // set when Kind == ShellErrTask
	Err  error
}

func (e *ShellError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("shellcore: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("shellcore: %s", e.Kind)
}

func (e *ShellError) Unwrap() error { return e.Err }

// ErrOutOfHistoryRange is the error the ExecHistory statement handler
// reports, wrapped in a ShellError on the stream, when ShellCore.HistoryAt
// has no entry at the requested index.
var ErrOutOfHistoryRange = errors.New("shellcore: history index out of range")
