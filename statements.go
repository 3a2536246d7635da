package shellcore

import (
	"os"
	"strings"
	"time"

	"go.shellcore.dev/engine/internal/task"
)

// execSet and execExport implement spec.md §4.4.3: evaluate the rhs
// expression for its captured stdout, assign it, and discard the rhs's own
// exit code.
func (r *Runner) execSet(stmt *Statement) (uint8, string) {
	_, out := r.RunExpression(stmt.Expr)
	if r.exitFlag != nil {
		return *r.exitFlag, ""
	}
	r.core.StorageSet(stmt.Key, out)
	return 0, ""
}

func (r *Runner) execExport(stmt *Statement) (uint8, string) {
	_, out := r.RunExpression(stmt.Expr)
	if r.exitFlag != nil {
		return *r.exitFlag, ""
	}
	r.core.EnvironSet(stmt.Key, out)
	return 0, ""
}

// execRead implements spec.md §4.4.4: emit the prompt (if any), then block
// on the ShellStream for the next relevant message. An unrecoverable stream
// disconnect is treated the same as Interrupt (spec.md §7).
func (r *Runner) execRead(stmt *Statement) (uint8, string) {
	stream := r.core.Stream()
	if stmt.Prompt != "" {
		prompt := stmt.Prompt
		stream.SendToHost(EngineMessage{Kind: EngineOutput, Stdout: &prompt})
	}
	for {
		msgs, ok := stream.FetchFromHost()
		for _, msg := range msgs {
			switch msg.Kind {
			case HostInput:
				s := msg.Input
				if stmt.HasMax && len(s) > stmt.MaxSize {
					s = s[:stmt.MaxSize]
				}
				return 0, s
			case HostInterrupt:
				v := uint8(255)
				r.exitFlag = &v
				return *r.exitFlag, ""
			case HostKill, HostSignal:
				return 0, ""
			}
		}
		if !ok {
			v := uint8(255)
			r.exitFlag = &v
			return *r.exitFlag, ""
		}
		time.Sleep(PollInterval)
	}
}

// The remaining handlers are thin pass-throughs to ShellCore (spec.md
// §4.4.5).

func (r *Runner) execSource(stmt *Statement) (uint8, string) {
	if err := r.core.Source(stmt.Path); err != nil {
		r.reportError(&ShellError{Kind: ShellErrIO, Err: err})
		return 1, ""
	}
	return 0, ""
}

func (r *Runner) execCd(stmt *Statement) (uint8, string) {
	path := ""
	if len(stmt.Args) > 0 {
		path = stmt.Args[0]
	}
	if err := r.core.ChangeDirectory(path); err != nil {
		r.reportError(&ShellError{Kind: ShellErrIO, Err: err})
		return 1, ""
	}
	return 0, ""
}

func (r *Runner) execPushd(stmt *Statement) (uint8, string) {
	if err := r.core.Pushd(stmt.Path); err != nil {
		r.reportError(&ShellError{Kind: ShellErrIO, Err: err})
		return 1, ""
	}
	return 0, ""
}

func (r *Runner) execPopdFront(stmt *Statement) (uint8, string) {
	if _, err := r.core.PopdFront(); err != nil {
		r.reportError(&ShellError{Kind: ShellErrIO, Err: err})
		return 1, ""
	}
	return 0, ""
}

func (r *Runner) execPopdBack(stmt *Statement) (uint8, string) {
	if _, err := r.core.PopdBack(); err != nil {
		r.reportError(&ShellError{Kind: ShellErrIO, Err: err})
		return 1, ""
	}
	return 0, ""
}

func (r *Runner) execDirs(stmt *Statement) (uint8, string) {
	r.core.Stream().SendToHost(EngineMessage{Kind: EngineDirs, Dirs: r.core.Dirs()})
	return 0, ""
}

// execAlias implements `alias` with zero, one, or two-or-more arguments:
// list, look up, or define.
func (r *Runner) execAlias(stmt *Statement) (uint8, string) {
	switch len(stmt.Args) {
	case 0:
		r.core.Stream().SendToHost(EngineMessage{Kind: EngineAlias})
		return 0, ""
	case 1:
		if val, ok := r.core.AliasGet(stmt.Args[0]); ok {
			return 0, val
		}
		return 1, ""
	default:
		r.core.AliasSet(stmt.Args[0], strings.Join(stmt.Args[1:], " "))
		return 0, ""
	}
}

// execExecHistory implements spec.md §4.4.5's ExecHistory: fetch the i-th
// history entry and delegate it to ShellCore.Readline, which re-parses and
// runs it (original_source/src/runner.rs's exec_history: `core.readline(cmd)`).
func (r *Runner) execExecHistory(stmt *Statement) (uint8, string) {
	line, ok := r.core.HistoryAt(stmt.HistoryIndex)
	if !ok {
		r.reportError(&ShellError{Kind: ShellErrOutOfHistoryRange, Err: ErrOutOfHistoryRange})
		return 1, ""
	}
	rc, err := r.core.Readline(line)
	if err != nil {
		if se, ok := err.(*ShellError); ok {
			r.reportError(se)
		} else {
			r.reportError(&ShellError{Kind: ShellErrParser, Err: err})
		}
	}
	return rc, ""
}

func (r *Runner) execExit(stmt *Statement) (uint8, string) {
	v := stmt.Code
	r.exitFlag = &v
	r.core.Exit(stmt.Code)
	return stmt.Code, ""
}

// applyRedirection implements spec.md §4.4.8 for a function segment's
// output: to the stream, or to a file.
func (r *Runner) applyRedirection(red task.Redirection, text string) {
	switch red.Kind {
	case task.RedirectStdout:
		s := text
		r.core.Stream().SendToHost(EngineMessage{Kind: EngineOutput, Stdout: &s})
	case task.RedirectStderr:
		s := text
		r.core.Stream().SendToHost(EngineMessage{Kind: EngineOutput, Stderr: &s})
	case task.RedirectFile:
		flag := os.O_WRONLY | os.O_CREATE
		if red.Mode == task.Append {
			flag |= os.O_APPEND
		} else {
			flag |= os.O_TRUNC
		}
		f, err := os.OpenFile(red.Path, flag, 0o644)
		if err != nil {
			r.reportError(&ShellError{Kind: ShellErrIO, Err: err})
			return
		}
		defer f.Close()
		if _, err := f.WriteString(text); err != nil {
			r.reportError(&ShellError{Kind: ShellErrIO, Err: err})
		}
	}
}
