package shellcore

import (
	"strconv"
	"strings"
	"time"

	"go.shellcore.dev/engine/internal/task"
)

// PollInterval is the Runner's own supervision cadence for an active Exec
// statement (spec.md §4.4.1, "Sleep 50ms"). Overridable via Config.
var PollInterval = 50 * time.Millisecond

// loopSignal is local to a While/Foreach body, distinct from exitFlag (which
// unwinds the whole Runner): it only ever propagates up to the nearest
// enclosing loop.
type loopSignal int

const (
	loopNone loopSignal = iota
	loopBreak
	loopContinue
)

// Runner is a tree walker over a ShellExpression (spec.md §4.4): it keeps
// two pieces of transient state across the walk -- buffer, the in-memory
// "pipe" used when an in-process function's output feeds the next segment,
// and exitFlag, a signal to unwind from any depth immediately. It holds no
// Parser of its own: re-parsing a line of shell text (ExecHistory,
// ShellCore's own Source) is entirely ShellCore's responsibility, exercised
// through ShellCore.Readline/Source, mirroring how original_source's
// ShellRunner never stores a parser either.
type Runner struct {
	core ShellCore

	buffer   *string
	exitFlag *uint8

	pendingLoop loopSignal
}

// NewRunner constructs a Runner bound to core.
func NewRunner(core ShellCore) *Runner {
	return &Runner{core: core}
}

// RunExpression walks expr.Statements in order, dispatching each to its
// handler, consulting exitFlag and pendingLoop after each one (spec.md
// §4.4, "run_expression").
func (r *Runner) RunExpression(expr *ShellExpression) (uint8, string) {
	var rc uint8
	var captured strings.Builder
	for i := range expr.Statements {
		stmtRC, out := r.execStatement(&expr.Statements[i])
		rc = stmtRC
		captured.WriteString(out)
		r.drainInterrupt()
		if r.exitFlag != nil {
			return *r.exitFlag, captured.String()
		}
		if r.pendingLoop != loopNone {
			return rc, captured.String()
		}
	}
	return rc, captured.String()
}

// drainInterrupt consumes pending host messages looking for Interrupt
// (spec.md §4.4, "propagates Interrupt by setting exit_flag = 255") and for
// an unrecoverable stream disconnect, which is fatal by the same rule
// (spec.md §7's fatal-condition list); any other message arriving outside an
// active Exec's own supervision loop has no handler and is discarded.
func (r *Runner) drainInterrupt() {
	stream := r.core.Stream()
	if stream == nil {
		return
	}
	msgs, ok := stream.FetchFromHost()
	for _, msg := range msgs {
		if msg.Kind == HostInterrupt {
			v := uint8(255)
			r.exitFlag = &v
		}
	}
	if !ok && r.exitFlag == nil {
		v := uint8(255)
		r.exitFlag = &v
	}
}

func (r *Runner) reportError(e *ShellError) {
	if stream := r.core.Stream(); stream != nil {
		stream.SendToHost(EngineMessage{Kind: EngineError, Err: e})
	}
}

func (r *Runner) execStatement(stmt *Statement) (uint8, string) {
	switch stmt.Kind {
	case StmtExec:
		return r.execExec(stmt)
	case StmtIf:
		return r.execIf(stmt)
	case StmtWhile:
		return r.execWhile(stmt)
	case StmtForeach:
		return r.execForeach(stmt)
	case StmtSet:
		return r.execSet(stmt)
	case StmtExport:
		return r.execExport(stmt)
	case StmtRead:
		return r.execRead(stmt)
	case StmtSource:
		return r.execSource(stmt)
	case StmtCd:
		return r.execCd(stmt)
	case StmtPushd:
		return r.execPushd(stmt)
	case StmtPopdFront:
		return r.execPopdFront(stmt)
	case StmtPopdBack:
		return r.execPopdBack(stmt)
	case StmtDirs:
		return r.execDirs(stmt)
	case StmtAlias:
		return r.execAlias(stmt)
	case StmtExecHistory:
		return r.execExecHistory(stmt)
	case StmtExit:
		return r.execExit(stmt)
	case StmtValue:
		return 0, stmt.Text
	case StmtReturn:
		v := stmt.Code
		r.exitFlag = &v
		return stmt.Code, ""
	case StmtBreak:
		r.pendingLoop = loopBreak
		return 0, ""
	case StmtContinue:
		r.pendingLoop = loopContinue
		return 0, ""
	case StmtLet, StmtTime:
		// Reserved variants (spec.md §3): parsed but not yet given
		// semantics.
		return 0, ""
	default:
		return 0, ""
	}
}

// execIf implements spec.md §4.4.2's If.
func (r *Runner) execIf(stmt *Statement) (uint8, string) {
	condRC, _ := r.RunExpression(stmt.Cond)
	if r.exitFlag != nil {
		return *r.exitFlag, ""
	}
	if condRC == 0 {
		return r.RunExpression(stmt.Then)
	}
	if stmt.Else != nil {
		return r.RunExpression(stmt.Else)
	}
	return 0, ""
}

// execWhile implements spec.md §4.4.2's While.
func (r *Runner) execWhile(stmt *Statement) (uint8, string) {
	var rc uint8
	var captured strings.Builder
	for {
		condRC, _ := r.RunExpression(stmt.Cond)
		if r.exitFlag != nil {
			return *r.exitFlag, captured.String()
		}
		if condRC != 0 {
			break
		}
		bodyRC, out := r.RunExpression(stmt.Then)
		rc = bodyRC
		captured.WriteString(out)
		if r.exitFlag != nil {
			return *r.exitFlag, captured.String()
		}
		switch r.pendingLoop {
		case loopBreak:
			r.pendingLoop = loopNone
			return rc, captured.String()
		case loopContinue:
			r.pendingLoop = loopNone
		}
	}
	return rc, captured.String()
}

// execForeach implements spec.md §4.4.2's Foreach: split the condition's
// captured stdout on whitespace and run the body once per token, binding
// storage[key]; key is always unbound on the way out.
func (r *Runner) execForeach(stmt *Statement) (uint8, string) {
	condRC, out := r.RunExpression(stmt.Cond)
	if r.exitFlag != nil {
		return *r.exitFlag, ""
	}
	var rc uint8
	var captured strings.Builder
	if condRC == 0 {
		for _, tok := range strings.Fields(out) {
			r.core.StorageSet(stmt.Key, tok)
			bodyRC, bodyOut := r.RunExpression(stmt.Then)
			rc = bodyRC
			captured.WriteString(bodyOut)
			if r.exitFlag != nil {
				r.core.ValueUnset(stmt.Key)
				return *r.exitFlag, captured.String()
			}
			stop := false
			switch r.pendingLoop {
			case loopBreak:
				r.pendingLoop = loopNone
				stop = true
			case loopContinue:
				r.pendingLoop = loopNone
			}
			if stop {
				break
			}
		}
	}
	r.core.ValueUnset(stmt.Key)
	return rc, captured.String()
}

// execExec implements spec.md §4.4.1 in full: build the TaskChain, then
// walk it segment by segment, honoring the relation leading into each one.
func (r *Runner) execExec(stmt *Statement) (uint8, string) {
	chainHead := r.buildChain(stmt.Plan)

	var rc uint8
	var captured strings.Builder
	active := true

	for seg := chainHead; seg != nil; {
		if active {
			switch seg.kind {
			case segExternal:
				segRC, interrupted, disconnected := r.runExternalSegment(seg)
				rc = segRC
				if disconnected {
					v := uint8(255)
					r.exitFlag = &v
					return *r.exitFlag, captured.String()
				}
				if interrupted {
					v := rc
					r.exitFlag = &v
					return rc, captured.String()
				}
			case segFunction:
				segRC, out := r.runFunctionSegment(seg)
				rc = segRC
				if r.exitFlag != nil {
					return *r.exitFlag, captured.String()
				}
				if seg.nextRelation == task.Pipe {
					r.buffer = &out
				} else {
					captured.WriteString(out)
					r.applyRedirection(seg.redirection, out)
				}
			}
		}
		next := seg.next
		if next == nil {
			break
		}
		active = task.RelationSatisfied(seg.nextRelation, rc)
		seg = next
	}
	return rc, captured.String()
}

// runExternalSegment hands one external sub-list to a fresh TaskManager and
// supervises it until it joins, relaying I/O and control both ways (spec.md
// §4.4.1 step 3, "External segment"). disconnected reports an unrecoverable
// stream disconnect (spec.md §7), distinct from interrupted (an explicit
// Interrupt message): both terminate the running child, but only disconnect
// forces the Runner's own exit code to 255 rather than the child's.
func (r *Runner) runExternalSegment(seg *chainSegment) (rc uint8, interrupted, disconnected bool) {
	mgr := task.NewManager(seg.plan)
	if err := mgr.Start(); err != nil {
		r.reportError(&ShellError{Kind: ShellErrTask, Err: err})
		return 255, false, false
	}
	if r.buffer != nil {
		mgr.SendMessage(task.InputTx(*r.buffer))
		r.buffer = nil
	}

	stream := r.core.Stream()
	for {
		for _, msg := range mgr.FetchMessages() {
			switch msg.Kind {
			case task.RxOutput:
				stream.SendToHost(EngineMessage{Kind: EngineOutput, Stdout: msg.Stdout, Stderr: msg.Stderr})
			case task.RxError:
				stream.SendToHost(EngineMessage{Kind: EngineError, Err: &ShellError{Kind: ShellErrTask, Task: msg.Err, Err: msg.Err}})
			}
		}
		hmsgs, ok := stream.FetchFromHost()
		for _, hmsg := range hmsgs {
			switch hmsg.Kind {
			case HostInput:
				mgr.SendMessage(task.InputTx(hmsg.Input))
			case HostKill:
				mgr.SendMessage(task.KillTx())
			case HostSignal:
				mgr.SendMessage(task.SignalTx(hmsg.Signal))
			case HostInterrupt:
				mgr.SendMessage(task.TerminateTx())
				interrupted = true
			}
		}
		if !ok && !disconnected {
			mgr.SendMessage(task.TerminateTx())
			disconnected = true
		}
		if !mgr.IsRunning() || interrupted || disconnected {
			break
		}
		time.Sleep(PollInterval)
	}
	return mgr.Join(), interrupted, disconnected
}

// runFunctionSegment implements spec.md §4.4.7: bind argv[1:] to "1".."N"
// (and argv[0] to "0"), run the function body, then unbind.
func (r *Runner) runFunctionSegment(seg *chainSegment) (uint8, string) {
	for i, v := range seg.callArgv {
		r.core.StorageSet(strconv.Itoa(i), v)
	}
	rc, out := r.RunExpression(seg.expr)
	for i := range seg.callArgv {
		r.core.ValueUnset(strconv.Itoa(i))
	}
	return rc, out
}
