package shellcore

import (
	"strings"

	"go.shellcore.dev/engine/internal/task"
)

// segmentKind tags a chainSegment's variant.
type segmentKind int

const (
	segExternal segmentKind = iota
	segFunction
)

// chainSegment is one node of a TaskChain (spec.md §3): either a run of
// external Tasks destined for a single TaskManager, or an in-process
// function call. prevRelation is the relation connecting the previous
// segment into this one; nextRelation connects this segment to the next.
// Function segments cannot be handed to a TaskManager, which is exactly why
// the Runner keeps this separate planning structure instead of handing the
// whole plan straight to one manager.
type chainSegment struct {
	kind segmentKind

	// segExternal
	plan *task.Task

	// segFunction
	expr        *ShellExpression
	redirection task.Redirection
	callArgv    []string // resolved argv, for binding "0".."N" (spec.md §4.4.7)

	prevRelation task.Relation
	nextRelation task.Relation

	next *chainSegment
}

// buildChain resolves aliases and functions against the live ShellCore,
// merges consecutive external Tasks into one sub-list per TaskManager, and
// copies relations verbatim onto the resulting TaskChain links (spec.md
// §4.4.1 step 1).
func (r *Runner) buildChain(plan *task.Task) *chainSegment {
	var headSeg, tailSeg *chainSegment
	var runHead, runTail *task.Task
	incoming := task.Unrelated

	appendSegment := func(seg *chainSegment) {
		if headSeg == nil {
			headSeg = seg
		} else {
			tailSeg.next = seg
		}
		tailSeg = seg
	}

	flushExternalRun := func() {
		if runHead == nil {
			return
		}
		appendSegment(&chainSegment{
			kind:         segExternal,
			plan:         runHead,
			prevRelation: incoming,
			nextRelation: runTail.Relation,
		})
		incoming = runTail.Relation
		runHead, runTail = nil, nil
	}

	for node := plan; node != nil; node = node.Next {
		resolved := r.resolveAlias(node.Argv)
		if len(resolved) > 0 {
			if funcExpr, ok := r.core.FunctionGet(resolved[0]); ok {
				flushExternalRun()
				appendSegment(&chainSegment{
					kind:         segFunction,
					expr:         funcExpr,
					redirection:  node.Stdout,
					callArgv:     resolved,
					prevRelation: incoming,
					nextRelation: node.Relation,
				})
				incoming = node.Relation
				continue
			}
		}

		expanded := r.expandArgv(resolved)
		t := &task.Task{Argv: expanded, Stdout: node.Stdout, Stderr: node.Stderr, Relation: node.Relation}
		if runHead == nil {
			runHead, runTail = t, t
		} else {
			runTail.Next = t
			runTail = t
		}
	}
	flushExternalRun()
	return headSeg
}

// resolveAlias repeatedly splices argv[0]'s alias expansion at position 0
// (spec.md §4.4.1 step 1, "splice the alias's tokens... and continue"),
// bounded to guard against a self-referential alias cycle.
func (r *Runner) resolveAlias(argv []string) []string {
	const maxDepth = 32
	resolved := argv
	for i := 0; i < maxDepth && len(resolved) > 0; i++ {
		val, ok := r.core.AliasGet(resolved[0])
		if !ok {
			break
		}
		tokens := strings.Fields(val)
		next := make([]string, 0, len(tokens)+len(resolved)-1)
		next = append(next, tokens...)
		next = append(next, resolved[1:]...)
		resolved = next
	}
	return resolved
}

// expandArgv applies spec.md §4.4.1 step 2 to every token of a resolved
// argv: a leading `$` is stripped and the remainder looked up in ShellCore
// storage, empty string if missing. No other expansion syntax is
// recognized (globs and `${...}` are explicit Non-goals; see SPEC_FULL.md
// §9(c)).
func (r *Runner) expandArgv(argv []string) []string {
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = r.expandValue(a)
	}
	return out
}

func (r *Runner) expandValue(s string) string {
	if len(s) == 0 || s[0] != '$' {
		return s
	}
	val, _ := r.core.ValueGet(s[1:])
	return val
}
