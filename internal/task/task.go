// Package task turns a flat list of external commands into a running
// pipeline: it groups consecutive Pipe-related Tasks into a single OS-level
// pipe group, decides And/Or/Unrelated advancement between groups, and
// streams output and control back to the caller over channels instead of a
// shared, locked buffer (spec.md §4.2).
package task

// FileMode selects how a file redirection opens its target.
type FileMode int

const (
	Truncate FileMode = iota
	Append
)

// RedirectionKind selects where a Task's stdout/stderr ultimately goes.
type RedirectionKind int

const (
	// RedirectStdout/RedirectStderr mean "send this stream to the
	// supervisor unchanged" — the ordinary case.
	RedirectStdout RedirectionKind = iota
	RedirectStderr
	// RedirectFile means "send this stream to Path instead", e.g. `> out`
	// or `2>> err`.
	RedirectFile
)

// Redirection describes the destination of one of a Task's output streams
// (spec.md §4.4.8). The zero value (RedirectStdout) is the identity
// redirection: no change from the default.
type Redirection struct {
	Kind RedirectionKind
	Path string
	Mode FileMode
}

// Relation describes how a Task's exit status governs whether the next node
// in the chain runs (spec.md §3, "TaskRelation"). It is stored on the node
// it connects FROM: Task.Relation is the operator written between this Task
// and whatever follows it.
type Relation int

const (
	// Unrelated is `;`: the next node always runs regardless of this one's
	// exit status.
	Unrelated Relation = iota
	// And is `&&`: the next node runs only if this one exited 0.
	And
	// Or is `||`: the next node runs only if this one exited non-zero.
	Or
	// Pipe is `|`: this node's stdout feeds the next node's stdin at the OS
	// level; both are part of the same pipe group.
	Pipe
)

// Task is one external command in a plan, plus the Relation connecting it to
// whatever Task (if any) follows it. A plan is the singly linked list formed
// by following Next; TaskManager walks it segment by segment.
type Task struct {
	Argv []string

	Stdout Redirection
	Stderr Redirection

	Relation Relation
	Next     *Task

	// ExitCode is filled in by the manager once this particular Task has
	// run to completion; nil beforehand or if it never got the chance to
	// run (e.g. skipped by an unsatisfied And/Or).
	ExitCode *uint8
}

// NewTask constructs a single Task node with the default (unredirected)
// streams and Unrelated relation; callers mutate Stdout/Stderr/Relation/Next
// directly to build up a plan, mirroring how a parser would assemble one.
func NewTask(argv []string) *Task {
	return &Task{Argv: argv}
}

// collectPipeRun gathers the maximal run of Pipe-related Tasks starting at
// node, inclusive of the final member whose own Relation need not be Pipe
// (spec.md §4.2, "a maximal run of consecutive nodes joined by Pipe").
func collectPipeRun(node *Task) []*Task {
	group := []*Task{node}
	for node.Relation == Pipe && node.Next != nil {
		node = node.Next
		group = append(group, node)
	}
	return group
}

// relationSatisfied decides, given the Relation leading into a node and the
// exit code of whatever ran before it, whether that node should execute.
func relationSatisfied(rel Relation, rc uint8) bool {
	return RelationSatisfied(rel, rc)
}

// RelationSatisfied is the exported form, reused by the root package's own
// TaskChain walk (spec.md §4.4.1 step 3), which applies the identical rule
// to segments that mix external Tasks with in-process function calls.
func RelationSatisfied(rel Relation, rc uint8) bool {
	switch rel {
	case And:
		return rc == 0
	case Or:
		return rc != 0
	default: // Unrelated, Pipe
		return true
	}
}
