// Package shellcore is the execution core of an embeddable shell library: it
// runs an already-parsed ShellExpression against a live POSIX process
// environment and streams input, output, signals and interrupts to an
// embedding host over a ShellStream. It is not a standalone shell binary --
// it has no parser and no ambient environment of its own; both are supplied
// by the host through the Parser and ShellCore interfaces.
//
// The three subsystems that do the hard work live under internal/: the
// Process supervisor (internal/process), the Task pipeline and its manager
// (internal/task), and this package's own Runner, which ties them together
// and enforces `&&`/`||`/`|`/`;` semantics while walking a ShellExpression.
package shellcore
