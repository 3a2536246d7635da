package shellcore

// Shell is the module's single entry point (spec.md §6): it binds a
// ShellCore and a Config into a ready-to-use Runner. A Parser is not part of
// this binding -- re-parsing shell text (ExecHistory, Source) is ShellCore's
// own responsibility, exercised through ShellCore.Readline/Source.
type Shell struct {
	runner *Runner
}

// New applies cfg's timing knobs and constructs a Shell bound to core.
func New(core ShellCore, cfg Config) *Shell {
	cfg.apply()
	return &Shell{runner: NewRunner(core)}
}

// Run evaluates expr to completion and returns its exit code, discarding any
// captured stdout (which only matters to nested evaluation, not to the
// host); stdout/stderr and errors reach the host exclusively through
// ShellCore.Stream (spec.md §4.3/§7).
func (s *Shell) Run(expr *ShellExpression) uint8 {
	rc, _ := s.runner.RunExpression(expr)
	return rc
}

// Runner exposes the bound Runner directly, for a ShellCore implementation
// (like democore.Core) whose Source/ExecHistory support must recursively
// evaluate shell text outside of a single Shell.Run call.
func (s *Shell) Runner() *Runner {
	return s.runner
}
