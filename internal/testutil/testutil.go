// Package testutil holds small helpers shared by this module's _test.go
// files (SPEC_FULL.md §10.4). It is not imported by any non-test code.
package testutil

import (
	"io"
	"log/slog"
	"testing"
)

// QuietLogger silences the package-level slog default for the duration of
// t, restoring whatever was installed beforehand on cleanup -- the same
// "silence slog during a test" convention davidolrik-overseer's own test
// files follow rather than letting Debug/Warn spam `go test -v` output.
func QuietLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
}
