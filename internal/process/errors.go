package process

import "errors"

// Sentinel errors for the ProcessError family (spec.md §7). CouldNotStartProcess
// does not distinguish further between spawn failure reasons, matching the spec.
var (
	ErrNoArgs               = errors.New("process: no arguments given")
	ErrCouldNotStartProcess = errors.New("process: could not start process")
	ErrBrokenPipe           = errors.New("process: broken pipe")
	ErrInvalidData          = errors.New("process: invalid data")
	ErrNoPid                = errors.New("process: process has no pid")
)
