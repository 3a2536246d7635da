package shellcore

import (
	"time"

	"go.shellcore.dev/engine/internal/process"
	"go.shellcore.dev/engine/internal/task"
)

// Config carries the engine's timing knobs (spec.md §10.2): the same three
// values that internal/process and internal/task otherwise expose as
// overridable package vars with their own defaults. Passing a Config to New
// applies all three together, so callers never need to reach into internal
// packages themselves.
type Config struct {
	// PollInterval governs both the Runner's own Exec supervision loop and
	// the TaskManager worker's cadence.
	PollInterval time.Duration
	// ReadPollTimeout bounds how long a Process's Read waits before
	// reporting "nothing new".
	ReadPollTimeout time.Duration
	// SignalWaitTimeout bounds how long Raise waits for a process to react
	// to a delivered signal before giving up.
	SignalWaitTimeout time.Duration
}

// DefaultConfig matches the defaults each internal package already ships
// with (spec.md §4.1/§4.2): 50ms poll cadences, 100ms signal wait.
func DefaultConfig() Config {
	return Config{
		PollInterval:      50 * time.Millisecond,
		ReadPollTimeout:   50 * time.Millisecond,
		SignalWaitTimeout: 100 * time.Millisecond,
	}
}

// apply pushes cfg's values down onto the package vars that actually govern
// timing, filling in DefaultConfig's values for anything left zero.
func (cfg Config) apply() {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ReadPollTimeout <= 0 {
		cfg.ReadPollTimeout = def.ReadPollTimeout
	}
	if cfg.SignalWaitTimeout <= 0 {
		cfg.SignalWaitTimeout = def.SignalWaitTimeout
	}

	PollInterval = cfg.PollInterval
	task.PollInterval = cfg.PollInterval
	process.ReadPollTimeout = cfg.ReadPollTimeout
	process.SignalWaitTimeout = cfg.SignalWaitTimeout
}
