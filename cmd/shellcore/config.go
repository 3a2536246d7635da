package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"go.shellcore.dev/engine"
)

// hclConfig is the on-disk shape of the demo CLI's config file (spec.md
// SPEC_FULL.md §10.2), parsed with hclsimple the way
// davidolrik-overseer/internal/core/hcl_config.go parses its own HCL config.
type hclConfig struct {
	PollIntervalMs      int    `hcl:"poll_interval_ms,optional"`
	ReadPollTimeoutMs   int    `hcl:"read_poll_timeout_ms,optional"`
	SignalWaitTimeoutMs int    `hcl:"signal_wait_timeout_ms,optional"`
	HistorySize         int    `hcl:"history_size,optional"`
	HistoryPath         string `hcl:"history_path,optional"`
}

// loadHCLConfig reads path if it exists; a missing file is not an error --
// the demo simply runs with shellcore.DefaultConfig() -- but a malformed
// file is.
func loadHCLConfig(path string) (*hclConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &hclConfig{}, nil
		}
		return nil, fmt.Errorf("stat config: %w", err)
	}
	var cfg hclConfig
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse HCL config: %w", err)
	}
	return &cfg, nil
}

// engineConfig maps the HCL knobs onto shellcore.Config, following the same
// separation overseer keeps between its HCL-shaped Configuration and the
// plain structs it hands to internal/daemon (SPEC_FULL.md §10.2).
func (c *hclConfig) engineConfig() shellcore.Config {
	cfg := shellcore.DefaultConfig()
	if c.PollIntervalMs > 0 {
		cfg.PollInterval = time.Duration(c.PollIntervalMs) * time.Millisecond
	}
	if c.ReadPollTimeoutMs > 0 {
		cfg.ReadPollTimeout = time.Duration(c.ReadPollTimeoutMs) * time.Millisecond
	}
	if c.SignalWaitTimeoutMs > 0 {
		cfg.SignalWaitTimeout = time.Duration(c.SignalWaitTimeoutMs) * time.Millisecond
	}
	return cfg
}

func (c *hclConfig) historySize() int {
	if c.HistorySize > 0 {
		return c.HistorySize
	}
	return 256
}

func (c *hclConfig) historyPath(fallback string) string {
	if c.HistoryPath != "" {
		return c.HistoryPath
	}
	return fallback
}
