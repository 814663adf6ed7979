package core

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds run policy for a simulation. How many cycles are "enough"
// is a caller decision, never a core invariant; the default budget of 30
// simply covers short teaching programs plus drain.
type Config struct {
	// Cycles is the cycle budget for a run.
	Cycles uint64 `json:"cycles"`

	// RegisterWindow is how many registers, starting at $0, the text
	// trace prints per cycle.
	RegisterWindow int `json:"register_window"`

	// TracePath is where the per-cycle text trace is written.
	TracePath string `json:"trace_path"`

	// ChartPath is where the HTML activity chart is written. Empty
	// disables the chart.
	ChartPath string `json:"chart_path"`

	// ClearStateOnLoad makes loading a program also clear registers and
	// data memory.
	ClearStateOnLoad bool `json:"clear_state_on_load"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Cycles:         30,
		RegisterWindow: 8,
		TracePath:      "pipeline_log.txt",
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
