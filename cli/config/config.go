package config

import (
	"fmt"
)

// Config represents a strand.yaml configuration file.
// All values are optional and act as defaults for CLI flags; flags always
// override config values.
type Config struct {
	// Root is the store root directory (partition under root/main, blobs
	// under root/cas).
	Root string `yaml:"root"`
	// PoolSize is the worker pool capacity shared by all tasks.
	PoolSize int `yaml:"pool_size"`
	// SyncWrites forces synchronous partition commits.
	SyncWrites bool `yaml:"sync_writes"`
	// MetricsAddr is the optional prometheus listen address for serve.
	MetricsAddr string `yaml:"metrics_addr"`
	// Log configures optional rotated file logging.
	Log LogConfig `yaml:"log"`
	// Tasks are built-in tasks spawned by serve.
	Tasks []TaskConfig `yaml:"tasks"`
}

// LogConfig holds file-logging defaults from the config file.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// TaskConfig declares one built-in task spawned at serve startup.
type TaskConfig struct {
	// Name is the unique task name.
	Name string `yaml:"name"`
	// Builtin selects the body ("log" is the only built-in today;
	// script-defined bodies arrive through the interpreter layer, not the
	// config file).
	Builtin string `yaml:"builtin"`
	// Follow keeps the task's subscription open on the live tail.
	Follow bool `yaml:"follow"`
	// Tail skips history at spawn.
	Tail bool `yaml:"tail"`
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must not be negative: %d", c.PoolSize)
	}
	seen := make(map[string]bool, len(c.Tasks))
	for _, t := range c.Tasks {
		if t.Name == "" {
			return fmt.Errorf("task without a name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate task name %q", t.Name)
		}
		seen[t.Name] = true
		if t.Builtin != "log" {
			return fmt.Errorf("task %q: unknown builtin %q", t.Name, t.Builtin)
		}
	}
	return nil
}
