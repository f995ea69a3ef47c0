// Package cmd provides CLI commands for the strand binary.
package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/strandhq/strand/cli/config"
	"github.com/strandhq/strand/log"
	"github.com/strandhq/strand/store"
)

// Shared flags for commands that open a store.
var (
	// RootFlag selects the store root directory.
	RootFlag = &cli.StringFlag{
		Name:    "root",
		Aliases: []string{"r"},
		Usage:   "Store root directory",
		EnvVars: []string{"STRAND_ROOT"},
	}

	// ConfigFlag selects an optional YAML config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to strand.yaml config file",
		EnvVars: []string{"STRAND_CONFIG"},
	}

	// SyncFlag forces synchronous partition commits.
	SyncFlag = &cli.BoolFlag{
		Name:  "sync",
		Usage: "Force synchronous writes (slower, durable on power loss)",
	}
)

// StoreFlags returns the shared flags for all store-backed commands.
func StoreFlags() []cli.Flag {
	return []cli.Flag{
		RootFlag,
		ConfigFlag,
		SyncFlag,
	}
}

// loadConfig reads --config when given, otherwise returns an empty config.
// Flags always override config values.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// resolveRoot picks the store root: flag, then config, then an explicit
// error. There is no implicit default; the store location must be named.
func resolveRoot(c *cli.Context, cfg *config.Config) (string, error) {
	if root := c.String("root"); root != "" {
		return root, nil
	}
	if cfg.Root != "" {
		return cfg.Root, nil
	}
	return "", fmt.Errorf("no store root: pass --root or set root in the config file")
}

// openStore resolves config and opens the store for a command.
// Caller owns the returned store and must Close it.
func openStore(c *cli.Context, logger *log.Logger) (*store.Store, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	root, err := resolveRoot(c, cfg)
	if err != nil {
		return nil, nil, err
	}

	s, err := store.Open(root, store.Options{
		SyncWrites: c.Bool("sync") || cfg.SyncWrites,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open store at %s: %w", root, err)
	}
	return s, cfg, nil
}
