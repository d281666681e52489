// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [show|init|path]
//
// Subcommands:
//   show (default)   Print the effective configuration as JSON
//   init             Write a default config file
//   path             Print the config file path
//
// Examples:
//   companion config
//   companion config init --force
//   companion --config ./dev.toml config show

package cli

import (
	"fmt"
	"io"

	"github.com/jeranaias/companion-tui/internal/config"
)

// ConfigPath returns the config file the command line selects.
func ConfigPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// LoadConfig loads configuration for args and applies flag overrides.
// Failures are *ConfigError.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	if err := cfg.ApplyOverrides(args.Overrides()); err != nil {
		return nil, &ConfigError{Err: err}
	}
	return cfg, nil
}

// RunConfig handles the "config" command. cfg is only read by "show"
// and may be nil for the other actions.
func RunConfig(w io.Writer, args Args, cfg *config.Config) error {
	path, err := ConfigPath(args)
	if err != nil {
		return &CommandError{Command: "config", Action: args.Subcommand, Err: err}
	}

	switch args.Subcommand {
	case "", "show":
		if cfg == nil {
			return &CommandError{Command: "config", Action: "show", Err: fmt.Errorf("no configuration loaded")}
		}
		fmt.Fprintln(w, cfg.String())
	case "path":
		fmt.Fprintln(w, path)
	case "init":
		if err := config.WriteDefault(path, args.Force); err != nil {
			return &CommandError{Command: "config", Action: "init", Err: err}
		}
		fmt.Fprintf(w, "%s Wrote default configuration to %s\n", SuccessStyle.Render("[OK]"), path)
	default:
		return usageErrorf("unknown config action: %s", args.Subcommand)
	}
	return nil
}
