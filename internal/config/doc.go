// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and validation for companion.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Inference backend, model, and sampling options
//   - ChatConfig: System instruction and greeting
//   - UIConfig: Display text and layout switches
//   - LogConfig: Log level, format, and file
//
// # Configuration Precedence
//
// Configuration is layered (highest wins):
//   - Command-line flags (Config.ApplyOverrides)
//   - Environment variables (COMPANION_*)
//   - .env in the working directory (never overrides real environment)
//   - ~/.companion/config.toml, or the file given with --config
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Backend.Model)
package config
