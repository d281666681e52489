// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands for
// companion.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed flags and the config action
//   - ArgParser: Flag and positional splitting shared by all commands
//   - REPL: Plain line-by-line chat over a session
//   - StatusReport: Result of the backend and model check
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	if err != nil {
//	    cli.DisplayError(os.Stderr, err)
//	    os.Exit(cli.GetExitCode(err))
//	}
//	switch cmd {
//	case cli.CmdStatus:
//	    err = cli.RunStatus(ctx, os.Stdout, cfg, cli.NewOllamaClient(cfg))
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - tui: Full-screen chat (default when stdout is a terminal)
//   - chat: Plain chat with streaming output
//   - status: Backend reachability and model availability
//   - config: show, init, path
//   - version, help
package cli
