// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for companion.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"

	"github.com/jeranaias/companion-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdStatus:
		return "status"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds the parsed command-line arguments. Pointer fields are nil
// when the flag was not given, so a zero value can still override.
type Args struct {
	ConfigPath   string
	Model        string
	URL          string
	Backend      string
	Temperature  *float64
	Threads      *int
	PromptFormat string
	LogLevel     string

	Plain   bool
	Quiet   bool
	NoColor bool

	// Subcommand is the config action: show, init, or path.
	Subcommand string
	Force      bool
}

// Overrides converts the flags that change configuration.
func (a Args) Overrides() config.Overrides {
	return config.Overrides{
		Backend:      a.Backend,
		URL:          a.URL,
		Model:        a.Model,
		Temperature:  a.Temperature,
		NumThread:    a.Threads,
		PromptFormat: a.PromptFormat,
		LogLevel:     a.LogLevel,
		NoColor:      a.NoColor,
	}
}

// =============================================================================
// FLAGS
// =============================================================================

var (
	boolFlagNames  = []string{"plain", "quiet", "q", "no-color", "force", "help", "h", "version", "v"}
	valueFlagNames = []string{"config", "model", "m", "url", "backend", "temperature", "threads", "prompt-format", "log-level"}
)

var configSubcommands = []string{"show", "init", "path"}

const usageText = `companion - a terminal code companion for a local Ollama model

Usage:
  companion [command] [flags]

Commands:
  tui             Start the full-screen chat (default)
  chat            Start a plain line-by-line chat
  status          Check that the backend is reachable and the model is pulled
  config show     Print the effective configuration
  config init     Write a default config file (--force to overwrite)
  config path     Print the config file path
  version         Print version information
  help            Show this help

Flags:
  --config PATH          Config file (default ~/.companion/config.toml)
  -m, --model NAME       Model to use (default deepseek-r1:1.5b)
  --url URL              Ollama server URL (default http://localhost:11434)
  --backend KIND         ollama (native API) or openai (Ollama's /v1 API)
  --temperature N        Sampling temperature between 0 and 1
  --threads N            Backend thread hint; 0 leaves the server default
  --prompt-format F      messages (role-tagged) or text (one prompt string)
  --plain                Use the plain chat even on a terminal
  --log-level LEVEL      debug, info, warn, or error
  -q, --quiet            Skip banners and per-reply statistics
  --no-color             Disable colors (NO_COLOR is also honored)

Environment:
  COMPANION_MODEL, COMPANION_URL, COMPANION_BACKEND, COMPANION_TEMPERATURE,
  COMPANION_NUM_THREAD, COMPANION_PROMPT_FORMAT, COMPANION_LOG_LEVEL, ...
  A .env file in the working directory is read without overriding them.

Examples:
  companion                              Start the TUI
  companion chat -m qwen2.5-coder:7b     Plain chat with another model
  companion status                       Check Ollama and the model
  companion config init                  Create ~/.companion/config.toml

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "companion version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses command-line arguments (without the program name) and
// returns the command and its args. Errors are *UsageError.
func Parse(argv []string) (Command, Args, error) {
	var args Args
	p := NewArgParser(argv, boolFlagNames...)

	for _, name := range p.Names() {
		if !slices.Contains(boolFlagNames, name) && !slices.Contains(valueFlagNames, name) {
			return CmdHelp, args, usageErrorf("unknown flag: --%s", name)
		}
	}
	if missing := p.Missing(); len(missing) > 0 {
		return CmdHelp, args, usageErrorf("flag --%s needs a value", missing[0])
	}

	if p.BoolFlag("help") || p.BoolFlag("h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") || p.BoolFlag("v") {
		return CmdVersion, args, nil
	}

	if err := parseFlags(p, &args); err != nil {
		return CmdHelp, args, err
	}

	cmd, err := parseCommand(p, &args)
	if err != nil {
		return CmdHelp, args, err
	}
	return cmd, args, nil
}

func parseFlags(p *ArgParser, args *Args) error {
	args.ConfigPath = p.Flag("config")
	args.Model = p.FlagOrDefault("model", p.Flag("m"))
	args.URL = p.Flag("url")
	args.Backend = strings.ToLower(p.Flag("backend"))
	args.PromptFormat = strings.ToLower(p.Flag("prompt-format"))
	args.LogLevel = strings.ToLower(p.Flag("log-level"))

	args.Plain = p.BoolFlag("plain")
	args.Quiet = p.BoolFlag("quiet") || p.BoolFlag("q")
	args.NoColor = p.BoolFlag("no-color")
	args.Force = p.BoolFlag("force")

	if p.HasFlag("temperature") {
		t, err := p.FlagFloat("temperature")
		if err != nil {
			return usageErrorf("invalid --temperature %q: not a number", p.Flag("temperature"))
		}
		args.Temperature = &t
	}
	if p.HasFlag("threads") {
		n, err := p.FlagInt("threads")
		if err != nil {
			return usageErrorf("invalid --threads %q: not an integer", p.Flag("threads"))
		}
		args.Threads = &n
	}
	return nil
}

func parseCommand(p *ArgParser, args *Args) (Command, error) {
	name := strings.ToLower(p.Subcommand())
	rest := p.PositionalFrom(1)

	var cmd Command
	switch name {
	case "", "tui":
		cmd = CmdTUI
	case "chat":
		cmd = CmdChat
	case "status", "s":
		cmd = CmdStatus
	case "version":
		cmd = CmdVersion
	case "help":
		return CmdHelp, nil
	case "config":
		args.Subcommand = "show"
		if len(rest) > 0 {
			args.Subcommand = strings.ToLower(rest[0])
			rest = rest[1:]
		}
		if !slices.Contains(configSubcommands, args.Subcommand) {
			return CmdHelp, usageErrorf("unknown config action: %s (want show, init, or path)", args.Subcommand)
		}
		cmd = CmdConfig
	default:
		return CmdHelp, usageErrorf("unknown command: %s", name)
	}

	if len(rest) > 0 {
		return CmdHelp, usageErrorf("unexpected argument: %s", rest[0])
	}
	return cmd, nil
}
