// companion - a terminal code companion for a local Ollama model.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/companion-tui/internal/cli"
	"github.com/jeranaias/companion-tui/internal/config"
	"github.com/jeranaias/companion-tui/internal/logging"
	"github.com/jeranaias/companion-tui/internal/ollama"
	"github.com/jeranaias/companion-tui/internal/openaicompat"
	"github.com/jeranaias/companion-tui/internal/prompt"
	"github.com/jeranaias/companion-tui/internal/relay"
	"github.com/jeranaias/companion-tui/internal/session"
	"github.com/jeranaias/companion-tui/internal/ui/chat"
	"github.com/jeranaias/companion-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one command and returns the process exit code.
func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.ConfigureColor(false)
		return fail(err)
	}
	cli.ConfigureColor(args.NoColor)

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdConfig:
		// init and path must work even when the current file is broken
		if args.Subcommand != "show" {
			return fail(cli.RunConfig(os.Stdout, args, nil))
		}
	}

	cfg, err := cli.LoadConfig(args)
	if err != nil {
		return fail(err)
	}
	cli.ConfigureColor(cfg.UI.NoColor)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	switch cmd {
	case cli.CmdConfig:
		return fail(cli.RunConfig(os.Stdout, args, cfg))
	case cli.CmdStatus:
		return fail(cli.RunStatus(ctx, os.Stdout, cfg, cli.NewOllamaClient(cfg)))
	}

	logger, closer, err := logging.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s logging disabled: %v\n", cli.WarningStyle.Render("[!]"), err)
	}
	defer closer.Close()
	logger = logger.With("model", cfg.Backend.Model)

	s, err := newSession(cfg, logger)
	if err != nil {
		return fail(err)
	}
	logger.Info("session started", "backend", s.BackendName(), "command", cmd.String())

	if cmd == cli.CmdChat || args.Plain || !cli.CanRunTUI() {
		return fail(runREPL(ctx, s, cfg, args, logger))
	}
	return fail(runTUI(s, cfg, logger))
}

// fail prints err, if any, and returns its exit code.
func fail(err error) int {
	if err != nil {
		cli.DisplayError(os.Stderr, err)
	}
	return cli.GetExitCode(err)
}

// =============================================================================
// WIRING
// =============================================================================

// newBackend builds the relay backend selected by cfg.
func newBackend(cfg *config.Config, logger *slog.Logger) (relay.Backend, error) {
	switch cfg.Backend.Kind {
	case config.BackendOpenAI:
		b, err := openaicompat.New(openaicompat.Config{
			BaseURL:     cfg.Backend.URL,
			APIKey:      cfg.Backend.APIKey,
			Model:       cfg.Backend.Model,
			Temperature: cfg.Backend.Temperature,
		}, logger)
		if err != nil {
			return nil, &cli.ConfigError{Err: err}
		}
		return b, nil
	default:
		return ollama.NewBackend(cli.NewOllamaClient(cfg), ollama.BackendOptions{
			Model:       cfg.Backend.Model,
			Temperature: cfg.Backend.Temperature,
			NumThread:   cfg.Backend.NumThread,
		}, logger), nil
	}
}

// newSession wires backend, relay, and session for one run.
func newSession(cfg *config.Config, logger *slog.Logger) (*session.Session, error) {
	format, err := prompt.ParseFormat(cfg.Backend.PromptFormat)
	if err != nil {
		return nil, &cli.ConfigError{Err: err}
	}
	backend, err := newBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	return session.New(session.Config{
		SystemPrompt: cfg.Chat.SystemPrompt,
		Greeting:     cfg.Chat.Greeting,
		Format:       format,
	}, relay.New(backend, logger), logger), nil
}

// =============================================================================
// FRONT ENDS
// =============================================================================

func runREPL(ctx context.Context, s *session.Session, cfg *config.Config, args cli.Args, logger *slog.Logger) error {
	var input cli.LineReader
	if cli.IsTTY() {
		input = cli.NewLineReader()
	} else {
		input = cli.NewScanReader(os.Stdin)
	}
	repl := cli.NewREPL(s, cli.REPLOptions{
		Model:  cfg.Backend.Model,
		Quiet:  args.Quiet,
		Input:  input,
		Out:    os.Stdout,
		Logger: logger,
	})
	return repl.Run(ctx)
}

func runTUI(s *session.Session, cfg *config.Config, logger *slog.Logger) error {
	theme := styles.NewTheme(!cli.ColorsEnabled(cfg.UI.NoColor))

	m := chat.New(s, theme, chat.Options{
		Title:        cfg.UI.Title,
		Caption:      cfg.UI.Caption,
		Placeholder:  cfg.UI.Placeholder,
		BusyText:     cfg.UI.BusyText,
		ModelName:    cfg.Backend.Model,
		BackendName:  s.BackendName(),
		Capabilities: cfg.UI.Capabilities,
		ShowSidebar:  cfg.UI.ShowSidebar,
		NoColor:      cfg.UI.NoColor,
		Preflight:    cli.Preflight(cfg, cli.NewOllamaClient(cfg)),
		Logger:       logger,
	})

	// bubbletea handles SIGINT and SIGTERM itself while it owns the terminal
	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if fm, ok := final.(chat.Model); ok {
		fm.Close()
	}
	if err != nil {
		return fmt.Errorf("running companion: %w", err)
	}
	logger.Info("session ended", "turns", s.Turns(), "messages", s.Transcript().Len())
	return nil
}
