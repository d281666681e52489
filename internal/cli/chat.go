// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Plain line-by-line chat.
//
// Command: chat
//
// Used when --plain is given or stdout is not a terminal. Replies stream
// to the terminal as they arrive; Ctrl+C cancels the reply in progress,
// Ctrl+D or /quit exits.
//
// Commands inside the chat:
//   /help      Show commands
//   /history   Show the conversation so far
//   /model     Show the model and backend
//   /quit      Exit (also: exit, quit)

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/companion-tui/internal/model"
	"github.com/jeranaias/companion-tui/internal/relay"
	"github.com/jeranaias/companion-tui/internal/session"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// LineReader reads one line of user input. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// NewLineReader returns a liner-backed reader with in-memory history.
// Ctrl+C at the prompt aborts with liner.ErrPromptAborted.
func NewLineReader() LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return line
}

// scanReader reads lines from any io.Reader. It is used for piped input.
type scanReader struct {
	scanner *bufio.Scanner
}

// NewScanReader returns a LineReader over r without line editing.
func NewScanReader(r io.Reader) LineReader {
	return &scanReader{scanner: bufio.NewScanner(r)}
}

func (s *scanReader) Prompt(string) (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) AppendHistory(string) {}

func (s *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

// REPLOptions configures a REPL.
type REPLOptions struct {
	Model  string
	Quiet  bool
	Input  LineReader
	Out    io.Writer
	Logger *slog.Logger
}

// REPL is the plain chat loop over a session.
type REPL struct {
	session *session.Session
	opts    REPLOptions
	out     io.Writer
	logger  *slog.Logger
}

// NewREPL creates a REPL. Input defaults to a liner reader and Out to stdout.
func NewREPL(s *session.Session, opts REPLOptions) *REPL {
	if opts.Input == nil {
		opts.Input = NewLineReader()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &REPL{session: s, opts: opts, out: opts.Out, logger: logger}
}

// Run reads and answers queries until the user quits, input ends, or ctx
// is cancelled. Turn failures are printed and the loop goes on.
func (r *REPL) Run(ctx context.Context) error {
	defer r.opts.Input.Close()

	r.printWelcome()

	for {
		if ctx.Err() != nil {
			r.printExitSummary()
			return nil
		}

		input, err := r.opts.Input.Prompt(PromptStyle.Render("companion> "))
		if err != nil {
			fmt.Fprintln(r.out)
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				r.printExitSummary()
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.opts.Input.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if !r.handleSlashCommand(input) {
				r.printExitSummary()
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			r.printExitSummary()
			return nil
		}

		r.ask(ctx, input)
	}
}

// ask runs one turn, printing each new part of the running total.
func (r *REPL) ask(ctx context.Context, query string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	printed := 0
	started := false
	observer := func(ev relay.Event) {
		if ev.State != relay.StateStreaming || len(ev.Total) <= printed {
			return
		}
		if !started {
			fmt.Fprint(r.out, AssistantLabelStyle.Render("Assistant: "))
			started = true
		}
		// Totals only ever extend, so the new part is the suffix.
		fmt.Fprint(r.out, ev.Total[printed:])
		printed = len(ev.Total)
	}

	reply, err := r.session.Submit(ctx, query, observer)
	if started {
		fmt.Fprintln(r.out)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(r.out, WarningStyle.Render("[Cancelled]"))
			return
		}
		fmt.Fprintf(r.out, "%s %s\n", ErrorStyle.Render("[X]"), relay.Describe(err))
		return
	}

	if !started {
		fmt.Fprintln(r.out, AssistantLabelStyle.Render("Assistant: ")+DimStyle.Render("(empty reply)"))
	}
	if stats, ok := reply.Stats(); ok && !r.opts.Quiet {
		fmt.Fprintln(r.out, DimStyle.Render(stats.Format()))
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs cmd and reports whether the loop should go on.
func (r *REPL) handleSlashCommand(cmd string) bool {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])

	switch command {
	case "/help", "/h", "/?", "/":
		r.printHelp()
	case "/history":
		r.printHistory()
	case "/model", "/m":
		fmt.Fprintf(r.out, "%s %s (%s)\n", LabelStyle.Render("Model:"), r.opts.Model, r.session.BackendName())
		if len(parts) > 1 {
			fmt.Fprintln(r.out, DimStyle.Render("The model is fixed for a session; restart with --model "+parts[1]))
		}
	case "/quit", "/q", "/exit":
		return false
	default:
		fmt.Fprintf(r.out, "%s unknown command: %s (type /help for commands)\n", ErrorStyle.Render("[X]"), command)
	}
	return true
}

// =============================================================================
// DISPLAY
// =============================================================================

func (r *REPL) printWelcome() {
	if !r.opts.Quiet {
		fmt.Fprintln(r.out, TitleStyle.Render("companion chat"))
		fmt.Fprintln(r.out, DimStyle.Render(strings.Repeat("─", 30)))
		fmt.Fprintf(r.out, "%s %s (%s)\n", LabelStyle.Render("Model:"), r.opts.Model, r.session.BackendName())
		fmt.Fprintln(r.out, DimStyle.Render("Type your question and press Enter. Commands: /help, /quit"))
		fmt.Fprintln(r.out)
	}
	greeting := r.session.Transcript().Greeting()
	fmt.Fprintln(r.out, AssistantLabelStyle.Render("Assistant: ")+greeting.Content())
}

func (r *REPL) printHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/history", "Show the conversation so far"},
		{"/model", "Show the model and backend"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Fprintln(r.out, TitleStyle.Render("Available Commands"))
	for _, c := range commands {
		fmt.Fprintf(r.out, "  %-12s %s\n", c.cmd, DimStyle.Render(c.desc))
	}
	fmt.Fprintln(r.out, DimStyle.Render("Ctrl+C cancels a reply, Ctrl+D exits"))
}

func (r *REPL) printHistory() {
	fmt.Fprintln(r.out, TitleStyle.Render("Conversation History"))
	for i, msg := range r.session.Messages() {
		label := UserLabelStyle.Render(msg.Role().DisplayName())
		if msg.Role() == model.RoleAssistant {
			label = AssistantLabelStyle.Render(msg.Role().DisplayName())
		}
		content := strings.ReplaceAll(msg.Preview(100), "\n", " ")
		fmt.Fprintf(r.out, "  %d. %s: %s\n", i+1, label, content)
	}
}

func (r *REPL) printExitSummary() {
	turns := r.session.Turns()
	if turns == 0 || r.opts.Quiet {
		fmt.Fprintln(r.out, DimStyle.Render("Goodbye!"))
		return
	}
	elapsed := time.Since(r.session.Started()).Round(time.Second)
	fmt.Fprintf(r.out, "%s %d %s in %s. Goodbye!\n",
		DimStyle.Render("Session:"), turns, plural(turns, "reply", "replies"), elapsed)
	r.logger.Info("chat ended", "turns", turns, "messages", r.session.Transcript().Len())
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
