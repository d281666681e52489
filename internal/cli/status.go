// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command and backend preflight.
//
// Command: status
// Aliases: s
//
// Checks that the Ollama server answers and that the configured model has
// been pulled. The same check runs when the TUI starts.

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jeranaias/companion-tui/internal/config"
	"github.com/jeranaias/companion-tui/internal/ollama"
)

// StatusReport is the result of one backend check.
type StatusReport struct {
	Backend string
	URL     string
	Model   string

	Running     bool
	RunningErr  error
	ModelPulled bool
	ModelErr    error
}

// Healthy reports whether a chat could start.
func (r StatusReport) Healthy() bool {
	return r.Running && r.ModelPulled
}

// Err returns the first problem found, or nil.
func (r StatusReport) Err() error {
	switch {
	case !r.Running:
		return r.RunningErr
	case r.ModelErr != nil:
		return r.ModelErr
	case !r.ModelPulled:
		return fmt.Errorf("model %s is not pulled; run: ollama pull %s", r.Model, r.Model)
	default:
		return nil
	}
}

// NewOllamaClient builds the API client for cfg's backend section.
func NewOllamaClient(cfg *config.Config) *ollama.Client {
	return ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Backend.URL,
		Timeout:      cfg.Backend.HealthTimeout(),
		DefaultModel: cfg.Backend.Model,
	})
}

// CheckStatus checks the server and model. Both backend kinds talk to an
// Ollama server, so the native API answers the check either way.
func CheckStatus(ctx context.Context, cfg *config.Config, client *ollama.Client) StatusReport {
	report := StatusReport{
		Backend: cfg.Backend.Kind,
		URL:     cfg.Backend.URL,
		Model:   cfg.Backend.Model,
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Backend.HealthTimeout())
	defer cancel()

	if err := client.CheckRunning(ctx); err != nil {
		report.RunningErr = err
		return report
	}
	report.Running = true

	pulled, err := client.HasModel(ctx, cfg.Backend.Model)
	if err != nil {
		report.ModelErr = err
		return report
	}
	report.ModelPulled = pulled
	return report
}

// Preflight returns the start-up check used by the TUI.
func Preflight(cfg *config.Config, client *ollama.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return CheckStatus(ctx, cfg, client).Err()
	}
}

// RunStatus handles the "status" command. It returns an error when the
// backend is not ready so the exit code reflects it.
func RunStatus(ctx context.Context, w io.Writer, cfg *config.Config, client *ollama.Client) error {
	report := CheckStatus(ctx, cfg, client)
	PrintStatus(w, report)
	if err := report.Err(); err != nil {
		return &CommandError{Command: "status", Err: err}
	}
	return nil
}

// PrintStatus writes report in the plain-output style.
func PrintStatus(w io.Writer, report StatusReport) {
	fmt.Fprintln(w, TitleStyle.Render("Companion Status"))
	fmt.Fprintln(w, DimStyle.Render("────────────────"))
	fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Backend:"), ValueStyle.Render(report.Backend))
	fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("URL:"), ValueStyle.Render(report.URL))
	fmt.Fprintf(w, "%s %s\n", LabelStyle.Render("Model:"), ValueStyle.Render(report.Model))
	fmt.Fprintln(w)

	if !report.Running {
		fmt.Fprintf(w, "%s Ollama is not reachable: %v\n", ErrorStyle.Render("[X]"), report.RunningErr)
		fmt.Fprintln(w, DimStyle.Render("    Start it with: ollama serve"))
		return
	}
	fmt.Fprintf(w, "%s Ollama is running\n", SuccessStyle.Render("[OK]"))

	switch {
	case report.ModelErr != nil:
		fmt.Fprintf(w, "%s Could not list models: %v\n", WarningStyle.Render("[!]"), report.ModelErr)
	case report.ModelPulled:
		fmt.Fprintf(w, "%s Model %s is available\n", SuccessStyle.Render("[OK]"), report.Model)
	default:
		fmt.Fprintf(w, "%s Model %s is not pulled\n", WarningStyle.Render("[!]"), report.Model)
		fmt.Fprintln(w, DimStyle.Render("    Pull it with: ollama pull "+report.Model))
	}
}
