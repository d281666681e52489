// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/companion-tui/internal/cli"
	"github.com/jeranaias/companion-tui/internal/config"
	"github.com/jeranaias/companion-tui/internal/logging"
)

// isolate points config lookups and .env loading at empty directories.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestRun_ExitCodes(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		argv []string
		want int
	}{
		{"help", []string{"--help"}, cli.ExitSuccess},
		{"version", []string{"version"}, cli.ExitSuccess},
		{"unknown command", []string{"deploy"}, cli.ExitUsageError},
		{"unknown flag", []string{"--paranoid"}, cli.ExitUsageError},
		{"invalid override", []string{"config", "show", "--temperature", "2"}, cli.ExitUsageError},
		{"config show", []string{"config", "show", "--no-color"}, cli.ExitSuccess},
		{"config path", []string{"config", "path"}, cli.ExitSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(tt.argv))
		})
	}
}

func TestRun_ConfigInit(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	require.Equal(t, cli.ExitSuccess, run([]string{"config", "init", "--config", path}))
	assert.FileExists(t, path)
	assert.Equal(t, cli.ExitGeneralError, run([]string{"config", "init", "--config", path}))
	assert.Equal(t, cli.ExitSuccess, run([]string{"config", "init", "--force", "--config", path}))
	assert.Equal(t, cli.ExitSuccess, run([]string{"config", "show", "--config", path}))
}

func TestNewSession_Backends(t *testing.T) {
	cfg := config.Default()

	s, err := newSession(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "ollama", s.BackendName())
	assert.Equal(t, cfg.Chat.Greeting, s.Transcript().Greeting().Content())

	cfg.Backend.Kind = config.BackendOpenAI
	s, err = newSession(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "openai", s.BackendName())

	cfg.Backend.PromptFormat = "yaml"
	_, err = newSession(cfg, logging.Discard())
	require.Error(t, err)
	assert.Equal(t, cli.ExitUsageError, cli.GetExitCode(err))
}
