// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points HOME at a temp dir and runs the test from another temp
// dir so no real config or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

// TestConfig_Default tests that Default() reproduces the stock companion settings.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Backend.Model != "deepseek-r1:1.5b" {
		t.Errorf("Model = %q, want deepseek-r1:1.5b", cfg.Backend.Model)
	}
	if cfg.Backend.URL != "http://localhost:11434" {
		t.Errorf("URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.Temperature != 0.3 || cfg.Backend.NumThread != 4 {
		t.Errorf("Temperature/NumThread = %v/%d, want 0.3/4", cfg.Backend.Temperature, cfg.Backend.NumThread)
	}
	if !strings.HasPrefix(cfg.Chat.SystemPrompt, "You are an expert AI coding assistant.") {
		t.Errorf("SystemPrompt = %q", cfg.Chat.SystemPrompt)
	}
	if !strings.Contains(cfg.Chat.Greeting, "How can I help you code today?") {
		t.Errorf("Greeting = %q", cfg.Chat.Greeting)
	}
	if len(cfg.UI.Capabilities) != 4 {
		t.Errorf("Capabilities = %v, want 4 entries", cfg.UI.Capabilities)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, "", false},
		{"openai backend", func(c *Config) { c.Backend.Kind = BackendOpenAI }, "", false},
		{"invalid backend kind", func(c *Config) { c.Backend.Kind = "anthropic" }, "backend.kind", true},
		{"relative url", func(c *Config) { c.Backend.URL = "/api" }, "backend.url", true},
		{"ftp url", func(c *Config) { c.Backend.URL = "ftp://host" }, "backend.url", true},
		{"empty model", func(c *Config) { c.Backend.Model = "  " }, "backend.model", true},
		{"temperature zero", func(c *Config) { c.Backend.Temperature = 0 }, "", false},
		{"temperature one", func(c *Config) { c.Backend.Temperature = 1 }, "", false},
		{"temperature too high", func(c *Config) { c.Backend.Temperature = 1.5 }, "backend.temperature", true},
		{"temperature negative", func(c *Config) { c.Backend.Temperature = -0.1 }, "backend.temperature", true},
		{"negative threads", func(c *Config) { c.Backend.NumThread = -1 }, "backend.num_thread", true},
		{"text prompt format", func(c *Config) { c.Backend.PromptFormat = "text" }, "", false},
		{"invalid prompt format", func(c *Config) { c.Backend.PromptFormat = "xml" }, "backend.prompt_format", true},
		{"negative health timeout", func(c *Config) { c.Backend.HealthTimeoutSecs = -5 }, "backend.health_timeout_secs", true},
		{"empty system prompt", func(c *Config) { c.Chat.SystemPrompt = "" }, "chat.system_prompt", true},
		{"empty greeting", func(c *Config) { c.Chat.Greeting = "\n" }, "chat.greeting", true},
		{"invalid log level", func(c *Config) { c.Log.Level = "trace" }, "log.level", true},
		{"invalid log format", func(c *Config) { c.Log.Format = "xml" }, "log.format", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error %T is not ValidateErrors", err)
			}
			if verrs[0].Field != tt.field {
				t.Errorf("Field = %q, want %q", verrs[0].Field, tt.field)
			}
		})
	}
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Backend.Model = ""
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	var verrs ValidateErrors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("Validate() = %v, want 2 errors", err)
	}
	if !strings.Contains(err.Error(), "backend.model") || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.Model != Default().Backend.Model {
		t.Errorf("Model = %q", cfg.Backend.Model)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".companion", "config.toml"), `
[backend]
model = "qwen2.5-coder:7b"
temperature = 0.0

[ui]
show_sidebar = false
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.Model != "qwen2.5-coder:7b" {
		t.Errorf("Model = %q", cfg.Backend.Model)
	}
	if cfg.Backend.Temperature != 0 {
		t.Errorf("Temperature = %v, want explicit 0 kept", cfg.Backend.Temperature)
	}
	if cfg.Backend.NumThread != 4 {
		t.Errorf("NumThread = %d, want default 4", cfg.Backend.NumThread)
	}
	if cfg.UI.ShowSidebar {
		t.Error("ShowSidebar should be false from file")
	}
	if cfg.Chat.Greeting != Default().Chat.Greeting {
		t.Errorf("Greeting = %q, want default", cfg.Chat.Greeting)
	}
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.toml")
	writeFile(t, path, "[backend]\nmodle = \"typo\"\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "backend.modle") {
		t.Fatalf("LoadFromPath() error = %v, want unknown key", err)
	}
}

func TestLoadFromPath_InvalidValue(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.toml")
	writeFile(t, path, "[backend]\ntemperature = 2.0\n")

	_, err := LoadFromPath(path)
	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("LoadFromPath() error = %v, want ValidateErrors", err)
	}
}

func TestLoadFromPath_FixesPermissions(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.toml")
	writeFile(t, path, "[backend]\nmodel = \"m\"\n")
	if err := os.Chmod(path, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 600", info.Mode().Perm())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".companion", "config.toml"), "[backend]\nmodel = \"from-file\"\n")
	t.Setenv("COMPANION_MODEL", "from-env")
	t.Setenv("COMPANION_TEMPERATURE", "0.7")
	t.Setenv("COMPANION_BACKEND", "OpenAI")
	t.Setenv("COMPANION_SHOW_SIDEBAR", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend.Model != "from-env" {
		t.Errorf("Model = %q, want from-env", cfg.Backend.Model)
	}
	if cfg.Backend.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Backend.Temperature)
	}
	if cfg.Backend.Kind != BackendOpenAI {
		t.Errorf("Kind = %q, want openai", cfg.Backend.Kind)
	}
	if cfg.UI.ShowSidebar {
		t.Error("ShowSidebar should be false from env")
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	isolate(t)
	t.Setenv("COMPANION_NUM_THREAD", "many")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a non-numeric COMPANION_NUM_THREAD")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	t.Setenv("COMPANION_LOG_LEVEL", "error")
	t.Cleanup(func() { os.Unsetenv("COMPANION_GREETING") })
	writeFile(t, ".env", "COMPANION_GREETING=Hello from dotenv\nCOMPANION_LOG_LEVEL=debug\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chat.Greeting != "Hello from dotenv" {
		t.Errorf("Greeting = %q, want value from .env", cfg.Chat.Greeting)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q, real environment must win over .env", cfg.Log.Level)
	}
}

func TestConfig_Migrate(t *testing.T) {
	cfg := Default()
	cfg.Backend.Kind = " OpenAI-Compatible "
	cfg.Backend.URL = "127.0.0.1:11434/"
	cfg.Backend.PromptFormat = "TEXT"
	cfg.Log.Level = "WARNING"

	if err := cfg.Migrate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.Kind != BackendOpenAI {
		t.Errorf("Kind = %q", cfg.Backend.Kind)
	}
	if cfg.Backend.URL != "http://127.0.0.1:11434" {
		t.Errorf("URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.PromptFormat != "text" || cfg.Log.Level != "warn" {
		t.Errorf("PromptFormat/Level = %q/%q", cfg.Backend.PromptFormat, cfg.Log.Level)
	}
}

func TestConfig_SetDefaultsKeepsZeroNumbers(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Backend.Model == "" || cfg.Chat.Greeting == "" || cfg.Log.Level == "" {
		t.Errorf("string defaults not filled: %+v", cfg)
	}
	if cfg.Backend.Temperature != 0 || cfg.Backend.NumThread != 0 {
		t.Error("SetDefaults must not change numeric fields")
	}
}

func TestConfig_ApplyOverrides(t *testing.T) {
	cfg := Default()
	temp := 0.0
	threads := 8

	err := cfg.ApplyOverrides(Overrides{
		Model:       "codellama",
		URL:         "http://gpu-box:11434",
		Temperature: &temp,
		NumThread:   &threads,
		NoColor:     true,
	})
	if err != nil {
		t.Fatalf("ApplyOverrides() error = %v", err)
	}
	if cfg.Backend.Model != "codellama" || cfg.Backend.URL != "http://gpu-box:11434" {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Backend.Temperature != 0 || cfg.Backend.NumThread != 8 || !cfg.UI.NoColor {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	bad := 3.0
	if err := Default().ApplyOverrides(Overrides{Temperature: &bad}); err == nil {
		t.Error("ApplyOverrides should revalidate")
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Error("WriteDefault should refuse to overwrite")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("WriteDefault(force) error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# companion configuration file") {
		t.Errorf("missing header: %q", string(data)[:40])
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Backend.Model != Default().Backend.Model || cfg.UI.Title != Default().UI.Title {
		t.Errorf("round trip changed values: %+v", cfg)
	}
}

func TestSave_DefaultPath(t *testing.T) {
	home := isolate(t)

	cfg := Default()
	cfg.Backend.Model = "qwen2.5-coder:7b"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".companion", "config.toml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Backend.Model != "qwen2.5-coder:7b" {
		t.Errorf("Model = %q", loaded.Backend.Model)
	}
}

func TestConfig_StringRedactsKey(t *testing.T) {
	cfg := Default()
	cfg.Backend.APIKey = "sk-secret"

	s := cfg.String()
	if strings.Contains(s, "sk-secret") {
		t.Error("String() leaked the API key")
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("String() should mark the redacted key")
	}
	if cfg.Backend.APIKey != "sk-secret" {
		t.Error("String() must not modify the config")
	}
}

func TestConfig_CloneIsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.UI.Capabilities[0] = "changed"

	if cfg.UI.Capabilities[0] == "changed" {
		t.Error("Clone shares the capabilities slice")
	}
}

func TestBackendConfig_HealthTimeout(t *testing.T) {
	if got := (BackendConfig{}).HealthTimeout(); got != DefaultHealthTimeout {
		t.Errorf("HealthTimeout() = %v, want default", got)
	}
	if got := (BackendConfig{HealthTimeoutSecs: 2}).HealthTimeout(); got != 2*time.Second {
		t.Errorf("HealthTimeout() = %v, want 2s", got)
	}
}

func TestDefaultLogPath(t *testing.T) {
	home := isolate(t)
	want := filepath.Join(home, ".companion", "logs", "companion.log")
	if got := DefaultLogPath(); got != want {
		t.Errorf("DefaultLogPath() = %q, want %q", got, want)
	}
}
