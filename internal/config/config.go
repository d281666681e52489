// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/jeranaias/companion-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete companion configuration.
type Config struct {
	// Inference backend
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Conversation seed
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Display text and layout
	UI UIConfig `toml:"ui" json:"ui"`

	// Log sink
	Log LogConfig `toml:"log" json:"log"`
}

// BackendConfig holds the inference backend options. They are fixed for
// the life of a session.
type BackendConfig struct {
	// Kind selects the wire API: "ollama" (native) or "openai" (Ollama's /v1).
	Kind string `toml:"kind" json:"kind" env:"COMPANION_BACKEND"`

	// URL is the server root, e.g. http://localhost:11434.
	URL string `toml:"url" json:"url" env:"COMPANION_URL"`

	// Model is the model identifier, e.g. deepseek-r1:1.5b.
	Model string `toml:"model" json:"model" env:"COMPANION_MODEL"`

	// Temperature is the sampling temperature in [0, 1].
	Temperature float64 `toml:"temperature" json:"temperature" env:"COMPANION_TEMPERATURE"`

	// NumThread is the concurrency hint passed to the backend; 0 leaves the server default.
	NumThread int `toml:"num_thread" json:"num_thread" env:"COMPANION_NUM_THREAD"`

	// PromptFormat is "messages" (role-tagged) or "text" (one formatted blob).
	PromptFormat string `toml:"prompt_format" json:"prompt_format" env:"COMPANION_PROMPT_FORMAT"`

	// HealthTimeoutSecs bounds start-up and status checks; 0 uses the default.
	HealthTimeoutSecs int `toml:"health_timeout_secs" json:"health_timeout_secs" env:"COMPANION_HEALTH_TIMEOUT_SECS"`

	// APIKey is sent to OpenAI-compatible servers. Ollama ignores it.
	APIKey string `toml:"api_key,omitempty" json:"api_key,omitempty" env:"COMPANION_API_KEY"`
}

// ChatConfig holds the system instruction and greeting.
type ChatConfig struct {
	SystemPrompt string `toml:"system_prompt" json:"system_prompt" env:"COMPANION_SYSTEM_PROMPT"`
	Greeting     string `toml:"greeting" json:"greeting" env:"COMPANION_GREETING"`
}

// UIConfig holds display text and layout switches.
type UIConfig struct {
	Title        string   `toml:"title" json:"title"`
	Caption      string   `toml:"caption" json:"caption"`
	Placeholder  string   `toml:"placeholder" json:"placeholder"`
	BusyText     string   `toml:"busy_text" json:"busy_text"`
	Capabilities []string `toml:"capabilities" json:"capabilities"`
	ShowSidebar  bool     `toml:"show_sidebar" json:"show_sidebar" env:"COMPANION_SHOW_SIDEBAR"`
	NoColor      bool     `toml:"no_color" json:"no_color" env:"COMPANION_NO_COLOR"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	Level  string `toml:"level" json:"level" env:"COMPANION_LOG_LEVEL"`
	Format string `toml:"format" json:"format" env:"COMPANION_LOG_FORMAT"`
	// File is the log path; empty means ~/.companion/logs/companion.log.
	File string `toml:"file,omitempty" json:"file,omitempty" env:"COMPANION_LOG_FILE"`
}

// Backend kinds.
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// DefaultHealthTimeout is used when HealthTimeoutSecs is 0.
const DefaultHealthTimeout = 5 * time.Second

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with the stock coding-companion settings.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Kind:              BackendOllama,
			URL:               "http://localhost:11434",
			Model:             "deepseek-r1:1.5b",
			Temperature:       0.3,
			NumThread:         4,
			PromptFormat:      "messages",
			HealthTimeoutSecs: 5,
		},

		Chat: ChatConfig{
			SystemPrompt: "You are an expert AI coding assistant. Provide concise, correct solutions " +
				"with strategic print statements for debugging. Always respond in English.",
			Greeting: "👋 Hi! I'm DeepSeek. How can I help you code today? 💻",
		},

		UI: UIConfig{
			Title:       "🧠 DeepSeek Code Companion",
			Caption:     "🚀 Your AI Pair Programmer with Debugging Superpowers",
			Placeholder: "Type your coding question here...",
			BusyText:    "🧠 Processing...",
			Capabilities: []string{
				"🐍 Python Expert",
				"🐞 Debugging Assistant",
				"📝 Code Documentation",
				"💡 Solution Design",
			},
			ShowSidebar: true,
		},

		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// HealthTimeout returns the health-check timeout as a duration.
func (b BackendConfig) HealthTimeout() time.Duration {
	if b.HealthTimeoutSecs <= 0 {
		return DefaultHealthTimeout
	}
	return time.Duration(b.HealthTimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the companion configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".companion"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogPath returns ~/.companion/logs/companion.log, or a relative
// path when the home directory is unknown.
func DefaultLogPath() string {
	dir, err := ConfigDir()
	if err != nil {
		return filepath.Join(".companion", "logs", "companion.log")
	}
	return filepath.Join(dir, "logs", "companion.log")
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files may hold an API key, so they are kept at 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.companion/config.toml if it exists,
// then applies .env, environment overrides, migration, defaults, and
// validation. A missing config file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return finish(Default())
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full validation.
// Keys absent from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file on top of cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Not fatal: permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are never overridden. A missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
// The file is replaced atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# companion configuration file\n")
	buf.WriteString("#\n")
	buf.WriteString("# Environment variables (COMPANION_MODEL, COMPANION_URL, ...) and\n")
	buf.WriteString("# command-line flags take precedence over this file.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return SaveTOML(Default(), path)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validKinds   = []string{BackendOllama, BackendOpenAI}
	validFormats = []string{"messages", "text"}
	validLevels  = []string{"debug", "info", "warn", "error"}
	validLogFmts = []string{"json", "text"}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// ==========================================================================
	// Backend
	// ==========================================================================

	if !slices.Contains(validKinds, c.Backend.Kind) {
		add("backend.kind", "invalid kind '%s', must be one of: %s", c.Backend.Kind, strings.Join(validKinds, ", "))
	}
	if u, err := url.Parse(c.Backend.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("backend.url", "invalid URL '%s', must be an absolute http(s) URL", c.Backend.URL)
	}
	if strings.TrimSpace(c.Backend.Model) == "" {
		add("backend.model", "must not be empty")
	}
	if c.Backend.Temperature < 0 || c.Backend.Temperature > 1 {
		add("backend.temperature", "%.2f out of range, must be between 0 and 1", c.Backend.Temperature)
	}
	if c.Backend.NumThread < 0 {
		add("backend.num_thread", "must not be negative")
	}
	if !slices.Contains(validFormats, c.Backend.PromptFormat) {
		add("backend.prompt_format", "invalid format '%s', must be one of: %s", c.Backend.PromptFormat, strings.Join(validFormats, ", "))
	}
	if c.Backend.HealthTimeoutSecs < 0 {
		add("backend.health_timeout_secs", "must not be negative")
	}

	// ==========================================================================
	// Chat
	// ==========================================================================

	if strings.TrimSpace(c.Chat.SystemPrompt) == "" {
		add("chat.system_prompt", "must not be empty")
	}
	if strings.TrimSpace(c.Chat.Greeting) == "" {
		add("chat.greeting", "must not be empty")
	}

	// ==========================================================================
	// Log
	// ==========================================================================

	if !slices.Contains(validLevels, c.Log.Level) {
		add("log.level", "invalid level '%s', must be one of: %s", c.Log.Level, strings.Join(validLevels, ", "))
	}
	if !slices.Contains(validLogFmts, c.Log.Format) {
		add("log.format", "invalid format '%s', must be one of: %s", c.Log.Format, strings.Join(validLogFmts, ", "))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty string and list fields from Default. Numeric
// fields are left alone because zero is a meaningful value for them.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Backend.Kind == "" {
		c.Backend.Kind = defaults.Backend.Kind
	}
	if c.Backend.URL == "" {
		c.Backend.URL = defaults.Backend.URL
	}
	if c.Backend.Model == "" {
		c.Backend.Model = defaults.Backend.Model
	}
	if c.Backend.PromptFormat == "" {
		c.Backend.PromptFormat = defaults.Backend.PromptFormat
	}

	if c.Chat.SystemPrompt == "" {
		c.Chat.SystemPrompt = defaults.Chat.SystemPrompt
	}
	if c.Chat.Greeting == "" {
		c.Chat.Greeting = defaults.Chat.Greeting
	}

	if c.UI.Title == "" {
		c.UI.Title = defaults.UI.Title
	}
	if c.UI.Placeholder == "" {
		c.UI.Placeholder = defaults.UI.Placeholder
	}
	if c.UI.BusyText == "" {
		c.UI.BusyText = defaults.UI.BusyText
	}
	if c.UI.Capabilities == nil {
		c.UI.Capabilities = defaults.UI.Capabilities
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// Migrate normalizes spellings accepted for compatibility.
func (c *Config) Migrate() error {
	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	switch c.Backend.Kind {
	case "openai-compatible", "openai_compatible", "openaicompat":
		c.Backend.Kind = BackendOpenAI
	case "native":
		c.Backend.Kind = BackendOllama
	}

	c.Backend.URL = strings.TrimRight(strings.TrimSpace(c.Backend.URL), "/")
	// Bare host:port as accepted by OLLAMA_HOST
	if c.Backend.URL != "" && !strings.Contains(c.Backend.URL, "://") {
		c.Backend.URL = "http://" + c.Backend.URL
	}

	c.Backend.PromptFormat = strings.ToLower(strings.TrimSpace(c.Backend.PromptFormat))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "warning" {
		c.Log.Level = "warn"
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
// Unset variables leave the current values alone.
//
// Supported environment variables:
//   - COMPANION_BACKEND: backend.kind
//   - COMPANION_URL: backend.url
//   - COMPANION_MODEL: backend.model
//   - COMPANION_TEMPERATURE: backend.temperature
//   - COMPANION_NUM_THREAD: backend.num_thread
//   - COMPANION_PROMPT_FORMAT: backend.prompt_format
//   - COMPANION_HEALTH_TIMEOUT_SECS: backend.health_timeout_secs
//   - COMPANION_API_KEY: backend.api_key
//   - COMPANION_SYSTEM_PROMPT, COMPANION_GREETING: chat.*
//   - COMPANION_SHOW_SIDEBAR, COMPANION_NO_COLOR: ui.*
//   - COMPANION_LOG_LEVEL, COMPANION_LOG_FORMAT, COMPANION_LOG_FILE: log.*
func (c *Config) ApplyEnvOverrides() error {
	return env.Parse(c)
}

// =============================================================================
// COMMAND-LINE OVERRIDES
// =============================================================================

// Overrides holds values given on the command line. Nil or empty fields
// are not applied.
type Overrides struct {
	Backend      string
	URL          string
	Model        string
	Temperature  *float64
	NumThread    *int
	PromptFormat string
	LogLevel     string
	NoColor      bool
}

// ApplyOverrides applies command-line overrides and revalidates.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.Backend != "" {
		c.Backend.Kind = o.Backend
	}
	if o.URL != "" {
		c.Backend.URL = o.URL
	}
	if o.Model != "" {
		c.Backend.Model = o.Model
	}
	if o.Temperature != nil {
		c.Backend.Temperature = *o.Temperature
	}
	if o.NumThread != nil {
		c.Backend.NumThread = *o.NumThread
	}
	if o.PromptFormat != "" {
		c.Backend.PromptFormat = o.PromptFormat
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.NoColor {
		c.UI.NoColor = true
	}

	if err := c.Migrate(); err != nil {
		return err
	}
	return c.Validate()
}

// =============================================================================
// UTILITY METHODS
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.UI.Capabilities = slices.Clone(c.UI.Capabilities)
	return &clone
}

// String returns an indented JSON view of the config with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Backend.APIKey != "" {
		safe.Backend.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
