package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ebullient/obsidian-journal-reflect/internal/prompt"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Ollama  OllamaConfig      `yaml:"ollama"`
	Reflect ReflectConfig     `yaml:"reflect"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Reflect.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// OllamaConfig holds inference server settings. URL and Model may be left
// empty at startup; generation requests fail with a user-visible message
// until they are set.
type OllamaConfig struct {
	URL       string `yaml:"url"`
	Model     string `yaml:"model"`
	KeepAlive string `yaml:"keep_alive"`
}

// ReflectConfig holds generation settings: vault-wide link exclusion
// patterns (newline-delimited regexes) and the configured prompt slots.
type ReflectConfig struct {
	ExcludePatterns string                 `yaml:"exclude_patterns"`
	Prompts         map[string]prompt.Slot `yaml:"prompts"`
}

// Validate validates the reflect configuration. Invalid exclude patterns
// are not fatal here; they are dropped with a warning at compile time.
func (c *ReflectConfig) Validate() error {
	for key, slot := range c.Prompts {
		if key == "" {
			return fmt.Errorf("reflect: prompt slot with empty key (label %q)", slot.Label)
		}
	}
	return nil
}

// Slots returns the configured prompt slots merged over the built-in
// default. The default slot always exists and cannot be removed; user
// configuration for the same key overrides its fields.
func (c *ReflectConfig) Slots() map[string]prompt.Slot {
	out := map[string]prompt.Slot{
		prompt.DefaultKey: {
			Label:               "Reflection",
			CalloutHeading:      "[!assistant]+ Reflection",
			ExcludeCalloutTypes: "assistant",
		},
	}
	for key, slot := range c.Prompts {
		out[key] = slot
	}
	return out
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./reflect.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Ollama: OllamaConfig{
			URL:       "http://localhost:11434",
			KeepAlive: "5m",
		},
	}
}
