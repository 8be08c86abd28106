// Package config loads the engine's YAML configuration, matching the
// teacher's config-file-plus-env-override idiom: secrets never live in
// config.yaml, only in environment variables read at the point of use.
package config

import (
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order: an explicit path
// wins, otherwise ./config.yaml, then /etc/worldctl/config.yaml.
func DefaultSearchPaths() []string {
	return []string{"config.yaml", "/etc/worldctl/config.yaml"}
}

// FindConfig locates a config file. If explicit is non-empty it must exist.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds the whole engine's bootstrap configuration.
type Config struct {
	Listen   ListenConfig   `yaml:"listen"`
	World    WorldConfig    `yaml:"world"`
	LLM      LLMConfig      `yaml:"llm"`
	Store    StoreConfig    `yaml:"store"`
	Episodic EpisodicConfig `yaml:"episodic"`
	LogLevel string         `yaml:"log_level"`
}

// ListenConfig is the HTTP/WebSocket bind address for internal/api.
type ListenConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// WorldConfig seeds the World Tick Loop's pacing knobs (spec §4.7/§6).
type WorldConfig struct {
	TimeSpeed float64 `yaml:"time_speed"`
}

// LLMConfig selects and configures the advisor chain (spec §6 outbound
// interface). APIKey is never read from YAML — only from ANTHROPIC_API_KEY,
// matching the teacher's core/llm/anthropic_provider.go secret-loading idiom.
type LLMConfig struct {
	Provider       string `yaml:"provider"` // "fallback" | "anthropic" | "multi"
	AnthropicModel string `yaml:"anthropic_model"`
}

// StoreConfig points at the sqlite persistence collaborator's database file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// EpisodicConfig configures the supabase-backed episodic memory collaborator.
// URL and Key are read from SUPABASE_URL / SUPABASE_KEY, never from YAML.
type EpisodicConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file, applies defaults, and
// validates the result. After Load returns successfully every field is
// usable without further nil/zero checks.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Default returns a fully-defaulted configuration suitable for local runs
// against the fallback advisor with no persistence configured.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = 8089
	}
	if c.World.TimeSpeed == 0 {
		c.World.TimeSpeed = 1.0
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "fallback"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./worldctl.db"
	}
}

// Validate checks internal consistency; it runs after applyDefaults, so it
// may assume defaults are populated.
func (c *Config) Validate() error {
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range (1-65535)", c.Listen.Port)
	}
	if c.World.TimeSpeed < 0.1 || c.World.TimeSpeed > 10.0 {
		return fmt.Errorf("world.time_speed %.2f out of range (0.1-10.0)", c.World.TimeSpeed)
	}
	switch c.LLM.Provider {
	case "fallback", "anthropic", "multi":
	default:
		return fmt.Errorf("llm.provider %q must be one of fallback|anthropic|multi", c.LLM.Provider)
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// ParseLogLevel maps a config string to a zapcore.Level.
func ParseLogLevel(s string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", s, err)
	}
	return lvl, nil
}

// AnthropicKeyFromEnv reads the Anthropic secret the way the teacher's
// provider constructor does: directly from the environment, never from a
// config file.
func AnthropicKeyFromEnv() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// SupabaseCredentialsFromEnv reads the episodic-memory collaborator's
// credentials from the environment, matching
// core/deeptreeecho/supabase_persistence.go's NewSupabasePersistence.
func SupabaseCredentialsFromEnv() (url, key string) {
	return os.Getenv("SUPABASE_URL"), os.Getenv("SUPABASE_KEY")
}
