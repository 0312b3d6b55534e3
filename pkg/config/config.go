package config

import (
	"strings"
)

// Config holds all runtime configuration for the chat client.
type Config struct {
	// ServerSpec selects the tool server: a .py or .js script path, an
	// http(s) or sse:// endpoint, or a name from the servers file.
	ServerSpec  string
	ServersFile string
	MaxRounds   int
	Verbose     bool

	APIKey  string
	BaseURL string
	Model   string
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	return Config{
		MaxRounds: 20,
		Verbose:   false,
		Model:     "gpt-4o",
	}
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	cfg.ServerSpec = strings.TrimSpace(cfg.ServerSpec)
	cfg.ServersFile = strings.TrimSpace(cfg.ServersFile)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)

	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 1
	}
	return cfg
}
