package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads and parses the configuration file and environment variables
func Load(configPath string) (*Config, *Secrets, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}

	// Load secrets from environment
	secrets, err := LoadSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if secrets.SessionCookie != "" {
		cfg.Server.SessionCookie = secrets.SessionCookie
	}

	return cfg, secrets, nil
}

// Parse decodes TOML, applies defaults and environment overrides, and validates
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if baseURL := os.Getenv("DRILLFORGE_BASE_URL"); baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.ValidateInputs(); err != nil {
		return nil, fmt.Errorf("input validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Server.TimeoutSeconds == 0 {
		cfg.Server.TimeoutSeconds = 30
	}
	// NOTE: In TOML, we can't distinguish 0 from unset, so:
	// - Unset (0) → defaults to 2
	// - Explicitly set to -1 → no retries
	if cfg.Server.MaxRetries == 0 {
		cfg.Server.MaxRetries = 2
	}
	if cfg.Server.RateLimitPerMinute == 0 {
		cfg.Server.RateLimitPerMinute = 120
	}
	if cfg.Server.CSRFCookie == "" {
		cfg.Server.CSRFCookie = "csrftoken"
	}
	if cfg.Server.ConfigPath == "" {
		cfg.Server.ConfigPath = "/common/config/"
	}

	if cfg.Practice.Profile == "" {
		cfg.Practice.Profile = "common"
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.Output.JournalInterval == 0 {
		cfg.Output.JournalInterval = 5
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = "localhost:2112"
	}

	if cfg.Drill.Mode == "" {
		cfg.Drill.Mode = "auto"
	}
	if cfg.Drill.PromptTemplate == "" {
		cfg.Drill.PromptTemplate = GetDefaultPromptTemplate()
	}
	if cfg.Drill.Accuracy == 0 && cfg.Drill.SkipRate == 0 {
		cfg.Drill.Accuracy = 0.7
		cfg.Drill.SkipRate = 0.1
	}
}
