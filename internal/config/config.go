package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/lamim/drillforge/pkg/models"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Practice PracticeConfig `toml:"practice"`
	Output   OutputConfig   `toml:"output"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Drill    DrillConfig    `toml:"drill"`
}

// ServerConfig describes the flashcard backend
type ServerConfig struct {
	BaseURL string `toml:"base_url" validate:"required,url"`
	// HTTP request timeout (default 30)
	TimeoutSeconds int `toml:"timeout_seconds" validate:"gte=0"`
	// Retries for idempotent GETs (default 2, -1 = none)
	MaxRetries         int    `toml:"max_retries" validate:"gte=-1,lte=10"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute" validate:"gte=0"`
	CSRFCookie         string `toml:"csrf_cookie" validate:"omitempty,printascii"`
	SessionCookie      string `toml:"session_cookie" validate:"omitempty,printascii"`
	// Fetch the remote configuration before starting
	LoadRemoteConfig bool   `toml:"load_remote_config"`
	ConfigPath       string `toml:"config_path" validate:"omitempty,startswith=/"`
}

// PracticeConfig selects the practice profile and the flashcard filter
type PracticeConfig struct {
	Profile    string                     `toml:"profile" validate:"required,max=100"`
	Language   string                     `toml:"language" validate:"omitempty,alpha,max=10"`
	Contexts   []int64                    `toml:"contexts"`
	Categories []int64                    `toml:"categories"`
	Types      []string                   `toml:"types"`
	Extra      map[string]string          `toml:"extra"`
	Profiles   map[string]ProfileSettings `toml:"profiles" validate:"dive"`
	// Sent as config.<key>=<value> on every request
	Overrides map[string]string `toml:"overrides"`
}

// ProfileSettings are local values for a practice profile.
// They are used when the backend does not provide the profile.
type ProfileSettings struct {
	SetLength             int  `toml:"set_length" validate:"gte=0"`
	QueueSizeMax          int  `toml:"fc_queue_size_max" validate:"gte=0"`
	QueueSizeMin          int  `toml:"fc_queue_size_min" validate:"gte=0"`
	SaveAnswerImmediately bool `toml:"save_answer_immediately"`
	CacheContext          bool `toml:"cache_context"`
}

// OutputConfig controls what is written to the session directory
type OutputConfig struct {
	Dir             string `toml:"dir"`
	WriteAnswers    bool   `toml:"write_answers"`    // JSONL answer log
	EnableJournal   bool   `toml:"enable_journal"`   // Journal for inspect/resume
	JournalInterval int    `toml:"journal_interval"` // Save journal every N answers (default: 5)
	ExportXLSX      bool   `toml:"export_xlsx"`      // Write summary.xlsx when the set completes
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr" validate:"omitempty,hostname_port"`
}

// DrillConfig controls how the CLI answers flashcards
type DrillConfig struct {
	Mode           string  `toml:"mode" validate:"omitempty,oneof=auto interactive"`
	PromptTemplate string  `toml:"prompt_template"`
	Accuracy       float64 `toml:"accuracy" validate:"gte=0,lte=1"`  // Auto mode: probability of a correct answer
	SkipRate       float64 `toml:"skip_rate" validate:"gte=0,lte=1"` // Auto mode: probability of "don't know"
	Seed           int64   `toml:"seed"`
}

// Secrets holds sensitive values loaded from the environment
type Secrets struct {
	SessionCookie string
}

const (
	// MaxSetLength is the maximum allowed set length in a local profile
	MaxSetLength = 1000
	// MaxQueueSize is the maximum allowed prefetch queue size
	MaxQueueSize = 100
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Practice.Profile == "" {
		return fmt.Errorf("practice.profile is required")
	}
	if strings.ContainsAny(c.Practice.Profile, ". ") {
		return fmt.Errorf("practice.profile must not contain dots or spaces (got %q)", c.Practice.Profile)
	}

	for name, p := range c.Practice.Profiles {
		if err := validateProfile(name, p); err != nil {
			return err
		}
	}

	if c.Output.JournalInterval < 1 {
		c.Output.JournalInterval = 5
	}

	if c.Drill.Accuracy+c.Drill.SkipRate > 1.0 {
		return fmt.Errorf("drill.accuracy + drill.skip_rate must not exceed 1.0 (got %.2f)", c.Drill.Accuracy+c.Drill.SkipRate)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}

	return nil
}

func validateProfile(name string, p ProfileSettings) error {
	if p.SetLength > MaxSetLength {
		return fmt.Errorf("practice.profiles.%s.set_length must not exceed %d (got %d)", name, MaxSetLength, p.SetLength)
	}
	if p.QueueSizeMax > MaxQueueSize {
		return fmt.Errorf("practice.profiles.%s.fc_queue_size_max must not exceed %d (got %d)", name, MaxQueueSize, p.QueueSizeMax)
	}
	if p.QueueSizeMin > p.QueueSizeMax && p.QueueSizeMax > 0 {
		fmt.Fprintf(os.Stderr, "WARNING: practice.profiles.%s.fc_queue_size_min (%d) exceeds fc_queue_size_max (%d)\n", name, p.QueueSizeMin, p.QueueSizeMax)
	}
	return nil
}

// Filter returns the practice filter overrides described by the config
func (p PracticeConfig) Filter() models.PracticeFilter {
	return models.PracticeFilter{
		Contexts:   p.Contexts,
		Categories: p.Categories,
		Types:      p.Types,
		Language:   p.Language,
		Extra:      p.Extra,
	}
}

// SettingsMap returns the local profiles shaped like the backend configuration,
// keyed proso_flashcards.practice.<profile>.<key>
func (p PracticeConfig) SettingsMap() map[string]any {
	profiles := make(map[string]any, len(p.Profiles))
	for name, s := range p.Profiles {
		values := map[string]any{
			"save_answer_immediately": s.SaveAnswerImmediately,
			"cache_context":           s.CacheContext,
		}
		// Zero means unset in TOML; leave the key out so the reader default applies
		if s.SetLength > 0 {
			values["set_length"] = s.SetLength
		}
		if s.QueueSizeMax > 0 {
			values["fc_queue_size_max"] = s.QueueSizeMax
		}
		if s.QueueSizeMin > 0 {
			values["fc_queue_size_min"] = s.QueueSizeMin
		}
		profiles[name] = values
	}
	return map[string]any{
		"proso_flashcards": map[string]any{
			"practice": profiles,
		},
	}
}

// LoadSecrets loads sensitive values from environment variables
func LoadSecrets() (*Secrets, error) {
	return &Secrets{
		SessionCookie: os.Getenv("DRILLFORGE_SESSION_COOKIE"),
	}, nil
}
