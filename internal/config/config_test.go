package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		Server: ServerConfig{BaseURL: "http://localhost:8000"},
		Practice: PracticeConfig{
			Profile: "common",
			Profiles: map[string]ProfileSettings{
				"common": {SetLength: 10, QueueSizeMax: 3, QueueSizeMin: 1},
			},
		},
	}
	applyDefaults(&cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Server.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "profile with dot",
			mutate:  func(c *Config) { c.Practice.Profile = "a.b" },
			wantErr: true,
		},
		{
			name: "set length too large",
			mutate: func(c *Config) {
				c.Practice.Profiles["common"] = ProfileSettings{SetLength: MaxSetLength + 1}
			},
			wantErr: true,
		},
		{
			name: "queue too large",
			mutate: func(c *Config) {
				c.Practice.Profiles["common"] = ProfileSettings{QueueSizeMax: MaxQueueSize + 1}
			},
			wantErr: true,
		},
		{
			name: "accuracy plus skip rate above one",
			mutate: func(c *Config) {
				c.Drill.Accuracy = 0.8
				c.Drill.SkipRate = 0.3
			},
			wantErr: true,
		},
		{
			name: "metrics enabled without addr",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Addr = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`[server]
base_url = "http://localhost:8000"
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Server.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.Server.TimeoutSeconds)
	}
	if cfg.Server.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.Server.MaxRetries)
	}
	if cfg.Server.CSRFCookie != "csrftoken" {
		t.Errorf("CSRFCookie = %q, want csrftoken", cfg.Server.CSRFCookie)
	}
	if cfg.Server.ConfigPath != "/common/config/" {
		t.Errorf("ConfigPath = %q, want /common/config/", cfg.Server.ConfigPath)
	}
	if cfg.Practice.Profile != "common" {
		t.Errorf("Profile = %q, want common", cfg.Practice.Profile)
	}
	if cfg.Drill.Mode != "auto" {
		t.Errorf("Drill.Mode = %q, want auto", cfg.Drill.Mode)
	}
	if cfg.Drill.PromptTemplate == "" {
		t.Error("Drill.PromptTemplate should default to the built-in template")
	}
}

func TestParse_ExampleConfig(t *testing.T) {
	cfg, err := Parse([]byte(GetExampleConfig()))
	if err != nil {
		t.Fatalf("example config does not parse: %v", err)
	}
	p, ok := cfg.Practice.Profiles["common"]
	if !ok {
		t.Fatal("example config should define the common profile")
	}
	if p.SetLength != 10 || p.QueueSizeMax != 3 || p.QueueSizeMin != 1 {
		t.Errorf("unexpected profile settings: %+v", p)
	}
}

func TestParse_BaseURLFromEnv(t *testing.T) {
	t.Setenv("DRILLFORGE_BASE_URL", "https://drill.example.com")

	cfg, err := Parse([]byte(`[practice]
profile = "common"
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Server.BaseURL != "https://drill.example.com" {
		t.Errorf("BaseURL = %q, want env value", cfg.Server.BaseURL)
	}
}

func TestLoad_SessionCookieFromEnv(t *testing.T) {
	t.Setenv("DRILLFORGE_SESSION_COOKIE", "abc123")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(GetExampleConfig()), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, secrets, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if secrets.SessionCookie != "abc123" {
		t.Errorf("secrets.SessionCookie = %q, want abc123", secrets.SessionCookie)
	}
	if cfg.Server.SessionCookie != "abc123" {
		t.Errorf("cfg.Server.SessionCookie = %q, want abc123", cfg.Server.SessionCookie)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v, want read failure", err)
	}
}

func TestSettingsMap(t *testing.T) {
	p := PracticeConfig{
		Profiles: map[string]ProfileSettings{
			"quick": {SetLength: 5, CacheContext: true},
		},
	}

	m := p.SettingsMap()
	practice := m["proso_flashcards"].(map[string]any)["practice"].(map[string]any)
	quick := practice["quick"].(map[string]any)

	if quick["set_length"] != 5 {
		t.Errorf("set_length = %v, want 5", quick["set_length"])
	}
	if quick["cache_context"] != true {
		t.Errorf("cache_context = %v, want true", quick["cache_context"])
	}
	if _, ok := quick["fc_queue_size_max"]; ok {
		t.Error("unset fc_queue_size_max should be omitted")
	}
}

func TestPracticeConfig_Filter(t *testing.T) {
	p := PracticeConfig{
		Language:   "cs",
		Categories: []int64{15},
		Types:      []string{"noun"},
	}
	f := p.Filter()
	if f.Language != "cs" || len(f.Categories) != 1 || f.Types[0] != "noun" {
		t.Errorf("unexpected filter: %+v", f)
	}
	if f.Contexts != nil {
		t.Errorf("unset contexts should stay nil so defaults apply, got %v", f.Contexts)
	}
}
