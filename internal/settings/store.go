// Package settings is the key-path configuration reader used by the practice
// manager. Values live under an application namespace and are addressed by a
// dotted path, e.g. Get("proso_flashcards", "practice.common.set_length", 10).
package settings

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Store holds the loaded configuration plus local overrides.
// It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	v          *viper.Viper
	loaded     bool
	overridden map[string]string
	logger     *slog.Logger
}

// New creates an empty store. Until Load or Merge is called every lookup
// returns its default.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		v:          viper.New(),
		overridden: make(map[string]string),
		logger:     logger,
	}
}

// Load replaces the configuration with data, keyed by application name.
func (s *Store) Load(data map[string]any) error {
	v := viper.New()
	if err := v.MergeConfigMap(copyMap(data)); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	s.mu.Lock()
	s.v = v
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// LoadJSON replaces the configuration with a JSON object read from r.
func (s *Store) LoadJSON(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	s.mu.Lock()
	s.v = v
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Merge deep-merges data into the current configuration. Keys in data win.
func (s *Store) Merge(data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.MergeConfigMap(copyMap(data)); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	s.loaded = true
	return nil
}

// Loaded reports whether any configuration has been loaded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Get returns the value at app.key, or def when the path does not exist.
// An overridden value takes precedence over the loaded configuration.
func (s *Store) Get(app, key string, def any) any {
	full := app + "." + key

	s.mu.RLock()
	defer s.mu.RUnlock()

	if value, ok := s.overridden[full]; ok {
		s.logger.Debug("Config value overridden", "key", full, "value", value)
		return value
	}

	if !s.loaded {
		s.logger.Debug("Config not loaded, using default", "key", full)
		return def
	}

	if app == "" || key == "" {
		return def
	}

	value := s.v.Get(full)
	if value == nil {
		s.logger.Debug("Config value missing, using default", "key", full, "default", def)
		return def
	}
	return value
}

// GetInt is Get coerced to int. Values that cannot be coerced yield def.
func (s *Store) GetInt(app, key string, def int) int {
	n, err := cast.ToIntE(s.Get(app, key, def))
	if err != nil {
		s.logger.Warn("Config value is not an integer", "key", app+"."+key, "error", err)
		return def
	}
	return n
}

// GetBool is Get coerced to bool. Values that cannot be coerced yield def.
func (s *Store) GetBool(app, key string, def bool) bool {
	b, err := cast.ToBoolE(s.Get(app, key, def))
	if err != nil {
		s.logger.Warn("Config value is not a boolean", "key", app+"."+key, "error", err)
		return def
	}
	return b
}

// GetString is Get coerced to string.
func (s *Store) GetString(app, key, def string) string {
	str, err := cast.ToStringE(s.Get(app, key, def))
	if err != nil {
		return def
	}
	return str
}

// Override pins key (full path "app.key") to value. Overrides are also sent
// to the backend with every request.
func (s *Store) Override(key, value string) {
	s.mu.Lock()
	s.overridden[strings.TrimSpace(key)] = value
	s.mu.Unlock()
}

// RemoveOverridden drops a single override.
func (s *Store) RemoveOverridden(key string) {
	s.mu.Lock()
	delete(s.overridden, key)
	s.mu.Unlock()
}

// ResetOverridden drops all overrides.
func (s *Store) ResetOverridden() {
	s.mu.Lock()
	s.overridden = make(map[string]string)
	s.mu.Unlock()
}

// Overridden returns a copy of the current overrides.
func (s *Store) Overridden() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.overridden)
}

// copyMap deep-copies nested maps; viper lowercases keys in place and keeps
// references to nested maps it merges.
func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if nested, ok := v.(map[string]any); ok {
			dst[k] = copyMap(nested)
			continue
		}
		dst[k] = v
	}
	return dst
}
