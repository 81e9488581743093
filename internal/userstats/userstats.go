// Package userstats collects named filter groups and asks the backend for the
// user's practice statistics in each of them.
package userstats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"
)

// Fetcher is implemented by *api.Client
type Fetcher interface {
	UserStats(ctx context.Context, groups map[string]map[string]any) (map[string]json.RawMessage, error)
	UserStatsPost(ctx context.Context, groups map[string]map[string]any) (map[string]json.RawMessage, error)
}

// GroupStats are the counters the backend reports for one filter group
type GroupStats struct {
	NumberOfFlashcards          int `json:"number_of_flashcards"`
	NumberOfPracticedFlashcards int `json:"number_of_practiced_flashcards"`
	NumberOfMasteredFlashcards  int `json:"number_of_mastered_flashcards"`
	NumberOfAnswers             int `json:"number_of_answers"`
	NumberOfCorrectAnswers      int `json:"number_of_correct_answers"`

	Raw json.RawMessage `json:"-"`
}

// Accuracy returns the share of correct answers, or 0 without answers
func (s GroupStats) Accuracy() float64 {
	if s.NumberOfAnswers == 0 {
		return 0
	}
	return float64(s.NumberOfCorrectAnswers) / float64(s.NumberOfAnswers)
}

// Client keeps the filter groups between calls
type Client struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu     sync.Mutex
	groups map[string]map[string]any
}

// New creates a client with no groups
func New(fetcher Fetcher, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		fetcher: fetcher,
		logger:  logger,
		groups:  make(map[string]map[string]any),
	}
}

// AddGroup sets the filter of group id. An empty language is dropped.
func (c *Client) AddGroup(id string, filter map[string]any) {
	group := maps.Clone(filter)
	if group == nil {
		group = make(map[string]any)
	}
	if lang, ok := group["language"]; ok && isEmpty(lang) {
		delete(group, "language")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[id] = group
}

// AddGroupParams sets group id from filter fields. The language is sent only
// when non-empty.
func (c *Client) AddGroupParams(id string, categories, contexts []int64, types []string, language string) {
	group := map[string]any{
		"categories": orEmpty(categories),
		"contexts":   orEmpty(contexts),
		"types":      orEmpty(types),
	}
	if language != "" {
		group["language"] = language
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[id] = group
}

// Clean removes every group
func (c *Client) Clean() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = make(map[string]map[string]any)
}

// Groups returns a copy of the configured groups
func (c *Client) Groups() map[string]map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// GroupIDs returns the group ids in sorted order
func (c *Client) GroupIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.groups))
	for id := range c.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stats asks for the statistics of every group with the filters in the query
func (c *Client) Stats(ctx context.Context) (map[string]GroupStats, error) {
	c.mu.Lock()
	groups := c.snapshotLocked()
	c.mu.Unlock()

	raw, err := c.fetcher.UserStats(ctx, groups)
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	return decode(raw)
}

// StatsPost is Stats with the filters sent as the request body
func (c *Client) StatsPost(ctx context.Context) (map[string]GroupStats, error) {
	c.mu.Lock()
	groups := c.snapshotLocked()
	c.mu.Unlock()

	raw, err := c.fetcher.UserStatsPost(ctx, groups)
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	return decode(raw)
}

func (c *Client) snapshotLocked() map[string]map[string]any {
	out := make(map[string]map[string]any, len(c.groups))
	for id, g := range c.groups {
		out[id] = maps.Clone(g)
	}
	return out
}

func decode(raw map[string]json.RawMessage) (map[string]GroupStats, error) {
	out := make(map[string]GroupStats, len(raw))
	for id, data := range raw {
		var s GroupStats
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode stats of group %q: %w", id, err)
		}
		s.Raw = data
		out[id] = s
	}
	return out, nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	default:
		return false
	}
}

func orEmpty[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
