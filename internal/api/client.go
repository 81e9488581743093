package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lamim/drillforge/internal/config"
	"github.com/lamim/drillforge/pkg/models"
)

const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultMaxRetries is the default maximum number of retry attempts
	DefaultMaxRetries = 2
	// DefaultBaseRetryDelay is the base delay for exponential backoff
	DefaultBaseRetryDelay = 500 * time.Millisecond
	// RateLimitBackoffMultiplier is the multiplier for rate limit backoff (3^n)
	RateLimitBackoffMultiplier = 3

	// SessionCookieName is the cookie carrying the backend session
	SessionCookieName = "sessionid"
	// CSRFHeader carries the CSRF token on unsafe requests
	CSRFHeader = "X-CSRFToken"
	// RequestIDHeader tags every request for server-side correlation
	RequestIDHeader = "X-Request-ID"
)

const (
	PathPractice  = "/flashcards/practice/"
	PathAnswer    = "/flashcards/answer/"
	PathContext   = "/flashcards/context/"
	PathUserStats = "/flashcards/user_stats/"
)

// unprefixedOverrides are sent without the config. prefix
var unprefixedOverrides = map[string]bool{"user": true, "time": true, "debug": true}

// OverrideSource supplies overridden configuration keys
type OverrideSource interface {
	Overridden() map[string]string
}

// Observer receives request timings. *metrics.Collector implements it.
type Observer interface {
	ObserveRequest(endpoint string, statusCode int, d time.Duration)
	ObserveRateLimitWait(endpoint string, d time.Duration)
}

// Client talks to the flashcard backend REST endpoints
type Client struct {
	httpClient     *http.Client
	baseURL        *url.URL
	limiter        *endpointLimiter
	logger         *slog.Logger
	maxRetries     int
	baseRetryDelay time.Duration
	csrfCookie     string
	configPath     string
	validate       *validator.Validate

	overrides OverrideSource
	debugLog  *DebugLog
	observer  Observer
}

// NewClient creates a backend client with its own cookie jar
func NewClient(cfg config.ServerConfig, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if cfg.SessionCookie != "" {
		jar.SetCookies(base, []*http.Cookie{{Name: SessionCookieName, Value: cfg.SessionCookie, Path: "/"}})
	}

	timeout := DefaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	csrfCookie := cfg.CSRFCookie
	if csrfCookie == "" {
		csrfCookie = "csrftoken"
	}
	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = "/common/config/"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		baseURL:        base,
		limiter:        newEndpointLimiter(cfg.RateLimitPerMinute),
		logger:         logger,
		maxRetries:     maxRetries,
		baseRetryDelay: DefaultBaseRetryDelay,
		csrfCookie:     csrfCookie,
		configPath:     configPath,
		validate:       validator.New(),
		debugLog:       NewDebugLog(),
	}, nil
}

// SetOverrides makes every request carry the overridden configuration keys
func (c *Client) SetOverrides(src OverrideSource) {
	c.overrides = src
}

// SetObserver records request timings
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// DebugLog returns the collector fed from debug_log response fields
func (c *Client) DebugLog() *DebugLog {
	return c.debugLog
}

// Practice fetches the next batch of flashcards. With answers it posts them
// in the same request.
func (c *Client) Practice(ctx context.Context, filter models.PracticeFilter, answers []*models.Answer) ([]*models.Flashcard, error) {
	query := FilterQuery(filter)

	var resp PracticeResponse
	var err error
	if len(answers) == 0 {
		err = c.do(ctx, http.MethodGet, PathPractice, query, nil, &resp)
	} else {
		err = c.do(ctx, http.MethodPost, PathPractice, query, AnswersRequest{Answers: answers}, &resp)
	}
	if err != nil {
		return nil, err
	}
	if err := c.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("invalid practice response: %w", err)
	}
	return resp.Data.Flashcards, nil
}

// SaveAnswers submits a batch of answers
func (c *Client) SaveAnswers(ctx context.Context, answers []*models.Answer) error {
	return c.do(ctx, http.MethodPost, PathAnswer, nil, AnswersRequest{Answers: answers}, nil)
}

// Context fetches the context object with the given id
func (c *Client) Context(ctx context.Context, id int64) (*models.Context, error) {
	var resp ContextResponse
	path := PathContext + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("invalid context response: %w", err)
	}
	if resp.Data.ID == 0 {
		resp.Data.ID = id
	}
	return resp.Data, nil
}

// LoadConfig fetches the remote configuration keyed by application name
func (c *Client) LoadConfig(ctx context.Context) (map[string]any, error) {
	var resp ConfigResponse
	if err := c.do(ctx, http.MethodGet, c.configPath, nil, nil, &resp); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("invalid config response: %w", err)
	}
	return resp.Data, nil
}

// UserStats fetches statistics for the given filter groups via GET
func (c *Client) UserStats(ctx context.Context, groups map[string]map[string]any) (map[string]json.RawMessage, error) {
	filters, err := json.Marshal(groups)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filters: %w", err)
	}
	query := url.Values{"filters": {string(filters)}}

	var resp UserStatsResponse
	if err := c.do(ctx, http.MethodGet, PathUserStats, query, nil, &resp); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("invalid user stats response: %w", err)
	}
	return resp.Data, nil
}

// UserStatsPost fetches statistics for the given filter groups via POST
func (c *Client) UserStatsPost(ctx context.Context, groups map[string]map[string]any) (map[string]json.RawMessage, error) {
	var resp UserStatsResponse
	if err := c.do(ctx, http.MethodPost, PathUserStats, nil, groups, &resp); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("invalid user stats response: %w", err)
	}
	return resp.Data, nil
}

// FilterQuery encodes a practice filter as query parameters.
// Array values are sent as JSON arrays.
func FilterQuery(f models.PracticeFilter) url.Values {
	q := url.Values{}
	q.Set("contexts", jsonArray(f.Contexts))
	q.Set("categories", jsonArray(f.Categories))
	q.Set("types", jsonArray(f.Types))
	q.Set("language", f.Language)
	q.Set("avoid", jsonArray(f.Avoid))
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.WithoutContexts {
		q.Set("without_contexts", "1")
	}
	for k, v := range f.Extra {
		if !q.Has(k) {
			q.Set(k, v)
		}
	}
	return q
}

func jsonArray[T any](values []T) string {
	if values == nil {
		return "[]"
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// do runs one request. Only GETs are retried.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := endpointName(path)

	waited, err := c.limiter.wait(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}
	if c.observer != nil {
		c.observer.ObserveRateLimitWait(endpoint, waited)
	}

	retries := 0
	if method == http.MethodGet {
		retries = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.baseRetryDelay

			var apiErr *APIError
			if errors.As(lastErr, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
				backoff = time.Duration(math.Pow(RateLimitBackoffMultiplier, float64(attempt))) * c.baseRetryDelay
			}

			c.logger.Warn("Retrying backend request",
				"attempt", attempt,
				"max_retries", retries,
				"backoff", backoff,
				"path", path,
				"error", lastErr)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.doRequest(ctx, method, path, query, body, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}
	}

	if retries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.resolve(path, query)

	var reader io.Reader
	if body != nil {
		encoded, release, err := encodeBody(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		defer release()
		reader = encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		if token := c.csrfToken(); token != "" {
			req.Header.Set(CSRFHeader, token)
		} else {
			c.logger.Debug("No CSRF cookie for unsafe request", "path", path)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{
			Message:    fmt.Sprintf("request failed: %v", err),
			StatusCode: 0,
			Retryable:  true,
		}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if c.observer != nil {
		c.observer.ObserveRequest(endpointName(path), resp.StatusCode, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.captureDebugLog(respBody)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := isStatusCodeRetryable(resp.StatusCode)

		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return &APIError{
				Message:    errResp.Error,
				StatusCode: resp.StatusCode,
				Type:       errResp.ErrorType,
				Retryable:  retryable,
			}
		}

		return &APIError{
			Message:    fmt.Sprintf("request %s %s failed with status %d: %s", method, path, resp.StatusCode, truncate(respBody, 200)),
			StatusCode: resp.StatusCode,
			Retryable:  retryable,
		}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// resolve builds the request URL: base + path, query, then config overrides
func (c *Client) resolve(path string, query url.Values) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	raw := query.Encode()
	if overrides := c.overrideQuery(); overrides != "" {
		if raw != "" {
			raw += "&"
		}
		raw += overrides
	}
	u.RawQuery = raw
	return &u
}

func (c *Client) overrideQuery() string {
	if c.overrides == nil {
		return ""
	}
	overridden := c.overrides.Overridden()
	if len(overridden) == 0 {
		return ""
	}

	q := url.Values{}
	for k, v := range overridden {
		if unprefixedOverrides[k] {
			q.Set(k, v)
		} else {
			q.Set("config."+k, v)
		}
	}
	return q.Encode()
}

func (c *Client) csrfToken() string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseURL) {
		if cookie.Name == c.csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) captureDebugLog(body []byte) {
	if !bytes.Contains(body, []byte(`"debug_log"`)) {
		return
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return
	}
	c.debugLog.Extend(env.DebugLog)
}

// endpointName groups paths for rate limiting and metrics
func endpointName(path string) string {
	switch {
	case strings.HasPrefix(path, PathPractice):
		return "practice"
	case strings.HasPrefix(path, PathAnswer):
		return "answer"
	case strings.HasPrefix(path, PathContext):
		return "context"
	case strings.HasPrefix(path, PathUserStats):
		return "user_stats"
	default:
		return "config"
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}

func isStatusCodeRetryable(statusCode int) bool {
	// Retry on rate limits and server errors
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}

// APIError represents an error returned by the backend
type APIError struct {
	Message    string
	StatusCode int
	Type       string
	Retryable  bool
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %s", e.Message)
}
