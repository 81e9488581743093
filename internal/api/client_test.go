package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamim/drillforge/internal/config"
	"github.com/lamim/drillforge/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.ServerConfig{
		BaseURL:            server.URL,
		RateLimitPerMinute: 6000,
		MaxRetries:         2,
	}, testLogger())
	require.NoError(t, err)
	client.baseRetryDelay = time.Millisecond
	return client
}

type staticOverrides map[string]string

func (s staticOverrides) Overridden() map[string]string { return s }

func TestPractice_GetEncodesFilter(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathPractice, r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, `["cosi","kdesi"]`, q.Get("types"))
		assert.Equal(t, `[71,72,33]`, q.Get("contexts"))
		assert.Equal(t, `[15,16]`, q.Get("categories"))
		assert.Equal(t, `[1,2]`, q.Get("avoid"))
		assert.Equal(t, "xx", q.Get("language"))
		assert.Equal(t, "3", q.Get("limit"))
		assert.Equal(t, "1", q.Get("without_contexts"))
		assert.Equal(t, "hard", q.Get("difficulty"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		_, _ = w.Write([]byte(`{"data":{"flashcards":[{"id":5,"context_id":9},{"id":6,"context_id":9}]}}`))
	}))

	filter := models.PracticeFilter{
		Types:           []string{"cosi", "kdesi"},
		Contexts:        []int64{71, 72, 33},
		Categories:      []int64{15, 16},
		Language:        "xx",
		Limit:           3,
		Avoid:           []int64{1, 2},
		WithoutContexts: true,
		Extra:           map[string]string{"difficulty": "hard"},
	}

	fcs, err := client.Practice(context.Background(), filter, nil)
	require.NoError(t, err)
	require.Len(t, fcs, 2)
	assert.Equal(t, int64(5), fcs[0].ID)
	assert.Equal(t, int64(9), fcs[1].ContextID)
}

func TestPractice_PostCarriesAnswersAndCSRF(t *testing.T) {
	var gotBody AnswersRequest
	var gotToken string

	mux := http.NewServeMux()
	mux.HandleFunc(PathContext, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok123", Path: "/"})
		_, _ = w.Write([]byte(`{"data":{"id":1}}`))
	})
	mux.HandleFunc(PathPractice, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotToken = r.Header.Get(CSRFHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"data":{"flashcards":[]}}`))
	})
	client := newTestClient(t, mux)

	// Any response can set the CSRF cookie
	_, err := client.Context(context.Background(), 1)
	require.NoError(t, err)

	answered := int64(3)
	fcs, err := client.Practice(context.Background(), models.DefaultPracticeFilter(), []*models.Answer{
		{FlashcardID: 3, FlashcardAnsweredID: &answered, ResponseTime: 100},
	})
	require.NoError(t, err)
	assert.Empty(t, fcs)
	assert.Equal(t, "tok123", gotToken)
	require.Len(t, gotBody.Answers, 1)
	assert.True(t, gotBody.Answers[0].IsCorrect())
}

func TestPractice_RejectsMissingFlashcards(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))

	_, err := client.Practice(context.Background(), models.DefaultPracticeFilter(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid practice response")
}

func TestSaveAnswers_NotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, PathAnswer, r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := client.SaveAnswers(context.Background(), []*models.Answer{{FlashcardID: 1}})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestContext_RetriesGetOn500(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom","error_type":"server"}`))
			return
		}
		assert.Equal(t, PathContext+"42", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"id":42,"name":"Europe","content":"..."}}`))
	}))

	c, err := client.Context(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.ID)
	assert.Equal(t, int32(3), calls.Load())

	var name string
	require.NoError(t, c.Field("name", &name))
	assert.Equal(t, "Europe", name)
}

func TestClient_ErrorBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad filter","error_type":"invalid_filter"}`))
	}))

	_, err := client.Practice(context.Background(), models.DefaultPracticeFilter(), nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad filter", apiErr.Message)
	assert.Equal(t, "invalid_filter", apiErr.Type)
	assert.False(t, apiErr.Retryable)
}

func TestClient_AppendsOverrides(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "5", q.Get("config.proso_flashcards.practice.common.set_length"))
		assert.Equal(t, "1", q.Get("debug"))
		assert.Empty(t, q.Get("config.debug"))
		_, _ = w.Write([]byte(`{"data":{"proso_flashcards":{}}}`))
	}))
	client.SetOverrides(staticOverrides{
		"proso_flashcards.practice.common.set_length": "5",
		"debug": "1",
	})

	data, err := client.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Contains(t, data, "proso_flashcards")
}

func TestClient_CapturesDebugLog(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"flashcards":[]},"debug_log":[{"message":"a"},{"message":"b"}]}`))
	}))

	var notified int
	client.DebugLog().AddListener(func(events []json.RawMessage) {
		notified += len(events)
	})

	_, err := client.Practice(context.Background(), models.DefaultPracticeFilter(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, notified)
	events := client.DebugLog().Events()
	require.Len(t, events, 2)
	assert.JSONEq(t, `{"message":"a"}`, string(events[0]))
}

func TestUserStats_GetAndPost(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathUserStats, r.URL.Path)
		var groups map[string]map[string]any
		if r.Method == http.MethodGet {
			require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("filters")), &groups))
		} else {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&groups))
		}
		assert.Contains(t, groups, "europe")
		_, _ = w.Write([]byte(`{"data":{"europe":{"number_of_flashcards":10}}}`))
	}))

	groups := map[string]map[string]any{"europe": {"categories": []int64{1}}}

	stats, err := client.UserStats(context.Background(), groups)
	require.NoError(t, err)
	assert.JSONEq(t, `{"number_of_flashcards":10}`, string(stats["europe"]))

	stats, err = client.UserStatsPost(context.Background(), groups)
	require.NoError(t, err)
	assert.Contains(t, stats, "europe")
}

func TestFilterQuery_Defaults(t *testing.T) {
	q := FilterQuery(models.DefaultPracticeFilter())

	assert.Equal(t, "[]", q.Get("contexts"))
	assert.Equal(t, "[]", q.Get("categories"))
	assert.Equal(t, "[]", q.Get("types"))
	assert.Equal(t, "[]", q.Get("avoid"))
	assert.Equal(t, models.DefaultLanguage, q.Get("language"))
	assert.False(t, q.Has("limit"))
	assert.False(t, q.Has("without_contexts"))
}

func TestClient_SessionCookie(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(SessionCookieName); err == nil {
			got = c.Value
		}
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	client, err := NewClient(config.ServerConfig{BaseURL: server.URL, SessionCookie: "s3ss"}, testLogger())
	require.NoError(t, err)

	_, err = client.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3ss", got)
}

func TestEndpointLimiter(t *testing.T) {
	l := newEndpointLimiter(60)
	assert.Same(t, l.get("practice"), l.get("practice"))
	assert.NotSame(t, l.get("practice"), l.get("answer"))
	assert.Equal(t, 5, l.get("practice").Burst())

	// The burst passes without waiting
	for i := 0; i < 5; i++ {
		waited, err := l.wait(context.Background(), "context")
		require.NoError(t, err)
		assert.Less(t, waited, 100*time.Millisecond)
	}

	// The next one would wait about a second; a cancelled context fails it
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.wait(ctx, "context")
	require.Error(t, err)

	unlimited := newEndpointLimiter(0)
	for i := 0; i < 100; i++ {
		_, err := unlimited.wait(context.Background(), "practice")
		require.NoError(t, err)
	}
}
