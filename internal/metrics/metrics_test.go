package metrics

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamim/drillforge/pkg/models"
)

func newTestCollector() *Collector {
	return NewCollector(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCollector_Answers(t *testing.T) {
	c := newTestCollector()

	c.RecordAnswersSubmitted(3, nil)
	c.RecordAnswersSubmitted(2, errors.New("boom"))
	c.RecordAnswersSubmitted(1, nil)

	assert.Equal(t, 4.0, testutil.ToFloat64(c.answers.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.answers.WithLabelValues("error")))
}

func TestCollector_QueueAndServed(t *testing.T) {
	c := newTestCollector()

	c.RecordQueueDepth(5)
	c.RecordQueueDepth(2)
	c.RecordFlashcardServed()
	c.RecordFlashcardServed()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.queueDepth))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.flashcardsServed))
}

func TestCollector_SetCompleted(t *testing.T) {
	c := newTestCollector()

	c.RecordSetCompleted("common", models.Summary{Count: 4, Correct: 3})
	c.RecordSetCompleted("empty", models.Summary{})

	assert.Equal(t, 0.75, testutil.ToFloat64(c.setAccuracy.WithLabelValues("common")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.setsCompleted.WithLabelValues("common")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.setsCompleted.WithLabelValues("empty")))
	// No answers, no accuracy sample
	assert.Equal(t, 1, testutil.CollectAndCount(c.setAccuracy))
}

func TestCollector_Histograms(t *testing.T) {
	c := newTestCollector()

	c.ObserveRequest("practice", 200, 20*time.Millisecond)
	c.ObserveRequest("practice", 0, time.Second)
	c.ObserveRateLimitWait("answer", time.Millisecond)
	c.RecordFetch("context", 10*time.Millisecond, nil)

	assert.Equal(t, 2, testutil.CollectAndCount(c.apiRequestDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(c.rateLimiterWaitDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(c.fetchDuration))
}

func TestCollector_Handler(t *testing.T) {
	c := newTestCollector()
	c.RecordAnswersSubmitted(1, nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `drillforge_answers_total{status="success"} 1`), body)
}

func TestCollectors_AreIndependent(t *testing.T) {
	a := newTestCollector()
	b := newTestCollector()

	a.RecordFlashcardServed()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.flashcardsServed))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.flashcardsServed))
}
