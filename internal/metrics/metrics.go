package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lamim/drillforge/pkg/models"
)

// Collector records client and practice metrics on its own registry.
// It implements practice.Recorder and api.Observer.
type Collector struct {
	logger   *slog.Logger
	registry *prometheus.Registry

	// API metrics
	apiRequestDuration      *prometheus.HistogramVec
	rateLimiterWaitDuration *prometheus.HistogramVec

	// Practice metrics
	fetchDuration    *prometheus.HistogramVec
	queueDepth       prometheus.Gauge
	flashcardsServed prometheus.Counter
	answers          *prometheus.CounterVec
	setAccuracy      *prometheus.GaugeVec
	setsCompleted    *prometheus.CounterVec
}

// NewCollector creates a collector with a fresh registry
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		logger:   logger,
		registry: reg,
		apiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drillforge_api_request_duration_seconds",
				Help:    "Backend request duration in seconds by endpoint",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"endpoint", "code"},
		),
		rateLimiterWaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drillforge_rate_limiter_wait_duration_seconds",
				Help:    "Rate limiter wait duration in seconds by endpoint",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
			},
			[]string{"endpoint"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drillforge_fetch_duration_seconds",
				Help:    "Duration of practice backend operations",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"op", "status"}, // op: "practice"/"answer"/"context"
		),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "drillforge_queue_depth",
			Help: "Flashcards waiting in the prefetch queue",
		}),
		flashcardsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "drillforge_flashcards_served_total",
			Help: "Flashcards handed out to the consumer",
		}),
		answers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drillforge_answers_total",
				Help: "Answers submitted to the backend",
			},
			[]string{"status"}, // "success"/"error"
		),
		setAccuracy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drillforge_set_accuracy",
				Help: "Share of correct answers in the last completed set",
			},
			[]string{"profile"},
		),
		setsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drillforge_sets_completed_total",
				Help: "Practice sets finished",
			},
			[]string{"profile"},
		),
	}
}

// Registry returns the registry the collector writes to
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveRequest records a backend request duration
func (c *Collector) ObserveRequest(endpoint string, statusCode int, d time.Duration) {
	code := strconv.Itoa(statusCode)
	if statusCode == 0 {
		code = "error"
	}
	c.apiRequestDuration.WithLabelValues(endpoint, code).Observe(d.Seconds())
}

// ObserveRateLimitWait records rate limiter wait time
func (c *Collector) ObserveRateLimitWait(endpoint string, d time.Duration) {
	c.rateLimiterWaitDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordFetch records the duration of a practice backend operation
func (c *Collector) RecordFetch(op string, d time.Duration, err error) {
	c.fetchDuration.WithLabelValues(op, status(err)).Observe(d.Seconds())
}

// RecordQueueDepth sets the current prefetch queue length
func (c *Collector) RecordQueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

// RecordFlashcardServed counts a delivered flashcard
func (c *Collector) RecordFlashcardServed() {
	c.flashcardsServed.Inc()
}

// RecordAnswersSubmitted counts answers by submission outcome
func (c *Collector) RecordAnswersSubmitted(n int, err error) {
	c.answers.WithLabelValues(status(err)).Add(float64(n))
	if err != nil {
		c.logger.Warn("Answers lost after failed submission", "count", n)
	}
}

// RecordSetCompleted records the outcome of a finished set
func (c *Collector) RecordSetCompleted(profile string, summary models.Summary) {
	c.setsCompleted.WithLabelValues(profile).Inc()
	if summary.Count > 0 {
		c.setAccuracy.WithLabelValues(profile).Set(float64(summary.Correct) / float64(summary.Count))
	}
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	c.logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
