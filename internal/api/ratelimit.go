package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// endpointLimiter throttles requests per backend endpoint. Every endpoint
// gets its own bucket refilled at rpm requests per minute.
type endpointLimiter struct {
	rpm      int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newEndpointLimiter(rpm int) *endpointLimiter {
	return &endpointLimiter{rpm: rpm, limiters: make(map[string]*rate.Limiter)}
}

func (l *endpointLimiter) get(endpoint string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[endpoint]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if l.rpm > 0 {
		lim = rate.NewLimiter(rate.Limit(float64(l.rpm)/60.0), max(5, l.rpm/5))
	}
	l.limiters[endpoint] = lim
	return lim
}

// wait blocks until endpoint may be called and returns how long it waited
func (l *endpointLimiter) wait(ctx context.Context, endpoint string) (time.Duration, error) {
	start := time.Now()
	err := l.get(endpoint).Wait(ctx)
	return time.Since(start), err
}
