// Package ratelimit provides per-client request rate limiting for the
// generation endpoints. It uses a fixed one-minute window and supports
// both in-memory (single instance) and Redis (distributed) backends.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting backends.
// Returns whether the request is allowed, remaining quota, and reset time.
type Limiter interface {
	Allow(ctx context.Context, clientID string, limit int) (allowed bool, remaining int, resetAt time.Time, err error)
}

// InMemoryLimiter implements rate limiting with in-memory fixed windows.
// Suitable for single-instance deployments.
type InMemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewInMemoryLimiter() *InMemoryLimiter {
	return &InMemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// NewInMemoryLimiterWithClock is NewInMemoryLimiter with an injected
// clock for tests.
func NewInMemoryLimiterWithClock(now func() time.Time) *InMemoryLimiter {
	return &InMemoryLimiter{
		windows: make(map[string]*window),
		now:     now,
	}
}

func (l *InMemoryLimiter) Allow(ctx context.Context, clientID string, limit int) (bool, int, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[clientID]
	if !ok || now.After(w.resetAt) {
		w = &window{
			count:   0,
			resetAt: now.Add(time.Minute),
		}
		l.windows[clientID] = w
	}

	if w.count >= limit {
		return false, 0, w.resetAt, nil
	}

	w.count++
	remaining := limit - w.count

	return true, remaining, w.resetAt, nil
}
