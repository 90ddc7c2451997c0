package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound requests per key, usually a remote host.
type Limiter interface {
	Allow(key string) bool
	// Wait blocks until a request for key is permitted or ctx is done.
	Wait(ctx context.Context, key string) error
}

// InMemoryLimiter keeps one token bucket per key.
type InMemoryLimiter struct {
	keys map[string]*rate.Limiter
	mu   sync.Mutex
	r    rate.Limit
	b    int
}

// NewInMemoryLimiter creates a limiter admitting requests per interval with the given burst.
// NewInMemoryLimiter(2, time.Second, 4) allows two requests a second, four in a row.
func NewInMemoryLimiter(requests int, per time.Duration, burst int) *InMemoryLimiter {
	r := rate.Inf
	if requests > 0 && per > 0 {
		r = rate.Every(per / time.Duration(requests))
	}
	if burst < 1 {
		burst = 1
	}
	return &InMemoryLimiter{
		keys: make(map[string]*rate.Limiter),
		r:    r,
		b:    burst,
	}
}

// NewPerSecond builds a limiter from a fractional rate; zero or less disables limiting.
func NewPerSecond(perSecond float64, burst int) *InMemoryLimiter {
	l := NewInMemoryLimiter(0, 0, burst)
	if perSecond > 0 {
		l.r = rate.Limit(perSecond)
	}
	return l
}

var _ Limiter = (*InMemoryLimiter)(nil)

func (l *InMemoryLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.keys[key]
	if !exists {
		limiter = rate.NewLimiter(l.r, l.b)
		l.keys[key] = limiter
	}
	return limiter
}

func (l *InMemoryLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

func (l *InMemoryLimiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}
