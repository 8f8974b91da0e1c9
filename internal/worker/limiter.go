package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ppiankov/foodguard/internal/model"
)

// Catalog endpoints have separate request budgets
const (
	BucketProduct = "product"
	BucketSearch  = "search"
)

// Limiter paces requests per named bucket
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter whose buckets default to requestsPerSecond.
// A non-positive rate disables pacing.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// NewCatalogLimiter creates a limiter with the product and search budgets from cfg
func NewCatalogLimiter(cfg model.RateLimitConfig) *Limiter {
	l := NewLimiter(cfg.ProductRPS, cfg.BurstSize)
	l.SetRate(BucketSearch, cfg.SearchRPS, cfg.BurstSize)
	return l
}

// Wait blocks until the bucket allows one request or ctx is done
func (l *Limiter) Wait(ctx context.Context, bucket string) error {
	return l.getLimiter(bucket).Wait(ctx)
}

func (l *Limiter) getLimiter(bucket string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[bucket]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[bucket]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[bucket] = limiter

	return limiter
}

// SetRate overrides the budget of one bucket
func (l *Limiter) SetRate(bucket string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	l.limiters[bucket] = rate.NewLimiter(limit, burst)
}
