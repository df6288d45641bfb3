package reddit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket for outbound Reddit API requests.
// Reddit allows 60 requests per minute per OAuth client; staying under that
// avoids 429 responses under bursty dashboard use.
type RateLimiter struct {
	mu sync.Mutex

	tokens         float64
	maxTokens      float64
	refillRate     float64 // tokens per second
	lastRefillTime time.Time
	minInterval    time.Duration
	lastRequest    time.Time
}

// RateLimiterConfig holds configuration for the rate limiter
type RateLimiterConfig struct {
	MaxTokens   float64       // Max burst capacity
	RefillRate  float64       // Tokens per second
	MinInterval time.Duration // Minimum time between requests
}

// DefaultRateLimiterConfig returns defaults tuned to Reddit's 60/min budget
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		MaxTokens:   10,
		RefillRate:  1,
		MinInterval: 100 * time.Millisecond,
	}
}

// NewRateLimiter creates a new rate limiter with the given config
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		tokens:         config.MaxTokens,
		maxTokens:      config.MaxTokens,
		refillRate:     config.RefillRate,
		lastRefillTime: now,
		minInterval:    config.MinInterval,
	}
}

// Wait blocks until a token is available or the context is done
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait := r.reserve()
		if wait == 0 {
			return nil
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reserve takes a token if available, otherwise returns how long to wait
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	// Refill tokens based on elapsed time
	elapsed := now.Sub(r.lastRefillTime).Seconds()
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefillTime = now

	// Enforce minimum spacing between requests
	if sinceLast := now.Sub(r.lastRequest); sinceLast < r.minInterval {
		return r.minInterval - sinceLast
	}

	if r.tokens < 1 {
		// Time until one token refills
		return time.Duration((1 - r.tokens) / r.refillRate * float64(time.Second))
	}

	r.tokens--
	r.lastRequest = now
	return 0
}
