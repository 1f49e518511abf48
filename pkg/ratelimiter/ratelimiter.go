// Package ratelimiter throttles outbound calls to third-party APIs.
package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type RateLimiter interface {
	TakeToken() bool
	Wait(ctx context.Context) error
}

// TokenBucket refills at perSecond tokens per second up to burst tokens.
type TokenBucket struct {
	limiter *rate.Limiter
}

func NewTokenBucket(perSecond float64, burst int) *TokenBucket {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// NewEvery allows one call per interval.
func NewEvery(interval time.Duration, burst int) *TokenBucket {
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

// TakeToken reports whether a call may proceed right now.
func (tb *TokenBucket) TakeToken() bool {
	return tb.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}
