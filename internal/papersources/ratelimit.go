// Package papersources defines the adapter contract shared by every academic
// provider together with the rate-limited request executor the providers use.
package papersources

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum interval of 1/ratePerSecond between consecutive
// requests issued through it. It is a token bucket of size one: the first
// request passes immediately and every later one waits for the interval to
// elapse since the previous reservation.
//
// A Throttle belongs to one adapter instance. It is safe for concurrent use
// because rate.Limiter guards its state with a mutex. Two instances never
// coordinate with each other, so constructing several adapters for the same
// provider can exceed the provider's real limit.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a throttle allowing ratePerSecond requests per second.
// A non-positive rate disables throttling.
func NewThrottle(ratePerSecond float64) *Throttle {
	return &Throttle{
		limiter: rate.NewLimiter(limitFor(ratePerSecond), 1),
	}
}

// Wait blocks until the minimum interval has elapsed or the context is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Allow reports whether a request may be issued right now, consuming the slot if so.
func (t *Throttle) Allow() bool {
	return t.limiter.Allow()
}

// SetRate updates the allowed request rate.
func (t *Throttle) SetRate(ratePerSecond float64) {
	t.limiter.SetLimit(limitFor(ratePerSecond))
}

// Interval returns the enforced minimum gap between requests.
func (t *Throttle) Interval() time.Duration {
	limit := t.limiter.Limit()
	if limit == rate.Inf || limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(limit))
}

func limitFor(ratePerSecond float64) rate.Limit {
	if ratePerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(ratePerSecond)
}
