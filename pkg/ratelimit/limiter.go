package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests on the client side
type Limiter interface {
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// WindowLimiter allows requests requests per window, all of which may be
// spent in a single burst, refilling evenly across the window. This mirrors
// the endpoint's own fixed-window quota.
type WindowLimiter struct {
	limiter *rate.Limiter
}

// NewWindowLimiter creates a limiter for requests per window. A non-positive
// value for either disables pacing.
func NewWindowLimiter(requests int, window time.Duration) *WindowLimiter {
	if requests <= 0 || window <= 0 {
		return &WindowLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &WindowLimiter{limiter: rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)}
}

func (w *WindowLimiter) Wait(ctx context.Context) error {
	return w.limiter.Wait(ctx)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
