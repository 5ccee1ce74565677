package ratelimit

import (
	"context"
	"sort"
	"time"

	"spoilerscraper/pkg/logger"
	"spoilerscraper/pkg/retry"
)

// Limit is the quota state of one endpoint operation
type Limit struct {
	Resource  string
	Limit     int
	Remaining int
	Reset     time.Time
}

// Touched reports whether any of the quota has been consumed in the current
// window. Untouched operations cannot be the reason for a rate-limit error.
func (l Limit) Touched() bool {
	return l.Limit != l.Remaining
}

// StatusSource reports the current quota of every operation
type StatusSource interface {
	RateLimitStatus(ctx context.Context) ([]Limit, error)
}

// Touched filters limits down to operations whose quota has been used
func Touched(limits []Limit) []Limit {
	var out []Limit
	for _, l := range limits {
		if l.Touched() {
			out = append(out, l)
		}
	}
	return out
}

// NextReset picks the touched operation whose reset is the soonest one still
// in the future and returns how long until it. ok is false when no such reset
// exists.
func NextReset(limits []Limit, now time.Time) (next Limit, wait time.Duration, ok bool) {
	pending := Touched(limits)
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Reset.Before(pending[j].Reset)
	})
	for _, l := range pending {
		if l.Reset.After(now) {
			return l, l.Reset.Sub(now), true
		}
	}
	return Limit{}, 0, false
}

// ResetBackoff is a retry.DelayFunc source that waits for the endpoint's next
// quota reset instead of guessing. When the status query fails or reports no
// future reset, the Fallback strategy decides.
type ResetBackoff struct {
	Source   StatusSource
	Clock    retry.Clock
	Padding  time.Duration
	Fallback retry.BackoffStrategy
	Logger   logger.Logger
	// OnWait, when set, is told which operation is being waited on
	OnWait func(resource string, wait time.Duration)
}

// Delay implements retry.DelayFunc
func (b *ResetBackoff) Delay(ctx context.Context, attempt int, cause error) (time.Duration, error) {
	log := b.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	clock := b.Clock
	if clock == nil {
		clock = retry.SystemClock{}
	}

	limits, err := b.Source.RateLimitStatus(ctx)
	if err != nil {
		log.WithError(err).Warn("Rate limit status unavailable, using fallback backoff")
		return b.fallback(attempt), nil
	}

	next, wait, ok := NextReset(limits, clock.Now())
	if !ok {
		log.DebugWithFields("No future reset reported, using fallback backoff", map[string]interface{}{
			"touched": len(Touched(limits)),
			"attempt": attempt,
		})
		return b.fallback(attempt), nil
	}

	wait += b.Padding
	logger.LogRateLimitWait(log, next.Resource, wait)
	if b.OnWait != nil {
		b.OnWait(next.Resource, wait)
	}
	return wait, nil
}

func (b *ResetBackoff) fallback(attempt int) time.Duration {
	if b.Fallback == nil {
		return retry.DefaultExponentialBackoff().NextDelay(attempt)
	}
	return b.Fallback.NextDelay(attempt)
}
