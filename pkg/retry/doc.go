// Package retry provides the retry-with-backoff combinator used around the
// search endpoint.
//
// The combinator is parameterized by a Clock so tests can drive it with a
// FakeClock instead of sleeping. A Config either uses a BackoffStrategy or a
// DelayFunc that inspects the failing error; the collector plugs in a
// DelayFunc that waits for the endpoint's rate-limit reset.
//
//	page, err := retry.DoWithResult(func() ([]twitter.Status, error) {
//		return client.Search(ctx, params)
//	}, &retry.Config{
//		RetryIf: errors.IsRateLimit,
//		Delay:   resetBackoff.Delay,
//		Context: ctx,
//	})
package retry
