package retry

import (
	"context"
	"fmt"
	"time"

	errs "spoilerscraper/pkg/errors"
	"spoilerscraper/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// DelayFunc computes the wait before retry number attempt from the error that
// caused it. A returned error aborts the retry loop.
type DelayFunc func(ctx context.Context, attempt int, err error) (time.Duration, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff is used when Delay is nil
	Backoff BackoffStrategy
	// Delay, when set, decides each wait instead of Backoff
	Delay DelayFunc
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each wait
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Clock supplies Sleep; SystemClock when nil
	Clock Clock
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig retries rate-limit errors forever with exponential backoff.
// Every other error is returned to the caller unchanged.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 0,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     errs.IsRateLimit,
		Context:     context.Background(),
		Clock:       SystemClock{},
		Logger:      logger.GetLogger(),
	}
}

func (cfg *Config) withDefaults() *Config {
	c := *cfg
	if c.Backoff == nil {
		c.Backoff = DefaultExponentialBackoff()
	}
	if c.RetryIf == nil {
		c.RetryIf = errs.IsRateLimit
	}
	if c.Context == nil {
		c.Context = context.Background()
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = logger.NewNopLogger()
	}
	return &c
}

func (cfg *Config) nextDelay(attempt int, err error) (time.Duration, error) {
	if cfg.Delay != nil {
		return cfg.Delay(cfg.Context, attempt, err)
	}
	return cfg.Backoff.NextDelay(attempt), nil
}

// Do executes an operation with retry logic
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.withDefaults()

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if !cfg.RetryIf(err) {
			return err
		}

		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt,
				"last_error": err.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
		}

		delay, delayErr := cfg.nextDelay(attempt, err)
		if delayErr != nil {
			return fmt.Errorf("failed to compute retry delay: %w", delayErr)
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":  attempt,
			"error":    err.Error(),
			"delay_ms": delay.Milliseconds(),
		})

		if err := cfg.Clock.Sleep(cfg.Context, delay); err != nil {
			cfg.Logger.WarnWithFields("retry cancelled", map[string]interface{}{
				"attempt": attempt,
				"reason":  err.Error(),
			})
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}
