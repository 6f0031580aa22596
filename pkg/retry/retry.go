package retry

import (
	"context"
	"fmt"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxRetries int           // Total number of attempts (1..MaxRetries)
	Delay      time.Duration // Constant delay between attempts
}

// DefaultConfig returns sensible defaults for retries
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Delay:      1 * time.Second,
	}
}

// Do executes fn up to config.MaxRetries times with a constant delay between
// attempts. It returns nil as soon as an attempt succeeds. When the last
// attempt fails, its error is returned as-is: no extra wrapping, so callers
// keep the error's kind.
func Do(ctx context.Context, config Config, fn func() error) error {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		// No delay after the last attempt.
		if attempt == config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(config.Delay):
		}
	}

	return lastErr
}

// RunWithRetry retries fn with constant backoff and returns its value.
// The retry loop knows nothing about what fn does; fn may or may not be a
// subprocess run. It sleeps on the calling goroutine.
func RunWithRetry[T any](fn func() (T, error), maxRetries int, delay time.Duration) (T, error) {
	var value T
	err := Do(context.Background(), Config{MaxRetries: maxRetries, Delay: delay}, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	return value, err
}
