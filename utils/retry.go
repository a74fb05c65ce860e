package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// retryableError marks an error that RetryConfig.Do may retry.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable wraps err so that RetryConfig.Do retries it. Errors not wrapped
// this way end the loop immediately.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	// MaxAttempts caps the number of calls; 0 means no cap.
	MaxAttempts int
	BaseDelay   time.Duration
	// Multiplier scales the delay after each failed attempt. Values below 1
	// are treated as 1 (a fixed cooldown).
	Multiplier float64
	Logger     *Logger
	// OnRetry, when set, is called before each sleep.
	OnRetry func(attempt int, err error)
}

// Do executes fn until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx is done.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	var lastErr error
	delay := r.BaseDelay
	mult := r.Multiplier
	if mult < 1 {
		mult = 1
	}

	for attempt := 1; r.MaxAttempts <= 0 || attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if r.MaxAttempts > 0 && attempt == r.MaxAttempts {
			break
		}

		if r.OnRetry != nil {
			r.OnRetry(attempt, lastErr)
		}
		if r.Logger != nil {
			r.Logger.Warn("[retry] %s failed (attempt %d): %v, retrying in %v",
				operationName, attempt, lastErr, delay)
		}
		if !SleepContext(ctx, delay) {
			return fmt.Errorf("%s: %w", operationName, ctx.Err())
		}
		delay = time.Duration(float64(delay) * mult)
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, r.MaxAttempts, lastErr)
}
