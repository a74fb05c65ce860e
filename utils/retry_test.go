package utils

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond, Logger: NewLoggerTo(io.Discard, "error")}
	boom := errors.New("boom")

	calls := 0
	err := r.Do(context.Background(), "op", func() error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryRetriesUntilSuccess(t *testing.T) {
	r := &RetryConfig{BaseDelay: time.Millisecond}
	var retries []int

	r.OnRetry = func(attempt int, _ error) { retries = append(retries, attempt) }

	calls := 0
	err := r.Do(context.Background(), "op", func() error {
		calls++
		if calls < 4 {
			return Retryable(errors.New("429"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []int{1, 2, 3}, retries)
}

func TestRetryHonoursAttemptCap(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}

	calls := 0
	err := r.Do(context.Background(), "op", func() error {
		calls++
		return Retryable(errors.New("still limited"))
	})

	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 3, calls)
}

func TestRetryStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &RetryConfig{BaseDelay: time.Hour}

	calls := 0
	err := r.Do(ctx, "op", func() error {
		calls++
		cancel()
		return Retryable(errors.New("429"))
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestJitterRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		d := Jitter(100*time.Millisecond, 300*time.Millisecond)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
	assert.Equal(t, 5*time.Millisecond, Jitter(5*time.Millisecond, 5*time.Millisecond))
}
