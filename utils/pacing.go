package utils

import (
	"context"
	"math/rand/v2"
	"time"
)

// SleepContext sleeps for d or until ctx is done. It returns false if ctx
// ended first.
func SleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Jitter returns a duration drawn uniformly from [lo, hi]. If hi <= lo, lo is
// returned.
func Jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}
