// Package retry provides a small retry-with-backoff combinator shared by
// the profile resolver and the negotiation poller.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// BackoffFunc returns the delay to sleep after a failed attempt.
// Attempts are numbered from 1.
type BackoffFunc func(attempt int) time.Duration

// Linear grows the delay by step per attempt: step, 2*step, 3*step...
func Linear(step time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Exponential doubles the delay per attempt starting at base, capped at max.
func Exponential(base, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= max {
				return max
			}
		}
		return d
	}
}

// Jitter spreads a backoff by ±frac of its value.
func Jitter(b BackoffFunc, frac float64) BackoffFunc {
	return func(attempt int) time.Duration {
		d := b(attempt)
		if d <= 0 || frac <= 0 {
			return d
		}
		delta := (rand.Float64()*2 - 1) * frac * float64(d)
		return d + time.Duration(delta)
	}
}

// Do runs fn up to attempts times, sleeping backoff(attempt) between
// failures. It returns nil on the first success, the last error once
// attempts are exhausted, or ctx.Err() if the context ends mid-sleep.
func Do(ctx context.Context, attempts int, backoff BackoffFunc, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if sleepErr := Sleep(ctx, backoff(attempt)); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

// Sleep waits for d or until ctx ends, whichever is first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
