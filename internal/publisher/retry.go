package publisher

import (
	"context"
	"time"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retrier runs an operation with bounded attempts and exponential backoff.
// Delays are BaseDelay, 2*BaseDelay, 4*BaseDelay... capped at MaxDelay, with
// no jitter. No delay follows the final attempt.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Sleep       SleepFunc
}

// DefaultRetrier returns 3 attempts with 1s, 2s, 4s backoff
func DefaultRetrier() Retrier {
	return Retrier{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based)
func (r Retrier) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := r.BaseDelay
	for i := 1; i < attempt && (r.MaxDelay <= 0 || delay < r.MaxDelay); i++ {
		delay *= 2
	}
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		delay = r.MaxDelay
	}
	return delay
}

// Do calls fn until it succeeds or attempts run out. It returns the number
// of attempts made and the last error.
func (r Retrier) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = fn(ctx, attempt); lastErr == nil {
			return attempt, nil
		}
		if attempt == maxAttempts {
			return attempt, lastErr
		}
		if err := sleep(ctx, r.Delay(attempt)); err != nil {
			return attempt, lastErr
		}
	}
	return maxAttempts, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
