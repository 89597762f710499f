// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"time"
)

// Policy bounds a retry loop. MaxRetries counts retries after the first
// attempt, so an operation runs at most MaxRetries+1 times.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Retryable decides whether an error may be retried. Nil retries everything.
	Retryable func(error) bool
	// OnRetry is called before sleeping ahead of attempt+1.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Do calls op until it succeeds, returns a non-retryable error, the retry
// budget is spent, or ctx is done. attempt is 1-based. It returns the number
// of attempts made and the last error; when ctx ends during a backoff wait the
// error is ctx.Err().
func Do(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error) (int, error) {
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}
	delay := p.InitialDelay

	for attempt := 1; ; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		if attempt > p.MaxRetries || (p.Retryable != nil && !p.Retryable(err)) {
			return attempt, err
		}
		if ctx.Err() != nil {
			return attempt, err
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return attempt, err
		}

		delay = time.Duration(float64(delay) * multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
