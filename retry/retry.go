// Package retry provides exponential backoff for operations that may fail
// transiently, such as reaching the database or Redis while they start up.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Strategy defines the retry behavior.
//
// The retry schedule follows: delay = min(BaseDelay * ExponentialBase^attempt, MaxDelay)
//
// Example with defaults (500ms base, 2.0 exponential, 10s max):
//
//	Attempt 1: 1s
//	Attempt 2: 2s
//	Attempt 3: 4s
//	Attempt 4: 8s
//	Attempt 5: 10s
type Strategy struct {
	MaxAttempts     int           // Maximum attempts, including the first
	BaseDelay       time.Duration // Initial retry delay
	MaxDelay        time.Duration // Maximum retry delay cap
	ExponentialBase float64       // Backoff multiplier (e.g., 2.0 for doubling)
}

// DefaultStrategy returns the strategy used for startup dependency checks.
func DefaultStrategy() Strategy {
	return Strategy{
		MaxAttempts:     8,
		BaseDelay:       500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		ExponentialBase: 2.0,
	}
}

// CalculateRetryDelay calculates the delay before the given attempt.
func (s Strategy) CalculateRetryDelay(attemptNumber int) time.Duration {
	if attemptNumber <= 0 {
		return s.BaseDelay
	}

	delay := float64(s.BaseDelay) * math.Pow(s.ExponentialBase, float64(attemptNumber))
	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}

	return time.Duration(delay)
}

// IsRetryable reports whether another attempt is allowed after attemptCount attempts.
func (s Strategy) IsRetryable(attemptCount int) bool {
	return attemptCount < s.MaxAttempts
}

// GetRetrySchedule returns a human-readable description of the retry schedule.
//
// Example output:
//
//	Retry Schedule:
//	  Attempt 1: after 1s
//	  Attempt 2: after 2s
//	  ...
func (s Strategy) GetRetrySchedule() string {
	var b strings.Builder
	b.WriteString("Retry Schedule:\n")
	for i := 1; i < s.MaxAttempts; i++ {
		fmt.Fprintf(&b, "  Attempt %d: after %v\n", i, s.CalculateRetryDelay(i))
	}
	return b.String()
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls fn until it succeeds, the attempts run out or ctx is done.
// The error of the last attempt is returned.
func Do(ctx context.Context, s Strategy, fn func(context.Context) error) error {
	attempts := 0
	for {
		err := fn(ctx)
		attempts++
		if err == nil {
			return nil
		}
		var permanent *permanentError
		if errors.As(err, &permanent) {
			return permanent.err
		}
		if !s.IsRetryable(attempts) {
			return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
		}

		timer := time.NewTimer(s.CalculateRetryDelay(attempts))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
	}
}
