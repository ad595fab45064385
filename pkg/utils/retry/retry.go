// Package retry re-invokes operations that fail with transient errors,
// delegating the backoff schedule to sethvargo/go-retry.
package retry

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy controls how an operation is retried, the delay doubles after
// each failed attempt
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first
	MaxAttempts int

	// InitialDelay is the pause after the first failed attempt
	InitialDelay time.Duration

	// Retryable reports whether an error should trigger another attempt,
	// a nil predicate retries every error
	Retryable func(error) bool
}

// DefaultPolicy retries three times with a two second initial delay
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
	}
}

func (p Policy) backoff() retry.Backoff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	// NewExponential rejects non positive base delays
	delay := p.InitialDelay
	if delay <= 0 {
		delay = time.Millisecond
	}

	return retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(delay))
}

// Do invokes op until it succeeds, fails with a non retryable error, or the
// attempt budget is exhausted. The final error is returned unwrapped so
// callers can match on its type.
func (p Policy) Do(op func() error) error {
	return retry.Do(context.Background(), p.backoff(), func(ctx context.Context) error {
		err := op()
		if err == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		return retry.RetryableError(err)
	})
}

// DoValue is Do for operations returning a value
func DoValue[T any](p Policy, op func() (T, error)) (T, error) {
	var v T

	err := p.Do(func() error {
		var err error
		v, err = op()

		return err
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return v, nil
}
