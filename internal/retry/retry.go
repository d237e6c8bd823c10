// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry provides a retry policy with exponential backoff that is
// decoupled from the call sites using it. The sleep function is injectable
// so callers can test retry behaviour without real delays.
package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

// DefaultMaxRetries is the number of retries after the first attempt.
const DefaultMaxRetries = 3

// DefaultBase is the backoff unit: the wait before retry n is 2^n * base.
const DefaultBase = time.Second

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt; the
	// operation runs at most MaxRetries+1 times.
	MaxRetries int

	// Backoff returns the wait before the given retry (1-based).
	Backoff func(retry int) time.Duration

	// Sleep performs the wait. Defaults to Sleep.
	Sleep SleepFunc

	// Retryable reports whether an error is worth another attempt. A nil
	// Retryable retries every error.
	Retryable func(error) bool
}

// Default returns the standard policy: 3 retries waiting 2s, 4s, 8s.
func Default() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		Backoff:    Exponential(DefaultBase),
		Sleep:      Sleep,
	}
}

// Exponential returns a backoff function waiting 2^retry * base.
func Exponential(base time.Duration) func(int) time.Duration {
	return func(retry int) time.Duration {
		return time.Duration(math.Pow(2, float64(retry))) * base
	}
}

// Sleep waits for d without blocking other goroutines and returns ctx.Err()
// if the context is cancelled first.
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

// Do runs fn until it succeeds, returns a non-retryable error, or the
// retries are used up. It returns the number of attempts made and the last
// error. Context cancellation during a wait stops immediately.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = Exponential(DefaultBase)
	}
	maxRetries := max(p.MaxRetries, 0)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff(attempt)); err != nil {
				return attempt, errors.Join(lastErr, err)
			}
		}

		err := fn(ctx, attempt+1)
		if err == nil {
			return attempt + 1, nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return attempt + 1, err
		}
		if ctx.Err() != nil {
			return attempt + 1, errors.Join(err, ctx.Err())
		}
	}
	return maxRetries + 1, lastErr
}
