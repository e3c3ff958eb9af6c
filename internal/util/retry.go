package util

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// retryable is implemented by errors that know whether retrying can help.
// Errors that do not implement it are treated as retryable.
type retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err is worth retrying. Context cancellation
// and deadline errors are never retryable; errors implementing the
// retryable interface decide for themselves.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// BackoffParams configures RetryWithBackoff.
//
// MaxTries is the total number of attempts (not re-attempts). BaseDelay is
// the wait after the first failure; each subsequent wait doubles, up to
// MaxDelay. A random jitter of up to half the computed delay is added so
// concurrent callers do not retry in lockstep.
type BackoffParams struct {
	MaxTries  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (p BackoffParams) withDefaults() BackoffParams {
	if p.MaxTries <= 0 {
		p.MaxTries = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	return p
}

func backoffDelay(params BackoffParams, attempt int) time.Duration {
	delay := params.BaseDelay << attempt
	if delay > params.MaxDelay || delay <= 0 {
		delay = params.MaxDelay
	}
	return delay + rand.N(delay/2+1)
}

// RetryWithBackoff calls fn until it returns nil error, the error is not
// retryable, the attempt budget is exhausted, or ctx is done. Between
// attempts it sleeps with exponential backoff and jitter.
func RetryWithBackoff[T any](ctx context.Context, params BackoffParams, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	params = params.withDefaults()

	var lastErr error
	for i := 0; i < params.MaxTries; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		lastErr = err

		if i == params.MaxTries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoffDelay(params, i)):
		}
	}
	return zero, lastErr
}

// RetryErrWithBackoff is RetryWithBackoff for functions that only return
// an error.
func RetryErrWithBackoff(ctx context.Context, params BackoffParams, fn func(context.Context) error) error {
	_, err := RetryWithBackoff(ctx, params, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
