package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

type terminalErr struct{}

func (terminalErr) Error() string   { return "terminal" }
func (terminalErr) Retryable() bool { return false }

type transientErr struct{}

func (transientErr) Error() string   { return "transient" }
func (transientErr) Retryable() bool { return true }

func fastBackoff(maxTries int) BackoffParams {
	return BackoffParams{
		MaxTries:  maxTries,
		BaseDelay: time.Millisecond,
		MaxDelay:  2 * time.Millisecond,
	}
}

func TestRetryWithBackoff_SuccessImmediate(t *testing.T) {
	result, err := RetryWithBackoff(context.Background(), fastBackoff(3), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result != 42 {
		t.Fatalf("expected 42, got %d", result)
	}
}

func TestRetryWithBackoff_SuccessAfterRetries(t *testing.T) {
	calls := 0
	result, err := RetryWithBackoff(context.Background(), fastBackoff(3), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, transientErr{}
		}
		return 99, nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result != 99 {
		t.Fatalf("expected 99, got %d", result)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_ExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	_, err := RetryWithBackoff(context.Background(), fastBackoff(4), func(ctx context.Context) (int, error) {
		calls++
		return 0, transientErr{}
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 4 {
		t.Fatalf("expected exactly 4 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_NonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	_, err := RetryWithBackoff(context.Background(), fastBackoff(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, terminalErr{}
	})
	var te terminalErr
	if !errors.As(err, &te) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RetryWithBackoff(ctx, fastBackoff(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, transientErr{}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected 0 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_BackoffObservedBetweenAttempts(t *testing.T) {
	params := BackoffParams{
		MaxTries:  3,
		BaseDelay: 10 * time.Millisecond,
		MaxDelay:  100 * time.Millisecond,
	}

	start := time.Now()
	_, _ = RetryWithBackoff(context.Background(), params, func(ctx context.Context) (int, error) {
		return 0, transientErr{}
	})
	elapsed := time.Since(start)

	// Two waits: >=10ms after attempt 1, >=20ms after attempt 2.
	if elapsed < 30*time.Millisecond {
		t.Fatalf("expected at least 30ms of backoff, got %v", elapsed)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
		{name: "non-retryable marker", err: terminalErr{}, want: false},
		{name: "retryable marker", err: transientErr{}, want: true},
		{name: "plain error defaults to retryable", err: errors.New("boom"), want: true},
		{name: "wrapped marker", err: errors.Join(errors.New("outer"), terminalErr{}), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryErrWithBackoff(t *testing.T) {
	calls := 0
	err := RetryErrWithBackoff(context.Background(), fastBackoff(2), func(ctx context.Context) error {
		calls++
		return transientErr{}
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}
