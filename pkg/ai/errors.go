package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a backend failure. The values are stable,
// machine-checkable strings.
type ErrorKind string

const (
	ErrRateLimited      ErrorKind = "rate_limited"
	ErrTransientNetwork ErrorKind = "transient_network"
	ErrMalformedOutput  ErrorKind = "malformed_output"
	ErrAuthError        ErrorKind = "auth_error"
)

// BackendError wraps a failure from a completion backend with its
// classification. Rate limits and transient network failures are
// retryable; malformed output and authentication failures are not.
type BackendError struct {
	Kind ErrorKind
	Err  error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the call can succeed.
func (e *BackendError) Retryable() bool {
	return e.Kind == ErrRateLimited || e.Kind == ErrTransientNetwork
}

// NewBackendError wraps err with the given kind.
func NewBackendError(kind ErrorKind, err error) *BackendError {
	return &BackendError{Kind: kind, Err: err}
}

// KindOf returns the classification of err, or "" if err carries none.
func KindOf(err error) ErrorKind {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// ClassifyStatus maps an HTTP status code from a completion API to a
// BackendError. 429 is a rate limit, 5xx is transient, 401/403 is an
// authentication failure and any other 4xx is treated as malformed use
// of the API, which retrying cannot fix.
func ClassifyStatus(status int, err error) *BackendError {
	switch {
	case status == 429:
		return NewBackendError(ErrRateLimited, err)
	case status >= 500:
		return NewBackendError(ErrTransientNetwork, err)
	case status == 401 || status == 403:
		return NewBackendError(ErrAuthError, err)
	default:
		return NewBackendError(ErrMalformedOutput, err)
	}
}

// ClassifyTransportError maps a non-HTTP call failure (dial errors,
// timeouts) to a transient BackendError. Context cancellation is passed
// through untouched so it keeps terminating retries.
func ClassifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return NewBackendError(ErrTransientNetwork, err)
}
