package backend

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Request contains one prompt for an LLM backend.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Response is the raw text returned by a backend.
type Response struct {
	Content    string
	TokensUsed int
}

// Client is the backend abstraction. Variants differ only in transport and
// auth; the rest of the pipeline never sees past this interface.
type Client interface {
	Submit(ctx context.Context, req Request) (Response, error)
	Name() string
}

// UnavailableError means the backend could not be reached (connection
// refused, service down, 5xx). Retryable.
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s backend unavailable: %v", e.Backend, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// TimeoutError means a request exceeded its deadline. Retryable.
type TimeoutError struct {
	Backend string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s backend timed out: %v", e.Backend, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// RejectedError means the backend refused the request (bad credentials,
// content policy, malformed request). Never retried.
type RejectedError struct {
	Backend string
	Reason  string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s backend rejected request: %s", e.Backend, e.Reason)
}

// IsRetryable reports whether the error is transient.
func IsRetryable(err error) bool {
	var ue *UnavailableError
	var te *TimeoutError
	return errors.As(err, &ue) || errors.As(err, &te)
}

// IsRejected reports whether the backend refused the request outright.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// New creates a backend client by name. timeout bounds a single request.
func New(name, model string, timeout time.Duration) (Client, error) {
	switch name {
	case "ollama", "lmstudio":
		return NewOllama(model, timeout)
	case "anthropic":
		return NewAnthropic(model, timeout)
	default:
		return nil, fmt.Errorf("unknown backend: %s", name)
	}
}
