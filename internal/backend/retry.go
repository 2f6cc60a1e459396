package backend

import (
	"context"
	"time"
)

// DefaultMaxRetries is the bounded retry count for transient failures.
const DefaultMaxRetries = 2

// retryWithBackoff runs fn up to maxRetries+1 times, backing off
// exponentially (1s, 2s, 4s, ...) between attempts. Only transient errors
// are retried; rejections and unknown errors return immediately.
func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt < maxRetries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
