package cache

import (
	"context"
	"errors"
	"time"
)

// ErrBackend marks backend failures (timeouts, connection errors) as
// opposed to plain misses. A miss is never an error.
var ErrBackend = errors.New("cache backend error")

// RetryableError wraps an error to signal that the operation may succeed
// on a subsequent attempt. The Redis backend wraps transient network
// failures this way; the file backend never does, since a failed local
// write will not heal by itself.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err carries a RetryableError anywhere in
// its chain.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff runs fn up to 3 times, doubling a 1-second delay
// between attempts. Only errors marked Retryable trigger another attempt;
// anything else is returned as-is. Cancellation of ctx is observed while
// waiting between attempts.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3

	var lastErr error
	delay := time.Second
	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}
