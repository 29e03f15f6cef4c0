package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"time"
)

// retryable is implemented by errors that know whether a retry can help,
// such as *pathstore.StatusError.
type retryable interface {
	Retryable() bool
}

// IsRetryable checks if an error is worth retrying. A cancelled or expired
// context never is.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
