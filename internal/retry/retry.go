package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is a bounded exponential-backoff policy shared by every remote call
// site. MaxAttempts counts the initial attempt plus retries.
type Policy struct {
	MaxAttempts uint64
	BaseDelay   time.Duration
}

// DefaultPolicy mirrors the executor's default retry behaviour.
var DefaultPolicy = Policy{MaxAttempts: 4, BaseDelay: 2 * time.Second}

// Do runs op under the policy. Returning backoff.Permanent from op stops
// retries immediately; any other error is retried until the attempt ceiling
// is reached or the context is cancelled.
func (p Policy) Do(ctx context.Context, op func() error) (attempts int, err error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0.2

	maxRetries := uint64(0)
	if p.MaxAttempts > 0 {
		maxRetries = p.MaxAttempts - 1
	}

	wrapped := func() error {
		attempts++
		return op()
	}

	err = backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))
	return attempts, err
}

// Permanent marks an error as non-retryable for Do.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
