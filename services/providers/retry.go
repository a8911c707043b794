package providers

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry runs op until it succeeds, fails with a non-retryable error, the context ends or
// maxRetries retries are spent. notify, when set, is told about each failed attempt.
func Retry(ctx context.Context, maxRetries int, initialDelay time.Duration, op func() error, notify func(err error, next time.Duration)) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	expo := backoff.NewExponentialBackOff()
	if initialDelay > 0 {
		expo.InitialInterval = initialDelay
	}
	expo.MaxInterval = 10 * time.Second
	expo.MaxElapsedTime = 0

	policy := backoff.WithMaxRetries(backoff.WithContext(expo, ctx), uint64(maxRetries))

	return backoff.RetryNotify(func() error {
		err := op()
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, notify)
}
