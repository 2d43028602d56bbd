package cache

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// fetchWithRetry runs fetch with the cache's retry policy: a constant backoff
// with up to RetryMax retries. Errors the PermanentError predicate flags
// (auth, rate limit) fail fast without a retry so the caller can redirect to
// login or start a countdown.
func (c *Cache) fetchWithRetry(ctx context.Context, fetch FetchFunc) (any, error) {
	var data any
	op := func() error {
		var err error
		data, err = fetch(ctx)
		if err == nil {
			return nil
		}
		if c.opts.PermanentError != nil && c.opts.PermanentError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.opts.RetryInterval), uint64(c.opts.RetryMax)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return data, nil
}
