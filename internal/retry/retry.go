// Package retry provides the shared backoff policy applied at every external
// call site.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/halcyonvc/memoforge/internal/model"
)

// Policy bounds the retry loop for transient external failures.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// FromConfig builds a Policy from the retry settings.
func FromConfig(cfg model.RetryConfig) Policy {
	p := Policy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      cfg.Multiplier,
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = 2 * time.Second
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = 30 * time.Second
	}
	if p.Multiplier <= 1 {
		p.Multiplier = 2.0
	}
	return p
}

// Do runs op, retrying on errors isRetryable accepts, with exponential
// backoff between attempts. Non-retryable errors and context cancellation
// stop the loop immediately. Returns the last error after MaxAttempts
// attempts.
func (p Policy) Do(ctx context.Context, op func() error, isRetryable func(error) bool) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	bo.Multiplier = p.Multiplier
	bo.MaxElapsedTime = 0

	attempts := uint64(p.MaxAttempts)
	if attempts == 0 {
		attempts = 1
	}

	var lastErr error
	err := backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, attempts-1), ctx))

	if err != nil && lastErr != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return lastErr
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if !errors.Is(lastErr, err) {
				return fmt.Errorf("%w (last attempt: %v)", err, lastErr)
			}
			return err
		}
		return lastErr
	}
	return err
}
