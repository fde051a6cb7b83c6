package llm

import (
	"context"

	"github.com/halcyonvc/memoforge/internal/retry"
)

// RetryingProvider applies the shared backoff policy to every generation
// call. Rate-limit and overload errors are retried; auth and other errors
// surface immediately.
type RetryingProvider struct {
	inner  Provider
	policy retry.Policy
}

func NewRetryingProvider(inner Provider, policy retry.Policy) *RetryingProvider {
	return &RetryingProvider{inner: inner, policy: policy}
}

func (p *RetryingProvider) Name() string {
	return p.inner.Name()
}

func (p *RetryingProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

func (p *RetryingProvider) Generate(ctx context.Context, req Request) (string, error) {
	var text string
	err := p.policy.Do(ctx, func() error {
		var err error
		text, err = p.inner.Generate(ctx, req)
		return err
	}, IsRetryable)
	return text, err
}
