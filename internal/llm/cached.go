package llm

import (
	"context"
	"time"

	"github.com/halcyonvc/memoforge/internal/cache"
)

// CachedProvider wraps a Provider with a response cache. Identical requests
// within the TTL are served without an API call; only successful responses
// are cached.
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	model string
	ttl   time.Duration
}

// NewCachedProvider wraps inner with c. The model name participates in the
// cache key so providers configured for different models never collide.
func NewCachedProvider(inner Provider, c cache.Cache, model string, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, cache: c, model: model, ttl: ttl}
}

func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

func (p *CachedProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

func (p *CachedProvider) Generate(ctx context.Context, req Request) (string, error) {
	key := cache.Key(p.model, req.System, req.Prompt)
	if data, ok := p.cache.Get(key); ok {
		return string(data), nil
	}

	text, err := p.inner.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	_ = p.cache.Set(key, []byte(text), p.ttl)
	return text, nil
}
