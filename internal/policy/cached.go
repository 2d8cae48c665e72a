package policy

import (
	"context"
	"log/slog"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

// CachedProvider wraps a provider with a domain.Cache. Cache failures
// degrade to the inner provider; they never fail a lookup.
type CachedProvider struct {
	inner domain.PolicyProvider
	cache domain.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps a provider with a cache. A non-positive ttl
// defaults to five minutes.
func NewCachedProvider(inner domain.PolicyProvider, cache domain.Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl}
}

func (p *CachedProvider) Policy(ctx context.Context, lenderID string) (*domain.LenderPolicy, error) {
	cached, err := p.cache.GetPolicy(ctx, lenderID)
	if err != nil {
		slog.Warn("policy cache read failed", "lender_id", lenderID, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	policy, err := p.inner.Policy(ctx, lenderID)
	if err != nil {
		return nil, err
	}

	if err := p.cache.SetPolicy(ctx, lenderID, policy, p.ttl); err != nil {
		slog.Warn("policy cache write failed", "lender_id", lenderID, "error", err)
	}
	return policy, nil
}

func (p *CachedProvider) ActivePolicies(ctx context.Context) ([]*domain.LenderPolicy, error) {
	return p.inner.ActivePolicies(ctx)
}

func (p *CachedProvider) LenderIDs(ctx context.Context) ([]string, error) {
	return p.inner.LenderIDs(ctx)
}

// Reload forwards to the inner provider when it supports reloading.
func (p *CachedProvider) Reload() {
	if r, ok := p.inner.(interface{ Reload() }); ok {
		r.Reload()
	}
}

// Invalidate drops one lender from the cache layer.
func (p *CachedProvider) Invalidate(ctx context.Context, lenderID string) {
	if err := p.cache.Delete(ctx, "policy:"+lenderID); err != nil {
		slog.Warn("policy cache invalidate failed", "lender_id", lenderID, "error", err)
	}
}
