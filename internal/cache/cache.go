package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

// New creates a new cache based on configuration.
// For Community tier: returns LRU cache.
// For Pro tier with two-phase: returns TwoPhaseCache wrapping LRU + Redis.
// For Pro tier without two-phase: returns Redis cache.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		if cfg.EnableTwoPhase {
			return NewTwoPhaseCache(cfg)
		}
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// TwoPhaseCache implements the two-phase caching strategy.
// L1: Local LRU cache for fast reads
// L2: Redis for distributed caching and persistence
type TwoPhaseCache struct {
	local  *LRUCache
	remote *RedisCache
	l1TTL  time.Duration
}

// NewTwoPhaseCache creates a two-phase cache with LRU + Redis.
func NewTwoPhaseCache(cfg domain.CacheConfig) (*TwoPhaseCache, error) {
	local := NewLRUCache(cfg.LocalMaxSize)

	remote, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis cache: %w", err)
	}

	l1TTL := cfg.LocalTTL
	if l1TTL == 0 {
		l1TTL = 5 * time.Minute
	}

	return &TwoPhaseCache{
		local:  local,
		remote: remote,
		l1TTL:  l1TTL,
	}, nil
}

// Get retrieves from L1 first, then L2. Populates L1 on L2 hit.
func (c *TwoPhaseCache) Get(ctx context.Context, key string) ([]byte, error) {
	// Check L1 first
	val, err := c.local.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if val != nil {
		return val, nil
	}

	// Check L2
	val, err = c.remote.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if val != nil {
		// Populate L1 for future reads
		_ = c.local.Set(ctx, key, val, c.l1TTL)
	}

	return val, nil
}

// Set writes to both L1 and L2.
func (c *TwoPhaseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// Write to L1 with shorter TTL
	l1TTL := c.l1TTL
	if ttl < l1TTL {
		l1TTL = ttl
	}
	if err := c.local.Set(ctx, key, value, l1TTL); err != nil {
		return err
	}

	// Write to L2 with full TTL
	return c.remote.Set(ctx, key, value, ttl)
}

// Delete removes from both L1 and L2.
func (c *TwoPhaseCache) Delete(ctx context.Context, key string) error {
	if err := c.local.Delete(ctx, key); err != nil {
		return err
	}
	return c.remote.Delete(ctx, key)
}

// GetPolicy retrieves a cached lender policy.
func (c *TwoPhaseCache) GetPolicy(ctx context.Context, lenderID string) (*domain.LenderPolicy, error) {
	// Check L1 first
	policy, err := c.local.GetPolicy(ctx, lenderID)
	if err != nil {
		return nil, err
	}
	if policy != nil {
		return policy, nil
	}

	// Check L2
	policy, err = c.remote.GetPolicy(ctx, lenderID)
	if err != nil {
		return nil, err
	}
	if policy != nil {
		// Populate L1
		_ = c.local.SetPolicy(ctx, lenderID, policy, c.l1TTL)
	}

	return policy, nil
}

// SetPolicy caches a lender policy in both L1 and L2.
func (c *TwoPhaseCache) SetPolicy(ctx context.Context, lenderID string, policy *domain.LenderPolicy, ttl time.Duration) error {
	l1TTL := c.l1TTL
	if ttl < l1TTL {
		l1TTL = ttl
	}
	if err := c.local.SetPolicy(ctx, lenderID, policy, l1TTL); err != nil {
		return err
	}
	return c.remote.SetPolicy(ctx, lenderID, policy, ttl)
}

// GetMatchResult retrieves a cached match result.
func (c *TwoPhaseCache) GetMatchResult(ctx context.Context, id string) (*domain.MatchingResult, error) {
	result, err := c.local.GetMatchResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	result, err = c.remote.GetMatchResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if result != nil {
		_ = c.local.SetMatchResult(ctx, id, result, c.l1TTL)
	}

	return result, nil
}

// SetMatchResult caches a match result in both L1 and L2.
func (c *TwoPhaseCache) SetMatchResult(ctx context.Context, id string, result *domain.MatchingResult, ttl time.Duration) error {
	l1TTL := c.l1TTL
	if ttl < l1TTL {
		l1TTL = ttl
	}
	if err := c.local.SetMatchResult(ctx, id, result, l1TTL); err != nil {
		return err
	}
	return c.remote.SetMatchResult(ctx, id, result, ttl)
}

// Ping checks both L1 and L2 health.
func (c *TwoPhaseCache) Ping(ctx context.Context) error {
	if err := c.local.Ping(ctx); err != nil {
		return fmt.Errorf("L1 ping failed: %w", err)
	}
	if err := c.remote.Ping(ctx); err != nil {
		return fmt.Errorf("L2 ping failed: %w", err)
	}
	return nil
}

// Close closes both L1 and L2.
func (c *TwoPhaseCache) Close() error {
	_ = c.local.Close()
	return c.remote.Close()
}

// Stats returns L1 cache statistics.
func (c *TwoPhaseCache) Stats() (size int, capacity int) {
	return c.local.Stats()
}
