package domain

import (
	"context"
	"time"
)

// Cache is the interface for caching operations. Supports two-phase
// caching: local LRU (Community) + Redis (Pro).
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// GetPolicy retrieves a cached lender policy.
	GetPolicy(ctx context.Context, lenderID string) (*LenderPolicy, error)

	// SetPolicy caches a lender policy.
	SetPolicy(ctx context.Context, lenderID string, policy *LenderPolicy, ttl time.Duration) error

	// GetMatchResult retrieves a cached match result.
	GetMatchResult(ctx context.Context, id string) (*MatchingResult, error)

	// SetMatchResult caches a match result.
	SetMatchResult(ctx context.Context, id string, result *MatchingResult, ttl time.Duration) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings (Community tier)
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings (Pro tier)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Two-phase settings
	EnableTwoPhase bool // If true, check local first, then Redis
}
