package domain

import (
	"context"
	"time"
)

// Repository persists lender policies and match results.
type Repository interface {
	// Policy operations. Policies are versioned; readers always see
	// the highest active version.
	SavePolicy(ctx context.Context, policy *LenderPolicy) error
	GetPolicy(ctx context.Context, lenderID string) (*LenderPolicy, error)
	ListPolicies(ctx context.Context) ([]*LenderPolicy, error)
	DeactivatePolicy(ctx context.Context, lenderID string) error

	// Match result operations
	SaveMatchResult(ctx context.Context, result *MatchingResult) error
	GetMatchResult(ctx context.Context, id string) (*MatchingResult, error)
	ListMatchResultsByApplication(ctx context.Context, applicationID string) ([]*MatchingResult, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
