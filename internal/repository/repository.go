// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers. Policies are stored
// as versioned JSON documents; readers see the highest active version.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SavePolicy stores a lender policy as a versioned JSON document.
// Saving an existing (id, version) pair overwrites that version.
func (r *SQLRepository) SavePolicy(ctx context.Context, policy *domain.LenderPolicy) error {
	if policy == nil || policy.ID == "" {
		return fmt.Errorf("%w: policy id is required", ErrInvalidInput)
	}
	if policy.Version < 1 {
		return fmt.Errorf("%w: policy version must be >= 1", ErrInvalidInput)
	}

	document, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO policies (
			id, version, name, document, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id, version) DO UPDATE SET
			name = excluded.name,
			document = excluded.document,
			active = 1,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		policy.ID, policy.Version, policy.Name, string(document),
		now, now,
	)
	return err
}

// GetPolicy retrieves the highest active version of a lender policy.
func (r *SQLRepository) GetPolicy(ctx context.Context, lenderID string) (*domain.LenderPolicy, error) {
	if lenderID == "" {
		return nil, fmt.Errorf("%w: lenderID is required", ErrInvalidInput)
	}

	query := `
		SELECT document
		FROM policies
		WHERE id = ? AND active = 1
		ORDER BY version DESC
		LIMIT 1
	`

	var document string
	err := r.db.QueryRowContext(ctx, r.rebind(query), lenderID).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var policy domain.LenderPolicy
	if err := json.Unmarshal([]byte(document), &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy document for %s: %w", lenderID, err)
	}
	return &policy, nil
}

// ListPolicies retrieves the highest active version of every policy.
func (r *SQLRepository) ListPolicies(ctx context.Context) ([]*domain.LenderPolicy, error) {
	query := `
		SELECT p.document
		FROM policies p
		JOIN (
			SELECT id, MAX(version) AS version
			FROM policies
			WHERE active = 1
			GROUP BY id
		) latest ON p.id = latest.id AND p.version = latest.version
		WHERE p.active = 1
		ORDER BY p.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []*domain.LenderPolicy
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, err
		}
		var policy domain.LenderPolicy
		if err := json.Unmarshal([]byte(document), &policy); err != nil {
			return nil, fmt.Errorf("failed to parse policy document: %w", err)
		}
		policies = append(policies, &policy)
	}

	return policies, rows.Err()
}

// DeactivatePolicy soft-deletes every version of a policy.
func (r *SQLRepository) DeactivatePolicy(ctx context.Context, lenderID string) error {
	if lenderID == "" {
		return fmt.Errorf("%w: lenderID is required", ErrInvalidInput)
	}

	query := `
		UPDATE policies
		SET active = 0, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), lenderID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveMatchResult stores a matching round outcome.
func (r *SQLRepository) SaveMatchResult(ctx context.Context, result *domain.MatchingResult) error {
	if result == nil || result.ID == "" {
		return fmt.Errorf("%w: match result id is required", ErrInvalidInput)
	}

	results, err := json.Marshal(result.Matches)
	if err != nil {
		return fmt.Errorf("marshal match results: %w", err)
	}

	var bestLender sql.NullString
	if result.BestMatch != nil {
		bestLender = sql.NullString{String: result.BestMatch.LenderID, Valid: true}
	}

	query := `
		INSERT INTO match_results (
			id, application_id, results, best_lender_id,
			total_evaluated, total_eligible, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		result.ID, result.ApplicationID, string(results), bestLender,
		result.TotalEvaluated, result.TotalEligible, result.CreatedAt,
	)
	return err
}

// GetMatchResult retrieves a matching round outcome by id.
func (r *SQLRepository) GetMatchResult(ctx context.Context, id string) (*domain.MatchingResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	query := `
		SELECT id, application_id, results, best_lender_id,
			   total_evaluated, total_eligible, created_at
		FROM match_results
		WHERE id = ?
	`

	result, err := r.scanMatchResult(r.db.QueryRowContext(ctx, r.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return result, err
}

// ListMatchResultsByApplication retrieves all matching rounds for one
// application, newest first.
func (r *SQLRepository) ListMatchResultsByApplication(ctx context.Context, applicationID string) ([]*domain.MatchingResult, error) {
	if applicationID == "" {
		return nil, fmt.Errorf("%w: applicationID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, application_id, results, best_lender_id,
			   total_evaluated, total_eligible, created_at
		FROM match_results
		WHERE application_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.MatchingResult
	for rows.Next() {
		result, err := r.scanMatchResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepository) scanMatchResult(row rowScanner) (*domain.MatchingResult, error) {
	var result domain.MatchingResult
	var matches string
	var bestLender sql.NullString

	if err := row.Scan(
		&result.ID, &result.ApplicationID, &matches, &bestLender,
		&result.TotalEvaluated, &result.TotalEligible, &result.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(matches), &result.Matches); err != nil {
		return nil, fmt.Errorf("failed to parse match results for %s: %w", result.ID, err)
	}

	if bestLender.Valid {
		for i := range result.Matches {
			if result.Matches[i].LenderID == bestLender.String {
				result.BestMatch = &result.Matches[i]
				break
			}
		}
	}

	return &result, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
