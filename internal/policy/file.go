// Package policy loads, validates and serves lender policy documents.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/opensource-finance/harrier/internal/domain"
)

// ErrPolicyNotFound is returned when no policy exists for a lender id.
var ErrPolicyNotFound = errors.New("policy not found")

// LoadError wraps a policy load or validation failure for one lender.
type LoadError struct {
	LenderID string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load policy %q: %v", e.LenderID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// FileProvider serves policies from a directory of YAML documents, one
// file per lender named <lenderID>.yaml. Parsed policies are cached;
// load failures are cached too so a broken file is not re-parsed on
// every request.
type FileProvider struct {
	dir string

	mu     sync.RWMutex
	cache  map[string]*domain.LenderPolicy
	failed map[string]*LoadError
}

// NewFileProvider creates a provider over a policy directory.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{
		dir:    dir,
		cache:  make(map[string]*domain.LenderPolicy),
		failed: make(map[string]*LoadError),
	}
}

// Policy loads and validates one lender's policy document.
func (p *FileProvider) Policy(_ context.Context, lenderID string) (*domain.LenderPolicy, error) {
	p.mu.RLock()
	if policy, ok := p.cache[lenderID]; ok {
		p.mu.RUnlock()
		return policy, nil
	}
	if loadErr, ok := p.failed[lenderID]; ok {
		p.mu.RUnlock()
		return nil, loadErr
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if policy, ok := p.cache[lenderID]; ok {
		return policy, nil
	}
	if loadErr, ok := p.failed[lenderID]; ok {
		return nil, loadErr
	}

	policy, err := p.loadFile(lenderID)
	if err != nil {
		loadErr := &LoadError{LenderID: lenderID, Err: err}
		p.failed[lenderID] = loadErr
		return nil, loadErr
	}

	p.cache[lenderID] = policy
	slog.Info("policy loaded",
		"lender_id", lenderID,
		"version", policy.Version,
		"programs", len(policy.Programs))
	return policy, nil
}

func (p *FileProvider) loadFile(lenderID string) (*domain.LenderPolicy, error) {
	path := filepath.Join(p.dir, lenderID+".yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, path)
		}
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("policy file is empty")
	}

	var policy domain.LenderPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if policy.ID != lenderID {
		return nil, fmt.Errorf("policy id %q does not match filename %q", policy.ID, lenderID)
	}
	if err := Validate(&policy); err != nil {
		return nil, err
	}

	return &policy, nil
}

// LenderIDs lists the lender ids present in the policy directory.
// Files starting with an underscore are templates and skipped.
func (p *FileProvider) LenderIDs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read policy dir: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") || strings.HasPrefix(name, "_") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(ids)
	return ids, nil
}

// ActivePolicies loads every valid policy in the directory. Broken
// documents are logged and skipped, never failing the whole set.
func (p *FileProvider) ActivePolicies(ctx context.Context) ([]*domain.LenderPolicy, error) {
	ids, err := p.LenderIDs(ctx)
	if err != nil {
		return nil, err
	}

	policies := make([]*domain.LenderPolicy, 0, len(ids))
	for _, id := range ids {
		policy, err := p.Policy(ctx, id)
		if err != nil {
			slog.Warn("skipping invalid policy",
				"lender_id", id,
				"error", err)
			continue
		}
		policies = append(policies, policy)
	}
	return policies, nil
}

// Reload drops every cached policy and cached failure.
func (p *FileProvider) Reload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]*domain.LenderPolicy)
	p.failed = make(map[string]*LoadError)
	slog.Info("policy cache cleared")
}

// Invalidate drops one lender from the cache.
func (p *FileProvider) Invalidate(lenderID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, lenderID)
	delete(p.failed, lenderID)
}
