package policy

import (
	"context"

	"github.com/opensource-finance/harrier/internal/domain"
)

// RepositoryProvider serves policies from the SQL repository. Policies
// are versioned rows; the repository returns the highest active
// version per lender.
type RepositoryProvider struct {
	repo domain.Repository
}

// NewRepositoryProvider creates a provider backed by the repository.
func NewRepositoryProvider(repo domain.Repository) *RepositoryProvider {
	return &RepositoryProvider{repo: repo}
}

func (p *RepositoryProvider) Policy(ctx context.Context, lenderID string) (*domain.LenderPolicy, error) {
	return p.repo.GetPolicy(ctx, lenderID)
}

func (p *RepositoryProvider) ActivePolicies(ctx context.Context) ([]*domain.LenderPolicy, error) {
	return p.repo.ListPolicies(ctx)
}

func (p *RepositoryProvider) LenderIDs(ctx context.Context) ([]string, error) {
	policies, err := p.repo.ListPolicies(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(policies))
	for _, policy := range policies {
		ids = append(ids, policy.ID)
	}
	return ids, nil
}
