package domain

import "context"

// PolicyProvider hands the engine validated, strongly-typed lender
// policies. Implementations load from YAML documents, the repository,
// or a caching wrapper around either.
type PolicyProvider interface {
	// Policy returns the policy for one lender.
	Policy(ctx context.Context, lenderID string) (*LenderPolicy, error)

	// ActivePolicies returns every active policy.
	ActivePolicies(ctx context.Context) ([]*LenderPolicy, error)

	// LenderIDs returns the ids of all lenders with a valid policy.
	LenderIDs(ctx context.Context) ([]string, error)
}
