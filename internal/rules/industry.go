package rules

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

// IndustryRule checks the applicant's industry against exclusion and
// allow lists. Patterns match as lowercase substrings of either the
// industry code or the industry name, so "trucking" matches
// "long_haul_trucking" and "Trucking & Freight" alike.
type IndustryRule struct{}

func (*IndustryRule) Type() domain.CriteriaSection { return domain.SectionIndustry }

func (*IndustryRule) Evaluate(ctx *domain.EvaluationContext, criteria domain.Criteria) (domain.RuleResult, error) {
	c, ok := criteria.(domain.IndustryCriteria)
	if !ok {
		return domain.RuleResult{}, wrongCriteria(domain.SectionIndustry, criteria)
	}

	code := strings.ToLower(ctx.IndustryCode)
	name := strings.ToLower(ctx.IndustryName)
	displayName := ctx.IndustryName

	if matchesIndustry(code, name, c.ExcludedIndustries) {
		return failed("Industry Restriction",
			"Not in excluded industries",
			displayName,
			fmt.Sprintf("Industry '%s' is excluded from this program", displayName),
			nil), nil
	}

	if len(c.AllowedIndustries) > 0 && !matchesIndustry(code, name, c.AllowedIndustries) {
		return failed("Industry Restriction",
			fmt.Sprintf("One of: %s", strings.Join(c.AllowedIndustries, ", ")),
			displayName,
			fmt.Sprintf("Industry '%s' is not in the allowed list", displayName),
			nil), nil
	}

	return passed("Industry Restriction",
		"Allowed industry",
		displayName,
		fmt.Sprintf("Industry '%s' is allowed", displayName),
		100,
		nil), nil
}

func matchesIndustry(code, name string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.ToLower(p)
		if strings.Contains(code, p) || strings.Contains(name, p) {
			return true
		}
	}
	return false
}
