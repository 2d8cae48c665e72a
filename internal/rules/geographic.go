package rules

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

// GeographicRule checks the applicant's state against exclusion and
// allow lists. Exclusions are checked first and always win.
type GeographicRule struct{}

func (*GeographicRule) Type() domain.CriteriaSection { return domain.SectionGeographic }

func (*GeographicRule) Evaluate(ctx *domain.EvaluationContext, criteria domain.Criteria) (domain.RuleResult, error) {
	c, ok := criteria.(domain.GeographicCriteria)
	if !ok {
		return domain.RuleResult{}, wrongCriteria(domain.SectionGeographic, criteria)
	}

	state := strings.ToUpper(ctx.State)

	if len(c.ExcludedStates) > 0 {
		excluded := upperStates(c.ExcludedStates)
		for _, ex := range excluded {
			if state == ex {
				return failed("State Restriction",
					fmt.Sprintf("Not in %s", strings.Join(excluded, ", ")),
					state,
					fmt.Sprintf("State %s is excluded from this program", state),
					nil), nil
			}
		}
	}

	if len(c.AllowedStates) > 0 {
		allowed := upperStates(c.AllowedStates)
		found := false
		for _, a := range allowed {
			if state == a {
				found = true
				break
			}
		}
		if !found {
			return failed("State Restriction",
				fmt.Sprintf("One of %s", strings.Join(allowed, ", ")),
				state,
				fmt.Sprintf("State %s is not in the allowed states list", state),
				nil), nil
		}
	}

	return passed("State Restriction",
		"Allowed state",
		state,
		fmt.Sprintf("State %s is allowed", state),
		100,
		nil), nil
}

func upperStates(states []string) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = strings.ToUpper(s)
	}
	return out
}
