package rules

import (
	"fmt"

	"github.com/opensource-finance/harrier/internal/domain"
)

// CreditScoreRule checks a minimum score on one named credit scale.
// Exceeding the minimum earns up to 30 bonus points on top of the 70
// point base, 0.3 points per excess score point.
type CreditScoreRule struct{}

func (*CreditScoreRule) Type() domain.CriteriaSection { return domain.SectionCreditScore }

func (*CreditScoreRule) Evaluate(ctx *domain.EvaluationContext, criteria domain.Criteria) (domain.RuleResult, error) {
	c, ok := criteria.(domain.CreditScoreCriteria)
	if !ok {
		return domain.RuleResult{}, wrongCriteria(domain.SectionCreditScore, criteria)
	}

	scoreType := c.Type
	if scoreType == "" {
		scoreType = "fico"
	}
	ruleName := fmt.Sprintf("Minimum %s Score", titleWord(scoreType))

	actual, ok := ctx.CreditScore(scoreType)
	if !ok {
		return failed(ruleName,
			fmt.Sprintf("%d", c.Min),
			"Not provided",
			fmt.Sprintf("%s credit score not provided", titleWord(scoreType)),
			nil), nil
	}

	if actual < c.Min {
		return failed(ruleName,
			fmt.Sprintf("%d", c.Min),
			fmt.Sprintf("%d", actual),
			fmt.Sprintf("%s credit score %d below minimum %d", titleWord(scoreType), actual, c.Min),
			nil), nil
	}

	bonus := float64(actual-c.Min) * 0.3
	if bonus > 30 {
		bonus = 30
	}
	return passed(ruleName,
		fmt.Sprintf("%d", c.Min),
		fmt.Sprintf("%d", actual),
		fmt.Sprintf("%s credit score %d meets minimum %d", titleWord(scoreType), actual, c.Min),
		70+bonus,
		nil), nil
}
