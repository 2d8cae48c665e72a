package rules

import (
	"fmt"

	"github.com/opensource-finance/harrier/internal/domain"
)

// LoanAmountRule bounds the requested loan amount. Amounts are integer
// minor currency units throughout; display strings render whole
// dollars.
type LoanAmountRule struct{}

func (*LoanAmountRule) Type() domain.CriteriaSection { return domain.SectionLoanAmount }

func (*LoanAmountRule) Evaluate(ctx *domain.EvaluationContext, criteria domain.Criteria) (domain.RuleResult, error) {
	c, ok := criteria.(domain.LoanAmountCriteria)
	if !ok {
		return domain.RuleResult{}, wrongCriteria(domain.SectionLoanAmount, criteria)
	}

	amount := ctx.LoanAmount
	amountStr := formatMinorUnits(amount)

	if c.MinAmount != nil && amount < *c.MinAmount {
		minStr := formatMinorUnits(*c.MinAmount)
		return failed("Minimum Loan Amount",
			minStr,
			amountStr,
			fmt.Sprintf("Loan amount %s below minimum %s", amountStr, minStr),
			nil), nil
	}

	if c.MaxAmount != nil && amount > *c.MaxAmount {
		maxStr := formatMinorUnits(*c.MaxAmount)
		return failed("Maximum Loan Amount",
			maxStr,
			amountStr,
			fmt.Sprintf("Loan amount %s exceeds maximum %s", amountStr, maxStr),
			nil), nil
	}

	return passed("Loan Amount",
		loanRange(c.MinAmount, c.MaxAmount),
		amountStr,
		fmt.Sprintf("Loan amount %s within allowed range", amountStr),
		100,
		nil), nil
}

func loanRange(min, max *int64) string {
	minStr := "$0"
	if min != nil {
		minStr = formatMinorUnits(*min)
	}
	maxStr := "unlimited"
	if max != nil {
		maxStr = formatMinorUnits(*max)
	}
	return minStr + " - " + maxStr
}
