package rules

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

// TransactionRule checks the transaction type and private party
// restrictions. Unset allow flags default to allowed; an unrecognized
// transaction type always fails.
type TransactionRule struct{}

func (*TransactionRule) Type() domain.CriteriaSection { return domain.SectionTransaction }

func (*TransactionRule) Evaluate(ctx *domain.EvaluationContext, criteria domain.Criteria) (domain.RuleResult, error) {
	c, ok := criteria.(domain.TransactionCriteria)
	if !ok {
		return domain.RuleResult{}, wrongCriteria(domain.SectionTransaction, criteria)
	}

	txnType := strings.ToLower(ctx.TransactionType)
	display := titlePhrase(txnType)

	var allowFlag *bool
	switch txnType {
	case "purchase":
		allowFlag = c.AllowsPurchase
	case "refinance":
		allowFlag = c.AllowsRefinance
	case "sale_leaseback":
		allowFlag = c.AllowsSaleLeaseback
	default:
		return failed("Transaction Type",
			"Valid transaction type",
			txnType,
			fmt.Sprintf("Unknown transaction type: %s", txnType),
			nil), nil
	}

	if allowFlag != nil && !*allowFlag {
		return failed("Transaction Type",
			"Allowed transaction type",
			display,
			fmt.Sprintf("%s transactions not allowed", display),
			nil), nil
	}

	if ctx.IsPrivateParty && c.AllowsPrivateParty != nil && !*c.AllowsPrivateParty {
		return failed("Private Party Restriction",
			"Not private party sale",
			"Private party sale",
			"Private party sales are not allowed",
			nil), nil
	}

	return passed("Transaction Type",
		"Valid transaction",
		display,
		fmt.Sprintf("%s transaction is allowed", display),
		100,
		nil), nil
}
