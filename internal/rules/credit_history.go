package rules

import (
	"fmt"

	"github.com/opensource-finance/harrier/internal/domain"
)

// historyFailure is one failed credit history check.
type historyFailure struct {
	check    string
	required string
	actual   string
	message  string
}

func (f historyFailure) toMap() map[string]string {
	return map[string]string{
		"check":    f.check,
		"required": f.required,
		"actual":   f.actual,
		"message":  f.message,
	}
}

// CreditHistoryRule checks bankruptcy, judgement, tax lien,
// foreclosure and repossession history. All sub-checks run and every
// failure is reported in the result details; the first failure supplies
// the headline message. A max count of zero means none allowed.
type CreditHistoryRule struct{}

func (*CreditHistoryRule) Type() domain.CriteriaSection { return domain.SectionCreditHistory }

func (*CreditHistoryRule) Evaluate(ctx *domain.EvaluationContext, criteria domain.Criteria) (domain.RuleResult, error) {
	c, ok := criteria.(domain.CreditHistoryCriteria)
	if !ok {
		return domain.RuleResult{}, wrongCriteria(domain.SectionCreditHistory, criteria)
	}

	var failures []historyFailure
	appendIf := func(f *historyFailure) {
		if f != nil {
			failures = append(failures, *f)
		}
	}
	appendIf(checkBankruptcy(ctx, c))
	appendIf(checkJudgements(ctx, c))
	appendIf(checkTaxLiens(ctx, c))
	appendIf(checkForeclosure(ctx, c))
	appendIf(checkRepossession(ctx, c))

	if len(failures) > 0 {
		first := failures[0]
		detail := make([]map[string]string, 0, len(failures))
		for _, f := range failures {
			detail = append(detail, f.toMap())
		}
		return failed("Credit History",
			first.required, first.actual, first.message,
			map[string]any{"failed_checks": detail}), nil
	}

	return passed("Credit History",
		"Clean history", "Acceptable",
		"Credit history meets requirements",
		historyScore(ctx),
		nil), nil
}

// historyScore penalizes a discharged bankruptcy by 3 points per year
// short of a 10 year discharge window, floored at 60.
func historyScore(ctx *domain.EvaluationContext) float64 {
	score := 100.0
	if ctx.HasBankruptcy && ctx.BankruptcyDischargeYears != nil {
		penalty := 30 - *ctx.BankruptcyDischargeYears*3
		if penalty > 0 {
			score -= penalty
		}
	}
	if score < 60 {
		return 60
	}
	return score
}

func checkBankruptcy(ctx *domain.EvaluationContext, c domain.CreditHistoryCriteria) *historyFailure {
	if !ctx.HasBankruptcy {
		return nil
	}

	if c.MaxBankruptcies != nil && *c.MaxBankruptcies == 0 {
		chapter := ctx.BankruptcyChapter
		if chapter == "" {
			chapter = "Unknown"
		}
		return &historyFailure{
			check:    "Bankruptcy",
			required: "No bankruptcy history",
			actual:   fmt.Sprintf("Has bankruptcy (Chapter %s)", chapter),
			message:  "Bankruptcy not allowed",
		}
	}

	minDischarge := 0.0
	if c.BankruptcyMinDischargeYears != nil {
		minDischarge = *c.BankruptcyMinDischargeYears
	}

	if ctx.BankruptcyDischargeYears == nil {
		return &historyFailure{
			check:    "Bankruptcy",
			required: "No active bankruptcy",
			actual:   "Active/undischarged bankruptcy",
			message:  "Active bankruptcy not allowed",
		}
	}

	if *ctx.BankruptcyDischargeYears < minDischarge {
		return &historyFailure{
			check:    "Bankruptcy Discharge Period",
			required: fmt.Sprintf("Discharged %g+ years ago", minDischarge),
			actual:   fmt.Sprintf("Discharged %.1f years ago", *ctx.BankruptcyDischargeYears),
			message: fmt.Sprintf("Bankruptcy discharged %.1f years ago, minimum %g years required",
				*ctx.BankruptcyDischargeYears, minDischarge),
		}
	}

	return nil
}

func checkJudgements(ctx *domain.EvaluationContext, c domain.CreditHistoryCriteria) *historyFailure {
	if !ctx.HasOpenJudgements {
		return nil
	}

	if c.MaxOpenJudgements != nil && *c.MaxOpenJudgements == 0 {
		amount := ""
		if ctx.JudgementAmount != nil && *ctx.JudgementAmount > 0 {
			amount = fmt.Sprintf(" (%s)", formatMinorUnits(*ctx.JudgementAmount))
		}
		return &historyFailure{
			check:    "Open Judgements",
			required: "No open judgements",
			actual:   "Has open judgements" + amount,
			message:  "Open judgements not allowed",
		}
	}

	if ctx.JudgementAmount != nil && c.MaxJudgementAmount != nil &&
		*ctx.JudgementAmount > *c.MaxJudgementAmount {
		return &historyFailure{
			check:    "Judgement Amount",
			required: fmt.Sprintf("Max %s", formatMinorUnits(*c.MaxJudgementAmount)),
			actual:   formatMinorUnits(*ctx.JudgementAmount),
			message: fmt.Sprintf("Judgement amount %s exceeds maximum %s",
				formatMinorUnits(*ctx.JudgementAmount), formatMinorUnits(*c.MaxJudgementAmount)),
		}
	}

	return nil
}

func checkTaxLiens(ctx *domain.EvaluationContext, c domain.CreditHistoryCriteria) *historyFailure {
	if !ctx.HasTaxLiens {
		return nil
	}

	if c.MaxTaxLiens != nil && *c.MaxTaxLiens == 0 {
		amount := ""
		if ctx.TaxLienAmount != nil && *ctx.TaxLienAmount > 0 {
			amount = fmt.Sprintf(" (%s)", formatMinorUnits(*ctx.TaxLienAmount))
		}
		return &historyFailure{
			check:    "Tax Liens",
			required: "No tax liens",
			actual:   "Has tax liens" + amount,
			message:  "Tax liens not allowed",
		}
	}

	if ctx.TaxLienAmount != nil && c.MaxTaxLienAmount != nil &&
		*ctx.TaxLienAmount > *c.MaxTaxLienAmount {
		return &historyFailure{
			check:    "Tax Lien Amount",
			required: fmt.Sprintf("Max %s", formatMinorUnits(*c.MaxTaxLienAmount)),
			actual:   formatMinorUnits(*ctx.TaxLienAmount),
			message: fmt.Sprintf("Tax lien amount %s exceeds maximum %s",
				formatMinorUnits(*ctx.TaxLienAmount), formatMinorUnits(*c.MaxTaxLienAmount)),
		}
	}

	return nil
}

func checkForeclosure(ctx *domain.EvaluationContext, c domain.CreditHistoryCriteria) *historyFailure {
	if ctx.HasForeclosure && c.AllowsForeclosure != nil && !*c.AllowsForeclosure {
		return &historyFailure{
			check:    "Foreclosure",
			required: "No foreclosure history",
			actual:   "Has foreclosure",
			message:  "Foreclosure history not allowed",
		}
	}
	return nil
}

func checkRepossession(ctx *domain.EvaluationContext, c domain.CreditHistoryCriteria) *historyFailure {
	if ctx.HasRepossession && c.AllowsRepossession != nil && !*c.AllowsRepossession {
		return &historyFailure{
			check:    "Repossession",
			required: "No repossession history",
			actual:   "Has repossession",
			message:  "Repossession history not allowed",
		}
	}
	return nil
}
