package rules

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

// businessCheck is the outcome of one business requirement sub-check.
// Each sub-check carries a weight; the overall section score is earned
// weight over maximum weight, scaled to 100.
type businessCheck struct {
	passed    bool
	score     float64
	maxScore  float64
	checkName string
	required  string
	actual    string
	message   string
}

// businessChecks aggregates sub-check outcomes.
type businessChecks struct {
	failures    []map[string]string
	passes      []string
	totalScore  float64
	maxPossible float64
}

func (b *businessChecks) add(c businessCheck) {
	b.maxPossible += c.maxScore
	if c.passed {
		b.totalScore += c.score
		b.passes = append(b.passes, c.message)
		return
	}
	b.failures = append(b.failures, map[string]string{
		"check":    c.checkName,
		"required": c.required,
		"actual":   c.actual,
		"message":  c.message,
	})
}

// BusinessRule checks the business profile requirements: time in
// business, homeownership, CDL, industry experience, fleet size and
// annual revenue. Only criteria fields that are set are enforced.
type BusinessRule struct{}

func (*BusinessRule) Type() domain.CriteriaSection { return domain.SectionBusiness }

func (*BusinessRule) Evaluate(ctx *domain.EvaluationContext, criteria domain.Criteria) (domain.RuleResult, error) {
	c, ok := criteria.(domain.BusinessCriteria)
	if !ok {
		return domain.RuleResult{}, wrongCriteria(domain.SectionBusiness, criteria)
	}

	var checks businessChecks

	if c.MinTimeInBusinessYears != nil {
		checks.add(checkTimeInBusiness(ctx, *c.MinTimeInBusinessYears))
	}
	if c.RequiresHomeowner != nil && *c.RequiresHomeowner {
		checks.add(checkHomeowner(ctx))
	}
	if cdlRequired(c, ctx) {
		checks.add(checkCDL(ctx))
	}
	if c.MinCDLYears != nil {
		checks.add(checkCDLYears(ctx, *c.MinCDLYears))
	}
	if c.MinIndustryExperienceYears != nil {
		checks.add(checkIndustryExperience(ctx, *c.MinIndustryExperienceYears))
	}
	if c.MinFleetSize != nil {
		checks.add(checkFleetSize(ctx, *c.MinFleetSize))
	}
	if c.MinAnnualRevenue != nil {
		checks.add(checkAnnualRevenue(ctx, *c.MinAnnualRevenue))
	}

	if len(checks.failures) > 0 {
		required := make([]string, 0, len(checks.failures))
		actual := make([]string, 0, len(checks.failures))
		for _, f := range checks.failures {
			required = append(required, f["required"])
			actual = append(actual, f["actual"])
		}
		return failed("Business Requirements",
			strings.Join(required, "; "),
			strings.Join(actual, "; "),
			checks.failures[0]["message"],
			map[string]any{
				"failed_checks": checks.failures,
				"passed_checks": checks.passes,
			}), nil
	}

	score := 100.0
	if checks.maxPossible > 0 {
		score = checks.totalScore / checks.maxPossible * 100
	}
	return passed("Business Requirements",
		"All met", "All met",
		"All business requirements satisfied",
		score,
		map[string]any{"passed_checks": checks.passes}), nil
}

// cdlRequired resolves the three-state requires_cdl flag. The
// conditional form only binds on trucking applications.
func cdlRequired(c domain.BusinessCriteria, ctx *domain.EvaluationContext) bool {
	switch c.RequiresCDL {
	case "true":
		return true
	case "conditional":
		return ctx.IsTrucking()
	default:
		return false
	}
}

func checkTimeInBusiness(ctx *domain.EvaluationContext, minTIB float64) businessCheck {
	if ctx.YearsInBusiness >= minTIB {
		bonus := (ctx.YearsInBusiness - minTIB) * 5
		if bonus > 25 {
			bonus = 25
		}
		return businessCheck{
			passed:   true,
			score:    bonus,
			maxScore: 25,
			message: fmt.Sprintf("Time in business %.1f years meets minimum %g years",
				ctx.YearsInBusiness, minTIB),
		}
	}
	return businessCheck{
		maxScore:  25,
		checkName: "Time in Business",
		required:  fmt.Sprintf("%g years", minTIB),
		actual:    fmt.Sprintf("%.1f years", ctx.YearsInBusiness),
		message: fmt.Sprintf("Time in business %.1f years below minimum %g years",
			ctx.YearsInBusiness, minTIB),
	}
}

func checkHomeowner(ctx *domain.EvaluationContext) businessCheck {
	if ctx.IsHomeowner {
		return businessCheck{
			passed:   true,
			score:    15,
			maxScore: 15,
			message:  "Homeowner requirement met",
		}
	}
	return businessCheck{
		maxScore:  15,
		checkName: "Homeownership",
		required:  "Must be homeowner",
		actual:    "Not a homeowner",
		message:   "Applicant is not a homeowner (required)",
	}
}

func checkCDL(ctx *domain.EvaluationContext) businessCheck {
	if ctx.HasCDL {
		return businessCheck{
			passed:   true,
			score:    10,
			maxScore: 10,
			message:  "CDL requirement met",
		}
	}
	return businessCheck{
		maxScore:  10,
		checkName: "CDL License",
		required:  "Must have CDL",
		actual:    "No CDL",
		message:   "CDL license required but not held",
	}
}

func checkCDLYears(ctx *domain.EvaluationContext, minYears int) businessCheck {
	if ctx.CDLYears != nil && *ctx.CDLYears >= minYears {
		return businessCheck{
			passed:   true,
			score:    15,
			maxScore: 15,
			message: fmt.Sprintf("CDL experience %d years meets minimum %d years",
				*ctx.CDLYears, minYears),
		}
	}
	actual := "No CDL"
	if ctx.CDLYears != nil && *ctx.CDLYears > 0 {
		actual = fmt.Sprintf("%d years", *ctx.CDLYears)
	}
	return businessCheck{
		maxScore:  15,
		checkName: "CDL Experience",
		required:  fmt.Sprintf("%d years", minYears),
		actual:    actual,
		message:   fmt.Sprintf("CDL experience %s below minimum %d years", actual, minYears),
	}
}

func checkIndustryExperience(ctx *domain.EvaluationContext, minYears int) businessCheck {
	if ctx.IndustryExperienceYears != nil && *ctx.IndustryExperienceYears >= minYears {
		return businessCheck{
			passed:   true,
			score:    15,
			maxScore: 15,
			message: fmt.Sprintf("Industry experience %d years meets minimum %d years",
				*ctx.IndustryExperienceYears, minYears),
		}
	}
	actual := "Not provided"
	if ctx.IndustryExperienceYears != nil && *ctx.IndustryExperienceYears > 0 {
		actual = fmt.Sprintf("%d years", *ctx.IndustryExperienceYears)
	}
	return businessCheck{
		maxScore:  15,
		checkName: "Industry Experience",
		required:  fmt.Sprintf("%d years", minYears),
		actual:    actual,
		message:   fmt.Sprintf("Industry experience %s below minimum %d years", actual, minYears),
	}
}

func checkFleetSize(ctx *domain.EvaluationContext, minFleet int) businessCheck {
	if ctx.FleetSize != nil && *ctx.FleetSize >= minFleet {
		return businessCheck{
			passed:   true,
			score:    10,
			maxScore: 10,
			message:  fmt.Sprintf("Fleet size %d meets minimum %d", *ctx.FleetSize, minFleet),
		}
	}
	actual := "0"
	if ctx.FleetSize != nil {
		actual = fmt.Sprintf("%d", *ctx.FleetSize)
	}
	return businessCheck{
		maxScore:  10,
		checkName: "Fleet Size",
		required:  fmt.Sprintf("Minimum %d", minFleet),
		actual:    actual,
		message:   fmt.Sprintf("Fleet size %s below minimum %d", actual, minFleet),
	}
}

func checkAnnualRevenue(ctx *domain.EvaluationContext, minRevenue int64) businessCheck {
	if ctx.AnnualRevenue != nil && *ctx.AnnualRevenue >= minRevenue {
		return businessCheck{
			passed:   true,
			score:    10,
			maxScore: 10,
			message: fmt.Sprintf("Annual revenue %s meets minimum %s",
				formatMinorUnits(*ctx.AnnualRevenue), formatMinorUnits(minRevenue)),
		}
	}
	actual := "Not provided"
	if ctx.AnnualRevenue != nil && *ctx.AnnualRevenue > 0 {
		actual = formatMinorUnits(*ctx.AnnualRevenue)
	}
	return businessCheck{
		maxScore:  10,
		checkName: "Annual Revenue",
		required:  formatMinorUnits(minRevenue),
		actual:    actual,
		message:   fmt.Sprintf("Annual revenue %s below minimum %s", actual, formatMinorUnits(minRevenue)),
	}
}
