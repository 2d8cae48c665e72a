package rules

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

// equipmentCheck is the outcome of one equipment sub-check. Mileage
// and hours checks are skipped entirely when the applicant did not
// report the reading.
type equipmentCheck struct {
	passed    bool
	checkName string
	required  string
	actual    string
	message   string
}

// EquipmentRule checks equipment category, age, mileage and hours
// ceilings. Category exclusions win over the allow list.
type EquipmentRule struct{}

func (*EquipmentRule) Type() domain.CriteriaSection { return domain.SectionEquipment }

func (*EquipmentRule) Evaluate(ctx *domain.EvaluationContext, criteria domain.Criteria) (domain.RuleResult, error) {
	c, ok := criteria.(domain.EquipmentCriteria)
	if !ok {
		return domain.RuleResult{}, wrongCriteria(domain.SectionEquipment, criteria)
	}

	var failures []map[string]string
	var passes []string
	record := func(chk *equipmentCheck) {
		if chk == nil {
			return
		}
		if chk.passed {
			passes = append(passes, chk.message)
			return
		}
		failures = append(failures, map[string]string{
			"check":    chk.checkName,
			"required": chk.required,
			"actual":   chk.actual,
			"message":  chk.message,
		})
	}

	record(checkCategory(ctx, c))
	if c.MaxAgeYears != nil {
		record(checkEquipmentAge(ctx, *c.MaxAgeYears))
	}
	if c.MaxMileage != nil {
		record(checkEquipmentMileage(ctx, *c.MaxMileage))
	}
	if c.MaxHours != nil {
		record(checkEquipmentHours(ctx, *c.MaxHours))
	}

	if len(failures) > 0 {
		return failed("Equipment Requirements",
			failures[0]["required"],
			failures[0]["actual"],
			failures[0]["message"],
			map[string]any{"failed_checks": failures, "passed_checks": passes}), nil
	}

	score := 100.0
	if c.MaxAgeYears != nil && *c.MaxAgeYears > 0 {
		score -= float64(ctx.EquipmentAgeYears) / float64(*c.MaxAgeYears) * 20
	}
	if score < 60 {
		score = 60
	}
	return passed("Equipment Requirements",
		"All met", "All met",
		"Equipment meets all requirements",
		score,
		map[string]any{"passed_checks": passes}), nil
}

func checkCategory(ctx *domain.EvaluationContext, c domain.EquipmentCriteria) *equipmentCheck {
	if len(c.ExcludedCategories) == 0 && len(c.AllowedCategories) == 0 {
		return nil
	}
	category := strings.ToLower(ctx.EquipmentCategory)

	for _, excluded := range c.ExcludedCategories {
		if strings.ToLower(excluded) == category {
			return &equipmentCheck{
				checkName: "Equipment Category",
				required:  "Not in excluded categories",
				actual:    ctx.EquipmentCategory,
				message: fmt.Sprintf("Equipment category '%s' is excluded from this program",
					ctx.EquipmentCategory),
			}
		}
	}

	if len(c.AllowedCategories) > 0 {
		for _, allowed := range c.AllowedCategories {
			if strings.ToLower(allowed) == category {
				return &equipmentCheck{
					passed:  true,
					message: fmt.Sprintf("Equipment category '%s' is allowed", ctx.EquipmentCategory),
				}
			}
		}
		return &equipmentCheck{
			checkName: "Equipment Category",
			required:  fmt.Sprintf("One of: %s", strings.Join(c.AllowedCategories, ", ")),
			actual:    ctx.EquipmentCategory,
			message: fmt.Sprintf("Equipment category '%s' is not in the allowed list",
				ctx.EquipmentCategory),
		}
	}

	return &equipmentCheck{
		passed:  true,
		message: fmt.Sprintf("Equipment category '%s' is allowed", ctx.EquipmentCategory),
	}
}

func checkEquipmentAge(ctx *domain.EvaluationContext, maxAge int) *equipmentCheck {
	if ctx.EquipmentAgeYears > maxAge {
		return &equipmentCheck{
			checkName: "Equipment Age",
			required:  fmt.Sprintf("Max %d years", maxAge),
			actual:    fmt.Sprintf("%d years", ctx.EquipmentAgeYears),
			message: fmt.Sprintf("Equipment age %d years exceeds maximum %d years",
				ctx.EquipmentAgeYears, maxAge),
		}
	}
	return &equipmentCheck{
		passed: true,
		message: fmt.Sprintf("Equipment age %d years within limit of %d years",
			ctx.EquipmentAgeYears, maxAge),
	}
}

func checkEquipmentMileage(ctx *domain.EvaluationContext, maxMileage int64) *equipmentCheck {
	if ctx.EquipmentMileage == nil {
		return nil
	}
	if *ctx.EquipmentMileage > maxMileage {
		return &equipmentCheck{
			checkName: "Equipment Mileage",
			required:  fmt.Sprintf("Max %s miles", groupDigits(maxMileage)),
			actual:    fmt.Sprintf("%s miles", groupDigits(*ctx.EquipmentMileage)),
			message: fmt.Sprintf("Equipment mileage %s exceeds maximum %s",
				groupDigits(*ctx.EquipmentMileage), groupDigits(maxMileage)),
		}
	}
	return &equipmentCheck{
		passed: true,
		message: fmt.Sprintf("Equipment mileage %s within limit of %s",
			groupDigits(*ctx.EquipmentMileage), groupDigits(maxMileage)),
	}
}

func checkEquipmentHours(ctx *domain.EvaluationContext, maxHours int64) *equipmentCheck {
	if ctx.EquipmentHours == nil {
		return nil
	}
	if *ctx.EquipmentHours > maxHours {
		return &equipmentCheck{
			checkName: "Equipment Hours",
			required:  fmt.Sprintf("Max %s hours", groupDigits(maxHours)),
			actual:    fmt.Sprintf("%s hours", groupDigits(*ctx.EquipmentHours)),
			message: fmt.Sprintf("Equipment hours %s exceeds maximum %s",
				groupDigits(*ctx.EquipmentHours), groupDigits(maxHours)),
		}
	}
	return &equipmentCheck{
		passed: true,
		message: fmt.Sprintf("Equipment hours %s within limit of %s",
			groupDigits(*ctx.EquipmentHours), groupDigits(maxHours)),
	}
}
