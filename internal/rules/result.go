package rules

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

// passed builds a passing RuleResult with a clamped score.
func passed(name, required, actual, message string, score float64, details map[string]any) domain.RuleResult {
	return domain.RuleResult{
		Passed:        true,
		RuleName:      name,
		RequiredValue: required,
		ActualValue:   actual,
		Message:       message,
		Score:         domain.ClampScore(score),
		Details:       details,
	}
}

// failed builds a failing RuleResult. Failed results always contribute
// score zero.
func failed(name, required, actual, message string, details map[string]any) domain.RuleResult {
	return domain.RuleResult{
		Passed:        false,
		RuleName:      name,
		RequiredValue: required,
		ActualValue:   actual,
		Message:       message,
		Score:         0,
		Details:       details,
	}
}

// wrongCriteria reports a criteria value whose concrete type does not
// match the rule. This is a configuration defect.
func wrongCriteria(section domain.CriteriaSection, criteria domain.Criteria) error {
	return fmt.Errorf("rule %q: unexpected criteria type %T", section, criteria)
}

// formatMinorUnits renders an amount in integer minor currency units
// as whole dollars with digit grouping, e.g. 1500000 -> "$15,000".
func formatMinorUnits(amount int64) string {
	return domain.FormatMinorUnits(amount)
}

// groupDigits renders a count (miles, hours) with comma thousands
// separators.
func groupDigits(v int64) string {
	return domain.GroupInt(v)
}

// titleWord capitalizes the first letter of a lowercase word, e.g.
// "fico" -> "Fico".
func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// titlePhrase converts a snake_case token into display form, e.g.
// "sale_leaseback" -> "Sale Leaseback".
func titlePhrase(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		parts[i] = titleWord(p)
	}
	return strings.Join(parts, " ")
}
