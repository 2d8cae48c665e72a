package rules

import (
	"fmt"

	"github.com/opensource-finance/harrier/internal/domain"
)

// TermMatrixRule resolves the maximum loan term for the equipment from
// a piecewise lookup table keyed on mileage, age or hours. A matched
// band with a zero term or a rejection reason disqualifies the
// equipment outright; a missing lookup reading or an uncovered value
// passes with a reduced confidence score.
type TermMatrixRule struct{}

func (*TermMatrixRule) Type() domain.CriteriaSection { return domain.SectionTermMatrix }

func (*TermMatrixRule) Evaluate(ctx *domain.EvaluationContext, criteria domain.Criteria) (domain.RuleResult, error) {
	c, ok := criteria.(domain.TermMatrixCriteria)
	if !ok {
		return domain.RuleResult{}, wrongCriteria(domain.SectionTermMatrix, criteria)
	}

	lookupField := c.LookupField
	if lookupField == "" {
		lookupField = "mileage"
	}

	lookupValue, ok := termLookupValue(ctx, lookupField)
	if !ok {
		return passed("Term Matrix",
			"N/A",
			fmt.Sprintf("%s not provided", titleWord(lookupField)),
			fmt.Sprintf("No %s data available for term matrix lookup", lookupField),
			80,
			nil), nil
	}

	entry := matchTermEntry(lookupValue, c.Entries)
	if entry == nil {
		return passed("Term Matrix",
			"N/A",
			fmt.Sprintf("%s: %s", titleWord(lookupField), groupDigits(lookupValue)),
			"No term matrix entry matched, using default terms",
			70,
			nil), nil
	}

	if entry.MaxTermMonths == 0 || entry.RejectionReason != "" {
		message := entry.RejectionReason
		if message == "" {
			message = fmt.Sprintf("Equipment %s not within desired range", lookupField)
		}
		return failed("Term Matrix",
			"Equipment desired",
			fmt.Sprintf("%s: %s", titleWord(lookupField), groupDigits(lookupValue)),
			message,
			nil), nil
	}

	if ctx.RequestedTermMonths != nil && *ctx.RequestedTermMonths > entry.MaxTermMonths {
		return failed("Term Matrix",
			fmt.Sprintf("Max %d months", entry.MaxTermMonths),
			fmt.Sprintf("Requested %d months", *ctx.RequestedTermMonths),
			fmt.Sprintf("Requested term %d months exceeds maximum %d months for this equipment",
				*ctx.RequestedTermMonths, entry.MaxTermMonths),
			map[string]any{
				"max_term_months": entry.MaxTermMonths,
				"lookup_value":    lookupValue,
			}), nil
	}

	return passed("Term Matrix",
		fmt.Sprintf("Max %d months", entry.MaxTermMonths),
		fmt.Sprintf("%s: %s", titleWord(lookupField), groupDigits(lookupValue)),
		fmt.Sprintf("Equipment qualifies for up to %d month term", entry.MaxTermMonths),
		85,
		map[string]any{
			"max_term_months": entry.MaxTermMonths,
			"lookup_value":    lookupValue,
		}), nil
}

// termLookupValue reads the matrix axis value from the context. Age is
// always known; mileage and hours may be unreported.
func termLookupValue(ctx *domain.EvaluationContext, field string) (int64, bool) {
	switch field {
	case "mileage":
		if ctx.EquipmentMileage == nil {
			return 0, false
		}
		return *ctx.EquipmentMileage, true
	case "age":
		return int64(ctx.EquipmentAgeYears), true
	case "hours":
		if ctx.EquipmentHours == nil {
			return 0, false
		}
		return *ctx.EquipmentHours, true
	default:
		return 0, false
	}
}

// matchTermEntry returns the first band covering the value, or nil.
// A nil band maximum means unbounded above.
func matchTermEntry(value int64, entries []domain.TermMatrixEntry) *domain.TermMatrixEntry {
	for i := range entries {
		entry := &entries[i]
		if value < entry.Min {
			continue
		}
		if entry.Max != nil && value > *entry.Max {
			continue
		}
		return entry
	}
	return nil
}
