package policy

import (
	"fmt"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Validate checks a parsed policy document for structural defects. A
// policy that fails validation never reaches the engine.
func Validate(policy *domain.LenderPolicy) error {
	if policy.ID == "" {
		return fmt.Errorf("policy id is required")
	}
	if policy.Name == "" {
		return fmt.Errorf("policy %s: name is required", policy.ID)
	}
	if policy.Version < 1 {
		return fmt.Errorf("policy %s: version must be >= 1, got %d", policy.ID, policy.Version)
	}
	if len(policy.Programs) == 0 {
		return fmt.Errorf("policy %s: at least one program is required", policy.ID)
	}

	seen := make(map[string]struct{}, len(policy.Programs))
	for i := range policy.Programs {
		program := &policy.Programs[i]
		if err := validateProgram(program); err != nil {
			return fmt.Errorf("policy %s: %w", policy.ID, err)
		}
		if _, dup := seen[program.ID]; dup {
			return fmt.Errorf("policy %s: duplicate program id %q", policy.ID, program.ID)
		}
		seen[program.ID] = struct{}{}
	}

	if policy.Restrictions != nil && policy.Restrictions.Equipment != nil {
		if err := validateEquipment(policy.Restrictions.Equipment); err != nil {
			return fmt.Errorf("policy %s: restrictions: %w", policy.ID, err)
		}
	}

	return nil
}

func validateProgram(program *domain.LenderProgram) error {
	if program.ID == "" {
		return fmt.Errorf("program id is required")
	}
	if program.Name == "" {
		return fmt.Errorf("program %s: name is required", program.ID)
	}
	if program.MinAmount != nil && program.MaxAmount != nil && *program.MinAmount > *program.MaxAmount {
		return fmt.Errorf("program %s: min amount %d exceeds max amount %d",
			program.ID, *program.MinAmount, *program.MaxAmount)
	}
	if program.MaxTermMonths != nil && *program.MaxTermMonths < 1 {
		return fmt.Errorf("program %s: max term months must be >= 1", program.ID)
	}
	return validateCriteria(program.ID, &program.Criteria)
}

func validateCriteria(programID string, criteria *domain.ProgramCriteria) error {
	if cs := criteria.CreditScore; cs != nil {
		if cs.Min < 300 || cs.Min > 850 {
			return fmt.Errorf("program %s: credit score minimum %d outside 300-850", programID, cs.Min)
		}
		switch cs.Type {
		case "", "fico", "transunion", "experian", "equifax", "paynet":
		default:
			return fmt.Errorf("program %s: unknown credit score type %q", programID, cs.Type)
		}
	}

	if b := criteria.Business; b != nil {
		switch b.RequiresCDL {
		case "", "true", "false", "conditional":
		default:
			return fmt.Errorf("program %s: requires_cdl must be true, false or conditional, got %q",
				programID, b.RequiresCDL)
		}
	}

	if eq := criteria.Equipment; eq != nil {
		if err := validateEquipment(eq); err != nil {
			return fmt.Errorf("program %s: %w", programID, err)
		}
	}

	if tm := criteria.TermMatrix; tm != nil {
		switch tm.LookupField {
		case "", "mileage", "age", "hours":
		default:
			return fmt.Errorf("program %s: unknown term matrix lookup field %q",
				programID, tm.LookupField)
		}
		for i, entry := range tm.Entries {
			if entry.Min < 0 {
				return fmt.Errorf("program %s: term matrix entry %d: negative minimum", programID, i)
			}
			if entry.Max != nil && *entry.Max < entry.Min {
				return fmt.Errorf("program %s: term matrix entry %d: max %d below min %d",
					programID, i, *entry.Max, entry.Min)
			}
		}
	}

	if la := criteria.LoanAmount; la != nil {
		if la.MinAmount != nil && la.MaxAmount != nil && *la.MinAmount > *la.MaxAmount {
			return fmt.Errorf("program %s: loan amount min %d exceeds max %d",
				programID, *la.MinAmount, *la.MaxAmount)
		}
	}

	return nil
}

func validateEquipment(eq *domain.EquipmentCriteria) error {
	if eq.MaxAgeYears != nil && *eq.MaxAgeYears < 0 {
		return fmt.Errorf("equipment max age must not be negative")
	}
	if eq.MaxMileage != nil && *eq.MaxMileage < 0 {
		return fmt.Errorf("equipment max mileage must not be negative")
	}
	if eq.MaxHours != nil && *eq.MaxHours < 0 {
		return fmt.Errorf("equipment max hours must not be negative")
	}
	return nil
}
