package policy

import (
	"strings"
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func validPolicy() *domain.LenderPolicy {
	return &domain.LenderPolicy{
		ID:      "acme",
		Name:    "Acme Capital",
		Version: 1,
		Programs: []domain.LenderProgram{
			{ID: "std", Name: "Standard"},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		if err := Validate(validPolicy()); err != nil {
			t.Errorf("expected valid policy, got %v", err)
		}
	})

	t.Run("MissingID", func(t *testing.T) {
		p := validPolicy()
		p.ID = ""
		if err := Validate(p); err == nil {
			t.Error("expected error for missing id")
		}
	})

	t.Run("MissingName", func(t *testing.T) {
		p := validPolicy()
		p.Name = ""
		if err := Validate(p); err == nil {
			t.Error("expected error for missing name")
		}
	})

	t.Run("ZeroVersion", func(t *testing.T) {
		p := validPolicy()
		p.Version = 0
		if err := Validate(p); err == nil {
			t.Error("expected error for version 0")
		}
	})

	t.Run("NoPrograms", func(t *testing.T) {
		p := validPolicy()
		p.Programs = nil
		if err := Validate(p); err == nil {
			t.Error("expected error for empty program list")
		}
	})

	t.Run("DuplicateProgramIDs", func(t *testing.T) {
		p := validPolicy()
		p.Programs = append(p.Programs, domain.LenderProgram{ID: "std", Name: "Copy"})
		err := Validate(p)
		if err == nil {
			t.Fatal("expected error for duplicate program id")
		}
		if !strings.Contains(err.Error(), "duplicate program id") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("InvertedAmountRange", func(t *testing.T) {
		p := validPolicy()
		p.Programs[0].MinAmount = int64Ptr(10000000)
		p.Programs[0].MaxAmount = int64Ptr(1000000)
		if err := Validate(p); err == nil {
			t.Error("expected error for min over max")
		}
	})

	t.Run("CreditScoreOutOfRange", func(t *testing.T) {
		p := validPolicy()
		p.Programs[0].Criteria.CreditScore = &domain.CreditScoreCriteria{Min: 900}
		if err := Validate(p); err == nil {
			t.Error("expected error for score minimum above 850")
		}
	})

	t.Run("UnknownScoreType", func(t *testing.T) {
		p := validPolicy()
		p.Programs[0].Criteria.CreditScore = &domain.CreditScoreCriteria{Type: "vantage", Min: 650}
		if err := Validate(p); err == nil {
			t.Error("expected error for unknown score type")
		}
	})

	t.Run("BadCDLFlag", func(t *testing.T) {
		p := validPolicy()
		p.Programs[0].Criteria.Business = &domain.BusinessCriteria{RequiresCDL: "maybe"}
		if err := Validate(p); err == nil {
			t.Error("expected error for bad requires_cdl value")
		}
	})

	t.Run("BadTermMatrixLookup", func(t *testing.T) {
		p := validPolicy()
		p.Programs[0].Criteria.TermMatrix = &domain.TermMatrixCriteria{LookupField: "weight"}
		if err := Validate(p); err == nil {
			t.Error("expected error for unknown lookup field")
		}
	})

	t.Run("InvertedTermMatrixBand", func(t *testing.T) {
		p := validPolicy()
		p.Programs[0].Criteria.TermMatrix = &domain.TermMatrixCriteria{
			Entries: []domain.TermMatrixEntry{
				{Min: 500000, Max: int64Ptr(100000), MaxTermMonths: 48},
			},
		}
		if err := Validate(p); err == nil {
			t.Error("expected error for band max below min")
		}
	})

	t.Run("NegativeEquipmentLimits", func(t *testing.T) {
		p := validPolicy()
		p.Programs[0].Criteria.Equipment = &domain.EquipmentCriteria{MaxAgeYears: intPtr(-1)}
		if err := Validate(p); err == nil {
			t.Error("expected error for negative max age")
		}
	})

	t.Run("RestrictionEquipmentChecked", func(t *testing.T) {
		p := validPolicy()
		p.Restrictions = &domain.LenderRestrictions{
			Equipment: &domain.EquipmentCriteria{MaxMileage: int64Ptr(-5)},
		}
		if err := Validate(p); err == nil {
			t.Error("expected error for negative restriction mileage")
		}
	})
}
