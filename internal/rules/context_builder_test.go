package rules

import (
	"testing"
	"time"
)

func TestBuildContextDefaults(t *testing.T) {
	ctx := BuildContext("app-1", nil, nil, nil, nil, nil, nil)

	if ctx.ApplicationID != "app-1" {
		t.Errorf("expected application id 'app-1', got %q", ctx.ApplicationID)
	}
	if ctx.TransactionType != "purchase" {
		t.Errorf("expected default transaction type 'purchase', got %q", ctx.TransactionType)
	}
	if ctx.EquipmentCondition != "used" {
		t.Errorf("expected default condition 'used', got %q", ctx.EquipmentCondition)
	}
	if ctx.EquipmentAgeYears != 0 {
		t.Errorf("expected age 0 for missing equipment year, got %d", ctx.EquipmentAgeYears)
	}
	if ctx.FicoScore != nil {
		t.Error("expected nil fico score for missing guarantor")
	}
	if ctx.LoanAmount != 0 {
		t.Errorf("expected zero loan amount, got %d", ctx.LoanAmount)
	}
}

func TestBuildContextEquipmentAge(t *testing.T) {
	currentYear := time.Now().Year()

	t.Run("DerivedFromYear", func(t *testing.T) {
		ctx := BuildContext("app-1", nil, nil, nil, nil,
			&EquipmentFacts{Year: currentYear - 7}, nil)
		if ctx.EquipmentAgeYears != 7 {
			t.Errorf("expected age 7, got %d", ctx.EquipmentAgeYears)
		}
	})

	t.Run("FutureYearClampsToZero", func(t *testing.T) {
		ctx := BuildContext("app-1", nil, nil, nil, nil,
			&EquipmentFacts{Year: currentYear + 1}, nil)
		if ctx.EquipmentAgeYears != 0 {
			t.Errorf("expected age 0 for future model year, got %d", ctx.EquipmentAgeYears)
		}
	})

	t.Run("OverrideWins", func(t *testing.T) {
		ctx := BuildContext("app-1", nil, nil, nil, nil,
			&EquipmentFacts{Year: currentYear - 7},
			&DerivedFeatures{EquipmentAgeYears: intPtr(3)})
		if ctx.EquipmentAgeYears != 3 {
			t.Errorf("expected overridden age 3, got %d", ctx.EquipmentAgeYears)
		}
	})
}

func TestBuildContextDerivedOverrides(t *testing.T) {
	business := &BusinessFacts{YearsInBusiness: 2.5}
	guarantor := &GuarantorFacts{
		HasBankruptcy:            true,
		BankruptcyDischargeYears: float64Ptr(1.0),
	}
	derived := &DerivedFeatures{
		YearsInBusiness:          float64Ptr(4.0),
		BankruptcyDischargeYears: float64Ptr(6.5),
	}

	ctx := BuildContext("app-1", business, guarantor, nil, nil, nil, derived)

	if ctx.YearsInBusiness != 4.0 {
		t.Errorf("expected overridden years in business 4.0, got %g", ctx.YearsInBusiness)
	}
	if ctx.BankruptcyDischargeYears == nil || *ctx.BankruptcyDischargeYears != 6.5 {
		t.Errorf("expected overridden discharge years 6.5, got %v", ctx.BankruptcyDischargeYears)
	}
}

func TestBuildContextCopiesFacts(t *testing.T) {
	business := &BusinessFacts{
		Name:            "Acme Hauling LLC",
		YearsInBusiness: 6,
		IndustryCode:    "long_haul_trucking",
		IndustryName:    "Long Haul Trucking",
		State:           "TX",
		AnnualRevenue:   int64Ptr(50000000),
		FleetSize:       intPtr(4),
	}
	guarantor := &GuarantorFacts{
		FicoScore:   intPtr(710),
		IsHomeowner: true,
		HasCDL:      true,
		CDLYears:    intPtr(9),
	}
	businessCredit := &BusinessCreditFacts{PaynetScore: intPtr(720)}
	loanRequest := &LoanRequestFacts{
		LoanAmount:          7500000,
		RequestedTermMonths: intPtr(48),
		TransactionType:     "refinance",
		IsPrivateParty:      true,
	}
	equipment := &EquipmentFacts{
		Category:  "class_8_truck",
		Year:      time.Now().Year() - 3,
		Mileage:   int64Ptr(420000),
		Condition: "new",
	}

	ctx := BuildContext("app-2", business, guarantor, businessCredit, loanRequest, equipment, nil)

	if ctx.BusinessName != "Acme Hauling LLC" {
		t.Errorf("unexpected business name %q", ctx.BusinessName)
	}
	if ctx.State != "TX" {
		t.Errorf("unexpected state %q", ctx.State)
	}
	if ctx.FicoScore == nil || *ctx.FicoScore != 710 {
		t.Errorf("unexpected fico score %v", ctx.FicoScore)
	}
	if ctx.PaynetScore == nil || *ctx.PaynetScore != 720 {
		t.Errorf("unexpected paynet score %v", ctx.PaynetScore)
	}
	if ctx.LoanAmount != 7500000 {
		t.Errorf("unexpected loan amount %d", ctx.LoanAmount)
	}
	if ctx.TransactionType != "refinance" {
		t.Errorf("unexpected transaction type %q", ctx.TransactionType)
	}
	if !ctx.IsPrivateParty {
		t.Error("expected private party flag to carry over")
	}
	if ctx.EquipmentCondition != "new" {
		t.Errorf("unexpected condition %q", ctx.EquipmentCondition)
	}
	if ctx.EquipmentMileage == nil || *ctx.EquipmentMileage != 420000 {
		t.Errorf("unexpected mileage %v", ctx.EquipmentMileage)
	}
	if !ctx.IsTrucking() {
		t.Error("expected class_8_truck to classify as trucking")
	}
}
