// Package domain defines the core interfaces and types for Harrier.
package domain

import "strings"

// truckingCategories are equipment categories that mark an application
// as trucking for conditional CDL enforcement.
var truckingCategories = map[string]struct{}{
	"class_8_truck": {},
	"trailer":       {},
	"semi":          {},
	"truck":         {},
}

// EvaluationContext is an immutable snapshot of every fact needed to
// evaluate one loan application. It is assembled once by the context
// builder and never mutated afterwards; optional facts are pointers so
// "not provided" is distinguishable from zero.
type EvaluationContext struct {
	ApplicationID string `json:"applicationId"`

	// Personal credit scores
	FicoScore       *int `json:"ficoScore,omitempty"`
	TransunionScore *int `json:"transunionScore,omitempty"`
	ExperianScore   *int `json:"experianScore,omitempty"`
	EquifaxScore    *int `json:"equifaxScore,omitempty"`

	// Business credit scores
	PaynetScore       *int `json:"paynetScore,omitempty"`
	PaynetMasterScore *int `json:"paynetMasterScore,omitempty"`
	PaydexScore       *int `json:"paydexScore,omitempty"`

	// Business facts
	BusinessName    string  `json:"businessName"`
	YearsInBusiness float64 `json:"yearsInBusiness"`
	IndustryCode    string  `json:"industryCode"`
	IndustryName    string  `json:"industryName"`
	State           string  `json:"state"`
	AnnualRevenue   *int64  `json:"annualRevenue,omitempty"`
	FleetSize       *int    `json:"fleetSize,omitempty"`

	// Guarantor facts
	IsHomeowner             bool `json:"isHomeowner"`
	IsUSCitizen             bool `json:"isUsCitizen"`
	HasCDL                  bool `json:"hasCdl"`
	CDLYears                *int `json:"cdlYears,omitempty"`
	IndustryExperienceYears *int `json:"industryExperienceYears,omitempty"`

	// Credit history
	HasBankruptcy            bool     `json:"hasBankruptcy"`
	BankruptcyDischargeYears *float64 `json:"bankruptcyDischargeYears,omitempty"`
	BankruptcyChapter        string   `json:"bankruptcyChapter,omitempty"`
	HasOpenJudgements        bool     `json:"hasOpenJudgements"`
	JudgementAmount          *int64   `json:"judgementAmount,omitempty"`
	HasForeclosure           bool     `json:"hasForeclosure"`
	HasRepossession          bool     `json:"hasRepossession"`
	HasTaxLiens              bool     `json:"hasTaxLiens"`
	TaxLienAmount            *int64   `json:"taxLienAmount,omitempty"`

	// Loan request. LoanAmount is in integer minor currency units.
	LoanAmount          int64    `json:"loanAmount"`
	RequestedTermMonths *int     `json:"requestedTermMonths,omitempty"`
	DownPaymentPercent  *float64 `json:"downPaymentPercent,omitempty"`
	TransactionType     string   `json:"transactionType"`
	IsPrivateParty      bool     `json:"isPrivateParty"`

	// Equipment
	EquipmentCategory  string `json:"equipmentCategory"`
	EquipmentType      string `json:"equipmentType"`
	EquipmentYear      int    `json:"equipmentYear"`
	EquipmentAgeYears  int    `json:"equipmentAgeYears"`
	EquipmentMileage   *int64 `json:"equipmentMileage,omitempty"`
	EquipmentHours     *int64 `json:"equipmentHours,omitempty"`
	EquipmentCondition string `json:"equipmentCondition"`
}

// CreditScore returns the credit score for a named scale
// (fico, transunion, experian, equifax, paynet). The second return
// value is false when the score type is unknown or not provided.
func (c *EvaluationContext) CreditScore(scoreType string) (int, bool) {
	var score *int
	switch strings.ToLower(scoreType) {
	case "fico":
		score = c.FicoScore
	case "transunion":
		score = c.TransunionScore
	case "experian":
		score = c.ExperianScore
	case "equifax":
		score = c.EquifaxScore
	case "paynet":
		score = c.PaynetScore
	default:
		return 0, false
	}
	if score == nil {
		return 0, false
	}
	return *score, true
}

// IsTrucking reports whether the equipment category marks this as a
// trucking application. Derived, never stored.
func (c *EvaluationContext) IsTrucking() bool {
	_, ok := truckingCategories[strings.ToLower(c.EquipmentCategory)]
	return ok
}

// IsStartup reports whether the business is under two years old.
func (c *EvaluationContext) IsStartup() bool {
	return c.YearsInBusiness < 2.0
}
