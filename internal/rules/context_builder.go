package rules

import (
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

// BusinessFacts is the partial business record handed in by the caller.
type BusinessFacts struct {
	Name            string  `json:"name"`
	YearsInBusiness float64 `json:"yearsInBusiness"`
	IndustryCode    string  `json:"industryCode"`
	IndustryName    string  `json:"industryName"`
	State           string  `json:"state"`
	AnnualRevenue   *int64  `json:"annualRevenue,omitempty"`
	FleetSize       *int    `json:"fleetSize,omitempty"`
}

// GuarantorFacts is the partial guarantor record, covering personal
// credit scores and credit history.
type GuarantorFacts struct {
	FicoScore       *int `json:"ficoScore,omitempty"`
	TransunionScore *int `json:"transunionScore,omitempty"`
	ExperianScore   *int `json:"experianScore,omitempty"`
	EquifaxScore    *int `json:"equifaxScore,omitempty"`

	IsHomeowner             bool `json:"isHomeowner"`
	IsUSCitizen             bool `json:"isUsCitizen"`
	HasCDL                  bool `json:"hasCdl"`
	CDLYears                *int `json:"cdlYears,omitempty"`
	IndustryExperienceYears *int `json:"industryExperienceYears,omitempty"`

	HasBankruptcy            bool     `json:"hasBankruptcy"`
	BankruptcyDischargeYears *float64 `json:"bankruptcyDischargeYears,omitempty"`
	BankruptcyChapter        string   `json:"bankruptcyChapter,omitempty"`
	HasOpenJudgements        bool     `json:"hasOpenJudgements"`
	JudgementAmount          *int64   `json:"judgementAmount,omitempty"`
	HasForeclosure           bool     `json:"hasForeclosure"`
	HasRepossession          bool     `json:"hasRepossession"`
	HasTaxLiens              bool     `json:"hasTaxLiens"`
	TaxLienAmount            *int64   `json:"taxLienAmount,omitempty"`
}

// BusinessCreditFacts carries business bureau scores.
type BusinessCreditFacts struct {
	PaynetScore       *int `json:"paynetScore,omitempty"`
	PaynetMasterScore *int `json:"paynetMasterScore,omitempty"`
	PaydexScore       *int `json:"paydexScore,omitempty"`
}

// LoanRequestFacts describes the requested financing. Amount is in
// integer minor currency units.
type LoanRequestFacts struct {
	LoanAmount          int64    `json:"loanAmount"`
	RequestedTermMonths *int     `json:"requestedTermMonths,omitempty"`
	DownPaymentPercent  *float64 `json:"downPaymentPercent,omitempty"`
	TransactionType     string   `json:"transactionType"`
	IsPrivateParty      bool     `json:"isPrivateParty"`
}

// EquipmentFacts describes the equipment being financed.
type EquipmentFacts struct {
	Category  string `json:"category"`
	Type      string `json:"type"`
	Year      int    `json:"year"`
	Mileage   *int64 `json:"mileage,omitempty"`
	Hours     *int64 `json:"hours,omitempty"`
	Condition string `json:"condition"`
}

// DerivedFeatures is the override channel for pre-computed derived
// values. A set field wins over the value computed or extracted from
// the primary inputs.
type DerivedFeatures struct {
	EquipmentAgeYears        *int     `json:"equipmentAgeYears,omitempty"`
	YearsInBusiness          *float64 `json:"yearsInBusiness,omitempty"`
	BankruptcyDischargeYears *float64 `json:"bankruptcyDischargeYears,omitempty"`
}

// BuildContext assembles a flat EvaluationContext from partial input
// records. All record pointers may be nil; missing fields default to
// their zero values. The only ambient input is the current year used
// to derive equipment age.
func BuildContext(
	applicationID string,
	business *BusinessFacts,
	guarantor *GuarantorFacts,
	businessCredit *BusinessCreditFacts,
	loanRequest *LoanRequestFacts,
	equipment *EquipmentFacts,
	derived *DerivedFeatures,
) *domain.EvaluationContext {
	if business == nil {
		business = &BusinessFacts{}
	}
	if guarantor == nil {
		guarantor = &GuarantorFacts{}
	}
	if businessCredit == nil {
		businessCredit = &BusinessCreditFacts{}
	}
	if loanRequest == nil {
		loanRequest = &LoanRequestFacts{}
	}
	if equipment == nil {
		equipment = &EquipmentFacts{}
	}
	if derived == nil {
		derived = &DerivedFeatures{}
	}

	equipmentAge := 0
	if equipment.Year > 0 {
		if age := time.Now().Year() - equipment.Year; age > 0 {
			equipmentAge = age
		}
	}
	if derived.EquipmentAgeYears != nil {
		equipmentAge = *derived.EquipmentAgeYears
	}

	yearsInBusiness := business.YearsInBusiness
	if derived.YearsInBusiness != nil {
		yearsInBusiness = *derived.YearsInBusiness
	}

	dischargeYears := guarantor.BankruptcyDischargeYears
	if derived.BankruptcyDischargeYears != nil {
		dischargeYears = derived.BankruptcyDischargeYears
	}

	transactionType := loanRequest.TransactionType
	if transactionType == "" {
		transactionType = "purchase"
	}
	condition := equipment.Condition
	if condition == "" {
		condition = "used"
	}

	return &domain.EvaluationContext{
		ApplicationID: applicationID,

		FicoScore:       guarantor.FicoScore,
		TransunionScore: guarantor.TransunionScore,
		ExperianScore:   guarantor.ExperianScore,
		EquifaxScore:    guarantor.EquifaxScore,

		PaynetScore:       businessCredit.PaynetScore,
		PaynetMasterScore: businessCredit.PaynetMasterScore,
		PaydexScore:       businessCredit.PaydexScore,

		BusinessName:    business.Name,
		YearsInBusiness: yearsInBusiness,
		IndustryCode:    business.IndustryCode,
		IndustryName:    business.IndustryName,
		State:           business.State,
		AnnualRevenue:   business.AnnualRevenue,
		FleetSize:       business.FleetSize,

		IsHomeowner:             guarantor.IsHomeowner,
		IsUSCitizen:             guarantor.IsUSCitizen,
		HasCDL:                  guarantor.HasCDL,
		CDLYears:                guarantor.CDLYears,
		IndustryExperienceYears: guarantor.IndustryExperienceYears,

		HasBankruptcy:            guarantor.HasBankruptcy,
		BankruptcyDischargeYears: dischargeYears,
		BankruptcyChapter:        guarantor.BankruptcyChapter,
		HasOpenJudgements:        guarantor.HasOpenJudgements,
		JudgementAmount:          guarantor.JudgementAmount,
		HasForeclosure:           guarantor.HasForeclosure,
		HasRepossession:          guarantor.HasRepossession,
		HasTaxLiens:              guarantor.HasTaxLiens,
		TaxLienAmount:            guarantor.TaxLienAmount,

		LoanAmount:          loanRequest.LoanAmount,
		RequestedTermMonths: loanRequest.RequestedTermMonths,
		DownPaymentPercent:  loanRequest.DownPaymentPercent,
		TransactionType:     transactionType,
		IsPrivateParty:      loanRequest.IsPrivateParty,

		EquipmentCategory:  equipment.Category,
		EquipmentType:      equipment.Type,
		EquipmentYear:      equipment.Year,
		EquipmentAgeYears:  equipmentAge,
		EquipmentMileage:   equipment.Mileage,
		EquipmentHours:     equipment.Hours,
		EquipmentCondition: condition,
	}
}
