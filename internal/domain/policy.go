package domain

// LenderPolicy is the validated configuration for one lender: its
// programs, lender-wide restrictions, and term matrices. Policies are
// produced by a PolicyProvider and treated as read-only by the engine.
type LenderPolicy struct {
	ID           string              `json:"id" yaml:"id"`
	Name         string              `json:"name" yaml:"name"`
	Version      int                 `json:"version" yaml:"version"`
	Description  string              `json:"description,omitempty" yaml:"description,omitempty"`
	ContactEmail string              `json:"contactEmail,omitempty" yaml:"contact_email,omitempty"`
	ContactPhone string              `json:"contactPhone,omitempty" yaml:"contact_phone,omitempty"`
	Programs     []LenderProgram     `json:"programs" yaml:"programs"`
	Restrictions *LenderRestrictions `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
}

// LenderProgram is one lending offer within a policy.
type LenderProgram struct {
	ID            string          `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	Description   string          `json:"description,omitempty" yaml:"description,omitempty"`
	IsAppOnly     bool            `json:"isAppOnly" yaml:"is_app_only"`
	MinAmount     *int64          `json:"minAmount,omitempty" yaml:"min_amount,omitempty"`
	MaxAmount     *int64          `json:"maxAmount,omitempty" yaml:"max_amount,omitempty"`
	MaxTermMonths *int            `json:"maxTermMonths,omitempty" yaml:"max_term_months,omitempty"`
	Criteria      ProgramCriteria `json:"criteria" yaml:"criteria"`
}

// LenderRestrictions are lender-wide checks applied before any program
// is considered. A single failing restriction disqualifies every
// program at once.
type LenderRestrictions struct {
	Geographic  *GeographicCriteria  `json:"geographic,omitempty" yaml:"geographic,omitempty"`
	Industry    *IndustryCriteria    `json:"industry,omitempty" yaml:"industry,omitempty"`
	Transaction *TransactionCriteria `json:"transaction,omitempty" yaml:"transaction,omitempty"`
	Equipment   *EquipmentCriteria   `json:"equipment,omitempty" yaml:"equipment,omitempty"`
}

// ProgramCriteria is the bag of optional criteria sections for a
// program. Each section is independent; absence means "no constraint
// from this section", not "fail".
type ProgramCriteria struct {
	CreditScore   *CreditScoreCriteria   `json:"creditScore,omitempty" yaml:"credit_score,omitempty"`
	Business      *BusinessCriteria      `json:"business,omitempty" yaml:"business,omitempty"`
	CreditHistory *CreditHistoryCriteria `json:"creditHistory,omitempty" yaml:"credit_history,omitempty"`
	Equipment     *EquipmentCriteria     `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	TermMatrix    *TermMatrixCriteria    `json:"termMatrix,omitempty" yaml:"term_matrix,omitempty"`
	Geographic    *GeographicCriteria    `json:"geographic,omitempty" yaml:"geographic,omitempty"`
	Industry      *IndustryCriteria      `json:"industry,omitempty" yaml:"industry,omitempty"`
	Transaction   *TransactionCriteria   `json:"transaction,omitempty" yaml:"transaction,omitempty"`
	LoanAmount    *LoanAmountCriteria    `json:"loanAmount,omitempty" yaml:"loan_amount,omitempty"`
}

// Sections returns the present criteria sections in canonical
// evaluation order. The order is fixed so repeated evaluations of the
// same policy produce identical result lists.
func (c ProgramCriteria) Sections() []Criteria {
	var sections []Criteria
	if c.CreditScore != nil {
		sections = append(sections, *c.CreditScore)
	}
	if c.Business != nil {
		sections = append(sections, *c.Business)
	}
	if c.CreditHistory != nil {
		sections = append(sections, *c.CreditHistory)
	}
	if c.Equipment != nil {
		sections = append(sections, *c.Equipment)
	}
	if c.TermMatrix != nil {
		sections = append(sections, *c.TermMatrix)
	}
	if c.Geographic != nil {
		sections = append(sections, *c.Geographic)
	}
	if c.Industry != nil {
		sections = append(sections, *c.Industry)
	}
	if c.Transaction != nil {
		sections = append(sections, *c.Transaction)
	}
	if c.LoanAmount != nil {
		sections = append(sections, *c.LoanAmount)
	}
	return sections
}

// CreditScoreCriteria requires a minimum score on a named scale.
type CreditScoreCriteria struct {
	// Type is the score scale: fico, transunion, experian, equifax or paynet.
	Type string `json:"type" yaml:"type"`
	Min  int    `json:"min" yaml:"min"`
}

func (CreditScoreCriteria) Section() CriteriaSection { return SectionCreditScore }

// BusinessCriteria aggregates independent business requirement
// sub-checks. Each field is only enforced when set.
type BusinessCriteria struct {
	MinTimeInBusinessYears *float64 `json:"minTimeInBusinessYears,omitempty" yaml:"min_time_in_business_years,omitempty"`
	RequiresHomeowner      *bool    `json:"requiresHomeowner,omitempty" yaml:"requires_homeowner,omitempty"`
	// RequiresCDL is "true", "false" or "conditional"; conditional
	// enforces the CDL check only for trucking applications.
	RequiresCDL                string `json:"requiresCdl,omitempty" yaml:"requires_cdl,omitempty"`
	MinCDLYears                *int   `json:"minCdlYears,omitempty" yaml:"min_cdl_years,omitempty"`
	MinIndustryExperienceYears *int   `json:"minIndustryExperienceYears,omitempty" yaml:"min_industry_experience_years,omitempty"`
	MinFleetSize               *int   `json:"minFleetSize,omitempty" yaml:"min_fleet_size,omitempty"`
	MinAnnualRevenue           *int64 `json:"minAnnualRevenue,omitempty" yaml:"min_annual_revenue,omitempty"`
}

func (BusinessCriteria) Section() CriteriaSection { return SectionBusiness }

// CreditHistoryCriteria constrains bankruptcy, judgement, lien,
// foreclosure and repossession history.
type CreditHistoryCriteria struct {
	MaxBankruptcies             *int     `json:"maxBankruptcies,omitempty" yaml:"max_bankruptcies,omitempty"`
	BankruptcyMinDischargeYears *float64 `json:"bankruptcyMinDischargeYears,omitempty" yaml:"bankruptcy_min_discharge_years,omitempty"`
	MaxOpenJudgements           *int     `json:"maxOpenJudgements,omitempty" yaml:"max_open_judgements,omitempty"`
	MaxJudgementAmount          *int64   `json:"maxJudgementAmount,omitempty" yaml:"max_judgement_amount,omitempty"`
	MaxTaxLiens                 *int     `json:"maxTaxLiens,omitempty" yaml:"max_tax_liens,omitempty"`
	MaxTaxLienAmount            *int64   `json:"maxTaxLienAmount,omitempty" yaml:"max_tax_lien_amount,omitempty"`
	AllowsForeclosure           *bool    `json:"allowsForeclosure,omitempty" yaml:"allows_foreclosure,omitempty"`
	AllowsRepossession          *bool    `json:"allowsRepossession,omitempty" yaml:"allows_repossession,omitempty"`
}

func (CreditHistoryCriteria) Section() CriteriaSection { return SectionCreditHistory }

// EquipmentCriteria limits equipment age, usage and category.
type EquipmentCriteria struct {
	MaxAgeYears        *int     `json:"maxAgeYears,omitempty" yaml:"max_age_years,omitempty"`
	MaxMileage         *int64   `json:"maxMileage,omitempty" yaml:"max_mileage,omitempty"`
	MaxHours           *int64   `json:"maxHours,omitempty" yaml:"max_hours,omitempty"`
	AllowedCategories  []string `json:"allowedCategories,omitempty" yaml:"allowed_categories,omitempty"`
	ExcludedCategories []string `json:"excludedCategories,omitempty" yaml:"excluded_categories,omitempty"`
}

func (EquipmentCriteria) Section() CriteriaSection { return SectionEquipment }

// TermMatrixEntry is one band of a piecewise term lookup table. A zero
// MaxTermMonths or a non-empty RejectionReason marks the band as
// undesired equipment.
type TermMatrixEntry struct {
	Min             int64  `json:"min" yaml:"min"`
	Max             *int64 `json:"max,omitempty" yaml:"max,omitempty"`
	MaxTermMonths   int    `json:"maxTermMonths" yaml:"max_term_months"`
	RejectionReason string `json:"rejectionReason,omitempty" yaml:"rejection_reason,omitempty"`
}

// TermMatrixCriteria resolves the maximum loan term from equipment
// mileage, age or hours.
type TermMatrixCriteria struct {
	// LookupField selects the matrix axis: mileage, age or hours.
	LookupField string            `json:"lookupField" yaml:"lookup_field"`
	Entries     []TermMatrixEntry `json:"entries" yaml:"entries"`
}

func (TermMatrixCriteria) Section() CriteriaSection { return SectionTermMatrix }

// GeographicCriteria restricts the applicant's state. Exclusions are
// checked before the allow list and always win.
type GeographicCriteria struct {
	AllowedStates  []string `json:"allowedStates,omitempty" yaml:"allowed_states,omitempty"`
	ExcludedStates []string `json:"excludedStates,omitempty" yaml:"excluded_states,omitempty"`
}

func (GeographicCriteria) Section() CriteriaSection { return SectionGeographic }

// IndustryCriteria restricts the applicant's industry by code or name
// substring match.
type IndustryCriteria struct {
	AllowedIndustries  []string `json:"allowedIndustries,omitempty" yaml:"allowed_industries,omitempty"`
	ExcludedIndustries []string `json:"excludedIndustries,omitempty" yaml:"excluded_industries,omitempty"`
}

func (IndustryCriteria) Section() CriteriaSection { return SectionIndustry }

// TransactionCriteria restricts transaction types. Nil flags default
// to allowed.
type TransactionCriteria struct {
	AllowsPurchase      *bool `json:"allowsPurchase,omitempty" yaml:"allows_purchase,omitempty"`
	AllowsRefinance     *bool `json:"allowsRefinance,omitempty" yaml:"allows_refinance,omitempty"`
	AllowsSaleLeaseback *bool `json:"allowsSaleLeaseback,omitempty" yaml:"allows_sale_leaseback,omitempty"`
	AllowsPrivateParty  *bool `json:"allowsPrivateParty,omitempty" yaml:"allows_private_party,omitempty"`
}

func (TransactionCriteria) Section() CriteriaSection { return SectionTransaction }

// LoanAmountCriteria bounds the requested amount in minor units.
type LoanAmountCriteria struct {
	MinAmount *int64 `json:"minAmount,omitempty" yaml:"min_amount,omitempty"`
	MaxAmount *int64 `json:"maxAmount,omitempty" yaml:"max_amount,omitempty"`
}

func (LoanAmountCriteria) Section() CriteriaSection { return SectionLoanAmount }
