package domain

// CriteriaSection identifies one category of eligibility criteria and
// doubles as the registry key for the rule that evaluates it.
type CriteriaSection string

// Builtin criteria sections.
const (
	SectionCreditScore   CriteriaSection = "credit_score"
	SectionBusiness      CriteriaSection = "business"
	SectionCreditHistory CriteriaSection = "credit_history"
	SectionEquipment     CriteriaSection = "equipment"
	SectionTermMatrix    CriteriaSection = "term_matrix"
	SectionGeographic    CriteriaSection = "geographic"
	SectionIndustry      CriteriaSection = "industry"
	SectionTransaction   CriteriaSection = "transaction"
	SectionLoanAmount    CriteriaSection = "loan_amount"
)

// Criteria is the tagged union over per-section criteria configurations.
// Each rule accepts exactly one concrete criteria type; handing a rule
// the wrong one is a configuration defect, not an applicant failure.
type Criteria interface {
	Section() CriteriaSection
}

// Rule evaluates one category of eligibility criteria against an
// application. Implementations are stateless; a single instance is
// resolved from the registry and shared across concurrent evaluations.
type Rule interface {
	// Type returns the registry key for this rule.
	Type() CriteriaSection

	// Evaluate checks the context against the criteria. Missing
	// applicant data yields a failed RuleResult, not an error; errors
	// are reserved for configuration defects such as a criteria value
	// of the wrong concrete type.
	Evaluate(ctx *EvaluationContext, criteria Criteria) (RuleResult, error)
}

// RuleResult is the outcome of one criterion check.
type RuleResult struct {
	Passed        bool           `json:"passed"`
	RuleName      string         `json:"ruleName"`
	RequiredValue string         `json:"requiredValue"`
	ActualValue   string         `json:"actualValue"`
	Message       string         `json:"message"`
	Score         float64        `json:"scoreContribution"`
	Details       map[string]any `json:"details,omitempty"`
}

// ClampScore bounds a score contribution to [0, 100]. Every RuleResult
// carries a clamped score regardless of what a rule computes.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
