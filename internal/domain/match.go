package domain

import "time"

// ProgramMatchResult is the outcome of evaluating one application
// against one lending program.
type ProgramMatchResult struct {
	ProgramID        string       `json:"programId"`
	ProgramName      string       `json:"programName"`
	IsEligible       bool         `json:"isEligible"`
	FitScore         float64      `json:"fitScore"`
	CriteriaResults  []RuleResult `json:"criteriaResults"`
	RejectionReasons []string     `json:"rejectionReasons"`
	MaxTermMonths    *int         `json:"maxTermMonths,omitempty"`
}

// PassedCriteriaCount returns the number of criteria that passed.
func (p *ProgramMatchResult) PassedCriteriaCount() int {
	n := 0
	for _, r := range p.CriteriaResults {
		if r.Passed {
			n++
		}
	}
	return n
}

// FailedCriteriaCount returns the number of criteria that failed.
func (p *ProgramMatchResult) FailedCriteriaCount() int {
	return len(p.CriteriaResults) - p.PassedCriteriaCount()
}

// LenderMatchResult is the outcome of evaluating one application
// against one lender policy. When a lender-wide restriction fails,
// ProgramResults is empty and GlobalRejectionReasons carries the cause.
type LenderMatchResult struct {
	LenderID               string               `json:"lenderId"`
	LenderName             string               `json:"lenderName"`
	IsEligible             bool                 `json:"isEligible"`
	BestProgram            *ProgramMatchResult  `json:"bestProgram,omitempty"`
	FitScore               float64              `json:"fitScore"`
	ProgramResults         []ProgramMatchResult `json:"programResults"`
	GlobalRejectionReasons []string             `json:"globalRejectionReasons"`
	Rank                   int                  `json:"rank"`
}

// EligibleProgramCount returns how many programs the application
// qualifies for with this lender.
func (l *LenderMatchResult) EligibleProgramCount() int {
	n := 0
	for _, p := range l.ProgramResults {
		if p.IsEligible {
			n++
		}
	}
	return n
}

// PrimaryRejectionReason returns the first rejection reason, preferring
// lender-wide reasons over program-level ones. Empty when eligible.
func (l *LenderMatchResult) PrimaryRejectionReason() string {
	if len(l.GlobalRejectionReasons) > 0 {
		return l.GlobalRejectionReasons[0]
	}
	if l.BestProgram != nil && len(l.BestProgram.RejectionReasons) > 0 {
		return l.BestProgram.RejectionReasons[0]
	}
	return ""
}

// MatchingResult is the ranked outcome of matching one application
// against a set of lenders.
type MatchingResult struct {
	ID             string              `json:"id"`
	ApplicationID  string              `json:"applicationId"`
	Matches        []LenderMatchResult `json:"matches"`
	BestMatch      *LenderMatchResult  `json:"bestMatch,omitempty"`
	TotalEvaluated int                 `json:"totalEvaluated"`
	TotalEligible  int                 `json:"totalEligible"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// HasEligibleLender reports whether at least one lender is eligible.
func (m *MatchingResult) HasEligibleLender() bool {
	return m.TotalEligible > 0
}

// EligibleMatches returns only the eligible matches, already in rank order.
func (m *MatchingResult) EligibleMatches() []LenderMatchResult {
	var out []LenderMatchResult
	for _, lm := range m.Matches {
		if lm.IsEligible {
			out = append(out, lm)
		}
	}
	return out
}

// ProgramRejection details why one program turned the application down.
type ProgramRejection struct {
	RejectionReasons []string     `json:"rejectionReasons"`
	FailedCriteria   []RuleResult `json:"failedCriteria"`
}

// RejectionExplanation is the structured breakdown returned by
// the matching service's explain operation.
type RejectionExplanation struct {
	LenderID               string                      `json:"lenderId"`
	IsRejected             bool                        `json:"isRejected"`
	Message                string                      `json:"message,omitempty"`
	BestProgram            string                      `json:"bestProgram,omitempty"`
	GlobalRejectionReasons []string                    `json:"globalRejectionReasons,omitempty"`
	ProgramRejections      map[string]ProgramRejection `json:"programRejections,omitempty"`
	PrimaryReason          string                      `json:"primaryReason,omitempty"`
}
