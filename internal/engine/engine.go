// Package engine evaluates loan applications against lender policies.
package engine

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/rules"
)

// Resolver resolves the rule for a criteria section. The default is
// the package-level rule registry; tests substitute stubs.
type Resolver func(section domain.CriteriaSection) (domain.Rule, error)

// Engine evaluates one application context against one lender policy.
// It is stateless and safe for concurrent use.
type Engine struct {
	resolve Resolver
}

// New creates an engine backed by the default rule registry.
func New() *Engine {
	return &Engine{resolve: rules.Resolve}
}

// NewWithResolver creates an engine with a custom rule resolver.
func NewWithResolver(resolve Resolver) *Engine {
	return &Engine{resolve: resolve}
}

// EvaluateLender evaluates an application against a lender policy.
// Lender-wide restrictions run first in a fixed order; the first
// failing restriction disqualifies every program and no program
// criteria are evaluated. Errors are configuration defects (an
// unresolvable criteria section or a mistyped criteria value) and
// abort evaluation for this lender only.
func (e *Engine) EvaluateLender(ctx *domain.EvaluationContext, policy *domain.LenderPolicy) (*domain.LenderMatchResult, error) {
	result := &domain.LenderMatchResult{
		LenderID:   policy.ID,
		LenderName: policy.Name,
	}

	if policy.Restrictions != nil {
		failure, err := e.evaluateRestrictions(ctx, policy.Restrictions)
		if err != nil {
			return nil, fmt.Errorf("lender %s: restrictions: %w", policy.ID, err)
		}
		if failure != nil {
			result.GlobalRejectionReasons = append(result.GlobalRejectionReasons, failure.Message)
			return result, nil
		}
	}

	for _, program := range policy.Programs {
		programResult, err := e.evaluateProgram(ctx, &program)
		if err != nil {
			return nil, fmt.Errorf("lender %s: program %s: %w", policy.ID, program.ID, err)
		}
		result.ProgramResults = append(result.ProgramResults, *programResult)
	}

	e.selectBestProgram(result)
	return result, nil
}

// restrictionCriteria returns the present lender-wide restrictions in
// their fixed evaluation order.
func restrictionCriteria(r *domain.LenderRestrictions) []domain.Criteria {
	var out []domain.Criteria
	if r.Geographic != nil {
		out = append(out, *r.Geographic)
	}
	if r.Industry != nil {
		out = append(out, *r.Industry)
	}
	if r.Transaction != nil {
		out = append(out, *r.Transaction)
	}
	if r.Equipment != nil {
		out = append(out, *r.Equipment)
	}
	return out
}

// evaluateRestrictions runs lender-wide restrictions through the same
// registry rules as program criteria, stopping at the first failure.
func (e *Engine) evaluateRestrictions(ctx *domain.EvaluationContext, restrictions *domain.LenderRestrictions) (*domain.RuleResult, error) {
	for _, criteria := range restrictionCriteria(restrictions) {
		rule, err := e.resolve(criteria.Section())
		if err != nil {
			return nil, err
		}
		res, err := rule.Evaluate(ctx, criteria)
		if err != nil {
			return nil, err
		}
		if !res.Passed {
			// Rule messages are phrased for program criteria; a
			// restriction failure applies to the whole lender.
			res.Message = strings.Replace(res.Message, "from this program", "by this lender", 1)
			return &res, nil
		}
	}
	return nil, nil
}

func (e *Engine) evaluateProgram(ctx *domain.EvaluationContext, program *domain.LenderProgram) (*domain.ProgramMatchResult, error) {
	result := &domain.ProgramMatchResult{
		ProgramID:     program.ID,
		ProgramName:   program.Name,
		IsEligible:    true,
		MaxTermMonths: program.MaxTermMonths,
	}

	e.checkProgramBounds(ctx, program, result)

	for _, criteria := range program.Criteria.Sections() {
		rule, err := e.resolve(criteria.Section())
		if err != nil {
			return nil, err
		}
		res, err := rule.Evaluate(ctx, criteria)
		if err != nil {
			return nil, err
		}
		result.CriteriaResults = append(result.CriteriaResults, res)
		if !res.Passed {
			result.IsEligible = false
			result.RejectionReasons = append(result.RejectionReasons, res.Message)
			continue
		}
		if criteria.Section() == domain.SectionTermMatrix {
			tightenMaxTerm(result, res)
		}
	}

	result.FitScore = fitScore(result)
	return result, nil
}

// checkProgramBounds enforces the program's own amount range before
// any criteria section runs. Failures are recorded as synthetic
// criteria results so they count against the fit score.
func (e *Engine) checkProgramBounds(ctx *domain.EvaluationContext, program *domain.LenderProgram, result *domain.ProgramMatchResult) {
	amount := domain.FormatMinorUnits(ctx.LoanAmount)

	if program.MinAmount != nil && ctx.LoanAmount < *program.MinAmount {
		minStr := domain.FormatMinorUnits(*program.MinAmount)
		result.IsEligible = false
		result.RejectionReasons = append(result.RejectionReasons,
			fmt.Sprintf("Loan amount %s below minimum %s", amount, minStr))
		result.CriteriaResults = append(result.CriteriaResults, domain.RuleResult{
			RuleName:      "Minimum Loan Amount",
			RequiredValue: minStr,
			ActualValue:   amount,
			Message:       "Loan amount below program minimum",
		})
	}

	if program.MaxAmount != nil && ctx.LoanAmount > *program.MaxAmount {
		maxStr := domain.FormatMinorUnits(*program.MaxAmount)
		result.IsEligible = false
		result.RejectionReasons = append(result.RejectionReasons,
			fmt.Sprintf("Loan amount %s exceeds maximum %s", amount, maxStr))
		result.CriteriaResults = append(result.CriteriaResults, domain.RuleResult{
			RuleName:      "Maximum Loan Amount",
			RequiredValue: maxStr,
			ActualValue:   amount,
			Message:       "Loan amount exceeds program maximum",
		})
	}
}

// tightenMaxTerm lowers the program's resolved max term when the
// matched term matrix band allows less.
func tightenMaxTerm(result *domain.ProgramMatchResult, res domain.RuleResult) {
	raw, ok := res.Details["max_term_months"]
	if !ok {
		return
	}
	var months int
	switch v := raw.(type) {
	case int:
		months = v
	case float64:
		months = int(v)
	default:
		return
	}
	if months <= 0 {
		return
	}
	if result.MaxTermMonths == nil || months < *result.MaxTermMonths {
		result.MaxTermMonths = &months
	}
}

// fitScore averages the passed criteria scores over the total number
// of criteria results. A program with no criteria scores 100 when
// eligible, 0 otherwise.
func fitScore(result *domain.ProgramMatchResult) float64 {
	if len(result.CriteriaResults) == 0 {
		if result.IsEligible {
			return 100
		}
		return 0
	}
	sum := 0.0
	anyPassed := false
	for _, r := range result.CriteriaResults {
		if r.Passed {
			sum += r.Score
			anyPassed = true
		}
	}
	if !anyPassed {
		return 0
	}
	return sum / float64(len(result.CriteriaResults))
}

// selectBestProgram marks the lender eligible when any program is, and
// picks the best program: the eligible one with the highest fit score,
// or the closest ineligible one (fewest failed criteria) when none
// qualify. Ties keep the earlier program.
func (e *Engine) selectBestProgram(result *domain.LenderMatchResult) {
	var best *domain.ProgramMatchResult
	for i := range result.ProgramResults {
		p := &result.ProgramResults[i]
		if !p.IsEligible {
			continue
		}
		if best == nil || p.FitScore > best.FitScore {
			best = p
		}
	}

	if best != nil {
		result.IsEligible = true
		result.BestProgram = best
		result.FitScore = best.FitScore
		return
	}

	var closest *domain.ProgramMatchResult
	for i := range result.ProgramResults {
		p := &result.ProgramResults[i]
		if closest == nil || p.FailedCriteriaCount() < closest.FailedCriteriaCount() {
			closest = p
		}
	}
	if closest != nil {
		result.BestProgram = closest
		result.FitScore = closest.FitScore
	}
}
