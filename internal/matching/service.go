// Package matching coordinates application evaluation across lenders.
package matching

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/engine"
)

var tracer = otel.Tracer("harrier-matching")

// Service fans an application out across lender policies, ranks the
// results, and explains rejections. Lender evaluations run in
// parallel bounded by maxWorkers; one lender failing never aborts the
// round.
type Service struct {
	engine     *engine.Engine
	provider   domain.PolicyProvider
	maxWorkers int
}

// NewService creates a matching service. maxWorkers bounds parallel
// lender evaluations; values below one fall back to 10.
func NewService(eng *engine.Engine, provider domain.PolicyProvider, maxWorkers int) *Service {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	return &Service{
		engine:     eng,
		provider:   provider,
		maxWorkers: maxWorkers,
	}
}

// MatchApplication evaluates an application against the named lenders,
// or against every active lender when lenderIDs is empty. Results come
// back ranked: eligible before ineligible, higher fit score first,
// submission order breaking ties. A lender whose policy cannot be
// loaded or evaluated is reported as an ineligible match with the
// failure as its rejection reason.
func (s *Service) MatchApplication(ctx context.Context, evalCtx *domain.EvaluationContext, lenderIDs []string) (*domain.MatchingResult, error) {
	ctx, span := tracer.Start(ctx, "matching.MatchApplication")
	defer span.End()

	policies, err := s.loadPolicies(ctx, lenderIDs)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("application.id", evalCtx.ApplicationID),
		attribute.Int("lenders.count", len(policies)),
	)

	matches := s.evaluateAll(ctx, evalCtx, policies)
	result := buildResult(matches)
	result.ID = uuid.NewString()
	result.ApplicationID = evalCtx.ApplicationID
	result.CreatedAt = time.Now().UTC()

	slog.Info("application matched",
		"application_id", evalCtx.ApplicationID,
		"evaluated", result.TotalEvaluated,
		"eligible", result.TotalEligible)

	return result, nil
}

// lenderRef pairs a lender id with its policy so evaluation failures
// can still name the lender.
type lenderRef struct {
	id     string
	policy *domain.LenderPolicy
	err    error
}

func (s *Service) loadPolicies(ctx context.Context, lenderIDs []string) ([]lenderRef, error) {
	if len(lenderIDs) == 0 {
		policies, err := s.provider.ActivePolicies(ctx)
		if err != nil {
			return nil, fmt.Errorf("load active policies: %w", err)
		}
		refs := make([]lenderRef, 0, len(policies))
		for _, p := range policies {
			refs = append(refs, lenderRef{id: p.ID, policy: p})
		}
		return refs, nil
	}

	refs := make([]lenderRef, 0, len(lenderIDs))
	for _, id := range lenderIDs {
		policy, err := s.provider.Policy(ctx, id)
		refs = append(refs, lenderRef{id: id, policy: policy, err: err})
	}
	return refs, nil
}

// evaluateAll runs the engine for every lender in parallel. Results
// land in an index-addressed slice so output order always matches
// submission order regardless of goroutine scheduling.
func (s *Service) evaluateAll(ctx context.Context, evalCtx *domain.EvaluationContext, refs []lenderRef) []domain.LenderMatchResult {
	results := make([]domain.LenderMatchResult, len(refs))
	var wg sync.WaitGroup

	sem := make(chan struct{}, s.maxWorkers)

	for i, ref := range refs {
		wg.Add(1)
		go func(idx int, ref lenderRef) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = s.evaluateOne(evalCtx, ref)
		}(i, ref)
	}

	wg.Wait()
	return results
}

func (s *Service) evaluateOne(evalCtx *domain.EvaluationContext, ref lenderRef) domain.LenderMatchResult {
	if ref.err != nil {
		slog.Error("policy load failed",
			"lender_id", ref.id,
			"error", ref.err)
		return failedLenderResult(ref.id, fmt.Sprintf("Lender policy unavailable: %v", ref.err))
	}

	result, err := s.engine.EvaluateLender(evalCtx, ref.policy)
	if err != nil {
		slog.Error("lender evaluation failed",
			"lender_id", ref.id,
			"application_id", evalCtx.ApplicationID,
			"error", err)
		return failedLenderResult(ref.id, fmt.Sprintf("Lender evaluation failed: %v", err))
	}
	return *result
}

func failedLenderResult(lenderID, reason string) domain.LenderMatchResult {
	return domain.LenderMatchResult{
		LenderID:               lenderID,
		GlobalRejectionReasons: []string{reason},
	}
}

// buildResult ranks matches and selects the best one. Eligible sorts
// before ineligible, then higher fit score; the stable sort preserves
// submission order among ties. Every entry gets a sequential rank.
func buildResult(matches []domain.LenderMatchResult) *domain.MatchingResult {
	sorted := make([]domain.LenderMatchResult, len(matches))
	copy(sorted, matches)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsEligible != sorted[j].IsEligible {
			return sorted[i].IsEligible
		}
		return sorted[i].FitScore > sorted[j].FitScore
	})

	eligible := 0
	for i := range sorted {
		sorted[i].Rank = i + 1
		if sorted[i].IsEligible {
			eligible++
		}
	}

	result := &domain.MatchingResult{
		Matches:        sorted,
		TotalEvaluated: len(sorted),
		TotalEligible:  eligible,
	}
	if eligible > 0 {
		result.BestMatch = &sorted[0]
	}
	return result
}

// MatchSingleLender evaluates the application against one lender.
// Unlike the fan-out path, load and evaluation errors surface
// directly.
func (s *Service) MatchSingleLender(ctx context.Context, evalCtx *domain.EvaluationContext, lenderID string) (*domain.LenderMatchResult, error) {
	policy, err := s.provider.Policy(ctx, lenderID)
	if err != nil {
		return nil, fmt.Errorf("load policy %s: %w", lenderID, err)
	}
	return s.engine.EvaluateLender(evalCtx, policy)
}

// ExplainRejection evaluates one lender and returns a structured
// breakdown of why the application was turned down, or a confirmation
// when it qualifies.
func (s *Service) ExplainRejection(ctx context.Context, evalCtx *domain.EvaluationContext, lenderID string) (*domain.RejectionExplanation, error) {
	result, err := s.MatchSingleLender(ctx, evalCtx, lenderID)
	if err != nil {
		return nil, err
	}

	explanation := &domain.RejectionExplanation{LenderID: lenderID}

	if result.IsEligible {
		explanation.Message = "Application qualifies for this lender"
		if result.BestProgram != nil {
			explanation.BestProgram = result.BestProgram.ProgramName
		}
		return explanation, nil
	}

	explanation.IsRejected = true
	explanation.GlobalRejectionReasons = result.GlobalRejectionReasons
	explanation.PrimaryReason = result.PrimaryRejectionReason()
	explanation.ProgramRejections = make(map[string]domain.ProgramRejection)

	for _, prog := range result.ProgramResults {
		if prog.IsEligible {
			continue
		}
		var failedCriteria []domain.RuleResult
		for _, cr := range prog.CriteriaResults {
			if !cr.Passed {
				failedCriteria = append(failedCriteria, cr)
			}
		}
		explanation.ProgramRejections[prog.ProgramName] = domain.ProgramRejection{
			RejectionReasons: prog.RejectionReasons,
			FailedCriteria:   failedCriteria,
		}
	}

	return explanation, nil
}

// EligibleLenderIDs returns the ids of lenders the application
// qualifies for, in rank order.
func (s *Service) EligibleLenderIDs(ctx context.Context, evalCtx *domain.EvaluationContext) ([]string, error) {
	result, err := s.MatchApplication(ctx, evalCtx, nil)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, m := range result.Matches {
		if m.IsEligible {
			ids = append(ids, m.LenderID)
		}
	}
	return ids, nil
}

// AvailableLenderIDs returns every lender id known to the policy
// provider.
func (s *Service) AvailableLenderIDs(ctx context.Context) ([]string, error) {
	return s.provider.LenderIDs(ctx)
}
