package rules

import (
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
)

func TestCreditScoreRule(t *testing.T) {
	rule := &CreditScoreRule{}

	t.Run("MeetsMinimum", func(t *testing.T) {
		ctx := &domain.EvaluationContext{FicoScore: intPtr(700)}
		result, err := rule.Evaluate(ctx, domain.CreditScoreCriteria{Type: "fico", Min: 650})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if !result.Passed {
			t.Fatalf("expected pass, got fail: %s", result.Message)
		}
		if result.RuleName != "Minimum Fico Score" {
			t.Errorf("expected rule name 'Minimum Fico Score', got %q", result.RuleName)
		}
		// 70 base + 50 excess * 0.3 = 85
		if result.Score != 85 {
			t.Errorf("expected score 85, got %g", result.Score)
		}
	})

	t.Run("ExactlyAtMinimum", func(t *testing.T) {
		ctx := &domain.EvaluationContext{FicoScore: intPtr(700)}
		result, err := rule.Evaluate(ctx, domain.CreditScoreCriteria{Type: "fico", Min: 700})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if !result.Passed {
			t.Fatalf("expected pass at the boundary, got fail: %s", result.Message)
		}
		// No excess over the minimum leaves the base score.
		if result.Score != 70 {
			t.Errorf("expected score 70, got %g", result.Score)
		}
	})

	t.Run("BonusCapped", func(t *testing.T) {
		ctx := &domain.EvaluationContext{FicoScore: intPtr(820)}
		result, err := rule.Evaluate(ctx, domain.CreditScoreCriteria{Min: 600})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if result.Score != 100 {
			t.Errorf("expected capped score 100, got %g", result.Score)
		}
	})

	t.Run("BelowMinimum", func(t *testing.T) {
		ctx := &domain.EvaluationContext{FicoScore: intPtr(620)}
		result, err := rule.Evaluate(ctx, domain.CreditScoreCriteria{Type: "fico", Min: 650})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if result.Passed {
			t.Fatal("expected fail for score below minimum")
		}
		if result.Score != 0 {
			t.Errorf("expected score 0 on failure, got %g", result.Score)
		}
		if result.ActualValue != "620" {
			t.Errorf("expected actual '620', got %q", result.ActualValue)
		}
	})

	t.Run("NotProvided", func(t *testing.T) {
		ctx := &domain.EvaluationContext{}
		result, err := rule.Evaluate(ctx, domain.CreditScoreCriteria{Type: "paynet", Min: 680})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if result.Passed {
			t.Fatal("expected fail for missing score")
		}
		if result.ActualValue != "Not provided" {
			t.Errorf("expected actual 'Not provided', got %q", result.ActualValue)
		}
		if result.Message != "Paynet credit score not provided" {
			t.Errorf("unexpected message %q", result.Message)
		}
	})

	t.Run("DefaultsToFico", func(t *testing.T) {
		ctx := &domain.EvaluationContext{FicoScore: intPtr(660)}
		result, err := rule.Evaluate(ctx, domain.CreditScoreCriteria{Min: 650})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if !result.Passed {
			t.Errorf("expected empty type to read the fico score: %s", result.Message)
		}
	})

	t.Run("WrongCriteriaType", func(t *testing.T) {
		ctx := &domain.EvaluationContext{}
		_, err := rule.Evaluate(ctx, domain.BusinessCriteria{})
		if err == nil {
			t.Fatal("expected error for mismatched criteria type")
		}
	})
}
