package rules

import (
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
)

func TestCreditHistoryRule(t *testing.T) {
	rule := &CreditHistoryRule{}

	t.Run("CleanHistory", func(t *testing.T) {
		ctx := &domain.EvaluationContext{}
		result, err := rule.Evaluate(ctx, domain.CreditHistoryCriteria{
			MaxBankruptcies: intPtr(0),
			MaxTaxLiens:     intPtr(0),
		})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if !result.Passed {
			t.Fatalf("expected pass: %s", result.Message)
		}
		if result.Score != 100 {
			t.Errorf("expected score 100, got %g", result.Score)
		}
		if result.RequiredValue != "Clean history" || result.ActualValue != "Acceptable" {
			t.Errorf("unexpected required/actual %q/%q", result.RequiredValue, result.ActualValue)
		}
	})

	t.Run("BankruptcyNotAllowed", func(t *testing.T) {
		ctx := &domain.EvaluationContext{
			HasBankruptcy:     true,
			BankruptcyChapter: "7",
		}
		result, err := rule.Evaluate(ctx, domain.CreditHistoryCriteria{
			MaxBankruptcies: intPtr(0),
		})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if result.Passed {
			t.Fatal("expected fail for bankruptcy")
		}
		if result.Message != "Bankruptcy not allowed" {
			t.Errorf("unexpected message %q", result.Message)
		}
		if result.ActualValue != "Has bankruptcy (Chapter 7)" {
			t.Errorf("unexpected actual %q", result.ActualValue)
		}
	})

	t.Run("ActiveBankruptcy", func(t *testing.T) {
		// Bankruptcies allowed with a discharge window, but no
		// discharge date means the bankruptcy is still open.
		ctx := &domain.EvaluationContext{HasBankruptcy: true}
		result, err := rule.Evaluate(ctx, domain.CreditHistoryCriteria{
			BankruptcyMinDischargeYears: float64Ptr(5),
		})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if result.Passed {
			t.Fatal("expected fail for active bankruptcy")
		}
		if result.Message != "Active bankruptcy not allowed" {
			t.Errorf("unexpected message %q", result.Message)
		}
	})

	t.Run("DischargeTooRecent", func(t *testing.T) {
		ctx := &domain.EvaluationContext{
			HasBankruptcy:            true,
			BankruptcyDischargeYears: float64Ptr(2.5),
		}
		result, err := rule.Evaluate(ctx, domain.CreditHistoryCriteria{
			BankruptcyMinDischargeYears: float64Ptr(5),
		})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if result.Passed {
			t.Fatal("expected fail for recent discharge")
		}
		if result.Message != "Bankruptcy discharged 2.5 years ago, minimum 5 years required" {
			t.Errorf("unexpected message %q", result.Message)
		}
	})

	t.Run("DischargedBankruptcyPenalizesScore", func(t *testing.T) {
		ctx := &domain.EvaluationContext{
			HasBankruptcy:            true,
			BankruptcyDischargeYears: float64Ptr(6),
		}
		result, err := rule.Evaluate(ctx, domain.CreditHistoryCriteria{
			BankruptcyMinDischargeYears: float64Ptr(5),
		})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if !result.Passed {
			t.Fatalf("expected pass: %s", result.Message)
		}
		// 100 - (30 - 6*3) = 88
		if result.Score != 88 {
			t.Errorf("expected score 88, got %g", result.Score)
		}
	})

	t.Run("RecentDischargePenalty", func(t *testing.T) {
		ctx := &domain.EvaluationContext{
			HasBankruptcy:            true,
			BankruptcyDischargeYears: float64Ptr(0.5),
		}
		result, err := rule.Evaluate(ctx, domain.CreditHistoryCriteria{})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if !result.Passed {
			t.Fatalf("expected pass with no bankruptcy cap configured: %s", result.Message)
		}
		if result.Score != 71.5 {
			t.Errorf("expected score 71.5, got %g", result.Score)
		}
	})

	t.Run("AllFailuresReported", func(t *testing.T) {
		ctx := &domain.EvaluationContext{
			HasOpenJudgements: true,
			HasTaxLiens:       true,
			HasRepossession:   true,
		}
		result, err := rule.Evaluate(ctx, domain.CreditHistoryCriteria{
			MaxOpenJudgements:  intPtr(0),
			MaxTaxLiens:        intPtr(0),
			AllowsRepossession: boolPtr(false),
		})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if result.Passed {
			t.Fatal("expected fail")
		}
		// First failure supplies the headline.
		if result.Message != "Open judgements not allowed" {
			t.Errorf("unexpected headline message %q", result.Message)
		}
		failed, ok := result.Details["failed_checks"].([]map[string]string)
		if !ok {
			t.Fatalf("expected failed_checks detail, got %T", result.Details["failed_checks"])
		}
		if len(failed) != 3 {
			t.Errorf("expected 3 failed checks, got %d", len(failed))
		}
	})

	t.Run("JudgementAmountCap", func(t *testing.T) {
		ctx := &domain.EvaluationContext{
			HasOpenJudgements: true,
			JudgementAmount:   int64Ptr(800000),
		}
		result, err := rule.Evaluate(ctx, domain.CreditHistoryCriteria{
			MaxOpenJudgements:  intPtr(1),
			MaxJudgementAmount: int64Ptr(500000),
		})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if result.Passed {
			t.Fatal("expected fail for judgement over cap")
		}
		if result.Message != "Judgement amount $8,000 exceeds maximum $5,000" {
			t.Errorf("unexpected message %q", result.Message)
		}
	})

	t.Run("ForeclosureUnsetFlagAllowed", func(t *testing.T) {
		ctx := &domain.EvaluationContext{HasForeclosure: true}
		result, err := rule.Evaluate(ctx, domain.CreditHistoryCriteria{})
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if !result.Passed {
			t.Errorf("expected pass when foreclosure flag unset: %s", result.Message)
		}
	})
}
