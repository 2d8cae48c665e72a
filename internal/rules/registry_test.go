package rules

import (
	"errors"
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
)

func intPtr(v int) *int             { return &v }
func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool          { return &v }

// resetRegistry restores the builtin rules after a test that mutates
// the process-wide registry.
func resetRegistry(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		Reset()
		RegisterBuiltins()
	})
	Reset()
	RegisterBuiltins()
}

func TestRegistry(t *testing.T) {
	resetRegistry(t)

	t.Run("ResolveBuiltin", func(t *testing.T) {
		rule, err := Resolve(domain.SectionCreditScore)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if rule.Type() != domain.SectionCreditScore {
			t.Errorf("expected section %q, got %q", domain.SectionCreditScore, rule.Type())
		}
	})

	t.Run("ResolveReturnsSingleton", func(t *testing.T) {
		first, err := Resolve(domain.SectionBusiness)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		second, err := Resolve(domain.SectionBusiness)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if first != second {
			t.Error("expected same instance on repeated resolve")
		}
	})

	t.Run("UnknownSection", func(t *testing.T) {
		_, err := Resolve(domain.CriteriaSection("astrology"))
		if err == nil {
			t.Fatal("expected error for unregistered section")
		}
		if !errors.Is(err, ErrUnknownSection) {
			t.Errorf("expected ErrUnknownSection, got %v", err)
		}
	})

	t.Run("Has", func(t *testing.T) {
		if !Has(domain.SectionGeographic) {
			t.Error("expected geographic to be registered")
		}
		if Has(domain.CriteriaSection("astrology")) {
			t.Error("expected astrology to be unregistered")
		}
	})

	t.Run("SectionsSorted", func(t *testing.T) {
		sections := Sections()
		if len(sections) != 9 {
			t.Fatalf("expected 9 builtin sections, got %d", len(sections))
		}
		for i := 1; i < len(sections); i++ {
			if sections[i-1] >= sections[i] {
				t.Errorf("sections not sorted: %q before %q", sections[i-1], sections[i])
			}
		}
	})

	t.Run("RegisterReplaces", func(t *testing.T) {
		// Resolve once so the singleton is cached, then replace the
		// constructor and confirm the cache is invalidated.
		if _, err := Resolve(domain.SectionIndustry); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		Register(domain.SectionIndustry, func() domain.Rule { return stubRule{section: domain.SectionIndustry} })

		rule, err := Resolve(domain.SectionIndustry)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if _, ok := rule.(stubRule); !ok {
			t.Errorf("expected stub rule after re-register, got %T", rule)
		}
	})
}

func TestRegistryReset(t *testing.T) {
	resetRegistry(t)

	Reset()
	if Has(domain.SectionCreditScore) {
		t.Error("expected empty registry after reset")
	}
	if len(Sections()) != 0 {
		t.Errorf("expected no sections after reset, got %d", len(Sections()))
	}

	RegisterBuiltins()
	if !Has(domain.SectionCreditScore) {
		t.Error("expected builtins after re-register")
	}
}

type stubRule struct {
	section domain.CriteriaSection
	result  domain.RuleResult
	err     error
}

func (s stubRule) Type() domain.CriteriaSection { return s.section }

func (s stubRule) Evaluate(ctx *domain.EvaluationContext, criteria domain.Criteria) (domain.RuleResult, error) {
	return s.result, s.err
}
