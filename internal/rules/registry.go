// Package rules provides the criterion rule implementations, the
// process-wide rule registry, and the evaluation context builder.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/opensource-finance/harrier/internal/domain"
)

// ErrUnknownSection is returned when a criteria section has no
// registered rule. A policy referencing an unresolvable section is a
// configuration defect and must abort evaluation for that lender.
var ErrUnknownSection = errors.New("no rule registered for criteria section")

// registry holds rule constructors and lazily built singletons.
// Registration happens once at process start; resolution is safe for
// concurrent readers.
type registry struct {
	mu        sync.RWMutex
	ctors     map[domain.CriteriaSection]func() domain.Rule
	instances map[domain.CriteriaSection]domain.Rule
}

var defaultRegistry = &registry{
	ctors:     make(map[domain.CriteriaSection]func() domain.Rule),
	instances: make(map[domain.CriteriaSection]domain.Rule),
}

// Register binds a rule constructor to a criteria section. Later
// registrations for the same section replace earlier ones, which tests
// use to stub individual rules.
func Register(section domain.CriteriaSection, ctor func() domain.Rule) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.ctors[section] = ctor
	delete(defaultRegistry.instances, section)
}

// Resolve returns the singleton rule for a section, constructing it on
// first use. Resolving an unregistered section is an error, never a
// silent no-op.
func Resolve(section domain.CriteriaSection) (domain.Rule, error) {
	defaultRegistry.mu.RLock()
	if rule, ok := defaultRegistry.instances[section]; ok {
		defaultRegistry.mu.RUnlock()
		return rule, nil
	}
	defaultRegistry.mu.RUnlock()

	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()

	if rule, ok := defaultRegistry.instances[section]; ok {
		return rule, nil
	}
	ctor, ok := defaultRegistry.ctors[section]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	rule := ctor()
	defaultRegistry.instances[section] = rule
	return rule, nil
}

// Has reports whether a rule is registered for the section.
func Has(section domain.CriteriaSection) bool {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	_, ok := defaultRegistry.ctors[section]
	return ok
}

// Sections returns all registered criteria sections, sorted.
func Sections() []domain.CriteriaSection {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()

	out := make([]domain.CriteriaSection, 0, len(defaultRegistry.ctors))
	for s := range defaultRegistry.ctors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reset clears the registry. For test isolation only; no production
// code path reaches it.
func Reset() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.ctors = make(map[domain.CriteriaSection]func() domain.Rule)
	defaultRegistry.instances = make(map[domain.CriteriaSection]domain.Rule)
}

// RegisterBuiltins registers every builtin criterion rule. Called once
// from main at startup and from test setup after Reset.
func RegisterBuiltins() {
	Register(domain.SectionCreditScore, func() domain.Rule { return &CreditScoreRule{} })
	Register(domain.SectionBusiness, func() domain.Rule { return &BusinessRule{} })
	Register(domain.SectionCreditHistory, func() domain.Rule { return &CreditHistoryRule{} })
	Register(domain.SectionEquipment, func() domain.Rule { return &EquipmentRule{} })
	Register(domain.SectionTermMatrix, func() domain.Rule { return &TermMatrixRule{} })
	Register(domain.SectionGeographic, func() domain.Rule { return &GeographicRule{} })
	Register(domain.SectionIndustry, func() domain.Rule { return &IndustryRule{} })
	Register(domain.SectionTransaction, func() domain.Rule { return &TransactionRule{} })
	Register(domain.SectionLoanAmount, func() domain.Rule { return &LoanAmountRule{} })
}
