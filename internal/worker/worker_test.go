package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/bus"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/engine"
	"github.com/opensource-finance/harrier/internal/matching"
	"github.com/opensource-finance/harrier/internal/rules"
)

func TestMain(m *testing.M) {
	rules.RegisterBuiltins()
	m.Run()
}

func intPtr(v int) *int { return &v }

// fakeRepo records saved match results.
type fakeRepo struct {
	mu    sync.Mutex
	saved []*domain.MatchingResult
}

func (r *fakeRepo) SavePolicy(ctx context.Context, policy *domain.LenderPolicy) error { return nil }
func (r *fakeRepo) GetPolicy(ctx context.Context, lenderID string) (*domain.LenderPolicy, error) {
	return nil, nil
}
func (r *fakeRepo) ListPolicies(ctx context.Context) ([]*domain.LenderPolicy, error) {
	return nil, nil
}
func (r *fakeRepo) DeactivatePolicy(ctx context.Context, lenderID string) error { return nil }

func (r *fakeRepo) SaveMatchResult(ctx context.Context, result *domain.MatchingResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, result)
	return nil
}

func (r *fakeRepo) GetMatchResult(ctx context.Context, id string) (*domain.MatchingResult, error) {
	return nil, nil
}
func (r *fakeRepo) ListMatchResultsByApplication(ctx context.Context, applicationID string) ([]*domain.MatchingResult, error) {
	return nil, nil
}
func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

func (r *fakeRepo) savedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

// staticProvider serves a fixed set of policies.
type staticProvider struct {
	policies []*domain.LenderPolicy
}

func (p *staticProvider) Policy(ctx context.Context, lenderID string) (*domain.LenderPolicy, error) {
	for _, pol := range p.policies {
		if pol.ID == lenderID {
			return pol, nil
		}
	}
	return nil, fmt.Errorf("policy %s not found", lenderID)
}

func (p *staticProvider) ActivePolicies(ctx context.Context) ([]*domain.LenderPolicy, error) {
	return p.policies, nil
}

func (p *staticProvider) LenderIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(p.policies))
	for _, pol := range p.policies {
		ids = append(ids, pol.ID)
	}
	return ids, nil
}

// slowProvider delays policy loads to hold handler invocations
// in flight.
type slowProvider struct {
	inner staticProvider
	delay time.Duration
}

func (p *slowProvider) Policy(ctx context.Context, lenderID string) (*domain.LenderPolicy, error) {
	time.Sleep(p.delay)
	return p.inner.Policy(ctx, lenderID)
}

func (p *slowProvider) ActivePolicies(ctx context.Context) ([]*domain.LenderPolicy, error) {
	time.Sleep(p.delay)
	return p.inner.ActivePolicies(ctx)
}

func (p *slowProvider) LenderIDs(ctx context.Context) ([]string, error) {
	return p.inner.LenderIDs(ctx)
}

func testMatcher(policies ...*domain.LenderPolicy) *matching.Service {
	return matching.NewService(engine.New(), &staticProvider{policies: policies}, 4)
}

func subscribeOutcome(t *testing.T, eventBus domain.EventBus, topic string, count *atomic.Int32, done chan<- *domain.MatchingResult) {
	t.Helper()
	_, err := eventBus.Subscribe(context.Background(), topic, func(ctx context.Context, msg *domain.Message) error {
		count.Add(1)
		var result domain.MatchingResult
		if err := json.Unmarshal(msg.Payload, &result); err != nil {
			t.Errorf("bad outcome payload: %v", err)
			return err
		}
		select {
		case done <- &result:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
}

func submitApplication(t *testing.T, eventBus domain.EventBus, msg ApplicationMessage) {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal application: %v", err)
	}
	if err := eventBus.Publish(context.Background(), domain.TopicApplicationSubmitted, payload); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func TestWorkerProcessesApplication(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	policy := &domain.LenderPolicy{
		ID:   "lender-a",
		Name: "First Equipment Capital",
		Programs: []domain.LenderProgram{
			{
				ID:   "std",
				Name: "Standard",
				Criteria: domain.ProgramCriteria{
					CreditScore: &domain.CreditScoreCriteria{Type: "fico", Min: 650},
				},
			},
		},
	}

	repo := &fakeRepo{}
	w := NewWorker(eventBus, repo, testMatcher(policy))
	if err := w.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	var completed atomic.Int32
	resultCh := make(chan *domain.MatchingResult, 1)
	subscribeOutcome(t, eventBus, domain.TopicMatchCompleted, &completed, resultCh)

	time.Sleep(10 * time.Millisecond)

	submitApplication(t, eventBus, ApplicationMessage{
		ApplicationID: "app-1",
		Guarantor:     &rules.GuarantorFacts{FicoScore: intPtr(720)},
		LoanRequest:   &rules.LoanRequestFacts{LoanAmount: 5000000},
	})

	select {
	case result := <-resultCh:
		if result.ApplicationID != "app-1" {
			t.Errorf("unexpected application id %q", result.ApplicationID)
		}
		if result.TotalEligible != 1 {
			t.Errorf("expected 1 eligible lender, got %d", result.TotalEligible)
		}
		if result.BestMatch == nil || result.BestMatch.LenderID != "lender-a" {
			t.Errorf("unexpected best match %+v", result.BestMatch)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for match completed event")
	}

	if repo.savedCount() != 1 {
		t.Errorf("expected 1 saved match result, got %d", repo.savedCount())
	}
}

func TestWorkerPublishesNoLenderOutcome(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	policy := &domain.LenderPolicy{
		ID:   "lender-a",
		Name: "Strict Capital",
		Programs: []domain.LenderProgram{
			{
				ID:   "std",
				Name: "Standard",
				Criteria: domain.ProgramCriteria{
					CreditScore: &domain.CreditScoreCriteria{Type: "fico", Min: 750},
				},
			},
		},
	}

	w := NewWorker(eventBus, &fakeRepo{}, testMatcher(policy))
	if err := w.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	var noLender atomic.Int32
	var completed atomic.Int32
	noLenderCh := make(chan *domain.MatchingResult, 1)
	completedCh := make(chan *domain.MatchingResult, 1)
	subscribeOutcome(t, eventBus, domain.TopicMatchNoLender, &noLender, noLenderCh)
	subscribeOutcome(t, eventBus, domain.TopicMatchCompleted, &completed, completedCh)

	time.Sleep(10 * time.Millisecond)

	submitApplication(t, eventBus, ApplicationMessage{
		ApplicationID: "app-2",
		Guarantor:     &rules.GuarantorFacts{FicoScore: intPtr(600)},
		LoanRequest:   &rules.LoanRequestFacts{LoanAmount: 5000000},
	})

	select {
	case result := <-noLenderCh:
		if result.TotalEligible != 0 {
			t.Errorf("expected 0 eligible, got %d", result.TotalEligible)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for no-lender event")
	}

	if completed.Load() != 0 {
		t.Errorf("expected no match-completed event, got %d", completed.Load())
	}
}

func TestWorkerIgnoresBadPayload(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	repo := &fakeRepo{}
	w := NewWorker(eventBus, repo, testMatcher())
	if err := w.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	time.Sleep(10 * time.Millisecond)

	if err := eventBus.Publish(context.Background(), domain.TopicApplicationSubmitted, []byte("not json")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if repo.savedCount() != 0 {
		t.Errorf("expected no saved results for bad payload, got %d", repo.savedCount())
	}
}

func TestWorkerStopWaitsForInFlight(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	policy := &domain.LenderPolicy{
		ID:   "lender-a",
		Name: "First Equipment Capital",
		Programs: []domain.LenderProgram{
			{ID: "std", Name: "Standard"},
		},
	}

	provider := &slowProvider{
		inner: staticProvider{policies: []*domain.LenderPolicy{policy}},
		delay: 100 * time.Millisecond,
	}
	repo := &fakeRepo{}
	w := NewWorker(eventBus, repo, matching.NewService(engine.New(), provider, 4))
	if err := w.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	submitApplication(t, eventBus, ApplicationMessage{
		ApplicationID: "app-3",
		Guarantor:     &rules.GuarantorFacts{FicoScore: intPtr(720)},
		LoanRequest:   &rules.LoanRequestFacts{LoanAmount: 5000000},
	})

	// Let the handler reach the slow policy load before stopping.
	time.Sleep(30 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if repo.savedCount() != 1 {
		t.Errorf("expected in-flight application saved before stop returned, got %d", repo.savedCount())
	}
}

func TestWorkerStats(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	w := NewWorker(eventBus, &fakeRepo{}, testMatcher())
	if err := w.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	stats := w.GetStats()
	if stats.SubscriptionCount != 1 {
		t.Errorf("expected 1 subscription, got %d", stats.SubscriptionCount)
	}
	if len(stats.Topics) != 1 || stats.Topics[0] != domain.TopicApplicationSubmitted {
		t.Errorf("unexpected topics %v", stats.Topics)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if w.GetStats().SubscriptionCount != 0 {
		t.Error("expected no subscriptions after stop")
	}
}
