// Package worker provides async application processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/matching"
	"github.com/opensource-finance/harrier/internal/rules"
)

// Worker processes loan applications asynchronously from the EventBus.
type Worker struct {
	bus     domain.EventBus
	repo    domain.Repository
	matcher *matching.Service

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, matcher *matching.Service) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:     bus,
		repo:    repo,
		matcher: matcher,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start subscribes to the application submitted topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicApplicationSubmitted, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started",
		"topic", domain.TopicApplicationSubmitted,
	)

	return nil
}

// handleMessage handles messages from the application topic. Each
// invocation is tracked so Stop can wait for in-flight work.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	w.wg.Add(1)
	defer w.wg.Done()
	return w.processApplication(ctx, msg)
}

// ApplicationMessage is the message payload for an application to match.
type ApplicationMessage struct {
	ApplicationID  string                     `json:"applicationId"`
	TraceID        string                     `json:"traceId,omitempty"`
	LenderIDs      []string                   `json:"lenderIds,omitempty"`
	Business       *rules.BusinessFacts       `json:"business,omitempty"`
	Guarantor      *rules.GuarantorFacts      `json:"guarantor,omitempty"`
	BusinessCredit *rules.BusinessCreditFacts `json:"businessCredit,omitempty"`
	LoanRequest    *rules.LoanRequestFacts    `json:"loanRequest,omitempty"`
	Equipment      *rules.EquipmentFacts      `json:"equipment,omitempty"`
	Derived        *rules.DerivedFeatures     `json:"derived,omitempty"`
}

// processApplication runs an application through the matching pipeline.
func (w *Worker) processApplication(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	// Parse message
	var appMsg ApplicationMessage
	if err := json.Unmarshal(msg.Payload, &appMsg); err != nil {
		slog.Error("failed to parse application message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	traceID := appMsg.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("processing application",
		"application_id", appMsg.ApplicationID,
		"trace_id", traceID,
	)

	// 1. Build the evaluation context from the submitted records
	evalCtx := rules.BuildContext(
		appMsg.ApplicationID,
		appMsg.Business,
		appMsg.Guarantor,
		appMsg.BusinessCredit,
		appMsg.LoanRequest,
		appMsg.Equipment,
		appMsg.Derived,
	)

	// 2. Match against lenders
	result, err := w.matcher.MatchApplication(ctx, evalCtx, appMsg.LenderIDs)
	if err != nil {
		slog.Error("matching failed",
			"application_id", appMsg.ApplicationID,
			"error", err,
		)
		return err
	}

	// 3. Save result
	if w.repo != nil {
		if err := w.repo.SaveMatchResult(ctx, result); err != nil {
			slog.Error("failed to save match result",
				"application_id", appMsg.ApplicationID,
				"error", err,
			)
		}
	}

	// 4. Publish outcome
	resultPayload, _ := json.Marshal(result)
	topic := domain.TopicMatchCompleted
	if !result.HasEligibleLender() {
		topic = domain.TopicMatchNoLender
	}
	if err := w.bus.Publish(ctx, topic, resultPayload); err != nil {
		slog.Error("failed to publish match result",
			"application_id", appMsg.ApplicationID,
			"topic", topic,
			"error", err,
		)
	}

	slog.Info("application processed",
		"application_id", appMsg.ApplicationID,
		"match_id", result.ID,
		"evaluated", result.TotalEvaluated,
		"eligible", result.TotalEligible,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
