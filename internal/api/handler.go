package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/matching"
	"github.com/opensource-finance/harrier/internal/policy"
	"github.com/opensource-finance/harrier/internal/repository"
	"github.com/opensource-finance/harrier/internal/rules"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus
	provider domain.PolicyProvider
	matcher  *matching.Service
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, provider domain.PolicyProvider, matcher *matching.Service, version string) *Handler {
	return &Handler{
		repo:     repo,
		cache:    cache,
		bus:      bus,
		provider: provider,
		matcher:  matcher,
		version:  version,
	}
}

// matchResultTTL bounds how long hot match results stay cached.
const matchResultTTL = 15 * time.Minute

// MatchRequest is the request body for POST /match and POST /applications.
type MatchRequest struct {
	ApplicationID  string                     `json:"applicationId"`
	LenderIDs      []string                   `json:"lenderIds,omitempty"`
	Business       *rules.BusinessFacts       `json:"business,omitempty"`
	Guarantor      *rules.GuarantorFacts      `json:"guarantor,omitempty"`
	BusinessCredit *rules.BusinessCreditFacts `json:"businessCredit,omitempty"`
	LoanRequest    *rules.LoanRequestFacts    `json:"loanRequest,omitempty"`
	Equipment      *rules.EquipmentFacts      `json:"equipment,omitempty"`
	Derived        *rules.DerivedFeatures     `json:"derived,omitempty"`
}

func (req *MatchRequest) buildContext() *domain.EvaluationContext {
	return rules.BuildContext(
		req.ApplicationID,
		req.Business,
		req.Guarantor,
		req.BusinessCredit,
		req.LoanRequest,
		req.Equipment,
		req.Derived,
	)
}

func decodeMatchRequest(w http.ResponseWriter, r *http.Request) (*MatchRequest, bool) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return nil, false
	}
	if req.ApplicationID == "" {
		req.ApplicationID = uuid.New().String()
	}
	if req.LoanRequest == nil || req.LoanRequest.LoanAmount <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "loanRequest.loanAmount must be positive",
		})
		return nil, false
	}
	return &req, true
}

// Match handles POST /match: synchronous matching against all lenders
// (or the requested subset).
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}

	result, err := h.matcher.MatchApplication(ctx, req.buildContext(), req.LenderIDs)
	if err != nil {
		slog.Error("matching failed",
			"application_id", req.ApplicationID,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "matching failed",
		})
		return
	}

	// Persist and cache for later retrieval
	if h.repo != nil {
		if err := h.repo.SaveMatchResult(ctx, result); err != nil {
			slog.Error("failed to save match result", "match_id", result.ID, "error", err)
		}
	}
	if h.cache != nil {
		if err := h.cache.SetMatchResult(ctx, result.ID, result, matchResultTTL); err != nil {
			slog.Warn("failed to cache match result", "match_id", result.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// SubmitApplication handles POST /applications: publishes the application
// to the event bus for async processing by the worker.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}

	if h.bus == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "event bus not available",
		})
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to encode application",
		})
		return
	}

	if err := h.bus.Publish(ctx, domain.TopicApplicationSubmitted, payload); err != nil {
		slog.Error("failed to publish application",
			"application_id", req.ApplicationID,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to submit application",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"applicationId": req.ApplicationID,
		"status":        "submitted",
	})
}

// GetMatch retrieves a match result by ID, cache first.
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	matchID := chi.URLParam(r, "id")

	if matchID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "match id is required",
		})
		return
	}

	if h.cache != nil {
		if result, err := h.cache.GetMatchResult(ctx, matchID); err == nil && result != nil {
			writeJSON(w, http.StatusOK, result)
			return
		}
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	result, err := h.repo.GetMatchResult(ctx, matchID)
	if err != nil {
		slog.Error("failed to get match result", "id", matchID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "match result not found",
		})
		return
	}

	if h.cache != nil {
		_ = h.cache.SetMatchResult(ctx, matchID, result, matchResultTTL)
	}

	writeJSON(w, http.StatusOK, result)
}

// ListApplicationMatches retrieves all match results for an application.
func (h *Handler) ListApplicationMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	applicationID := chi.URLParam(r, "id")

	if applicationID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "application id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	results, err := h.repo.ListMatchResultsByApplication(ctx, applicationID)
	if err != nil {
		slog.Error("failed to list match results", "application_id", applicationID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list match results",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applicationId": applicationID,
		"results":       results,
		"count":         len(results),
	})
}

// ListLenders returns the ids of all lenders with a valid policy.
func (h *Handler) ListLenders(w http.ResponseWriter, r *http.Request) {
	ids, err := h.provider.LenderIDs(r.Context())
	if err != nil {
		slog.Error("failed to list lenders", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list lenders",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lenders": ids,
		"count":   len(ids),
	})
}

// GetLender returns one lender's policy.
func (h *Handler) GetLender(w http.ResponseWriter, r *http.Request) {
	lenderID := chi.URLParam(r, "id")

	if lenderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "lender id is required",
		})
		return
	}

	pol, err := h.provider.Policy(r.Context(), lenderID)
	if err != nil {
		if errors.Is(err, policy.ErrPolicyNotFound) || errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "lender not found",
			})
			return
		}
		slog.Error("failed to load lender policy", "lender_id", lenderID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load lender policy",
		})
		return
	}

	writeJSON(w, http.StatusOK, pol)
}

// ExplainLenderRejection handles POST /lenders/{id}/explain: evaluates one
// lender and returns a structured rejection breakdown.
func (h *Handler) ExplainLenderRejection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lenderID := chi.URLParam(r, "id")

	if lenderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "lender id is required",
		})
		return
	}

	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}

	explanation, err := h.matcher.ExplainRejection(ctx, req.buildContext(), lenderID)
	if err != nil {
		if errors.Is(err, policy.ErrPolicyNotFound) || errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "lender not found",
			})
			return
		}
		slog.Error("failed to explain rejection", "lender_id", lenderID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to explain rejection",
		})
		return
	}

	writeJSON(w, http.StatusOK, explanation)
}

// ListPolicies returns every active lender policy.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.provider.ActivePolicies(r.Context())
	if err != nil {
		slog.Error("failed to list policies", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list policies",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"policies": policies,
		"count":    len(policies),
	})
}

// UpsertPolicy handles PUT /policies/{id}: validates and saves a lender
// policy to the repository, then invalidates the cached copy.
func (h *Handler) UpsertPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lenderID := chi.URLParam(r, "id")

	if lenderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "lender id is required",
		})
		return
	}

	var pol domain.LenderPolicy
	if err := json.NewDecoder(r.Body).Decode(&pol); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if pol.ID == "" {
		pol.ID = lenderID
	}
	if pol.ID != lenderID {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "policy id does not match URL",
		})
		return
	}

	if err := policy.Validate(&pol); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	if err := h.repo.SavePolicy(ctx, &pol); err != nil {
		slog.Error("failed to save policy", "lender_id", lenderID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save policy",
		})
		return
	}

	if h.cache != nil {
		_ = h.cache.Delete(ctx, "policy:"+lenderID)
	}

	slog.Info("policy saved", "lender_id", lenderID, "version", pol.Version)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"policy":  &pol,
		"message": "Policy saved.",
	})
}

// ReloadPolicies drops cached policy state so the next read hits the source.
func (h *Handler) ReloadPolicies(w http.ResponseWriter, r *http.Request) {
	if reloader, ok := h.provider.(interface{ Reload() }); ok {
		reloader.Reload()
	}

	ids, err := h.provider.LenderIDs(r.Context())
	if err != nil {
		slog.Error("failed to reload policies", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload policies",
		})
		return
	}

	slog.Info("policies reloaded", "count", len(ids))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "policies reloaded successfully",
		"count":   len(ids),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
