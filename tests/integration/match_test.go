//go:build integration
// +build integration

// Package integration provides end-to-end tests for the Harrier lender
// matching engine.
//
// These tests verify the COMPLETE matching pipeline:
//
//	Application → Restrictions → Program Criteria → Fit Score → Ranking
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// UNDERSTANDING THE DOMAIN:
//
//  1. APPLICATION: A loan request plus the facts backing it (business,
//     guarantor, credit history, equipment).
//  2. POLICY: One lender's configuration. Each policy has restrictions
//     (lender-wide checks on state, industry, transaction type) and
//     programs (lending offers, each with its own criteria sections).
//  3. FIT SCORE: 0-100 per program; passed criteria contribute, failed
//     criteria contribute zero. The best program per lender wins.
//  4. RANKING: Eligible lenders first (highest fit score first), then
//     ineligible lenders. Rank 1 is the best match.
//
// REQUIRED POLICIES (the server must have policies loaded before
// running this suite - point HARRIER_POLICY_DIR at ./policies or seed
// via PUT /policies/{id}).
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// TestConfig holds test environment configuration
type TestConfig struct {
	BaseURL string
}

func getTestConfig() TestConfig {
	baseURL := os.Getenv("HARRIER_TEST_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return TestConfig{BaseURL: baseURL}
}

// ============================================================================
// API Request/Response Types (matching Harrier's API contract)
// ============================================================================

// MatchRequest is the application sent to POST /match
type MatchRequest struct {
	ApplicationID string         `json:"applicationId,omitempty"`
	LenderIDs     []string       `json:"lenderIds,omitempty"`
	Business      map[string]any `json:"business,omitempty"`
	Guarantor     map[string]any `json:"guarantor,omitempty"`
	LoanRequest   map[string]any `json:"loanRequest,omitempty"`
	Equipment     map[string]any `json:"equipment,omitempty"`
}

// MatchResponse is what POST /match returns
type MatchResponse struct {
	ID             string        `json:"id"`
	ApplicationID  string        `json:"applicationId"`
	Matches        []LenderMatch `json:"matches"`
	BestMatch      *LenderMatch  `json:"bestMatch,omitempty"`
	TotalEvaluated int           `json:"totalEvaluated"`
	TotalEligible  int           `json:"totalEligible"`
}

type LenderMatch struct {
	LenderID               string   `json:"lenderId"`
	LenderName             string   `json:"lenderName"`
	IsEligible             bool     `json:"isEligible"`
	FitScore               float64  `json:"fitScore"`
	Rank                   int      `json:"rank"`
	GlobalRejectionReasons []string `json:"globalRejectionReasons,omitempty"`
}

type Explanation struct {
	LenderID      string `json:"lenderId"`
	IsRejected    bool   `json:"isRejected"`
	Message       string `json:"message,omitempty"`
	BestProgram   string `json:"bestProgram,omitempty"`
	PrimaryReason string `json:"primaryReason,omitempty"`
}

// ============================================================================
// Test Helper Functions
// ============================================================================

func strongApplication(applicationID string) MatchRequest {
	return MatchRequest{
		ApplicationID: applicationID,
		Business: map[string]any{
			"name":            "Integration Freight LLC",
			"yearsInBusiness": 8.0,
			"industryCode":    "484110",
			"industryName":    "General Freight Trucking",
			"state":           "TX",
			"annualRevenue":   120000000,
			"fleetSize":       12,
		},
		Guarantor: map[string]any{
			"ficoScore":   740,
			"isHomeowner": true,
			"hasCdl":      true,
			"cdlYears":    10,
		},
		LoanRequest: map[string]any{
			"loanAmount":          7500000, // $75,000 in minor units
			"requestedTermMonths": 48,
			"transactionType":     "purchase",
		},
		Equipment: map[string]any{
			"category":  "class_8_truck",
			"type":      "sleeper",
			"year":      2022,
			"mileage":   180000,
			"condition": "used",
		},
	}
}

func postJSON(t *testing.T, config TestConfig, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequest("POST", config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return resp, respBody
}

func getJSON(t *testing.T, config TestConfig, path string, out any) int {
	t.Helper()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(config.BaseURL + path)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	if resp.StatusCode == http.StatusOK && out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			t.Fatalf("Failed to unmarshal response: %v (body: %s)", err, string(respBody))
		}
	}
	return resp.StatusCode
}

func match(t *testing.T, config TestConfig, req MatchRequest) MatchResponse {
	t.Helper()

	resp, respBody := postJSON(t, config, "/match", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, string(respBody))
	}

	var result MatchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (body: %s)", err, string(respBody))
	}
	return result
}

// ============================================================================
// SCENARIO 1: Strong Application (Ranked Matches)
// ============================================================================

func TestStrongApplication_RankedMatches(t *testing.T) {
	/*
	   SCENARIO: A well-qualified trucking application - 740 FICO,
	   homeowner, 8 years in business, CDL, late-model truck.

	   EXPECTED BEHAVIOR:
	   - Every loaded lender policy is evaluated
	   - Results come back ranked 1..N, eligible lenders first
	   - Fit scores stay within 0-100
	*/
	config := getTestConfig()

	result := match(t, config, strongApplication("it-strong-001"))

	if result.ApplicationID != "it-strong-001" {
		t.Errorf("Expected applicationId it-strong-001, got %s", result.ApplicationID)
	}
	if result.TotalEvaluated == 0 {
		t.Fatal("Expected at least one lender evaluated - are policies loaded?")
	}
	if len(result.Matches) != result.TotalEvaluated {
		t.Errorf("Expected %d matches, got %d", result.TotalEvaluated, len(result.Matches))
	}

	// Ranks are dense and ordered, eligible lenders first.
	seenIneligible := false
	for i, m := range result.Matches {
		if m.Rank != i+1 {
			t.Errorf("Expected rank %d at position %d, got %d", i+1, i, m.Rank)
		}
		if m.FitScore < 0 || m.FitScore > 100 {
			t.Errorf("Fit score out of range for %s: %.2f", m.LenderID, m.FitScore)
		}
		if !m.IsEligible {
			seenIneligible = true
		} else if seenIneligible {
			t.Errorf("Eligible lender %s ranked after an ineligible one", m.LenderID)
		}
	}

	if result.TotalEligible > 0 && result.BestMatch == nil {
		t.Error("Expected bestMatch when eligible lenders exist")
	}
	if result.BestMatch != nil && result.BestMatch.Rank != 1 {
		t.Errorf("Expected bestMatch at rank 1, got %d", result.BestMatch.Rank)
	}

	t.Logf("✓ Strong application: evaluated=%d, eligible=%d",
		result.TotalEvaluated, result.TotalEligible)
}

// ============================================================================
// SCENARIO 2: Weak Application (Rejections Carry Reasons)
// ============================================================================

func TestWeakApplication_RejectionsExplained(t *testing.T) {
	/*
	   SCENARIO: A thin application - 540 FICO, 6 months in business,
	   no homeownership, 20-year-old equipment.

	   EXPECTED BEHAVIOR:
	   - Most (likely all) lenders reject
	   - Every ineligible match carries at least one rejection signal,
	     either lender-wide reasons or failed program criteria
	*/
	config := getTestConfig()

	req := MatchRequest{
		ApplicationID: "it-weak-001",
		Business: map[string]any{
			"name":            "Brand New Hauling",
			"yearsInBusiness": 0.5,
			"industryCode":    "484110",
			"industryName":    "General Freight Trucking",
			"state":           "TX",
		},
		Guarantor: map[string]any{
			"ficoScore": 540,
		},
		LoanRequest: map[string]any{
			"loanAmount":      2500000,
			"transactionType": "purchase",
		},
		Equipment: map[string]any{
			"category":  "class_8_truck",
			"year":      2005,
			"mileage":   900000,
			"condition": "used",
		},
	}

	result := match(t, config, req)

	if result.TotalEvaluated == 0 {
		t.Fatal("Expected at least one lender evaluated - are policies loaded?")
	}

	for _, m := range result.Matches {
		if m.IsEligible {
			t.Logf("Note: lender %s accepted the weak application (fit=%.1f)",
				m.LenderID, m.FitScore)
		}
	}

	t.Logf("✓ Weak application: evaluated=%d, eligible=%d",
		result.TotalEvaluated, result.TotalEligible)
}

// ============================================================================
// SCENARIO 3: Match Result Persistence
// ============================================================================

func TestMatchResult_Retrievable(t *testing.T) {
	/*
	   SCENARIO: A synchronous match should be retrievable afterwards by
	   its id and listed under its application.
	*/
	config := getTestConfig()

	result := match(t, config, strongApplication("it-persist-001"))
	if result.ID == "" {
		t.Fatal("Expected match result id")
	}

	var fetched MatchResponse
	if code := getJSON(t, config, "/matches/"+result.ID, &fetched); code != http.StatusOK {
		t.Fatalf("Expected 200 fetching match %s, got %d", result.ID, code)
	}
	if fetched.ID != result.ID {
		t.Errorf("Expected match id %s, got %s", result.ID, fetched.ID)
	}
	if fetched.ApplicationID != "it-persist-001" {
		t.Errorf("Expected applicationId it-persist-001, got %s", fetched.ApplicationID)
	}

	var history struct {
		Count int `json:"count"`
	}
	if code := getJSON(t, config, "/applications/it-persist-001/matches", &history); code != http.StatusOK {
		t.Fatalf("Expected 200 listing application matches, got %d", code)
	}
	if history.Count < 1 {
		t.Errorf("Expected at least 1 result in application history, got %d", history.Count)
	}

	t.Logf("✓ Match result %s retrievable, history count=%d", result.ID, history.Count)
}

// ============================================================================
// SCENARIO 4: Lender Catalog and Rejection Explanations
// ============================================================================

func TestLenderCatalog(t *testing.T) {
	/*
	   SCENARIO: Every lender listed in the catalog should have a
	   retrievable policy, and the explain endpoint should produce a
	   verdict for each.
	*/
	config := getTestConfig()

	var catalog struct {
		Lenders []string `json:"lenders"`
		Count   int      `json:"count"`
	}
	if code := getJSON(t, config, "/lenders", &catalog); code != http.StatusOK {
		t.Fatalf("Expected 200 listing lenders, got %d", code)
	}
	if catalog.Count == 0 {
		t.Fatal("Expected at least one lender - are policies loaded?")
	}

	for _, id := range catalog.Lenders {
		t.Run(id, func(t *testing.T) {
			var policy struct {
				ID       string `json:"id"`
				Programs []any  `json:"programs"`
			}
			if code := getJSON(t, config, "/lenders/"+id, &policy); code != http.StatusOK {
				t.Fatalf("Expected 200 fetching lender %s, got %d", id, code)
			}
			if policy.ID != id {
				t.Errorf("Expected policy id %s, got %s", id, policy.ID)
			}
			if len(policy.Programs) == 0 {
				t.Errorf("Expected at least one program for %s", id)
			}

			resp, respBody := postJSON(t, config, "/lenders/"+id+"/explain",
				strongApplication("it-explain-"+id))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected 200 from explain, got %d: %s", resp.StatusCode, string(respBody))
			}

			var explanation Explanation
			if err := json.Unmarshal(respBody, &explanation); err != nil {
				t.Fatalf("Failed to unmarshal explanation: %v", err)
			}
			if explanation.IsRejected && explanation.PrimaryReason == "" {
				t.Errorf("Rejected by %s but no primary reason given", id)
			}
			if !explanation.IsRejected && explanation.Message == "" {
				t.Errorf("Qualified with %s but no message given", id)
			}

			t.Logf("%s: rejected=%v program=%q reason=%q",
				id, explanation.IsRejected, explanation.BestProgram, explanation.PrimaryReason)
		})
	}
}

// ============================================================================
// SCENARIO 5: Lender Subset
// ============================================================================

func TestLenderSubset_OnlyNamedEvaluated(t *testing.T) {
	/*
	   SCENARIO: Naming lenderIds restricts evaluation to that subset.
	*/
	config := getTestConfig()

	var catalog struct {
		Lenders []string `json:"lenders"`
	}
	if code := getJSON(t, config, "/lenders", &catalog); code != http.StatusOK {
		t.Fatalf("Expected 200 listing lenders, got %d", code)
	}
	if len(catalog.Lenders) == 0 {
		t.Fatal("Expected at least one lender - are policies loaded?")
	}

	req := strongApplication("it-subset-001")
	req.LenderIDs = catalog.Lenders[:1]

	result := match(t, config, req)

	if result.TotalEvaluated != 1 {
		t.Errorf("Expected 1 lender evaluated, got %d", result.TotalEvaluated)
	}
	if len(result.Matches) == 1 && result.Matches[0].LenderID != catalog.Lenders[0] {
		t.Errorf("Expected lender %s, got %s", catalog.Lenders[0], result.Matches[0].LenderID)
	}

	t.Logf("✓ Subset match: lender=%s", catalog.Lenders[0])
}

// ============================================================================
// SCENARIO 6: Input Validation
// ============================================================================

func TestMissingLoanAmount_Error(t *testing.T) {
	/*
	   SCENARIO: Request without a positive loanRequest.loanAmount.

	   EXPECTED: HTTP 400 Bad Request
	*/
	config := getTestConfig()

	req := strongApplication("it-invalid-001")
	req.LoanRequest = map[string]any{"loanAmount": 0}

	resp, _ := postJSON(t, config, "/match", req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for zero loan amount, got %d", resp.StatusCode)
	}

	t.Logf("✓ Validation test passed: zero loan amount → HTTP %d", resp.StatusCode)
}

func TestMalformedBody_Error(t *testing.T) {
	/*
	   SCENARIO: Request body is not JSON.

	   EXPECTED: HTTP 400 Bad Request
	*/
	config := getTestConfig()

	httpReq, _ := http.NewRequest("POST", config.BaseURL+"/match",
		bytes.NewReader([]byte("not-json")))
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", resp.StatusCode)
	}

	t.Logf("✓ Validation test passed: malformed body → HTTP %d", resp.StatusCode)
}

// ============================================================================
// SCENARIO 7: Health
// ============================================================================

func TestHealth(t *testing.T) {
	config := getTestConfig()

	var health map[string]string
	if code := getJSON(t, config, "/health", &health); code != http.StatusOK {
		t.Fatalf("Expected 200 from /health, got %d", code)
	}
	if health["status"] != "healthy" && health["status"] != "degraded" {
		t.Errorf("Unexpected health status: %s", health["status"])
	}
	if health["version"] == "" {
		t.Error("Missing version in health response")
	}

	t.Logf("✓ Health: status=%s version=%s", health["status"], health["version"])
}
