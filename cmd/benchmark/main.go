// Benchmark tool for replaying loan application data against Harrier.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/applications.csv -url http://localhost:8080
//
// This tool:
//   1. Reads historical application data (with funded/declined labels)
//   2. Sends each application to Harrier for matching
//   3. Compares Harrier's verdict (eligible/ineligible) with actual outcomes
//   4. Calculates precision, recall, F1-score, and confusion matrix
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Application represents a row from the historical application dataset
type Application struct {
	ID                  string
	FicoScore           int
	YearsInBusiness     float64
	State               string
	IndustryCode        string
	IndustryName        string
	IsHomeowner         bool
	HasCDL              bool
	AnnualRevenue       int64
	LoanAmount          int64
	RequestedTermMonths int
	TransactionType     string
	EquipmentCategory   string
	EquipmentYear       int
	EquipmentMileage    int64
	WasFunded           bool
}

// MatchRequest is the Harrier API request format
type MatchRequest struct {
	ApplicationID string          `json:"applicationId"`
	Business      *BusinessFacts  `json:"business,omitempty"`
	Guarantor     *GuarantorFacts `json:"guarantor,omitempty"`
	LoanRequest   *LoanRequest    `json:"loanRequest,omitempty"`
	Equipment     *EquipmentFacts `json:"equipment,omitempty"`
}

type BusinessFacts struct {
	YearsInBusiness float64 `json:"yearsInBusiness"`
	IndustryCode    string  `json:"industryCode"`
	IndustryName    string  `json:"industryName"`
	State           string  `json:"state"`
	AnnualRevenue   *int64  `json:"annualRevenue,omitempty"`
}

type GuarantorFacts struct {
	FicoScore   *int `json:"ficoScore,omitempty"`
	IsHomeowner bool `json:"isHomeowner"`
	HasCDL      bool `json:"hasCdl"`
}

type LoanRequest struct {
	LoanAmount          int64  `json:"loanAmount"`
	RequestedTermMonths *int   `json:"requestedTermMonths,omitempty"`
	TransactionType     string `json:"transactionType"`
}

type EquipmentFacts struct {
	Category string `json:"category"`
	Year     int    `json:"year"`
	Mileage  *int64 `json:"mileage,omitempty"`
}

// MatchResponse is the Harrier API response format
type MatchResponse struct {
	ID             string  `json:"id"`
	TotalEvaluated int     `json:"totalEvaluated"`
	TotalEligible  int     `json:"totalEligible"`
	BestMatch      *struct {
		LenderID string  `json:"lenderId"`
		FitScore float64 `json:"fitScore"`
	} `json:"bestMatch,omitempty"`
}

// Metrics tracks benchmark results
type Metrics struct {
	TruePositives  int64 // Funded applications with an eligible lender
	FalsePositives int64 // Declined applications with an eligible lender
	TrueNegatives  int64 // Declined applications with no eligible lender
	FalseNegatives int64 // Funded applications with no eligible lender

	TotalProcessed int64
	TotalFunded    int64
	TotalDeclined  int64
	TotalErrors    int64

	EligibleLenderSum int64
	FitScoreSum       uint64 // accumulated fit score x100

	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to applications CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Harrier base URL")
	limit := flag.Int("limit", 10000, "Maximum applications to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	fundedOnly := flag.Bool("funded-only", false, "Only replay funded applications")
	verbose := flag.Bool("verbose", false, "Print each application result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/applications.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║          HARRIER BENCHMARK - Application Replay               ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:     %s\n", *csvPath)
	fmt.Printf("Harrier URL:  %s\n", *baseURL)
	fmt.Printf("Workers:      %d\n", *workers)
	fmt.Printf("Limit:        %d\n", *limit)
	fmt.Printf("Funded Only:  %v\n", *fundedOnly)
	fmt.Println()

	// Check Harrier is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Harrier not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Harrier is running:")
		fmt.Println("  cd harrier && go run cmd/harrier/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Harrier is healthy")

	// Read application data
	fmt.Printf("\nReading applications from %s...\n", *csvPath)
	applications, err := readApplicationsCSV(*csvPath, *limit, *fundedOnly)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d applications\n", len(applications))

	// Count funded vs declined
	fundedCount := 0
	for _, app := range applications {
		if app.WasFunded {
			fundedCount++
		}
	}
	fmt.Printf("  - Funded:   %d (%.2f%%)\n", fundedCount, 100*float64(fundedCount)/float64(len(applications)))
	fmt.Printf("  - Declined: %d (%.2f%%)\n", len(applications)-fundedCount, 100*float64(len(applications)-fundedCount)/float64(len(applications)))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(applications, *baseURL, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readApplicationsCSV(path string, limit int, fundedOnly bool) ([]Application, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(col)] = i
	}

	get := func(record []string, col string) string {
		if i, ok := colIndex[col]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	var applications []Application

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		wasFunded := get(record, "was_funded") == "1"

		// Apply filters
		if fundedOnly && !wasFunded {
			continue
		}

		fico, _ := strconv.Atoi(get(record, "fico_score"))
		tib, _ := strconv.ParseFloat(get(record, "years_in_business"), 64)
		revenue, _ := strconv.ParseInt(get(record, "annual_revenue"), 10, 64)
		amount, _ := strconv.ParseInt(get(record, "loan_amount"), 10, 64)
		term, _ := strconv.Atoi(get(record, "requested_term_months"))
		eqYear, _ := strconv.Atoi(get(record, "equipment_year"))
		mileage, _ := strconv.ParseInt(get(record, "equipment_mileage"), 10, 64)

		app := Application{
			ID:                  get(record, "application_id"),
			FicoScore:           fico,
			YearsInBusiness:     tib,
			State:               get(record, "state"),
			IndustryCode:        get(record, "industry_code"),
			IndustryName:        get(record, "industry_name"),
			IsHomeowner:         get(record, "is_homeowner") == "1",
			HasCDL:              get(record, "has_cdl") == "1",
			AnnualRevenue:       revenue,
			LoanAmount:          amount,
			RequestedTermMonths: term,
			TransactionType:     get(record, "transaction_type"),
			EquipmentCategory:   get(record, "equipment_category"),
			EquipmentYear:       eqYear,
			EquipmentMileage:    mileage,
			WasFunded:           wasFunded,
		}

		applications = append(applications, app)

		if limit > 0 && len(applications) >= limit {
			break
		}
	}

	return applications, nil
}

func runBenchmark(applications []Application, baseURL string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan Application, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for app := range work {
				start := time.Now()
				result, err := matchApplication(client, baseURL, app)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", app.ID, err)
					}
					continue
				}

				// Track actual labels
				if app.WasFunded {
					atomic.AddInt64(&metrics.TotalFunded, 1)
				} else {
					atomic.AddInt64(&metrics.TotalDeclined, 1)
				}

				atomic.AddInt64(&metrics.EligibleLenderSum, int64(result.TotalEligible))
				if result.BestMatch != nil {
					atomic.AddUint64(&metrics.FitScoreSum, uint64(result.BestMatch.FitScore*100))
				}

				// Calculate confusion matrix
				predicted := result.TotalEligible > 0
				actual := app.WasFunded

				if predicted && actual {
					atomic.AddInt64(&metrics.TruePositives, 1)
				} else if predicted && !actual {
					atomic.AddInt64(&metrics.FalsePositives, 1)
				} else if !predicted && !actual {
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				} else { // !predicted && actual
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					status := "✓"
					if (predicted && !actual) || (!predicted && actual) {
						status = "✗"
					}
					best := "-"
					score := 0.0
					if result.BestMatch != nil {
						best = result.BestMatch.LenderID
						score = result.BestMatch.FitScore
					}
					fmt.Printf("%s %-14s | FICO: %3d | Amount: $%10d | Funded: %-5v | Eligible: %2d | Best: %-12s (%.1f)\n",
						status,
						app.ID,
						app.FicoScore,
						app.LoanAmount/100,
						app.WasFunded,
						result.TotalEligible,
						best,
						score,
					)
				}
			}
		}()
	}

	// Send work
	for _, app := range applications {
		work <- app
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func matchApplication(client *http.Client, baseURL string, app Application) (*MatchResponse, error) {
	// Build request matching Harrier's expected format
	req := MatchRequest{
		ApplicationID: app.ID,
		Business: &BusinessFacts{
			YearsInBusiness: app.YearsInBusiness,
			IndustryCode:    app.IndustryCode,
			IndustryName:    app.IndustryName,
			State:           app.State,
		},
		Guarantor: &GuarantorFacts{
			IsHomeowner: app.IsHomeowner,
			HasCDL:      app.HasCDL,
		},
		LoanRequest: &LoanRequest{
			LoanAmount:      app.LoanAmount,
			TransactionType: app.TransactionType,
		},
		Equipment: &EquipmentFacts{
			Category: app.EquipmentCategory,
			Year:     app.EquipmentYear,
		},
	}

	if app.FicoScore > 0 {
		req.Guarantor.FicoScore = &app.FicoScore
	}
	if app.AnnualRevenue > 0 {
		req.Business.AnnualRevenue = &app.AnnualRevenue
	}
	if app.RequestedTermMonths > 0 {
		req.LoanRequest.RequestedTermMonths = &app.RequestedTermMonths
	}
	if app.EquipmentMileage > 0 {
		req.Equipment.Mileage = &app.EquipmentMileage
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/match", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result MatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Total Funded:     %d\n", m.TotalFunded)
	fmt.Printf("   Total Declined:   %d\n", m.TotalDeclined)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\n📈 CONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                  Eligible   Ineligible")
	fmt.Println("              ┌──────────┬──────────┐")
	fmt.Printf("   Actual  F  │ %8d │ %8d │  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              ├──────────┼──────────┤")
	fmt.Printf("           D  │ %8d │ %8d │  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              └──────────┴──────────┘")

	// Calculate metrics
	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\n🎯 MATCHING METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of eligible verdicts, how many actually funded)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of funded deals, how many we found a lender for)\n", recall)
	fmt.Printf("   F1-Score:   %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Accuracy:   %.4f  (overall agreement with outcomes)\n", accuracy)

	fmt.Printf("\n🔍 MATCH ANALYSIS\n")
	if m.TotalProcessed > 0 {
		avgEligible := float64(m.EligibleLenderSum) / float64(m.TotalProcessed)
		fmt.Printf("   Avg Eligible Lenders: %.2f per application\n", avgEligible)
	}
	eligible := m.TruePositives + m.FalsePositives
	if eligible > 0 {
		avgScore := float64(m.FitScoreSum) / 100 / float64(eligible)
		fmt.Printf("   Avg Best Fit Score:   %.1f\n", avgScore)
	}
	if m.TotalFunded > 0 {
		missRate := float64(m.FalseNegatives) / float64(m.TotalFunded) * 100
		fmt.Printf("   Funded but Unmatched: %d / %d (%.2f%%) ⚠️\n", m.FalseNegatives, m.TotalFunded, missRate)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		tps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f apps/sec\n", tps)
	}

	// Interpretation
	fmt.Printf("\n💡 INTERPRETATION\n")
	if recall >= 0.9 {
		fmt.Println("   ✅ Excellent recall - finding lenders for most fundable deals")
	} else if recall >= 0.7 {
		fmt.Println("   ⚠️  Good recall - but missing some fundable deals")
	} else if recall >= 0.5 {
		fmt.Println("   ⚠️  Moderate recall - policies may be too strict")
	} else {
		fmt.Println("   ❌ Poor recall - most fundable deals find no lender!")
	}

	if precision >= 0.5 {
		fmt.Println("   ✅ Good precision - eligible verdicts are meaningful")
	} else if precision >= 0.2 {
		fmt.Println("   ⚠️  Low precision - many eligible deals never funded")
	} else {
		fmt.Println("   ❌ Very low precision - eligibility rarely converts")
	}

	fmt.Println()
}
