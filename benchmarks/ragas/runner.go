// ABOUTME: Benchmark runner that ingests scenario documents and scores answers
// ABOUTME: Works against any ingester and asker, normally the wired application

package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
)

// Ingester ingests one file
type Ingester interface {
	IngestPath(ctx context.Context, path string) (models.IngestResult, error)
}

// Asker answers a question, optionally scoped to one content hash
type Asker interface {
	Ask(ctx context.Context, question, fileHash string) (*models.Answer, error)
}

// BenchmarkRunner executes scenarios
type BenchmarkRunner struct {
	ingester Ingester
	asker    Asker
	metrics  *MetricsCalculator
	workDir  string
	logger   *log.Logger
}

// NewBenchmarkRunner creates a runner that stages documents under workDir
func NewBenchmarkRunner(ingester Ingester, asker Asker, workDir string, logger *log.Logger) *BenchmarkRunner {
	return &BenchmarkRunner{
		ingester: ingester,
		asker:    asker,
		metrics:  NewMetricsCalculator(),
		workDir:  workDir,
		logger:   logging.Component(logger, "benchmark"),
	}
}

// RunTest ingests the scenario's documents, asks its question and scores the answer
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario Scenario) (TestResult, error) {
	start := time.Now()
	r.logger.Info("running scenario", "id", scenario.ID)

	hashes, err := r.setupTest(ctx, scenario)
	if err != nil {
		return failed(scenario, err), err
	}

	var fileHash string
	if scenario.ScopeTo != "" {
		h, ok := hashes[scenario.ScopeTo]
		if !ok {
			err := fmt.Errorf("scope_to names unknown document %q", scenario.ScopeTo)
			return failed(scenario, err), err
		}
		fileHash = h
	}

	answer, err := r.asker.Ask(ctx, scenario.Question, fileHash)
	if err != nil {
		err = fmt.Errorf("ask failed: %w", err)
		return failed(scenario, err), err
	}

	result := r.metrics.EvaluateTest(scenario, answer)
	result.Details["duration_ms"] = time.Since(start).Milliseconds()
	r.logger.Info("scenario scored", "id", scenario.ID, "status", result.Status, "overall", result.OverallScore)
	return result, nil
}

// setupTest writes and ingests the scenario documents, returning name to hash
func (r *BenchmarkRunner) setupTest(ctx context.Context, scenario Scenario) (map[string]string, error) {
	dir := filepath.Join(r.workDir, scenario.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}

	hashes := make(map[string]string, len(scenario.Documents))
	for _, doc := range scenario.Documents {
		path := filepath.Join(dir, filepath.Base(doc.Name))
		if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", doc.Name, err)
		}

		res, err := r.ingester.IngestPath(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to ingest %s: %w", doc.Name, err)
		}
		hashes[doc.Name] = res.FileHash
	}
	return hashes, nil
}

func failed(scenario Scenario, err error) TestResult {
	return TestResult{
		TestID:       scenario.ID,
		TestName:     scenario.Name,
		Status:       "FAIL",
		ErrorMessage: err.Error(),
	}
}

// RunAllTests executes every scenario. A failing scenario is recorded and the run continues.
func (r *BenchmarkRunner) RunAllTests(ctx context.Context, scenarios []Scenario) []TestResult {
	results := make([]TestResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			r.logger.Error("scenario failed", "id", scenario.ID, "err", err)
		}
		results = append(results, result)
	}
	return results
}

// Summary aggregates results for export
type Summary struct {
	Timestamp  string       `json:"timestamp"`
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Results    []TestResult `json:"results"`
}

// Summarize counts passes and failures
func Summarize(results []TestResult) Summary {
	s := Summary{
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Status == "PASS" {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// ExportResults writes the summary of results as JSON to outputPath
func ExportResults(results []TestResult, outputPath string) error {
	jsonData, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
