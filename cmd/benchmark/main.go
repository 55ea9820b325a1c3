// ABOUTME: Command-line benchmark runner for RAGAS-style answer quality checks
// ABOUTME: Ingests scenario documents into a scratch store, asks, scores and exports JSON

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harper/docqa/benchmarks/ragas"
	"github.com/harper/docqa/internal/app"
	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	testID := flag.String("test", "", "Run one scenario by id. If empty, runs all scenarios.")
	scenariosPath := flag.String("scenarios", "", "YAML scenario file (default: built-in scenarios)")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, level)

	scenarios := ragas.BuiltinScenarios()
	if *scenariosPath != "" {
		scenarios, err = ragas.LoadScenarios(*scenariosPath)
		if err != nil {
			return err
		}
	}
	if *testID != "" {
		s, ok := ragas.FindScenario(scenarios, *testID)
		if !ok {
			return fmt.Errorf("unknown scenario id: %s", *testID)
		}
		scenarios = []ragas.Scenario{s}
	}

	// Scratch store so benchmarks never touch real collections
	workDir, err := os.MkdirTemp("", "docqa-benchmark-*")
	if err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	cfg.DocsDir = filepath.Join(workDir, "documents")
	cfg.Collection = "benchmark"
	if cfg.VectorBackend == config.BackendSQLite {
		cfg.StoreDir = filepath.Join(workDir, "store")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer a.Close()

	fmt.Println("========================================")
	fmt.Println("docqa RAGAS Benchmarks")
	fmt.Println("========================================")

	runner := ragas.NewBenchmarkRunner(a.Pipeline, a.QA, cfg.DocsDir, logger)
	results := runner.RunAllTests(ctx, scenarios)
	summary := ragas.Summarize(results)

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)
		if result.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", result.ErrorMessage)
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Println("========================================")

	if err := ragas.ExportResults(results, *outputPath); err != nil {
		return err
	}
	fmt.Printf("Results exported to: %s\n", *outputPath)

	if summary.Failed > 0 {
		return fmt.Errorf("%d scenario(s) failed", summary.Failed)
	}
	return nil
}
