// ABOUTME: RAGAS-style metrics for faithfulness and context recall
// ABOUTME: Deterministic evaluation against ground truth terms and expected sources

package ragas

import (
	"fmt"
	"strings"

	"github.com/harper/docqa/internal/models"
)

// PassThreshold is the minimum score on both metrics for a PASS
const PassThreshold = 0.9

// MetricsCalculator computes RAGAS scores for benchmark scenarios
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateFaithfulness computes faithfulness score (0.0-1.0)
// Faithfulness = Does the answer contain the ground truth and nothing forbidden?
func (m *MetricsCalculator) CalculateFaithfulness(
	answer string,
	expectedInAnswer []string,
	forbiddenInAnswer []string,
) (float64, string) {
	answerUpper := strings.ToUpper(answer)

	missingItems := []string{}
	for _, expected := range expectedInAnswer {
		if !strings.Contains(answerUpper, strings.ToUpper(expected)) {
			missingItems = append(missingItems, expected)
		}
	}

	forbiddenFound := []string{}
	for _, forbidden := range forbiddenInAnswer {
		if strings.Contains(answerUpper, strings.ToUpper(forbidden)) {
			forbiddenFound = append(forbiddenFound, forbidden)
		}
	}

	switch {
	case len(missingItems) == 0 && len(forbiddenFound) == 0:
		return 1.0, "Perfect faithfulness - answer matches expected ground truth"
	case len(missingItems) > 0 && len(forbiddenFound) > 0:
		return 0.0, fmt.Sprintf(
			"Faithfulness failure - missing expected items: %v, forbidden items found: %v",
			missingItems, forbiddenFound,
		)
	case len(missingItems) > 0:
		return 0.5, fmt.Sprintf("Partial faithfulness - missing expected items: %v", missingItems)
	default:
		return 0.5, fmt.Sprintf("Partial faithfulness - forbidden items found: %v", forbiddenFound)
	}
}

// CalculateContextRecall computes context recall score (0.0-1.0)
// Context Recall = Were the expected documents and pages retrieved?
func (m *MetricsCalculator) CalculateContextRecall(
	retrieved []models.Metadata,
	expected []ExpectedSource,
) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No context retrieval required"
	}

	foundCount := 0
	missingItems := []string{}
	for _, want := range expected {
		if containsSource(retrieved, want) {
			foundCount++
		} else {
			missingItems = append(missingItems, want.String())
		}
	}

	recall := float64(foundCount) / float64(len(expected))
	if recall == 1.0 {
		return 1.0, "Perfect context recall - all expected sources retrieved"
	}

	return recall, fmt.Sprintf("Partial context recall (%.2f) - missing sources: %v", recall, missingItems)
}

func containsSource(retrieved []models.Metadata, want ExpectedSource) bool {
	for _, m := range retrieved {
		if m.Source == want.Source && (want.Page == 0 || m.Page == want.Page) {
			return true
		}
	}
	return false
}

// EvaluateTest runs full RAGAS evaluation for a scenario
func (m *MetricsCalculator) EvaluateTest(scenario Scenario, answer *models.Answer) TestResult {
	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(
		answer.Answer,
		scenario.GroundTruth.ExpectedInAnswer,
		scenario.GroundTruth.ForbiddenInAnswer,
	)

	recall, recallDetail := m.CalculateContextRecall(
		answer.Sources,
		scenario.GroundTruth.ExpectedSources,
	)

	status := "FAIL"
	if faithfulness >= PassThreshold && recall >= PassThreshold {
		status = "PASS"
	}

	preview := []rune(answer.Answer)
	return TestResult{
		TestID:             scenario.ID,
		TestName:           scenario.Name,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		OverallScore:       (faithfulness + recall) / 2.0,
		Status:             status,
		Details: map[string]interface{}{
			"faithfulness_detail": faithfulnessDetail,
			"recall_detail":       recallDetail,
			"final_answer":        string(preview[:min(200, len(preview))]),
			"sources":             len(answer.Sources),
		},
	}
}
