// ABOUTME: Tests for benchmark metrics, scenario loading and the runner
// ABOUTME: The runner is driven by a fake ingester and asker

package ragas

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFaithfulness(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name      string
		answer    string
		expected  []string
		forbidden []string
		want      float64
	}{
		{"perfect", "You get 25 days.", []string{"25"}, []string{"30 days"}, 1.0},
		{"case insensitive", "NOT IN THE PROVIDED DOCUMENTS", []string{"not in the provided documents"}, nil, 1.0},
		{"missing", "You get some days.", []string{"25"}, nil, 0.5},
		{"forbidden", "25 or 30 days", []string{"25"}, []string{"30 days"}, 0.5},
		{"both", "30 days", []string{"25"}, []string{"30 days"}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateFaithfulness(tt.answer, tt.expected, tt.forbidden)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, detail)
		})
	}
}

func TestCalculateContextRecall(t *testing.T) {
	m := NewMetricsCalculator()
	retrieved := []models.Metadata{
		{Source: "a.pdf", Page: 2},
		{Source: "b.txt", Page: 1},
	}

	got, _ := m.CalculateContextRecall(retrieved, nil)
	assert.Equal(t, 1.0, got)

	got, _ = m.CalculateContextRecall(retrieved, []ExpectedSource{{Source: "a.pdf", Page: 2}, {Source: "b.txt"}})
	assert.Equal(t, 1.0, got)

	got, detail := m.CalculateContextRecall(retrieved, []ExpectedSource{{Source: "a.pdf", Page: 3}, {Source: "b.txt"}})
	assert.Equal(t, 0.5, got)
	assert.Contains(t, detail, "a.pdf p3")
}

func TestEvaluateTest_Status(t *testing.T) {
	m := NewMetricsCalculator()
	scenario := BuiltinScenarios()[0]

	pass := m.EvaluateTest(scenario, &models.Answer{
		Answer:  "Employees get 25 days. [Source: leave_policy.txt, Page: 1]",
		Sources: []models.Metadata{{Source: "leave_policy.txt", Page: 1}},
	})
	assert.Equal(t, "PASS", pass.Status)
	assert.Equal(t, 1.0, pass.OverallScore)

	fail := m.EvaluateTest(scenario, &models.Answer{Answer: "No idea."})
	assert.Equal(t, "FAIL", fail.Status)
	assert.Equal(t, 0.25, fail.OverallScore)
}

func TestLoadScenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	content := `
- id: one
  name: First
  question: What colour is the sky?
  documents:
    - name: sky.txt
      content: The sky is blue.
  ground_truth:
    expected_in_answer: [blue]
    expected_sources:
      - source: sky.txt
        page: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenarios, err := LoadScenarios(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "one", scenarios[0].ID)
	assert.Equal(t, "sky.txt", scenarios[0].Documents[0].Name)
	assert.Equal(t, []string{"blue"}, scenarios[0].GroundTruth.ExpectedInAnswer)
	assert.Equal(t, 1, scenarios[0].GroundTruth.ExpectedSources[0].Page)
}

func TestLoadScenarios_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: x\n"), 0644))

	_, err := LoadScenarios(path)
	assert.Error(t, err)
}

func TestBuiltinScenarios_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range BuiltinScenarios() {
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
		if s.ScopeTo != "" {
			found := false
			for _, d := range s.Documents {
				found = found || d.Name == s.ScopeTo
			}
			assert.True(t, found, "scenario %s scopes to a missing document", s.ID)
		}
	}
	_, ok := FindScenario(BuiltinScenarios(), "scoped")
	assert.True(t, ok)
}

type fakeIngester struct{ paths []string }

func (f *fakeIngester) IngestPath(_ context.Context, path string) (models.IngestResult, error) {
	f.paths = append(f.paths, path)
	return models.IngestResult{Status: models.StatusIngested, Source: filepath.Base(path), FileHash: "hash-" + filepath.Base(path)}, nil
}

type scriptedAsker struct {
	gotHash string
	err     error
}

func (a *scriptedAsker) Ask(_ context.Context, question, fileHash string) (*models.Answer, error) {
	a.gotHash = fileHash
	if a.err != nil {
		return nil, a.err
	}
	return &models.Answer{
		Answer:  "The total due is 980 EUR.",
		Sources: []models.Metadata{{Source: "invoice_b.md", Page: 1}},
	}, nil
}

func TestRunTest_ScopedScenario(t *testing.T) {
	ing := &fakeIngester{}
	ask := &scriptedAsker{}
	r := NewBenchmarkRunner(ing, ask, t.TempDir(), logging.Discard())

	scenario, _ := FindScenario(BuiltinScenarios(), "scoped")
	result, err := r.RunTest(context.Background(), scenario)
	require.NoError(t, err)

	assert.Len(t, ing.paths, 2)
	assert.Equal(t, "hash-invoice_b.md", ask.gotHash)
	assert.Equal(t, "PASS", result.Status)
}

func TestRunAllTests_RecordsFailures(t *testing.T) {
	r := NewBenchmarkRunner(&fakeIngester{}, &scriptedAsker{err: errors.New("llm down")}, t.TempDir(), logging.Discard())

	results := r.RunAllTests(context.Background(), BuiltinScenarios())
	require.Len(t, results, len(BuiltinScenarios()))
	for _, res := range results {
		assert.Equal(t, "FAIL", res.Status)
		assert.True(t, strings.Contains(res.ErrorMessage, "llm down"))
	}
}

func TestExportResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	results := []TestResult{{TestID: "a", Status: "PASS"}, {TestID: "b", Status: "FAIL"}}

	require.NoError(t, ExportResults(results, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var s Summary
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, 2, s.TotalTests)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
}
