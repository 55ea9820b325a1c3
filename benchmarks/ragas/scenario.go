// ABOUTME: Benchmark scenario definitions: documents, a question and ground truth
// ABOUTME: Scenarios come from a YAML file or the built-in set
package ragas

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one question asked over a small document set
type Scenario struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Documents []Document `yaml:"documents" json:"documents"`
	Question  string     `yaml:"question" json:"question"`
	// ScopeTo restricts retrieval to the named document's hash
	ScopeTo     string      `yaml:"scope_to,omitempty" json:"scope_to,omitempty"`
	GroundTruth GroundTruth `yaml:"ground_truth" json:"ground_truth"`
}

// Document is written to disk under Name before ingestion
type Document struct {
	Name    string `yaml:"name" json:"name"`
	Content string `yaml:"content" json:"content"`
}

// GroundTruth describes what a correct answer looks like
type GroundTruth struct {
	ExpectedInAnswer  []string         `yaml:"expected_in_answer" json:"expected_in_answer"`
	ForbiddenInAnswer []string         `yaml:"forbidden_in_answer" json:"forbidden_in_answer"`
	ExpectedSources   []ExpectedSource `yaml:"expected_sources" json:"expected_sources"`
}

// ExpectedSource names a document, and optionally a page, that retrieval must return
type ExpectedSource struct {
	Source string `yaml:"source" json:"source"`
	Page   int    `yaml:"page,omitempty" json:"page,omitempty"`
}

func (e ExpectedSource) String() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s p%d", e.Source, e.Page)
	}
	return e.Source
}

// TestResult represents the outcome of a benchmark scenario
type TestResult struct {
	TestID             string                 `json:"test_id"`
	TestName           string                 `json:"test_name"`
	FaithfulnessScore  float64                `json:"faithfulness"`
	ContextRecallScore float64                `json:"context_recall"`
	OverallScore       float64                `json:"overall"`
	Status             string                 `json:"status"` // "PASS" or "FAIL"
	Details            map[string]interface{} `json:"details,omitempty"`
	ErrorMessage       string                 `json:"error,omitempty"`
}

// LoadScenarios reads a YAML list of scenarios
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}

	var scenarios []Scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}
	for i, s := range scenarios {
		if s.ID == "" || s.Question == "" || len(s.Documents) == 0 {
			return nil, fmt.Errorf("scenario %d: id, question and documents are required", i+1)
		}
	}
	return scenarios, nil
}

// BuiltinScenarios returns the default benchmark set
func BuiltinScenarios() []Scenario {
	return []Scenario{
		{
			ID:   "single-doc",
			Name: "Answer from a single policy document",
			Documents: []Document{
				{Name: "leave_policy.txt", Content: "Employees accrue 25 days of paid leave per year.\n\nUnused leave of up to 5 days may be carried into the next year."},
			},
			Question: "How many days of paid leave do employees get per year?",
			GroundTruth: GroundTruth{
				ExpectedInAnswer:  []string{"25"},
				ForbiddenInAnswer: []string{"30 days"},
				ExpectedSources:   []ExpectedSource{{Source: "leave_policy.txt", Page: 1}},
			},
		},
		{
			ID:   "scoped",
			Name: "Scoped question ignores other documents",
			Documents: []Document{
				{Name: "invoice_a.md", Content: "# Invoice A\n\nTotal due: 1,200 EUR by 1 March."},
				{Name: "invoice_b.md", Content: "# Invoice B\n\nTotal due: 980 EUR by 15 April."},
			},
			Question: "What is the total due?",
			ScopeTo:  "invoice_b.md",
			GroundTruth: GroundTruth{
				ExpectedInAnswer:  []string{"980"},
				ForbiddenInAnswer: []string{"1,200"},
				ExpectedSources:   []ExpectedSource{{Source: "invoice_b.md"}},
			},
		},
		{
			ID:   "not-in-documents",
			Name: "Refuses when the answer is absent",
			Documents: []Document{
				{Name: "menu.txt", Content: "The cafeteria serves soup on Mondays and pasta on Fridays."},
			},
			Question: "What is the CEO's salary?",
			GroundTruth: GroundTruth{
				ExpectedInAnswer: []string{"not in the provided documents"},
			},
		},
	}
}

// FindScenario returns the scenario with id
func FindScenario(scenarios []Scenario, id string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}
