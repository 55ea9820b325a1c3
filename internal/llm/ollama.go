// ABOUTME: Ollama generator calling the native /api/generate endpoint
// ABOUTME: Requests are non-streaming and the answer is read from the response field
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/apierr"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/util"
)

// generateRequest is the Ollama /api/generate request format
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

type options struct {
	Temperature float64 `json:"temperature,omitempty"`
}

// generateResponse uses a pointer so a missing field can be told apart from an empty answer
type generateResponse struct {
	Response *string `json:"response"`
}

// OllamaGenerator calls an Ollama server
type OllamaGenerator struct {
	client     *http.Client
	baseURL    string
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *log.Logger
}

// NewOllamaGenerator creates a generator for opts.OllamaBaseURL
func NewOllamaGenerator(opts Options, logger *log.Logger) *OllamaGenerator {
	return &OllamaGenerator{
		client:     &http.Client{},
		baseURL:    strings.TrimRight(opts.OllamaBaseURL, "/"),
		model:      opts.Model,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     logging.Component(logger, "llm"),
	}
}

// Provider returns ProviderOllama
func (g *OllamaGenerator) Provider() string {
	return ProviderOllama
}

// Generate posts the prompt and returns the response field
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	jsonBody, err := json.Marshal(generateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  false,
		Options: &options{Temperature: DefaultTemperature},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var answer string
	err = util.Retry(ctx, g.maxRetries, g.retryDelay, apierr.IsRetryable, func(ctx context.Context) error {
		text, err := g.post(ctx, jsonBody)
		if err != nil {
			g.logger.Warn("ollama generate failed", "model", g.model, "err", err)
			return err
		}
		answer = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return answer, nil
}

func (g *OllamaGenerator) post(ctx context.Context, body []byte) (string, error) {
	callCtx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &models.BackendError{Backend: ProviderOllama, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.BackendError{Backend: ProviderOllama, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &models.BackendError{Backend: ProviderOllama, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var genResp generateResponse
	if err := json.Unmarshal(data, &genResp); err != nil {
		return "", &models.BackendError{Backend: ProviderOllama, StatusCode: resp.StatusCode, Body: string(data), Err: err}
	}
	if genResp.Response == nil {
		return "", &models.BackendError{Backend: ProviderOllama, StatusCode: resp.StatusCode, Body: "response field missing: " + string(data)}
	}

	return *genResp.Response, nil
}
