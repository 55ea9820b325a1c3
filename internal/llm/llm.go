// ABOUTME: Generation backend selection for answering questions from a prompt
// ABOUTME: Providers form a closed set chosen once from configuration
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/models"
)

// Supported providers
const (
	ProviderOpenAIComp = "OPENAI_COMP"
	ProviderOllama     = "OLLAMA"
)

// DefaultTemperature keeps answers close to the retrieved context
const DefaultTemperature = 0.2

// Generator produces an answer for a fully assembled prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() string
}

// Options configures a generation backend
type Options struct {
	Provider      string
	BaseURL       string
	OllamaBaseURL string
	Model         string
	APIKey        string
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
}

// OptionsFromConfig extracts generation settings from the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Provider:      cfg.LLMProvider,
		BaseURL:       cfg.LLMBaseURL,
		OllamaBaseURL: cfg.OllamaBaseURL,
		Model:         cfg.LLMModel,
		APIKey:        cfg.LLMAPIKey,
		Timeout:       cfg.Timeout,
		MaxRetries:    cfg.MaxRetries,
		RetryDelay:    cfg.RetryDelay,
	}
}

// New returns the generator for opts.Provider
func New(opts Options, logger *log.Logger) (Generator, error) {
	switch strings.ToUpper(strings.TrimSpace(opts.Provider)) {
	case ProviderOpenAIComp:
		return NewOpenAIGenerator(opts, logger), nil
	case ProviderOllama:
		return NewOllamaGenerator(opts, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedProvider, opts.Provider)
	}
}
