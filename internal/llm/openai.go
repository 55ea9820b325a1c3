// ABOUTME: OpenAI-compatible chat completion generator using go-openai
// ABOUTME: Works against LM Studio, OpenRouter or any server exposing /chat/completions
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/apierr"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator wraps the OpenAI API client with retry logic
type OpenAIGenerator struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *log.Logger
}

// NewOpenAIGenerator creates a chat completion generator for opts.BaseURL
func NewOpenAIGenerator(opts Options, logger *log.Logger) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientCfg.BaseURL = opts.BaseURL
	}

	return &OpenAIGenerator{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      opts.Model,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     logging.Component(logger, "llm"),
	}
}

// Provider returns ProviderOpenAIComp
func (g *OpenAIGenerator) Provider() string {
	return ProviderOpenAIComp
}

// Generate sends the prompt as a single user message
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var answer string

	err := util.Retry(ctx, g.maxRetries, g.retryDelay, apierr.IsRetryable, func(ctx context.Context) error {
		callCtx, cancel := withTimeout(ctx, g.timeout)
		defer cancel()

		resp, err := g.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: DefaultTemperature,
		})
		if err != nil {
			wrapped := apierr.FromOpenAI(ProviderOpenAIComp, err)
			g.logger.Warn("chat completion failed", "model", g.model, "err", wrapped)
			return wrapped
		}

		if len(resp.Choices) == 0 {
			return &models.BackendError{Backend: ProviderOpenAIComp, StatusCode: 200, Body: "no completion choices returned"}
		}

		answer = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return answer, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
