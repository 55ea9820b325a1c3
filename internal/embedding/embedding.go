// ABOUTME: Embedding backend turning chunk and query text into vectors
// ABOUTME: Talks to any OpenAI-compatible /embeddings endpoint in fixed-size batches
package embedding

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/apierr"
	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

// BackendName identifies embedding failures in BackendError
const BackendName = "embedding"

// KnownDimensions maps common embedding models to their output size
var KnownDimensions = map[string]int{
	string(openai.SmallEmbedding3): 1536,
	string(openai.LargeEmbedding3): 3072,
	string(openai.AdaEmbeddingV2):  1536,
	"BAAI/bge-m3":                  1024,
	"bge-m3":                       1024,
	"nomic-embed-text":             768,
	"mxbai-embed-large":            1024,
	"all-minilm":                   384,
}

// Embedder computes vectors for text
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the vector size, or 0 when it is not known in advance
	Dimensions() int
	ModelName() string
}

// Options configures the OpenAI-compatible embedder
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	BatchSize  int
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// OptionsFromConfig extracts embedding settings from the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:    cfg.EmbedBaseURL,
		APIKey:     cfg.EmbedAPIKey,
		Model:      cfg.EmbedModel,
		Dimensions: cfg.EmbedDimensions,
		BatchSize:  cfg.EmbedBatchSize,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}
}

// OpenAIEmbedder wraps the go-openai embeddings API with batching and retries
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	batchSize  int
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *log.Logger
}

// NewOpenAI creates an embedder
func NewOpenAI(opts Options, logger *log.Logger) (*OpenAIEmbedder, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}

	clientCfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientCfg.BaseURL = opts.BaseURL
	}

	dims := opts.Dimensions
	if dims <= 0 {
		dims = KnownDimensions[opts.Model]
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      opts.Model,
		dimensions: dims,
		batchSize:  opts.BatchSize,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		logger:     logging.Component(logger, "embedding"),
	}, nil
}

// Dimensions returns the configured or known vector size
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the embedding model
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Embed returns one vector per input text, in input order
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed texts %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32

	err := util.Retry(ctx, e.maxRetries, e.retryDelay, apierr.IsRetryable, func(ctx context.Context) error {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if e.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		}
		defer cancel()

		resp, err := e.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			wrapped := apierr.FromOpenAI(BackendName, err)
			e.logger.Warn("embedding request failed", "model", e.model, "batch", len(texts), "err", wrapped)
			return wrapped
		}

		if len(resp.Data) != len(texts) {
			return &models.BackendError{
				Backend:    BackendName,
				StatusCode: 200,
				Body:       fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
			}
		}

		data := resp.Data
		sort.SliceStable(data, func(i, j int) bool {
			return data[i].Index < data[j].Index
		})

		out = make([][]float32, len(data))
		for i, d := range data {
			out[i] = d.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
