// ABOUTME: Question answering service: retrieve, assemble prompt, generate
// ABOUTME: Also handles upload-then-ask scoped to the uploaded file's content hash
package qa

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
)

// DefaultTopK is used when no retrieval depth is configured
const DefaultTopK = 5

// Retriever finds the chunks most similar to a question
type Retriever interface {
	Query(ctx context.Context, text string, topK int, filter models.Filter, collection string) ([]models.QueryResult, error)
}

// Generator produces an answer from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Uploader ingests an uploaded byte stream
type Uploader interface {
	IngestUpload(ctx context.Context, filename string, r io.Reader) (models.IngestResult, error)
}

// Options configures a Service
type Options struct {
	Collection string
	TopK       int
	Logger     *log.Logger
}

// Service answers questions against one collection
type Service struct {
	retriever  Retriever
	generator  Generator
	uploader   Uploader
	collection string
	topK       int
	logger     *log.Logger
}

// UploadAnswer pairs the ingestion outcome of an upload with the answer scoped to it
type UploadAnswer struct {
	Ingest models.IngestResult `json:"ingest"`
	*models.Answer
}

// NewService creates a Service. uploader may be nil when uploads are not offered.
func NewService(retriever Retriever, generator Generator, uploader Uploader, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Service{
		retriever:  retriever,
		generator:  generator,
		uploader:   uploader,
		collection: opts.Collection,
		topK:       opts.TopK,
		logger:     logging.Component(opts.Logger, "qa"),
	}
}

// Ask answers question from the collection, restricted to fileHash when it is non-empty
func (s *Service) Ask(ctx context.Context, question, fileHash string) (*models.Answer, error) {
	return s.AskTopK(ctx, question, fileHash, s.topK)
}

// AskTopK is Ask with an explicit retrieval depth
func (s *Service) AskTopK(ctx context.Context, question, fileHash string, topK int) (*models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question is required")
	}
	if topK <= 0 {
		topK = s.topK
	}

	var filter models.Filter
	if fileHash != "" {
		filter = models.FileHashFilter(fileHash)
		s.logger.Debug("querying with filter", "filter", filter)
	} else {
		s.logger.Debug("querying all documents")
	}

	results, err := s.retriever.Query(ctx, question, topK, filter, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	for i, r := range results {
		s.logger.Debug("retrieved", "rank", i+1, "id", r.ID, "source", r.Metadata.Source, "page", r.Metadata.Page, "score", r.Score)
	}

	prompt := BuildPrompt(question, results)
	s.logger.Debug("prompt assembled", "contexts", len(results), "chars", len(prompt))

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	sources := make([]models.Metadata, len(results))
	for i, r := range results {
		sources[i] = r.Metadata
	}
	return &models.Answer{Answer: text, Sources: sources}, nil
}

// UploadAndAsk ingests the upload and answers question scoped to its content
func (s *Service) UploadAndAsk(ctx context.Context, filename string, r io.Reader, question string) (*UploadAnswer, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("uploads are not enabled")
	}

	res, err := s.uploader.IngestUpload(ctx, filename, r)
	if err != nil {
		return nil, err
	}
	if res.Skipped() {
		s.logger.Info("upload already present", "source", res.Source, "file_hash", res.FileHash)
	}

	answer, err := s.Ask(ctx, question, res.FileHash)
	if err != nil {
		return nil, err
	}
	return &UploadAnswer{Ingest: res, Answer: answer}, nil
}
