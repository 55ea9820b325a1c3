// ABOUTME: Vector store handle owning the embedder and a backend
// ABOUTME: Text goes in, vectors are computed internally, collections are cached by name
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/embedding"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
)

// probeText is embedded once when the model's vector size is not known up front
const probeText = "dimension probe"

// Options configures a Store
type Options struct {
	// Dimension overrides the embedder's reported vector size
	Dimension int
	Logger    *log.Logger
}

// Store manages collections on a backend
type Store struct {
	backend  Backend
	embedder embedding.Embedder
	logger   *log.Logger

	mu          sync.Mutex
	collections map[string]*Collection
	dimension   int
}

// New creates a Store. The Store takes ownership of the backend and closes it in Close.
func New(backend Backend, embedder embedding.Embedder, opts Options) *Store {
	return &Store{
		backend:     backend,
		embedder:    embedder,
		logger:      logging.Component(opts.Logger, "store"),
		collections: make(map[string]*Collection),
		dimension:   opts.Dimension,
	}
}

// Backend returns the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

// Close releases the backend
func (s *Store) Close() error {
	s.mu.Lock()
	s.collections = make(map[string]*Collection)
	s.mu.Unlock()

	if err := s.backend.Close(); err != nil {
		return fmt.Errorf("failed to close %s backend: %w", s.backend.Name(), err)
	}
	return nil
}

// GetOrCreateCollection returns the named collection, creating it if absent.
// Transient failures get one fetch and one explicit create before giving up.
func (s *Store) GetOrCreateCollection(ctx context.Context, name string) (*Collection, error) {
	s.mu.Lock()
	if c, ok := s.collections[name]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	info, err := s.getOrCreate(ctx, name)
	if err != nil {
		s.logger.Warn("get-or-create collection failed, retrying", "collection", name, "err", err)

		var getErr, createErr error
		info, getErr = s.backend.GetCollection(ctx, name)
		if getErr != nil {
			info, createErr = s.create(ctx, name)
			if createErr != nil {
				return nil, fmt.Errorf("%w: failed to open collection %s: %w", models.ErrStore, name, errors.Join(err, getErr, createErr))
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c := &Collection{store: s, name: info.Name, dimension: info.Dimension}
	s.collections[name] = c
	return c, nil
}

func (s *Store) getOrCreate(ctx context.Context, name string) (CollectionInfo, error) {
	info, err := s.backend.GetCollection(ctx, name)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, models.ErrCollectionNotFound) {
		return CollectionInfo{}, err
	}

	info, err = s.create(ctx, name)
	if errors.Is(err, models.ErrCollectionExists) {
		return s.backend.GetCollection(ctx, name)
	}
	return info, err
}

func (s *Store) create(ctx context.Context, name string) (CollectionInfo, error) {
	dim, err := s.vectorDimension(ctx)
	if err != nil {
		return CollectionInfo{}, err
	}

	info, err := s.backend.CreateCollection(ctx, name, dim)
	if err != nil {
		return CollectionInfo{}, err
	}
	s.logger.Info("created collection", "collection", name, "dimension", dim, "backend", s.backend.Name())
	return info, nil
}

// vectorDimension resolves the configured, known or probed embedding size
func (s *Store) vectorDimension(ctx context.Context) (int, error) {
	s.mu.Lock()
	dim := s.dimension
	s.mu.Unlock()
	if dim > 0 {
		return dim, nil
	}

	if dim = s.embedder.Dimensions(); dim <= 0 {
		vectors, err := s.embedder.Embed(ctx, []string{probeText})
		if err != nil {
			return 0, fmt.Errorf("failed to probe embedding dimension: %w", err)
		}
		if len(vectors) != 1 || len(vectors[0]) == 0 {
			return 0, fmt.Errorf("%w: embedding probe returned no vector", models.ErrStore)
		}
		dim = len(vectors[0])
		s.logger.Debug("probed embedding dimension", "model", s.embedder.ModelName(), "dimension", dim)
	}

	s.mu.Lock()
	s.dimension = dim
	s.mu.Unlock()
	return dim, nil
}

// Exists reports whether any entry in collection carries fileHash
func (s *Store) Exists(ctx context.Context, fileHash, collection string) (bool, error) {
	c, err := s.GetOrCreateCollection(ctx, collection)
	if err != nil {
		return false, err
	}
	return c.Exists(ctx, fileHash)
}

// Insert embeds and upserts entries, returning how many were written
func (s *Store) Insert(ctx context.Context, entries []models.Entry, collection string) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	c, err := s.GetOrCreateCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	return c.Insert(ctx, entries)
}

// Query returns the topK entries most similar to text
func (s *Store) Query(ctx context.Context, text string, topK int, filter models.Filter, collection string) ([]models.QueryResult, error) {
	c, err := s.GetOrCreateCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, text, topK, filter)
}

// Collection is a handle bound to one named collection
type Collection struct {
	store     *Store
	name      string
	dimension int
}

// Name returns the collection name
func (c *Collection) Name() string {
	return c.name
}

// Dimension returns the vector size recorded for the collection
func (c *Collection) Dimension() int {
	return c.dimension
}

// Exists reports whether any entry carries fileHash
func (c *Collection) Exists(ctx context.Context, fileHash string) (bool, error) {
	n, err := c.store.backend.Count(ctx, c.name, models.FileHashFilter(fileHash), 1)
	if err != nil {
		return false, fmt.Errorf("%w: failed to check %s for %s: %w", models.ErrStore, c.name, fileHash, err)
	}
	return n > 0, nil
}

// Count returns the number of entries matching filter
func (c *Collection) Count(ctx context.Context, filter models.Filter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	n, err := c.store.backend.Count(ctx, c.name, filter, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count %s: %w", models.ErrStore, c.name, err)
	}
	return n, nil
}

// Insert embeds and upserts entries. A failed flush is logged, not returned.
func (c *Collection) Insert(ctx context.Context, entries []models.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}

	vectors, err := c.store.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed %d entries: %w", len(entries), err)
	}
	if len(vectors) != len(entries) {
		return 0, fmt.Errorf("%w: embedder returned %d vectors for %d entries", models.ErrStore, len(vectors), len(entries))
	}

	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{Entry: e, Vector: vectors[i]}
	}

	backend := c.store.backend
	if err := backend.Upsert(ctx, c.name, records); err != nil {
		return 0, fmt.Errorf("%w: failed to upsert into %s: %w", models.ErrStore, c.name, err)
	}

	if f, ok := backend.(Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			c.store.logger.Warn("flush failed", "collection", c.name, "backend", backend.Name(), "err", err)
		}
	}

	return len(records), nil
}

// Query embeds text and returns the topK nearest entries matching filter, best first
func (c *Collection) Query(ctx context.Context, text string, topK int, filter models.Filter) ([]models.QueryResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}

	vectors, err := c.store.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for query", models.ErrStore, len(vectors))
	}

	results, err := c.store.backend.Search(ctx, c.name, vectors[0], topK, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to search %s: %w", models.ErrStore, c.name, err)
	}

	c.store.logger.Debug("query", "collection", c.name, "filter", filter, "top_k", topK, "results", len(results))
	for i, r := range results {
		c.store.logger.Debug("retrieved", "rank", i+1, "id", r.ID, "source", r.Metadata.Source, "page", r.Metadata.Page, "score", r.Score)
	}

	return results, nil
}
