// ABOUTME: Ingestion pipeline turning files into embedded, deduplicated chunk entries
// ABOUTME: Hash, lock, existence check, extract, chunk per page, then one batch insert
package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/hasher"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
)

// Store is the part of the vector store ingestion writes to
type Store interface {
	Exists(ctx context.Context, fileHash, collection string) (bool, error)
	Insert(ctx context.Context, entries []models.Entry, collection string) (int, error)
}

// Extractor produces pages from a file
type Extractor interface {
	Extract(ctx context.Context, path string) ([]models.Page, error)
}

// Splitter divides page text into chunks
type Splitter interface {
	Split(text string) []string
}

// Options configures a Pipeline
type Options struct {
	Collection string
	Workers    int
	// Locker adds cross-process exclusion on top of the in-process lock
	Locker Locker
	Logger *log.Logger
}

// Pipeline ingests files into one collection
type Pipeline struct {
	store      Store
	extractor  Extractor
	splitter   Splitter
	locker     Locker
	collection string
	workers    int
	logger     *log.Logger
}

// New creates a Pipeline
func New(store Store, extractor Extractor, splitter Splitter, opts Options) *Pipeline {
	var locker Locker = NewKeyedMutex()
	if opts.Locker != nil {
		locker = chainLocker{locker, opts.Locker}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Pipeline{
		store:      store,
		extractor:  extractor,
		splitter:   splitter,
		locker:     locker,
		collection: opts.Collection,
		workers:    opts.Workers,
		logger:     logging.Component(opts.Logger, "ingest"),
	}
}

// Collection returns the collection the pipeline writes to
func (p *Pipeline) Collection() string {
	return p.collection
}

// LockKey scopes a content lock to one collection
func LockKey(collection, hash string) string {
	return collection + ":" + hash
}

// IngestPath ingests one file unless its content is already present.
// A FAILED result is returned together with the error that caused it.
func (p *Pipeline) IngestPath(ctx context.Context, path string) (models.IngestResult, error) {
	res := models.IngestResult{
		Path:   path,
		Source: filepath.Base(path),
	}

	hash, err := hasher.HashFile(path)
	if err != nil {
		return p.fail(res, err)
	}
	res.FileHash = hash

	unlock, err := p.locker.Lock(ctx, LockKey(p.collection, hash))
	if err != nil {
		return p.fail(res, fmt.Errorf("failed to lock %s: %w", hash, err))
	}
	defer unlock()

	exists, err := p.store.Exists(ctx, hash, p.collection)
	if err != nil {
		return p.fail(res, err)
	}
	if exists {
		res.Status = models.StatusSkipped
		p.logger.Info("skipped", "source", res.Source, "file_hash", hash)
		return res, nil
	}

	pages, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return p.fail(res, err)
	}

	entries := p.Entries(models.NewDocument(path, hash), pages)

	added, err := p.store.Insert(ctx, entries, p.collection)
	if err != nil {
		return p.fail(res, err)
	}

	res.Status = models.StatusIngested
	res.Added = added
	p.logger.Info("ingested", "source", res.Source, "file_hash", hash, "pages", len(pages), "added", added)
	return res, nil
}

// Entries chunks every page and builds entries in page then chunk order
func (p *Pipeline) Entries(doc models.Document, pages []models.Page) []models.Entry {
	var entries []models.Entry
	for _, page := range pages {
		for i, text := range p.splitter.Split(page.Text) {
			entries = append(entries, models.NewChunk(doc, page.Number, i, text).Entry())
		}
	}
	return entries
}

func (p *Pipeline) fail(res models.IngestResult, err error) (models.IngestResult, error) {
	res.Status = models.StatusFailed
	res.Added = 0
	res.Err = err
	res.Error = err.Error()
	p.logger.Error("ingest failed", "source", res.Source, "file_hash", res.FileHash, "err", err)
	return res, err
}
