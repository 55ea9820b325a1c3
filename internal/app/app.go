// ABOUTME: Application wiring from configuration to ingestion and question answering
// ABOUTME: Owns the lifecycle of the store, the optional redis lock and the generator
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/chunker"
	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/embedding"
	"github.com/harper/docqa/internal/extract"
	"github.com/harper/docqa/internal/ingest"
	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/qa"
	"github.com/harper/docqa/internal/storage"
	"github.com/harper/docqa/internal/storage/charm"
	"github.com/harper/docqa/internal/storage/qdrant"
	"github.com/harper/docqa/internal/storage/sqlite"
	"github.com/redis/go-redis/v9"
)

// App bundles everything an entry point needs
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Store    *storage.Store
	Pipeline *ingest.Pipeline
	QA       *qa.Service

	redis *redis.Client
}

// Option overrides a collaborator, mainly for tests
type Option func(*overrides)

type overrides struct {
	embedder  embedding.Embedder
	generator llm.Generator
	backend   storage.Backend
}

// WithEmbedder replaces the configured embedding backend
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *overrides) { o.embedder = e }
}

// WithGenerator replaces the configured generation backend
func WithGenerator(g llm.Generator) Option {
	return func(o *overrides) { o.generator = g }
}

// WithBackend replaces the configured vector backend
func WithBackend(b storage.Backend) Option {
	return func(o *overrides) { o.backend = b }
}

// New wires the application and ensures the configured collection exists
func New(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	var o overrides
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	embedder := o.embedder
	if embedder == nil {
		e, err := embedding.NewOpenAI(embedding.OptionsFromConfig(cfg), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		embedder = e
	}

	generator := o.generator
	if generator == nil {
		g, err := llm.New(llm.OptionsFromConfig(cfg), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize generator: %w", err)
		}
		generator = g
	}

	backend := o.backend
	if backend == nil {
		b, err := OpenBackend(cfg)
		if err != nil {
			return nil, err
		}
		backend = b
	}

	store := storage.New(backend, embedder, storage.Options{
		Dimension: cfg.EmbedDimensions,
		Logger:    logger,
	})

	a := &App{Config: cfg, Logger: logger, Store: store}

	var locker ingest.Locker
	if cfg.RedisAddr != "" {
		rdb, err := ingest.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.redis = rdb
		locker = ingest.NewRedisLocker(rdb, cfg.LockTTL)
	}

	extractor := extract.New(extract.NewTesseract(extract.TesseractConfig{
		TesseractBin: cfg.TesseractBin,
		PdftoppmBin:  cfg.PdftoppmBin,
		Language:     cfg.OCRLang,
		DPI:          cfg.OCRDPI,
	}))

	a.Pipeline = ingest.New(store, extractor, chunker.New(cfg.ChunkSize, cfg.ChunkOverlap), ingest.Options{
		Collection: cfg.Collection,
		Workers:    cfg.IngestWorkers,
		Locker:     locker,
		Logger:     logger,
	})

	a.QA = qa.NewService(store, generator, a.Pipeline, qa.Options{
		Collection: cfg.Collection,
		TopK:       cfg.TopK,
		Logger:     logger,
	})

	if _, err := store.GetOrCreateCollection(ctx, cfg.Collection); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to ensure collection %s: %w", cfg.Collection, err)
	}

	logger.Debug("app ready",
		"backend", backend.Name(),
		"collection", cfg.Collection,
		"embed_model", embedder.ModelName(),
		"llm_provider", generator.Provider())
	return a, nil
}

// OpenBackend opens the vector backend named by cfg.VectorBackend
func OpenBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.VectorBackend {
	case config.BackendSQLite:
		b, err := sqlite.OpenEntryStore(cfg.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return b, nil
	case config.BackendQdrant:
		b, err := qdrant.New(qdrant.Config{
			Addr:   cfg.QdrantAddr,
			APIKey: cfg.QdrantAPIKey,
			UseTLS: cfg.QdrantTLS,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.BackendCharm:
		b, err := charm.Open(charm.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: true,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}

// Health describes the backend and its collections
type Health struct {
	Status      string                   `json:"status"`
	Backend     string                   `json:"backend"`
	Collection  string                   `json:"collection"`
	Collections []storage.CollectionInfo `json:"collections"`
}

// Health lists collections on the backend
func (a *App) Health(ctx context.Context) (*Health, error) {
	backend := a.Store.Backend()
	list, err := backend.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return &Health{
		Status:      "ok",
		Backend:     backend.Name(),
		Collection:  a.Config.Collection,
		Collections: list,
	}, nil
}

// Close releases the store and the redis connection
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
