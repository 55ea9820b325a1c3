// ABOUTME: Backend contract implemented by every vector collection engine
// ABOUTME: Backends persist entries with vectors; embedding happens in Store
package storage

import (
	"context"

	"github.com/harper/docqa/internal/models"
)

// Record is an entry together with its embedding
type Record struct {
	models.Entry
	Vector []float32
}

// CollectionInfo describes a named collection
type CollectionInfo struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

// Backend stores records in named collections and answers nearest-neighbour queries
type Backend interface {
	// Name identifies the backend in logs and health output
	Name() string

	// GetCollection returns models.ErrCollectionNotFound when absent
	GetCollection(ctx context.Context, name string) (CollectionInfo, error)

	// CreateCollection returns models.ErrCollectionExists when already present
	CreateCollection(ctx context.Context, name string, dimension int) (CollectionInfo, error)

	ListCollections(ctx context.Context) ([]CollectionInfo, error)

	// Count returns the number of matching entries, stopping at limit when limit > 0
	Count(ctx context.Context, collection string, filter models.Filter, limit int) (int, error)

	// Upsert inserts or replaces records by id
	Upsert(ctx context.Context, collection string, records []Record) error

	// Search returns at most topK matches ordered by descending cosine similarity
	Search(ctx context.Context, collection string, vector []float32, topK int, filter models.Filter) ([]models.QueryResult, error)

	Close() error
}

// Flusher is implemented by backends that can force buffered writes to durable storage
type Flusher interface {
	Flush(ctx context.Context) error
}
