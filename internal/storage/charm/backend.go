// ABOUTME: Collection backend storing JSON entry records in a key-value store
// ABOUTME: Search is brute-force cosine over every record in the collection
package charm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/storage"
)

// BackendName identifies this backend
const BackendName = "charm"

// Key prefixes
const (
	CollectionPrefix = "collection:"
	EntryPrefix      = "entry:"
)

// KV is the subset of the charm client the backend needs
type KV interface {
	Set(key string, value []byte) error
	// Get returns nil and no error for a missing key
	Get(key string) ([]byte, error)
	ListKeys(prefix string) ([]string, error)
	Sync() error
	Close() error
}

type entryRecord struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Metadata models.Metadata `json:"metadata"`
	Vector   []float32       `json:"vector"`
}

// Backend implements storage.Backend on a KV store
type Backend struct {
	kv KV
	mu sync.Mutex
}

// NewBackend creates a backend that owns kv
func NewBackend(kv KV) *Backend {
	return &Backend{kv: kv}
}

// Open connects to charm and returns a backend
func Open(cfg Config) (*Backend, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewBackend(client), nil
}

// Name returns BackendName
func (b *Backend) Name() string {
	return BackendName
}

// Close closes the KV store
func (b *Backend) Close() error {
	return b.kv.Close()
}

// Flush syncs with the charm host
func (b *Backend) Flush(context.Context) error {
	return b.kv.Sync()
}

// CollectionKey generates the key for a collection descriptor
func CollectionKey(name string) string {
	return CollectionPrefix + name
}

// EntryKey generates the key for an entry within a collection
func EntryKey(collection, id string) string {
	return EntryPrefix + collection + ":" + id
}

// GetCollection reads a collection descriptor
func (b *Backend) GetCollection(_ context.Context, name string) (storage.CollectionInfo, error) {
	data, err := b.kv.Get(CollectionKey(name))
	if err != nil {
		return storage.CollectionInfo{}, err
	}
	if data == nil {
		return storage.CollectionInfo{}, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}

	var info storage.CollectionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return storage.CollectionInfo{}, fmt.Errorf("failed to decode collection %s: %w", name, err)
	}
	return info, nil
}

// CreateCollection writes a collection descriptor
func (b *Backend) CreateCollection(ctx context.Context, name string, dimension int) (storage.CollectionInfo, error) {
	if dimension <= 0 {
		return storage.CollectionInfo{}, fmt.Errorf("invalid dimension %d for collection %s", dimension, name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.kv.Get(CollectionKey(name))
	if err != nil {
		return storage.CollectionInfo{}, err
	}
	if existing != nil {
		return storage.CollectionInfo{}, fmt.Errorf("%w: %s", models.ErrCollectionExists, name)
	}

	info := storage.CollectionInfo{Name: name, Dimension: dimension}
	data, err := json.Marshal(info)
	if err != nil {
		return storage.CollectionInfo{}, fmt.Errorf("failed to marshal collection: %w", err)
	}
	if err := b.kv.Set(CollectionKey(name), data); err != nil {
		return storage.CollectionInfo{}, err
	}
	return info, nil
}

// ListCollections returns every collection ordered by name
func (b *Backend) ListCollections(ctx context.Context) ([]storage.CollectionInfo, error) {
	keys, err := b.kv.ListKeys(CollectionPrefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	out := make([]storage.CollectionInfo, 0, len(keys))
	for _, key := range keys {
		info, err := b.GetCollection(ctx, strings.TrimPrefix(key, CollectionPrefix))
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Count scans records matching filter
func (b *Backend) Count(_ context.Context, collection string, filter models.Filter, limit int) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	n := 0
	err := b.scan(collection, func(r entryRecord) bool {
		if filter.Matches(r.Metadata) {
			n++
		}
		return limit <= 0 || n < limit
	})
	return n, err
}

// Upsert writes one key per record
func (b *Backend) Upsert(ctx context.Context, collection string, records []storage.Record) error {
	info, err := b.GetCollection(ctx, collection)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range records {
		if len(r.Vector) != info.Dimension {
			return fmt.Errorf("invalid embedding dimension for %s: expected %d, got %d", r.ID, info.Dimension, len(r.Vector))
		}
		data, err := json.Marshal(entryRecord{ID: r.ID, Text: r.Text, Metadata: r.Metadata, Vector: r.Vector})
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", r.ID, err)
		}
		if err := b.kv.Set(EntryKey(collection, r.ID), data); err != nil {
			return err
		}
	}
	return nil
}

// Search ranks every matching record by cosine similarity
func (b *Backend) Search(_ context.Context, collection string, vector []float32, topK int, filter models.Filter) ([]models.QueryResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var results []models.QueryResult
	err := b.scan(collection, func(r entryRecord) bool {
		if filter.Matches(r.Metadata) {
			results = append(results, models.QueryResult{
				ID:       r.ID,
				Text:     r.Text,
				Metadata: r.Metadata,
				Score:    storage.CosineSimilarity(vector, r.Vector),
			})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return storage.RankTopK(results, topK), nil
}

// scan visits records in a collection until fn returns false
func (b *Backend) scan(collection string, fn func(entryRecord) bool) error {
	keys, err := b.kv.ListKeys(EntryPrefix + collection + ":")
	if err != nil {
		return err
	}

	for _, key := range keys {
		data, err := b.kv.Get(key)
		if err != nil {
			return err
		}
		if data == nil {
			continue
		}
		var r entryRecord
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		if !fn(r) {
			return nil
		}
	}
	return nil
}
