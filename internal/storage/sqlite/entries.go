// ABOUTME: Collection and entry operations for SQLite
// ABOUTME: Stores vectors as BLOBs and ranks by brute-force cosine similarity
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/storage"
)

// BackendName identifies this backend
const BackendName = "sqlite"

// filterColumns maps filterable metadata fields to entry columns
var filterColumns = map[string]string{
	models.FieldSource:      "source",
	models.FieldFileHash:    "file_hash",
	models.FieldPage:        "page",
	models.FieldChunkOnPage: "chunk_on_page",
}

// EntryStore implements storage.Backend on a SQLite database
type EntryStore struct {
	db *DB
	mu sync.Mutex // serialises writers
}

// NewEntryStore creates a new EntryStore that owns db
func NewEntryStore(db *DB) *EntryStore {
	return &EntryStore{db: db}
}

// OpenEntryStore opens the database under storeDir
func OpenEntryStore(storeDir string) (*EntryStore, error) {
	db, err := Open(PathInDir(storeDir))
	if err != nil {
		return nil, err
	}
	return NewEntryStore(db), nil
}

// Name returns BackendName
func (s *EntryStore) Name() string {
	return BackendName
}

// Close closes the database
func (s *EntryStore) Close() error {
	return s.db.Close()
}

// Flush checkpoints the write-ahead log
func (s *EntryStore) Flush(ctx context.Context) error {
	return s.db.Checkpoint(ctx)
}

// GetCollection looks up a collection by name
func (s *EntryStore) GetCollection(ctx context.Context, name string) (storage.CollectionInfo, error) {
	var dim int
	err := s.db.conn.QueryRowContext(ctx, "SELECT dimension FROM collections WHERE name = ?", name).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.CollectionInfo{}, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}
	if err != nil {
		return storage.CollectionInfo{}, fmt.Errorf("failed to get collection %s: %w", name, err)
	}
	return storage.CollectionInfo{Name: name, Dimension: dim}, nil
}

// CreateCollection registers a new collection
func (s *EntryStore) CreateCollection(ctx context.Context, name string, dimension int) (storage.CollectionInfo, error) {
	if dimension <= 0 {
		return storage.CollectionInfo{}, fmt.Errorf("invalid dimension %d for collection %s", dimension, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.conn.ExecContext(ctx,
		"INSERT INTO collections (name, dimension) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		name, dimension)
	if err != nil {
		return storage.CollectionInfo{}, fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.CollectionInfo{}, fmt.Errorf("%w: %s", models.ErrCollectionExists, name)
	}
	return storage.CollectionInfo{Name: name, Dimension: dimension}, nil
}

// ListCollections returns every collection ordered by name
func (s *EntryStore) ListCollections(ctx context.Context) ([]storage.CollectionInfo, error) {
	rows, err := s.db.conn.QueryContext(ctx, "SELECT name, dimension FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []storage.CollectionInfo
	for rows.Next() {
		var info storage.CollectionInfo
		if err := rows.Scan(&info.Name, &info.Dimension); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Count returns the number of entries matching filter, capped at limit when positive
func (s *EntryStore) Count(ctx context.Context, collection string, filter models.Filter, limit int) (int, error) {
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	var n int
	query := "SELECT COUNT(*) FROM (SELECT 1 FROM entries WHERE " + where + " LIMIT ?)"
	if err := s.db.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Upsert inserts or replaces records in one transaction
func (s *EntryStore) Upsert(ctx context.Context, collection string, records []storage.Record) error {
	if len(records) == 0 {
		return nil
	}

	info, err := s.GetCollection(ctx, collection)
	if err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Vector) != info.Dimension {
			return fmt.Errorf("invalid embedding dimension for %s: expected %d, got %d", r.ID, info.Dimension, len(r.Vector))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (collection, id, text, source, file_hash, page, chunk_on_page, metadata, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET
			text = excluded.text,
			source = excluded.source,
			file_hash = excluded.file_hash,
			page = excluded.page,
			chunk_on_page = excluded.chunk_on_page,
			metadata = excluded.metadata,
			vector = excluded.vector,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", r.ID, err)
		}
		m := r.Metadata
		if _, err := stmt.ExecContext(ctx, collection, r.ID, r.Text, m.Source, m.FileHash, m.Page, m.ChunkOnPage, string(meta), vectorToBlob(r.Vector)); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

// Search performs cosine similarity search over entries matching filter
func (s *EntryStore) Search(ctx context.Context, collection string, vector []float32, topK int, filter models.Filter) ([]models.QueryResult, error) {
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.conn.QueryContext(ctx, "SELECT id, text, metadata, vector FROM entries WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []models.QueryResult
	for rows.Next() {
		var (
			res  models.QueryResult
			meta string
			blob []byte
		)
		if err := rows.Scan(&res.ID, &res.Text, &meta, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &res.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", res.ID, err)
		}
		res.Score = storage.CosineSimilarity(vector, blobToVector(blob))
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return storage.RankTopK(results, topK), nil
}

// whereClause converts an equality filter to SQL with bound parameters
func whereClause(collection string, filter models.Filter) (string, []any, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}

	clauses := []string{"collection = ?"}
	args := []any{collection}
	for _, key := range filter.Keys() {
		clauses = append(clauses, filterColumns[key]+" = ?")
		if n, ok := filter.Int(key); ok {
			args = append(args, n)
		} else {
			args = append(args, filter[key])
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

// vectorToBlob converts a float32 slice to a little-endian binary blob
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to a float32 slice
func blobToVector(blob []byte) []float32 {
	count := len(blob) / 4
	vector := make([]float32, count)
	for i := 0; i < count; i++ {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}
