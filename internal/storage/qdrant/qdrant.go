// ABOUTME: Qdrant collection backend using the official gRPC client
// ABOUTME: Chunk ids map to deterministic UUID point ids and travel in the payload
package qdrant

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/storage"
	"github.com/qdrant/go-client/qdrant"
)

// BackendName identifies this backend
const BackendName = "qdrant"

// Payload keys
const (
	PayloadID   = "chunk_id"
	PayloadText = "text"
)

// pointNamespace scopes UUIDv5 point ids derived from chunk ids
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docqa/chunk"))

// Config holds qdrant connection settings
type Config struct {
	Addr   string
	APIKey string
	UseTLS bool
}

// Backend implements storage.Backend on a Qdrant server
type Backend struct {
	client *qdrant.Client
}

// New connects to qdrant
func New(cfg Config) (*Backend, error) {
	host, port := parseHostPort(cfg.Addr, "localhost", 6334)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &Backend{client: client}, nil
}

// Name returns BackendName
func (b *Backend) Name() string {
	return BackendName
}

// Close closes the gRPC connection
func (b *Backend) Close() error {
	return b.client.Close()
}

// GetCollection fetches collection info including its vector size
func (b *Backend) GetCollection(ctx context.Context, name string) (storage.CollectionInfo, error) {
	exists, err := b.client.CollectionExists(ctx, name)
	if err != nil {
		return storage.CollectionInfo{}, fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if !exists {
		return storage.CollectionInfo{}, fmt.Errorf("%w: %s", models.ErrCollectionNotFound, name)
	}

	info, err := b.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return storage.CollectionInfo{}, fmt.Errorf("failed to get collection %s: %w", name, err)
	}
	size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	return storage.CollectionInfo{Name: name, Dimension: int(size)}, nil
}

// CreateCollection creates a cosine-distance collection
func (b *Backend) CreateCollection(ctx context.Context, name string, dimension int) (storage.CollectionInfo, error) {
	if dimension <= 0 {
		return storage.CollectionInfo{}, fmt.Errorf("invalid dimension %d for collection %s", dimension, name)
	}

	exists, err := b.client.CollectionExists(ctx, name)
	if err != nil {
		return storage.CollectionInfo{}, fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if exists {
		return storage.CollectionInfo{}, fmt.Errorf("%w: %s", models.ErrCollectionExists, name)
	}

	err = b.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return storage.CollectionInfo{}, fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	// Keyword index keeps file_hash existence checks cheap
	_, err = b.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: name,
		FieldName:      models.FieldFileHash,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return storage.CollectionInfo{}, fmt.Errorf("failed to index %s on %s: %w", models.FieldFileHash, name, err)
	}

	return storage.CollectionInfo{Name: name, Dimension: dimension}, nil
}

// ListCollections returns collection names; dimensions are not fetched
func (b *Backend) ListCollections(ctx context.Context) ([]storage.CollectionInfo, error) {
	names, err := b.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	out := make([]storage.CollectionInfo, len(names))
	for i, name := range names {
		out[i] = storage.CollectionInfo{Name: name}
	}
	return out, nil
}

// Count counts matching points exactly and caps the result at a positive limit
func (b *Backend) Count(ctx context.Context, collection string, filter models.Filter, limit int) (int, error) {
	req, err := countRequest(collection, filter)
	if err != nil {
		return 0, err
	}

	n, err := b.client.Count(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("failed to count points in %s: %w", collection, err)
	}

	count := int(n)
	if limit > 0 && count > limit {
		count = limit
	}
	return count, nil
}

// countRequest builds an exact count so dedup checks never see an estimate
func countRequest(collection string, filter models.Filter) (*qdrant.CountPoints, error) {
	qf, err := toFilter(filter)
	if err != nil {
		return nil, err
	}
	return &qdrant.CountPoints{
		CollectionName: collection,
		Filter:         qf,
		Exact:          qdrant.PtrOf(true),
	}, nil
}

// Upsert writes points and waits for the write to be applied
func (b *Backend) Upsert(ctx context.Context, collection string, records []storage.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(r.ID)),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(payload(r.Entry)),
		}
	}

	_, err := b.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points into %s: %w", len(points), collection, err)
	}
	return nil
}

// Search queries the nearest points
func (b *Backend) Search(ctx context.Context, collection string, vector []float32, topK int, filter models.Filter) ([]models.QueryResult, error) {
	qf, err := toFilter(filter)
	if err != nil {
		return nil, err
	}

	limit := uint64(topK)
	points, err := b.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         qf,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	results := make([]models.QueryResult, 0, len(points))
	for _, p := range points {
		res := fromPayload(p.GetPayload())
		res.Score = float64(p.GetScore())
		results = append(results, res)
	}
	return results, nil
}

// PointID derives the qdrant point UUID for a chunk id
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

func payload(e models.Entry) map[string]any {
	return map[string]any{
		PayloadID:               e.ID,
		PayloadText:             e.Text,
		models.FieldSource:      e.Metadata.Source,
		models.FieldFileHash:    e.Metadata.FileHash,
		models.FieldPage:        int64(e.Metadata.Page),
		models.FieldChunkOnPage: int64(e.Metadata.ChunkOnPage),
	}
}

func fromPayload(p map[string]*qdrant.Value) models.QueryResult {
	return models.QueryResult{
		ID:   p[PayloadID].GetStringValue(),
		Text: p[PayloadText].GetStringValue(),
		Metadata: models.Metadata{
			Source:      p[models.FieldSource].GetStringValue(),
			FileHash:    p[models.FieldFileHash].GetStringValue(),
			Page:        int(p[models.FieldPage].GetIntegerValue()),
			ChunkOnPage: int(p[models.FieldChunkOnPage].GetIntegerValue()),
		},
	}
}

// toFilter converts an equality filter into Must match conditions
func toFilter(filter models.Filter) (*qdrant.Filter, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		return nil, nil
	}

	var must []*qdrant.Condition
	for _, key := range filter.Keys() {
		if n, ok := filter.Int(key); ok {
			must = append(must, qdrant.NewMatchInt(key, int64(n)))
			continue
		}
		must = append(must, qdrant.NewMatch(key, filter[key].(string)))
	}
	return &qdrant.Filter{Must: must}, nil
}

// parseHostPort splits "host:port", falling back to defaults
func parseHostPort(addr string, defaultHost string, defaultPort int) (string, int) {
	addr = strings.TrimPrefix(strings.TrimPrefix(addr, "http://"), "https://")
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		if addr != "" {
			return addr, defaultPort
		}
		return defaultHost, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}
