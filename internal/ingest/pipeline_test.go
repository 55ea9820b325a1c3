// ABOUTME: End-to-end tests for the ingestion pipeline over in-memory SQLite
// ABOUTME: Covers chunk ids, dedup by content hash, unsupported files and uploads
package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/harper/docqa/internal/chunker"
	"github.com/harper/docqa/internal/extract"
	"github.com/harper/docqa/internal/hasher"
	"github.com/harper/docqa/internal/ingest"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/storage"
	"github.com/harper/docqa/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCollection = "rag_docs"

type constEmbedder struct{}

func (constEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (constEmbedder) Dimensions() int   { return 3 }
func (constEmbedder) ModelName() string { return "const" }

func newPipeline(t *testing.T, workers int) (*ingest.Pipeline, *storage.Store, *sqlite.EntryStore) {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	backend := sqlite.NewEntryStore(db)
	store := storage.New(backend, constEmbedder{}, storage.Options{})
	t.Cleanup(func() { _ = store.Close() })

	p := ingest.New(store, extract.New(nil), chunker.New(800, 100), ingest.Options{
		Collection: testCollection,
		Workers:    workers,
		Logger:     logging.Discard(),
	})
	return p, store, backend
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *keyRecorder) Lock(_ context.Context, key string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return func() {}, nil
}

func TestIngestPath_LockKeyIncludesCollection(t *testing.T) {
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	store := storage.New(sqlite.NewEntryStore(db), constEmbedder{}, storage.Options{})
	t.Cleanup(func() { _ = store.Close() })

	rec := &keyRecorder{}
	newIn := func(collection string) *ingest.Pipeline {
		return ingest.New(store, extract.New(nil), chunker.New(800, 100), ingest.Options{
			Collection: collection,
			Locker:     rec,
			Logger:     logging.Discard(),
		})
	}

	path := writeFile(t, t.TempDir(), "same.txt", "shared bytes")
	hash, err := hasher.HashFile(path)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = newIn("alpha").IngestPath(ctx, path)
	require.NoError(t, err)
	_, err = newIn("beta").IngestPath(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha:" + hash, "beta:" + hash}, rec.keys)
	assert.NotEqual(t, ingest.LockKey("alpha", hash), ingest.LockKey("beta", hash))
}

func TestIngestPath_ChunksAndIDs(t *testing.T) {
	p, _, backend := newPipeline(t, 1)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "a.txt", strings.Repeat("A", 1000))

	res, err := p.IngestPath(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIngested, res.Status)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, "a.txt", res.Source)

	hash, err := hasher.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, hash, res.FileHash)

	results, err := backend.Search(ctx, testCollection, []float32{1, 0, 0}, 10, models.FileHashFilter(hash))
	require.NoError(t, err)
	require.Len(t, results, 2)

	ids := []string{results[0].ID, results[1].ID}
	assert.ElementsMatch(t, []string{hash + "_p1_0", hash + "_p1_1"}, ids)
	for _, r := range results {
		assert.Equal(t, "a.txt", r.Metadata.Source)
		assert.Equal(t, 1, r.Metadata.Page)
		if r.ID == hash+"_p1_0" {
			assert.Len(t, r.Text, 800)
			assert.Equal(t, 0, r.Metadata.ChunkOnPage)
		} else {
			assert.Len(t, r.Text, 300)
			assert.Equal(t, 1, r.Metadata.ChunkOnPage)
		}
	}
}

func TestIngestPath_SkipsKnownContent(t *testing.T) {
	p, _, backend := newPipeline(t, 1)
	ctx := context.Background()
	dir := t.TempDir()
	first := writeFile(t, dir, "a.txt", strings.Repeat("A", 1000))
	copyPath := writeFile(t, dir, "sub/renamed.txt", strings.Repeat("A", 1000))

	_, err := p.IngestPath(ctx, first)
	require.NoError(t, err)

	res, err := p.IngestPath(ctx, first)
	require.NoError(t, err)
	assert.True(t, res.Skipped())
	assert.Equal(t, 0, res.Added)

	res, err = p.IngestPath(ctx, copyPath)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSkipped, res.Status)

	count, err := backend.Count(ctx, testCollection, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIngestPath_UnsupportedType(t *testing.T) {
	p, _, backend := newPipeline(t, 1)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "tool.exe", "MZ binary")

	res, err := p.IngestPath(ctx, path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnsupportedFileType))
	assert.Equal(t, models.StatusFailed, res.Status)
	assert.Equal(t, 0, res.Added)
	assert.NotEmpty(t, res.Error)

	count, err := backend.Count(ctx, testCollection, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIngestPath_MissingFile(t *testing.T) {
	p, _, _ := newPipeline(t, 1)

	res, err := p.IngestPath(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIO))
	assert.Equal(t, models.StatusFailed, res.Status)
}

func TestIngestPath_EmptyFileIngestsNothing(t *testing.T) {
	p, _, _ := newPipeline(t, 1)
	path := writeFile(t, t.TempDir(), "empty.txt", "")

	res, err := p.IngestPath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIngested, res.Status)
	assert.Equal(t, 0, res.Added)
}

func TestIngestPath_ConcurrentSameContent(t *testing.T) {
	p, _, backend := newPipeline(t, 1)
	ctx := context.Background()
	dir := t.TempDir()

	var paths []string
	for _, name := range []string{"one.txt", "two.txt", "three.txt", "four.txt"} {
		paths = append(paths, writeFile(t, dir, name, "same words on every copy"))
	}

	var wg sync.WaitGroup
	results := make([]models.IngestResult, len(paths))
	for i, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = p.IngestPath(ctx, path)
		}()
	}
	wg.Wait()

	ingested := 0
	for _, r := range results {
		if r.Status == models.StatusIngested {
			ingested++
		}
	}
	assert.Equal(t, 1, ingested)

	count, err := backend.Count(ctx, testCollection, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEntries_PageOrder(t *testing.T) {
	p, _, _ := newPipeline(t, 1)
	doc := models.NewDocument("/x/report.pdf", "abc")

	entries := p.Entries(doc, []models.Page{
		{Number: 2, Text: "second page"},
		{Number: 5, Text: "fifth page"},
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "abc_p2_0", entries[0].ID)
	assert.Equal(t, "abc_p5_0", entries[1].ID)
	assert.Equal(t, "report.pdf", entries[1].Metadata.Source)
	assert.Equal(t, 5, entries[1].Metadata.Page)
}

func TestIngestFolder_ContinuesPastFailures(t *testing.T) {
	p, _, _ := newPipeline(t, 3)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha document")
	writeFile(t, dir, "b.md", "# beta")
	writeFile(t, dir, "nested/c.txt", "gamma")
	writeFile(t, dir, "nested/d.exe", "nope")
	writeFile(t, dir, "nested/dup.txt", "alpha document")

	report, err := p.IngestFolder(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, report.Files, 5)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 3, report.Added)
	assert.Equal(t, 1, report.Skipped)

	// Results keep walk order
	var names []string
	for _, f := range report.Files {
		names = append(names, f.Source)
	}
	assert.Equal(t, []string{"a.txt", "b.md", "c.txt", "d.exe", "dup.txt"}, names)
}

func TestIngestFolder_MissingRoot(t *testing.T) {
	p, _, _ := newPipeline(t, 1)

	_, err := p.IngestFolder(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIO))
}

func TestIngestUpload_StagesAndCleansUp(t *testing.T) {
	p, _, backend := newPipeline(t, 1)
	ctx := context.Background()

	before, err := filepath.Glob(filepath.Join(os.TempDir(), "docqa-upload-*"))
	require.NoError(t, err)

	res, err := p.IngestUpload(ctx, "../../notes.txt", bytes.NewBufferString("uploaded notes"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusIngested, res.Status)
	assert.Equal(t, "notes.txt", res.Source)
	assert.Equal(t, 1, res.Added)

	after, err := filepath.Glob(filepath.Join(os.TempDir(), "docqa-upload-*"))
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))

	results, err := backend.Search(ctx, testCollection, []float32{1, 0, 0}, 5, models.FileHashFilter(res.FileHash))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "notes.txt", results[0].Metadata.Source)
}

func TestIngestUpload_InvalidName(t *testing.T) {
	p, _, _ := newPipeline(t, 1)

	res, err := p.IngestUpload(context.Background(), "", bytes.NewBufferString("x"))
	require.Error(t, err)
	assert.Equal(t, models.StatusFailed, res.Status)
}
