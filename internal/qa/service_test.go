// ABOUTME: Tests for the question answering service with fake collaborators
// ABOUTME: Verifies filtering by hash, source ordering, error propagation and upload flow
package qa

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	results     []models.QueryResult
	err         error
	gotFilter   models.Filter
	gotTopK     int
	gotColl     string
	gotQuestion string
}

func (f *fakeRetriever) Query(_ context.Context, text string, topK int, filter models.Filter, collection string) ([]models.QueryResult, error) {
	f.gotQuestion = text
	f.gotTopK = topK
	f.gotFilter = filter
	f.gotColl = collection
	return f.results, f.err
}

type fakeGenerator struct {
	answer string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

type fakeUploader struct {
	result  models.IngestResult
	err     error
	gotName string
	gotBody string
}

func (f *fakeUploader) IngestUpload(_ context.Context, filename string, r io.Reader) (models.IngestResult, error) {
	f.gotName = filename
	b, _ := io.ReadAll(r)
	f.gotBody = string(b)
	return f.result, f.err
}

func newService(r *fakeRetriever, g *fakeGenerator, u Uploader) *Service {
	return NewService(r, g, u, Options{Collection: "rag_docs", TopK: 4, Logger: logging.Discard()})
}

func TestAsk_ReturnsSourcesInRetrievalOrder(t *testing.T) {
	r := &fakeRetriever{results: []models.QueryResult{
		{ID: "h_p2_0", Text: "best", Metadata: models.Metadata{Source: "a.pdf", FileHash: "h", Page: 2}, Score: 0.9},
		{ID: "h_p1_0", Text: "next", Metadata: models.Metadata{Source: "a.pdf", FileHash: "h", Page: 1}, Score: 0.5},
	}}
	g := &fakeGenerator{answer: "It grew. [Source: a.pdf, Page: 2]"}
	s := newService(r, g, nil)

	ans, err := s.Ask(context.Background(), "what happened?", "")
	require.NoError(t, err)

	assert.Equal(t, "It grew. [Source: a.pdf, Page: 2]", ans.Answer)
	require.Len(t, ans.Sources, 2)
	assert.Equal(t, 2, ans.Sources[0].Page)
	assert.Equal(t, 1, ans.Sources[1].Page)

	assert.Nil(t, r.gotFilter)
	assert.Equal(t, 4, r.gotTopK)
	assert.Equal(t, "rag_docs", r.gotColl)
	assert.Contains(t, g.prompt, "(Source: a.pdf, Page: 2)")
}

func TestAsk_FiltersByHash(t *testing.T) {
	r := &fakeRetriever{}
	g := &fakeGenerator{answer: "not in the provided documents"}
	s := newService(r, g, nil)

	ans, err := s.Ask(context.Background(), "q", "abc")
	require.NoError(t, err)
	assert.Equal(t, models.FileHashFilter("abc"), r.gotFilter)
	assert.Empty(t, ans.Sources)
	assert.Contains(t, g.prompt, EmptyContextNotice)
}

func TestAskTopK_Override(t *testing.T) {
	r := &fakeRetriever{}
	s := newService(r, &fakeGenerator{}, nil)

	_, err := s.AskTopK(context.Background(), "q", "", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, r.gotTopK)

	_, err = s.AskTopK(context.Background(), "q", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, r.gotTopK)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	r := &fakeRetriever{}
	s := newService(r, &fakeGenerator{}, nil)

	_, err := s.Ask(context.Background(), "   ", "")
	assert.Error(t, err)
	assert.Empty(t, r.gotQuestion)
}

func TestAsk_GenerationErrorPropagates(t *testing.T) {
	backendErr := &models.BackendError{Backend: "ollama", StatusCode: 500, Body: "model crashed"}
	s := newService(&fakeRetriever{}, &fakeGenerator{err: backendErr}, nil)

	_, err := s.Ask(context.Background(), "q", "")
	require.Error(t, err)

	var be *models.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 500, be.StatusCode)
	assert.Equal(t, "model crashed", be.Body)
}

func TestAsk_RetrievalErrorPropagates(t *testing.T) {
	storeErr := errors.New("disk gone")
	s := newService(&fakeRetriever{err: storeErr}, &fakeGenerator{}, nil)

	_, err := s.Ask(context.Background(), "q", "")
	assert.ErrorIs(t, err, storeErr)
}

func TestUploadAndAsk_ScopesToUploadHash(t *testing.T) {
	r := &fakeRetriever{}
	u := &fakeUploader{result: models.IngestResult{Status: models.StatusIngested, Source: "doc.txt", FileHash: "feed", Added: 2}}
	s := newService(r, &fakeGenerator{answer: "ok"}, u)

	out, err := s.UploadAndAsk(context.Background(), "doc.txt", strings.NewReader("body"), "q")
	require.NoError(t, err)

	assert.Equal(t, "doc.txt", u.gotName)
	assert.Equal(t, "body", u.gotBody)
	assert.Equal(t, models.FileHashFilter("feed"), r.gotFilter)
	assert.Equal(t, "ok", out.Answer.Answer)
	assert.Equal(t, 2, out.Ingest.Added)
}

func TestUploadAndAsk_SkippedUploadStillAnswers(t *testing.T) {
	r := &fakeRetriever{}
	u := &fakeUploader{result: models.IngestResult{Status: models.StatusSkipped, FileHash: "feed"}}
	s := newService(r, &fakeGenerator{answer: "ok"}, u)

	out, err := s.UploadAndAsk(context.Background(), "doc.txt", strings.NewReader("body"), "q")
	require.NoError(t, err)
	assert.True(t, out.Ingest.Skipped())
	assert.Equal(t, models.FileHashFilter("feed"), r.gotFilter)
}

func TestUploadAndAsk_IngestFailurePropagates(t *testing.T) {
	r := &fakeRetriever{}
	u := &fakeUploader{err: models.ErrUnsupportedFileType}
	s := newService(r, &fakeGenerator{}, u)

	_, err := s.UploadAndAsk(context.Background(), "x.exe", strings.NewReader("MZ"), "q")
	assert.ErrorIs(t, err, models.ErrUnsupportedFileType)
	assert.Empty(t, r.gotQuestion)
}

func TestUploadAndAsk_NoUploader(t *testing.T) {
	s := newService(&fakeRetriever{}, &fakeGenerator{}, nil)
	_, err := s.UploadAndAsk(context.Background(), "x.txt", strings.NewReader(""), "q")
	assert.Error(t, err)
}
