// ABOUTME: Tests for qdrant backend conversions that need no running server
// ABOUTME: Covers point ids, payload round trips, filter translation and address parsing
package qdrant

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/harper/docqa/internal/models"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointID_Deterministic(t *testing.T) {
	a := PointID("abc_p1_0")
	b := PointID("abc_p1_0")
	c := PointID("abc_p1_1")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestPayloadRoundTrip(t *testing.T) {
	chunk := models.NewChunk(models.NewDocument("/x/report.pdf", "deadbeef"), 4, 2, "chunk body")

	values := qdrant.NewValueMap(payload(chunk.Entry()))
	got := fromPayload(values)

	assert.Equal(t, chunk.ID, got.ID)
	assert.Equal(t, "chunk body", got.Text)
	assert.Equal(t, chunk.Metadata, got.Metadata)
}

func TestToFilter(t *testing.T) {
	f, err := toFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = toFilter(models.Filter{models.FieldFileHash: "h", models.FieldPage: 3})
	require.NoError(t, err)
	require.Len(t, f.Must, 2)

	hashCond := f.Must[0].GetField()
	assert.Equal(t, models.FieldFileHash, hashCond.GetKey())
	assert.Equal(t, "h", hashCond.GetMatch().GetKeyword())

	pageCond := f.Must[1].GetField()
	assert.Equal(t, models.FieldPage, pageCond.GetKey())
	assert.Equal(t, int64(3), pageCond.GetMatch().GetInteger())

	_, err = toFilter(models.Filter{"author": "x"})
	assert.True(t, errors.Is(err, models.ErrInvalidFilter))
}

func TestCountRequest_AlwaysExact(t *testing.T) {
	req, err := countRequest("docs", models.Filter{models.FieldFileHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, "docs", req.GetCollectionName())
	assert.True(t, req.GetExact())
	require.Len(t, req.GetFilter().GetMust(), 1)

	req, err = countRequest("docs", nil)
	require.NoError(t, err)
	assert.True(t, req.GetExact())
	assert.Nil(t, req.GetFilter())

	_, err = countRequest("docs", models.Filter{"author": "x"})
	assert.True(t, errors.Is(err, models.ErrInvalidFilter))
}

func TestParseHostPort(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort int
	}{
		{"localhost:6334", "localhost", 6334},
		{"qdrant.internal:7000", "qdrant.internal", 7000},
		{"http://vec:6334", "vec", 6334},
		{"vec", "vec", 6334},
		{"", "localhost", 6334},
		{"vec:abc", "vec", 6334},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			host, port := parseHostPort(tt.addr, "localhost", 6334)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}
