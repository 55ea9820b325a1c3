// ABOUTME: Tests for Chunk model and chunk identifier derivation
// ABOUTME: Verifies deterministic ids and metadata population
package models

import "testing"

func TestChunkID(t *testing.T) {
	tests := []struct {
		name  string
		hash  string
		page  int
		index int
		want  string
	}{
		{"first chunk first page", "abc", 1, 0, "abc_p1_0"},
		{"later page", "abc", 12, 3, "abc_p12_3"},
		{"full digest", "e3b0c442", 2, 10, "e3b0c442_p2_10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChunkID(tt.hash, tt.page, tt.index); got != tt.want {
				t.Errorf("ChunkID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewChunk(t *testing.T) {
	doc := NewDocument("/tmp/uploads/report.pdf", "deadbeef")

	chunk := NewChunk(doc, 3, 1, "some text")

	if chunk.ID != "deadbeef_p3_1" {
		t.Errorf("ID = %q, want deadbeef_p3_1", chunk.ID)
	}
	if chunk.Index != 1 {
		t.Errorf("Index = %d, want 1", chunk.Index)
	}
	want := Metadata{Source: "report.pdf", FileHash: "deadbeef", Page: 3, ChunkOnPage: 1}
	if chunk.Metadata != want {
		t.Errorf("Metadata = %+v, want %+v", chunk.Metadata, want)
	}

	entry := chunk.Entry()
	if entry.ID != chunk.ID || entry.Text != chunk.Text || entry.Metadata != chunk.Metadata {
		t.Errorf("Entry() = %+v, does not mirror chunk %+v", entry, chunk)
	}
}

func TestNewChunk_SamePositionSameID(t *testing.T) {
	a := NewChunk(NewDocument("/a/one.txt", "h"), 1, 0, "x")
	b := NewChunk(NewDocument("/b/two.txt", "h"), 1, 0, "x")

	if a.ID != b.ID {
		t.Errorf("IDs differ for identical content: %q vs %q", a.ID, b.ID)
	}
	if a.Metadata.Source == b.Metadata.Source {
		t.Error("Source should follow the file name")
	}
}

func TestMetadata_Field(t *testing.T) {
	m := Metadata{Source: "a.txt", FileHash: "h", Page: 2, ChunkOnPage: 5}

	tests := []struct {
		field string
		want  any
		ok    bool
	}{
		{FieldSource, "a.txt", true},
		{FieldFileHash, "h", true},
		{FieldPage, 2, true},
		{FieldChunkOnPage, 5, true},
		{"author", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := m.Field(tt.field)
			if ok != tt.ok {
				t.Fatalf("Field(%q) ok = %v, want %v", tt.field, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Field(%q) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}
