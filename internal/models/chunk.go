// ABOUTME: Chunk represents a bounded slice of one page's text ready for embedding
// ABOUTME: Defines chunk metadata and the deterministic chunk identifier scheme
package models

import "fmt"

// Metadata keys stored alongside every chunk
const (
	FieldSource      = "source"
	FieldFileHash    = "file_hash"
	FieldPage        = "page"
	FieldChunkOnPage = "chunk_on_page"
)

// Metadata is the bag of attributes persisted with each chunk
type Metadata struct {
	Source      string `json:"source"`
	FileHash    string `json:"file_hash"`
	Page        int    `json:"page"`
	ChunkOnPage int    `json:"chunk_on_page"`
}

// Field returns the value of a named metadata field
func (m Metadata) Field(name string) (any, bool) {
	switch name {
	case FieldSource:
		return m.Source, true
	case FieldFileHash:
		return m.FileHash, true
	case FieldPage:
		return m.Page, true
	case FieldChunkOnPage:
		return m.ChunkOnPage, true
	}
	return nil, false
}

// Chunk is one piece of a page's text
type Chunk struct {
	ID       string   `json:"id"`
	Index    int      `json:"index"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// ChunkID derives the storage identifier for a chunk.
// It doubles as the upsert key, so it must stay stable for identical content.
func ChunkID(fileHash string, page, index int) string {
	return fmt.Sprintf("%s_p%d_%d", fileHash, page, index)
}

// NewChunk builds a chunk for the given document page and position
func NewChunk(doc Document, page, index int, text string) Chunk {
	return Chunk{
		ID:    ChunkID(doc.FileHash, page, index),
		Index: index,
		Text:  text,
		Metadata: Metadata{
			Source:      doc.Name,
			FileHash:    doc.FileHash,
			Page:        page,
			ChunkOnPage: index,
		},
	}
}

// Entry is the (id, text, metadata) triple handed to the vector store
type Entry struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Entry converts a chunk to a store entry
func (c Chunk) Entry() Entry {
	return Entry{ID: c.ID, Text: c.Text, Metadata: c.Metadata}
}
