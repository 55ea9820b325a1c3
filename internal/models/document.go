// ABOUTME: Document and Page models for files moving through ingestion
// ABOUTME: A Document only lives for the duration of one ingestion call
package models

import "path/filepath"

// Document is a source file identified by the hash of its content
type Document struct {
	Path     string `json:"path"`
	FileHash string `json:"file_hash"`
	Name     string `json:"name"`
}

// NewDocument creates a Document whose display name is the file name only
func NewDocument(path, fileHash string) Document {
	return Document{
		Path:     path,
		FileHash: fileHash,
		Name:     filepath.Base(path),
	}
}

// Page is one logical page of extracted text. Numbers start at 1.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}
