// ABOUTME: Error taxonomy shared by the ingestion and retrieval pipeline
// ABOUTME: Sentinels are matched with errors.Is, BackendError with errors.As
package models

import (
	"errors"
	"fmt"
)

var (
	// ErrIO indicates a file could not be read.
	ErrIO = errors.New("file read failed")

	// ErrUnsupportedFileType indicates no extractor handles the file extension.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrExtraction indicates text extraction or recognition failed.
	ErrExtraction = errors.New("extraction failed")

	// ErrStore indicates a collection, insert or query failure in the vector store.
	ErrStore = errors.New("vector store failure")

	// ErrUnsupportedProvider indicates an unknown generation provider name.
	ErrUnsupportedProvider = errors.New("unsupported LLM provider")

	// ErrInvalidFilter indicates a query filter names an unknown field or has a bad value.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrCollectionNotFound is returned by backends when a collection is absent.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionExists is returned by backends when creating a collection that exists.
	ErrCollectionExists = errors.New("collection already exists")
)

// BackendError is an embedding or generation HTTP failure
type BackendError struct {
	Backend    string
	StatusCode int
	Body       string
	Err        error
}

func (e *BackendError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s error (status %d): %s", e.Backend, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s error (status %d)", e.Backend, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Backend, e.Err)
	}
	return e.Backend + " error"
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is a rate limit or server error
func (e *BackendError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
