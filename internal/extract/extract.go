// ABOUTME: Page extraction routed by file extension
// ABOUTME: Plain text becomes one page, PDFs are read per page with recognition as fallback, images are recognized
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harper/docqa/internal/models"
)

// Recognizer turns images into text
type Recognizer interface {
	// RecognizeImage returns the text found in a single image file
	RecognizeImage(ctx context.Context, path string) (string, error)
	// RecognizePDF rasterizes every page of a PDF and recognizes each one.
	// Pages keep their original 1-based numbers and may have empty text.
	RecognizePDF(ctx context.Context, path string) ([]models.Page, error)
}

// PDFTextReader returns the embedded text of each PDF page in page order
type PDFTextReader func(path string) ([]string, error)

type kind int

const (
	kindText kind = iota
	kindPDF
	kindImage
)

var extensions = map[string]kind{
	".txt":  kindText,
	".md":   kindText,
	".pdf":  kindPDF,
	".png":  kindImage,
	".jpg":  kindImage,
	".jpeg": kindImage,
	".tiff": kindImage,
}

// SupportedExtensions lists the extensions Extract accepts, sorted
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether the path has an extension Extract can handle
func Supported(path string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extractor produces pages from files on disk
type Extractor struct {
	recognizer Recognizer
	readPDF    PDFTextReader
}

// Option configures an Extractor
type Option func(*Extractor)

// WithPDFTextReader replaces the embedded-text PDF reader
func WithPDFTextReader(r PDFTextReader) Option {
	return func(e *Extractor) {
		e.readPDF = r
	}
}

// New creates an Extractor. A nil recognizer disables image and scanned-PDF support.
func New(recognizer Recognizer, opts ...Option) *Extractor {
	e := &Extractor{
		recognizer: recognizer,
		readPDF:    ReadPDFText,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the pages of the file at path
func (e *Extractor) Extract(ctx context.Context, path string) ([]models.Page, error) {
	ext := strings.ToLower(filepath.Ext(path))
	k, ok := extensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedFileType, ext)
	}

	switch k {
	case kindText:
		return e.extractText(path)
	case kindPDF:
		return e.extractPDF(ctx, path)
	default:
		return e.extractImage(ctx, path)
	}
}

func (e *Extractor) extractText(path string) ([]models.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", models.ErrIO, path, err)
	}
	text := strings.ToValidUTF8(string(data), "")
	return []models.Page{{Number: 1, Text: text}}, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) ([]models.Page, error) {
	texts, err := e.readPDF(path)
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, models.Page{Number: i + 1, Text: text})
	}
	if len(pages) > 0 {
		return pages, nil
	}

	if e.recognizer == nil {
		return nil, fmt.Errorf("%w: %s has no text layer and no recognizer is configured", models.ErrExtraction, filepath.Base(path))
	}

	recognized, err := e.recognizer.RecognizePDF(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to recognize %s: %v", models.ErrExtraction, filepath.Base(path), err)
	}
	for _, p := range recognized {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func (e *Extractor) extractImage(ctx context.Context, path string) ([]models.Page, error) {
	if e.recognizer == nil {
		return nil, fmt.Errorf("%w: no recognizer configured for %s", models.ErrExtraction, filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %v", models.ErrIO, path, err)
	}

	text, err := e.recognizer.RecognizeImage(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to recognize %s: %v", models.ErrExtraction, filepath.Base(path), err)
	}
	return []models.Page{{Number: 1, Text: text}}, nil
}
