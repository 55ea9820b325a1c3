// ABOUTME: Ingestion of uploaded byte streams via a temporary staging file
// ABOUTME: The staged file keeps the upload's base name and is always removed
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/harper/docqa/internal/models"
)

// IngestUpload stages r under filename's base name, ingests it and removes the staging directory
func (p *Pipeline) IngestUpload(ctx context.Context, filename string, r io.Reader) (models.IngestResult, error) {
	name := filepath.Base(filepath.Clean(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		err := fmt.Errorf("%w: invalid upload filename %q", models.ErrIO, filename)
		return p.fail(models.IngestResult{Path: filename, Source: filename}, err)
	}

	dir, err := os.MkdirTemp("", "docqa-upload-*")
	if err != nil {
		return p.fail(models.IngestResult{Path: filename, Source: name}, fmt.Errorf("%w: failed to create staging dir: %v", models.ErrIO, err))
	}
	defer os.RemoveAll(dir)

	staged := filepath.Join(dir, name)
	if err := writeFile(staged, r); err != nil {
		return p.fail(models.IngestResult{Path: filename, Source: name}, err)
	}

	res, err := p.IngestPath(ctx, staged)
	res.Path = filename
	return res, err
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to stage upload: %v", models.ErrIO, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: failed to write upload: %v", models.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close upload: %v", models.ErrIO, err)
	}
	return nil
}
